package main

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/mastercactapus/proxyv2"
)

func parseAddrPort(prefix, val string) (netip.AddrPort, error) {
	ap, err := netip.ParseAddrPort(val)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid %s '%s': %w", prefix, val, err)
	}
	if ap.Port() < 1 {
		return netip.AddrPort{}, fmt.Errorf("invalid %s port '%d': must be between 1-65535", prefix, ap.Port())
	}
	return ap, nil
}

type sampleOpts struct {
	typ        string
	src, dst   string
	alpn       string
	authority  string
	sslVersion string
	sslCipher  string
}

func (o sampleOpts) header() (*proxyv2.Header, error) {
	hdr := &proxyv2.Header{Command: proxyv2.CommandProxy}

	switch o.typ {
	case "unix":
		hdr.Transport = proxyv2.TransportUnixStream
		hdr.Addr = proxyv2.UnixBlock{}
	case "unixgram":
		hdr.Transport = proxyv2.TransportUnixDgram
		hdr.Addr = proxyv2.UnixBlock{}
	case "tcp", "udp":
		src, err := parseAddrPort("src", o.src)
		if err != nil {
			return nil, err
		}
		dst, err := parseAddrPort("dst", o.dst)
		if err != nil {
			return nil, err
		}
		if src.Addr().Unmap().Is4() != dst.Addr().Unmap().Is4() {
			return nil, fmt.Errorf("src and dst must both be IPv4 or IPv6")
		}
		v4 := src.Addr().Unmap().Is4()
		switch {
		case o.typ == "tcp" && v4:
			hdr.Transport = proxyv2.TransportTCPv4
		case o.typ == "tcp":
			hdr.Transport = proxyv2.TransportTCPv6
		case v4:
			hdr.Transport = proxyv2.TransportUDPv4
		default:
			hdr.Transport = proxyv2.TransportUDPv6
		}
		hdr.Addr = &proxyv2.IPBlock{
			SourceIP:   src.Addr(),
			DestIP:     dst.Addr(),
			SourcePort: src.Port(),
			DestPort:   dst.Port(),
		}
	default:
		return nil, fmt.Errorf("invalid type '%s'", o.typ)
	}

	if o.alpn != "" {
		hdr.TLVs = append(hdr.TLVs, proxyv2.TLV{Type: proxyv2.PP2TypeALPN, Value: []byte(o.alpn)})
	}
	if o.authority != "" {
		hdr.TLVs = append(hdr.TLVs, proxyv2.TLV{Type: proxyv2.PP2TypeAuthority, Value: []byte(o.authority)})
	}
	if o.sslVersion != "" || o.sslCipher != "" {
		ssl := proxyv2.SSL{Client: 0x01}
		if o.sslVersion != "" {
			ssl.Sub = append(ssl.Sub, proxyv2.TLV{Type: proxyv2.PP2SubTypeSSLVersion, Value: []byte(o.sslVersion)})
		}
		if o.sslCipher != "" {
			ssl.Sub = append(ssl.Sub, proxyv2.TLV{Type: proxyv2.PP2SubTypeSSLCipher, Value: []byte(o.sslCipher)})
		}
		val, err := ssl.MarshalBinary()
		if err != nil {
			return nil, err
		}
		hdr.TLVs = append(hdr.TLVs, proxyv2.TLV{Type: proxyv2.PP2TypeSSL, Value: val})
	}
	return hdr, nil
}

func newSampleCmd() *cobra.Command {
	var o sampleOpts
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a PROXY protocol version 2 header to stdout",
		Long: `Write a well-formed PROXY protocol version 2 header to stdout, for example:

	parse-proxy-v2 sample --alpn h2 | parse-proxy-v2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hdr, err := o.header()
			if err != nil {
				return err
			}
			_, err = hdr.WriteTo(cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("write header: %w", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.typ, "type", "tcp", "Address type (can be tcp, udp, unix, or unixgram).")
	f.StringVar(&o.src, "src", "127.0.0.1:123", "Source address to use.")
	f.StringVar(&o.dst, "dst", "127.0.1.1:456", "Destination address to use.")
	f.StringVar(&o.alpn, "alpn", "", "ALPN extension value.")
	f.StringVar(&o.authority, "authority", "", "Authority extension value.")
	f.StringVar(&o.sslVersion, "ssl-version", "", "SSL version sub-extension value.")
	f.StringVar(&o.sslCipher, "ssl-cipher", "", "SSL cipher sub-extension value.")
	return cmd
}
