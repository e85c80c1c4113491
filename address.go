package proxyv2

import "net/netip"

// AddressBlock holds the addresses carried by a header. Its concrete type
// is determined by the header's Transport: *IPBlock for TCP/UDP over
// IPv4/IPv6, UnixBlock for both UNIX transports.
type AddressBlock interface {
	// Len returns the size of the block on the wire.
	Len() int
}

// IPBlock contains IPv4 or IPv6 endpoints.
type IPBlock struct {
	SourceIP   netip.Addr
	DestIP     netip.Addr
	SourcePort uint16
	DestPort   uint16
}

// Len returns 12 for IPv4 and 36 for IPv6.
func (b *IPBlock) Len() int {
	if b.SourceIP.Is4() {
		return 12
	}
	return 36
}

// Source returns the source address and port.
func (b *IPBlock) Source() netip.AddrPort { return netip.AddrPortFrom(b.SourceIP, b.SourcePort) }

// Dest returns the destination address and port.
func (b *IPBlock) Dest() netip.AddrPort { return netip.AddrPortFrom(b.DestIP, b.DestPort) }

// UnixBlock marks a UNIX address block. The two 108 byte path fields are
// skipped, not decoded.
type UnixBlock struct{}

// Len always returns 216.
func (UnixBlock) Len() int { return 216 }

// NoAddress is used when no address block is present.
type NoAddress struct{}

// Len always returns 0.
func (NoAddress) Len() int { return 0 }

// decodeAddress decodes the address block for t. c must cover exactly
// t.AddrLen() bytes.
func decodeAddress(t Transport, c cursor) (AddressBlock, error) {
	var ipLen int
	switch t.Family() {
	case AddrFamilyInet:
		ipLen = 4
	case AddrFamilyInet6:
		ipLen = 16
	case AddrFamilyUnix:
		if _, err := c.read(0, UnixBlock{}.Len()); err != nil {
			return nil, err
		}
		return UnixBlock{}, nil
	default:
		return NoAddress{}, nil
	}

	src, err := c.read(0, ipLen)
	if err != nil {
		return nil, err
	}
	dst, err := c.read(ipLen, ipLen)
	if err != nil {
		return nil, err
	}
	srcPort, err := c.u16(2 * ipLen)
	if err != nil {
		return nil, err
	}
	dstPort, err := c.u16(2*ipLen + 2)
	if err != nil {
		return nil, err
	}

	srcIP, _ := netip.AddrFromSlice(src)
	dstIP, _ := netip.AddrFromSlice(dst)
	return &IPBlock{
		SourceIP:   srcIP,
		DestIP:     dstIP,
		SourcePort: srcPort,
		DestPort:   dstPort,
	}, nil
}
