package proxyv2

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result is the outcome of a single Decode call.
type Result struct {
	Header *Header
	Err    error
}

// NewResult combines the return values of Decode.
func NewResult(h *Header, err error) Result {
	if err != nil {
		return Result{Err: err}
	}
	return Result{Header: h}
}

// Kind returns the kind of r.Err, or 0 if r.Err is nil or not a decode error.
func (r Result) Kind() ErrorKind {
	var k ErrorKind
	if errors.As(r.Err, &k) {
		return k
	}
	return 0
}

// ExitCode returns 0 on success, ErrorKind.ExitCode for decode errors and 1
// for anything else.
func (r Result) ExitCode() int {
	if r.Err == nil {
		return 0
	}
	if k := r.Kind(); k != 0 {
		return k.ExitCode()
	}
	return 1
}

// Format selects how a Result is written.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Write writes r to w in the given format.
func (r Result) Write(w io.Writer, f Format) error {
	switch f {
	case FormatText, "":
		return r.WriteText(w)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r.Report()); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Report())
	}
	return fmt.Errorf("unknown format '%s'", f)
}

// WriteText writes one labeled line per decoded field.
func (r Result) WriteText(w io.Writer) error {
	p := &linePrinter{w: w}
	if r.Err != nil {
		r.writeErrText(p)
		return p.err
	}

	p.printf("PROXY v2 detected.\n")
	p.printf("Connection:\tPROXYed connection detected\n")
	p.header(r.Header)
	return p.err
}

// header prints the protocol, addresses and TLVs of h.
func (p *linePrinter) header(h *Header) {
	p.protocol(h.Transport)

	switch a := h.Addr.(type) {
	case *IPBlock:
		p.printf("Source IP:\t%s\n", a.SourceIP)
		p.printf("Destination IP:\t%s\n", a.DestIP)
		p.printf("Source port:\t%d\n", a.SourcePort)
		p.printf("Destination port:\t%d\n", a.DestPort)
	case UnixBlock:
		p.printf("ERROR:\tPrinting of UNIX socket addresses not implemented.\n")
	}

	for _, t := range h.TLVs {
		switch t.Type {
		case PP2TypeALPN:
			p.printf("ALPN extension:\t%s\n", t.Value)
		case PP2TypeAuthority:
			p.printf("Authority extension:\t%s\n", t.Value)
		case PP2TypeSSL:
			p.printf("PP2_TYPE_SSL client:\t0x%x\n", t.SSL.Client)
			p.printf("PP2_TYPE_SSL verify:\t0x%x\n", t.SSL.Verify)
			for _, s := range t.SSL.Sub {
				switch s.Type {
				case PP2SubTypeSSLVersion:
					p.printf("SSL_VERSION:\t%s\n", s.Value)
				case PP2SubTypeSSLCipher:
					p.printf("SSL_CIPHER:\t%s\n", s.Value)
				}
			}
		default:
			p.printf("ERROR:\tUnknown extension %d\n", t.Type)
		}
	}
}

func (p *linePrinter) protocol(t Transport) {
	p.printf("Protocol:\t%s\n", t)
	if !t.Supported() {
		p.printf("ERROR:\tProtocol unsupported\n")
	}
}

func (r Result) writeErrText(p *linePrinter) {
	var e *InvalidHeaderErr
	if !errors.As(r.Err, &e) {
		p.printf("ERROR:\t%v\n", r.Err)
		return
	}

	if e.Kind >= ErrVersionMismatch && e.Kind != ErrOutOfBounds {
		p.printf("PROXY v2 detected.\n")
	}
	if e.Kind >= ErrUnspecifiedTransport && e.Kind != ErrOutOfBounds {
		p.printf("Connection:\tPROXYed connection detected\n")
	}

	switch e.Kind {
	case ErrLengthTooShortForAddress, ErrLengthExceedsBuffer:
		if b, err := (cursor{buf: e.Read}).u8(13); err == nil {
			p.protocol(Transport(b))
		}
	case ErrExtensionBounds, ErrExtensionLengthMismatch:
		if e.Header != nil {
			p.header(e.Header)
		}
	}

	switch e.Kind {
	case ErrReadTooShort:
		p.printf("ERROR:\tread too few bytes.\n")
	case ErrUnsupportedV1:
		p.printf("ERROR:\tPROXY v1 parsing not supported in this tool.\n")
	case ErrBadSignature:
		p.printf("ERROR:\tNot a valid PROXY header\n")
	case ErrVersionMismatch:
		p.printf("ERROR:\t13th byte has illegal version %02x\n", e.Value)
	case ErrUnsupportedCommand:
		p.printf("ERROR:\tLOCAL connection\n")
	case ErrIllegalCommand:
		p.printf("ERROR:\t13th byte has illegal command %02x\n", e.Value)
	case ErrUnspecifiedTransport:
		p.printf("ERROR:\tProtocol:\tUnspecified/unsupported\n")
	case ErrIllegalFamilyTransport:
		p.printf("ERROR:\t14th byte has illegal value %02x\n", e.Value)
	case ErrLengthTooShortForAddress:
		l, _ := cursor{buf: e.Read}.u16(14)
		p.printf("ERROR:\tThe total header length %d does not leave room for the addresses\n", HeaderLen+int(l))
	case ErrLengthExceedsBuffer:
		p.printf("ERROR:\tToo few bytes was read; %d\n", len(e.Read))
	case ErrExtensionBounds:
		p.printf("ERROR:\tExtension parse error\n")
		p.printf("Extensions data:%s\n", hexList(e.Read))
	case ErrExtensionLengthMismatch:
		p.printf("ERROR:\tBuffer overrun (%d / %d)\n", e.Offset, len(e.Read))
	default:
		p.printf("ERROR:\t%s\n", e.Kind)
	}
}

func hexList(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		fmt.Fprintf(&sb, " 0x%x", c)
	}
	return sb.String()
}

// linePrinter keeps the first write error.
type linePrinter struct {
	w   io.Writer
	err error
}

func (p *linePrinter) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Report is the structured form of a Result used by the YAML and JSON formats.
type Report struct {
	OK          bool              `yaml:"ok" json:"ok"`
	Error       *ErrorReport      `yaml:"error,omitempty" json:"error,omitempty"`
	Command     string            `yaml:"command,omitempty" json:"command,omitempty"`
	Protocol    string            `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	Unsupported bool              `yaml:"unsupported,omitempty" json:"unsupported,omitempty"`
	Source      string            `yaml:"source,omitempty" json:"source,omitempty"`
	Dest        string            `yaml:"dest,omitempty" json:"dest,omitempty"`
	Extensions  []ExtensionReport `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// ErrorReport describes a decode failure.
type ErrorReport struct {
	Kind     string `yaml:"kind" json:"kind"`
	ExitCode int    `yaml:"exit_code" json:"exit_code"`
	Message  string `yaml:"message" json:"message"`
	Offset   int    `yaml:"offset" json:"offset"`
	Data     string `yaml:"data,omitempty" json:"data,omitempty"`
}

// ExtensionReport describes one TLV extension.
type ExtensionReport struct {
	Type    uint8   `yaml:"type" json:"type"`
	Name    string  `yaml:"name" json:"name"`
	Value   string  `yaml:"value,omitempty" json:"value,omitempty"`
	Client  *uint8  `yaml:"client,omitempty" json:"client,omitempty"`
	Verify  *uint32 `yaml:"verify,omitempty" json:"verify,omitempty"`
	Version string  `yaml:"version,omitempty" json:"version,omitempty"`
	Cipher  string  `yaml:"cipher,omitempty" json:"cipher,omitempty"`
}

// Report converts r into its structured form.
func (r Result) Report() Report {
	if r.Err != nil {
		rep := Report{Error: &ErrorReport{ExitCode: r.ExitCode(), Message: r.Err.Error()}}
		var e *InvalidHeaderErr
		if errors.As(r.Err, &e) {
			rep.Error.Kind = kindNames[e.Kind]
			rep.Error.Offset = e.Offset
			rep.Error.Data = hex.EncodeToString(e.Read)
		}
		return rep
	}

	h := r.Header
	rep := Report{
		OK:          true,
		Command:     h.Command.String(),
		Protocol:    h.Transport.String(),
		Unsupported: h.Unsupported != nil,
	}
	if ip := h.IP(); ip != nil {
		rep.Source = ip.Source().String()
		rep.Dest = ip.Dest().String()
	}
	for _, t := range h.TLVs {
		er := ExtensionReport{Type: uint8(t.Type), Name: extNames[t.Type]}
		switch t.Type {
		case PP2TypeALPN, PP2TypeAuthority:
			er.Value = string(t.Value)
		case PP2TypeSSL:
			er.Client = &t.SSL.Client
			er.Verify = &t.SSL.Verify
			if v, ok := t.SSL.Find(PP2SubTypeSSLVersion); ok {
				er.Version = string(v)
			}
			if v, ok := t.SSL.Find(PP2SubTypeSSLCipher); ok {
				er.Cipher = string(v)
			}
		default:
			er.Name = "unknown"
			er.Value = hex.EncodeToString(t.Value)
		}
		rep.Extensions = append(rep.Extensions, er)
	}
	return rep
}

var extNames = map[PP2Type]string{
	PP2TypeALPN:      "alpn",
	PP2TypeAuthority: "authority",
	PP2TypeSSL:       "ssl",
}

var kindNames = map[ErrorKind]string{
	ErrReadTooShort:             "read_too_short",
	ErrUnsupportedV1:            "unsupported_v1_format",
	ErrBadSignature:             "bad_signature",
	ErrVersionMismatch:          "version_mismatch",
	ErrUnsupportedCommand:       "unsupported_command",
	ErrIllegalCommand:           "illegal_command",
	ErrUnspecifiedTransport:     "unspecified_transport",
	ErrIllegalFamilyTransport:   "illegal_family_transport",
	ErrUnsupportedTransport:     "unsupported_transport",
	ErrLengthTooShortForAddress: "length_too_short_for_address",
	ErrLengthExceedsBuffer:      "length_exceeds_buffer",
	ErrExtensionBounds:          "extension_bounds",
	ErrExtensionLengthMismatch:  "extension_length_mismatch",
	ErrOutOfBounds:              "out_of_bounds",
}
