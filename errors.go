package proxyv2

import "fmt"

// ErrorKind identifies why a header could not be decoded. ErrorKind
// implements error so callers can match with errors.Is.
type ErrorKind int

const (
	// ErrReadTooShort means fewer than 16 bytes were available.
	ErrReadTooShort ErrorKind = iota + 1

	// ErrUnsupportedV1 means the data is a text (version 1) header, which is recognized but not decoded.
	ErrUnsupportedV1

	// ErrBadSignature means the 12 byte signature did not match.
	ErrBadSignature

	// ErrVersionMismatch means the version nibble was not 2.
	ErrVersionMismatch

	// ErrUnsupportedCommand means a LOCAL command, which is valid but carries no addresses to show.
	ErrUnsupportedCommand

	// ErrIllegalCommand means the command nibble was neither LOCAL nor PROXY.
	ErrIllegalCommand

	// ErrUnspecifiedTransport means the UNSPEC family and transport were used.
	ErrUnspecifiedTransport

	// ErrIllegalFamilyTransport means byte 13 is not a known family/transport pair.
	ErrIllegalFamilyTransport

	// ErrUnsupportedTransport marks UDP and UNIX headers. It is reported in
	// Header.Unsupported and never returned from Decode.
	ErrUnsupportedTransport

	// ErrLengthTooShortForAddress means the length field leaves no room for the address block.
	ErrLengthTooShortForAddress

	// ErrLengthExceedsBuffer means the length field points past the data read.
	ErrLengthExceedsBuffer

	// ErrExtensionBounds means a TLV header or value ran past the extension area.
	ErrExtensionBounds

	// ErrExtensionLengthMismatch means the TLVs did not consume the extension area exactly.
	ErrExtensionLengthMismatch

	// ErrOutOfBounds means a read past the end of the buffer was attempted.
	// It indicates a bug in the decoder rather than bad input.
	ErrOutOfBounds
)

var kindText = map[ErrorKind]string{
	ErrReadTooShort:             "read too few bytes",
	ErrUnsupportedV1:            "PROXY v1 parsing not supported",
	ErrBadSignature:             "not a valid PROXY header",
	ErrVersionMismatch:          "illegal version",
	ErrUnsupportedCommand:       "LOCAL connection",
	ErrIllegalCommand:           "illegal command",
	ErrUnspecifiedTransport:     "unspecified/unsupported protocol",
	ErrIllegalFamilyTransport:   "illegal address family/transport",
	ErrUnsupportedTransport:     "protocol unsupported",
	ErrLengthTooShortForAddress: "header length does not leave room for the addresses",
	ErrLengthExceedsBuffer:      "too few bytes read for header length",
	ErrExtensionBounds:          "extension parse error",
	ErrExtensionLengthMismatch:  "extension length mismatch",
	ErrOutOfBounds:              "read out of bounds",
}

func (k ErrorKind) Error() string { return k.String() }

func (k ErrorKind) String() string {
	if s, ok := kindText[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Fatal reports whether decoding stops on this kind.
func (k ErrorKind) Fatal() bool { return k != ErrUnsupportedTransport }

// ExitCode returns a distinct, stable process exit status for the kind.
// Non-fatal kinds return 0.
func (k ErrorKind) ExitCode() int {
	if !k.Fatal() {
		return 0
	}
	return int(k) + 1
}

// InvalidHeaderErr contains the decoding error as well as the data involved.
type InvalidHeaderErr struct {
	Kind ErrorKind

	// Offset is where decoding stopped. For extension errors it is relative
	// to the start of the extension area.
	Offset int

	// Value is the offending byte for version, command and family/transport errors.
	Value byte

	// Read holds the bytes relevant to the failure: the full header for
	// header errors, or the extension area for extension errors.
	Read []byte

	// Header is set for extension errors. It holds the addresses and the
	// TLVs decoded before the failure.
	Header *Header
}

func (e *InvalidHeaderErr) Error() string {
	switch e.Kind {
	case ErrVersionMismatch, ErrIllegalCommand, ErrIllegalFamilyTransport, ErrUnsupportedTransport:
		return fmt.Sprintf("proxyv2: %s %02x", e.Kind, e.Value)
	}
	return fmt.Sprintf("proxyv2: %s at offset %d", e.Kind, e.Offset)
}

func (e *InvalidHeaderErr) Unwrap() error { return e.Kind }
