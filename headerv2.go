package proxyv2

import (
	"bytes"
	"errors"
)

var (
	sigV1 = []byte("PROXY TCP")
	sigV2 = []byte("\x0D\x0A\x0D\x0A\x00\x0D\x0A\x51\x55\x49\x54\x0A")
)

const (
	// HeaderLen is the size of the fixed part of a version 2 header.
	HeaderLen = 16

	// MaxHeaderLen is the largest header the length field can describe.
	MaxHeaderLen = HeaderLen + 0xffff

	versionMask = 0xf0
	commandMask = 0x0f
	version2    = 0x20
)

// Header contains information relayed by the PROXY protocol version 2 (binary) header.
type Header struct {
	Command   Command
	Transport Transport

	// Addr is *IPBlock or UnixBlock, depending on Transport.
	Addr AddressBlock

	// TLVs holds the extensions in wire order. It is never nil.
	TLVs []TLV

	// Unsupported is set to an *InvalidHeaderErr of kind
	// ErrUnsupportedTransport for valid UDP and UNIX headers.
	Unsupported error
}

type rawV2 struct {
	Sig      [12]byte
	VerCmd   byte
	FamProto byte
	Len      uint16
}

// Decode decodes a version 2 header from buf, which should hold the data
// from a single read. Bytes past the end of the header are ignored.
//
// Any error returned is an *InvalidHeaderErr.
func Decode(buf []byte) (*Header, error) {
	if len(buf) < HeaderLen {
		return nil, headerErr(ErrReadTooShort, len(buf), 0, buf)
	}
	c := cursor{buf: buf}

	h, err := validate(c)
	if err != nil {
		return nil, err
	}

	addrLen := h.Transport.AddrLen()
	length, err := c.u16(14)
	if err != nil {
		return nil, err
	}
	if int(length) < addrLen {
		return nil, headerErr(ErrLengthTooShortForAddress, 14, 0, buf)
	}
	if HeaderLen+int(length) > len(buf) {
		return nil, headerErr(ErrLengthExceedsBuffer, 14, 0, buf)
	}

	ac, err := c.sub(HeaderLen, addrLen)
	if err != nil {
		return nil, err
	}
	h.Addr, err = decodeAddress(h.Transport, ac)
	if err != nil {
		return nil, err
	}

	ec, err := c.sub(HeaderLen+addrLen, int(length)-addrLen)
	if err != nil {
		return nil, err
	}
	h.TLVs, err = ParseTLVs(ec.buf)
	if err != nil {
		var e *InvalidHeaderErr
		if errors.As(err, &e) {
			e.Header = h
		}
		return nil, err
	}

	return h, nil
}

// validate checks the signature, version, command and family/transport
// of the fixed 16 byte header.
func validate(c cursor) (*Header, error) {
	v1, err := c.read(0, len(sigV1))
	if err != nil {
		return nil, err
	}
	if bytes.Equal(v1, sigV1) {
		return nil, headerErr(ErrUnsupportedV1, 0, 0, c.buf)
	}
	sig, err := c.read(0, len(sigV2))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, sigV2) {
		return nil, headerErr(ErrBadSignature, 0, 0, c.buf)
	}

	verCmd, err := c.u8(12)
	if err != nil {
		return nil, err
	}
	// highest 4 indicate version
	if verCmd&versionMask != version2 {
		return nil, headerErr(ErrVersionMismatch, 12, verCmd, c.buf)
	}

	var h Header
	// lowest 4 = command
	h.Command = Command(verCmd & commandMask)
	switch h.Command {
	case CommandProxy:
	case CommandLocal:
		return nil, headerErr(ErrUnsupportedCommand, 12, verCmd, c.buf)
	default:
		return nil, headerErr(ErrIllegalCommand, 12, verCmd, c.buf)
	}

	famProto, err := c.u8(13)
	if err != nil {
		return nil, err
	}
	h.Transport = Transport(famProto)
	switch {
	case h.Transport == TransportUnspec:
		return nil, headerErr(ErrUnspecifiedTransport, 13, famProto, c.buf)
	case !h.Transport.Known():
		return nil, headerErr(ErrIllegalFamilyTransport, 13, famProto, c.buf)
	case !h.Transport.Supported():
		h.Unsupported = &InvalidHeaderErr{Kind: ErrUnsupportedTransport, Offset: 13, Value: famProto}
	}

	return &h, nil
}

func headerErr(kind ErrorKind, off int, value byte, buf []byte) error {
	return &InvalidHeaderErr{
		Kind:   kind,
		Offset: off,
		Value:  value,
		Read:   append([]byte(nil), buf...),
	}
}

// IP returns the address block of a TCP or UDP header, or nil.
func (h *Header) IP() *IPBlock {
	b, _ := h.Addr.(*IPBlock)
	return b
}
