package proxyv2

import (
	"encoding/binary"
	"errors"
	"io"
)

// TLV is a single type-length-value extension.
type TLV struct {
	Type  PP2Type
	Value []byte

	// SSL is set for PP2TypeSSL extensions.
	SSL *SSL
}

// SSL is the decoded value of a PP2TypeSSL extension.
type SSL struct {
	Client byte
	Verify uint32

	// Sub holds the PP2SubTypeSSLVersion and PP2SubTypeSSLCipher
	// sub-extensions in order. Other subtypes are skipped.
	Sub []TLV
}

type PP2Type byte

const (
	PP2TypeALPN      PP2Type = 0x01
	PP2TypeAuthority PP2Type = 0x02
	PP2TypeCRC32C    PP2Type = 0x03
	PP2TypeNOOP      PP2Type = 0x04
	PP2TypeUniqueID  PP2Type = 0x05
	PP2TypeSSL       PP2Type = 0x20
	PP2TypeNetNS     PP2Type = 0x30

	PP2SubTypeSSLVersion PP2Type = 0x21
	PP2SubTypeSSLCN      PP2Type = 0x22
	PP2SubTypeSSLCipher  PP2Type = 0x23
	PP2SubTypeSSLSigAlg  PP2Type = 0x24
	PP2SubTypeSSLKeyAlg  PP2Type = 0x25
)

// Known reports whether the tool decodes extensions of this type.
// Unknown extensions are kept but not interpreted.
func (t PP2Type) Known() bool {
	switch t {
	case PP2TypeALPN, PP2TypeAuthority, PP2TypeSSL:
		return true
	}
	return false
}

// tlvHeaderLen is the size of the type and length fields.
const tlvHeaderLen = 3

// ParseTLVs decodes the extension area of a header.
//
// Every entry must have a non-zero length that fits in b. SSL extensions
// are decoded further, and their sub-extensions must fit inside the SSL
// value. Unknown types are returned as-is.
//
// On error the TLVs decoded before the failure are returned with it.
func ParseTLVs(b []byte) ([]TLV, error) {
	c := cursor{buf: b}
	n := c.len()
	res := make([]TLV, 0)

	i := 0
	for i < n {
		// the smallest valid entry is a header and one byte of value
		if i > n-(tlvHeaderLen+1) {
			return res, extErr(ErrExtensionBounds, i, b)
		}
		typ, err := c.u8(i)
		if err != nil {
			return res, err
		}
		l, err := c.u16(i + 1)
		if err != nil {
			return res, err
		}
		i += tlvHeaderLen
		if l == 0 || i+int(l) > n {
			return res, extErr(ErrExtensionBounds, i, b)
		}

		vc, err := c.sub(i, int(l))
		if err != nil {
			return res, err
		}
		t := TLV{
			Type:  PP2Type(typ),
			Value: append([]byte(nil), vc.buf...),
		}
		if t.Type == PP2TypeSSL {
			t.SSL, err = parseSSL(vc, i, b)
			if err != nil {
				return res, err
			}
		}
		res = append(res, t)
		i += int(l)
	}
	if i != n {
		return res, extErr(ErrExtensionLengthMismatch, i, b)
	}

	return res, nil
}

// parseSSL decodes an SSL extension value. base is the offset of the
// value within the extension area, used for error reporting.
func parseSSL(c cursor, base int, area []byte) (*SSL, error) {
	n := c.len()
	if n < 5 {
		return nil, extErr(ErrExtensionBounds, base, area)
	}
	client, err := c.u8(0)
	if err != nil {
		return nil, err
	}
	verify, err := c.u32(1)
	if err != nil {
		return nil, err
	}
	ssl := &SSL{Client: client, Verify: verify}

	// sub-extensions are held to the bounds of the SSL value
	j := 5
	for j < n {
		if j > n-tlvHeaderLen {
			return nil, extErr(ErrExtensionBounds, base+j, area)
		}
		sub, err := c.u8(j)
		if err != nil {
			return nil, err
		}
		l, err := c.u16(j + 1)
		if err != nil {
			return nil, err
		}
		j += tlvHeaderLen
		if j+int(l) > n {
			return nil, extErr(ErrExtensionBounds, base+j, area)
		}
		switch PP2Type(sub) {
		case PP2SubTypeSSLVersion, PP2SubTypeSSLCipher:
			v, err := c.read(j, int(l))
			if err != nil {
				return nil, err
			}
			ssl.Sub = append(ssl.Sub, TLV{Type: PP2Type(sub), Value: append([]byte(nil), v...)})
		}
		j += int(l)
	}

	return ssl, nil
}

func extErr(kind ErrorKind, off int, area []byte) error {
	return &InvalidHeaderErr{Kind: kind, Offset: off, Read: append([]byte(nil), area...)}
}

func (t TLV) WriteTo(w io.Writer) (int64, error) {
	if len(t.Value) > 0xffff {
		return 0, errors.New("TLV value too long")
	}

	var hdr [tlvHeaderLen]byte
	hdr[0] = byte(t.Type)
	binary.BigEndian.PutUint16(hdr[1:], uint16(len(t.Value)))

	n, err := w.Write(hdr[:])
	if err != nil {
		return int64(n), err
	}

	n, err = w.Write(t.Value)
	return int64(tlvHeaderLen + n), err
}

// FindTLV is a convenience function to find the first value of a TLV
// in a Header.
func FindTLV(h *Header, t PP2Type) (value []byte, has bool) {
	if h == nil {
		return nil, false
	}
	for _, tlv := range h.TLVs {
		if tlv.Type != t {
			continue
		}

		return tlv.Value, true
	}

	return nil, false
}

// Find returns the first sub-extension of type t.
func (s *SSL) Find(t PP2Type) (value []byte, has bool) {
	for _, tlv := range s.Sub {
		if tlv.Type == t {
			return tlv.Value, true
		}
	}
	return nil, false
}
