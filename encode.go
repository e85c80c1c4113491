package proxyv2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// WriteTo will write the header to w. UNIX address blocks are written as
// empty paths. A TLV with SSL set is written from SSL, not Value.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var rawHdr rawV2
	copy(rawHdr.Sig[:], sigV2)
	rawHdr.VerCmd = version2 | (commandMask & byte(h.Command))
	rawHdr.FamProto = byte(h.Transport)

	addr, err := encodeAddress(h.Transport, h.Addr)
	if err != nil {
		return 0, err
	}

	var ext bytes.Buffer
	for _, t := range h.TLVs {
		if t.SSL != nil {
			t.Value, err = t.SSL.MarshalBinary()
			if err != nil {
				return 0, err
			}
		}
		// zero length extensions are rejected by Decode
		if len(t.Value) == 0 {
			return 0, fmt.Errorf("empty value for TLV type 0x%02x", byte(t.Type))
		}
		if _, err := t.WriteTo(&ext); err != nil {
			return 0, err
		}
	}
	if len(addr)+ext.Len() > 0xffff {
		return 0, errors.New("header too long")
	}
	rawHdr.Len = uint16(len(addr) + ext.Len())

	var buf bytes.Buffer
	err = binary.Write(&buf, binary.BigEndian, rawHdr)
	if err != nil {
		return 0, err
	}
	buf.Write(addr)
	buf.Write(ext.Bytes())

	return buf.WriteTo(w)
}

// MarshalBinary returns the header in wire format.
func (h Header) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	_, err := h.WriteTo(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeAddress(t Transport, a AddressBlock) ([]byte, error) {
	switch t.Family() {
	case AddrFamilyUnspec:
		return nil, nil
	case AddrFamilyUnix:
		return make([]byte, UnixBlock{}.Len()), nil
	}

	ip, ok := a.(*IPBlock)
	if !ok || ip == nil {
		return nil, errors.New("missing IP address block")
	}
	src, dst := ip.SourceIP.Unmap(), ip.DestIP.Unmap()

	buf := make([]byte, 0, t.AddrLen())
	switch t.Family() {
	case AddrFamilyInet:
		if !src.Is4() {
			return nil, errors.New("invalid source address")
		}
		if !dst.Is4() {
			return nil, errors.New("invalid destination address")
		}
		s, d := src.As4(), dst.As4()
		buf = append(buf, s[:]...)
		buf = append(buf, d[:]...)
	case AddrFamilyInet6:
		if !ip.SourceIP.IsValid() {
			return nil, errors.New("invalid source address")
		}
		if !ip.DestIP.IsValid() {
			return nil, errors.New("invalid destination address")
		}
		s, d := ip.SourceIP.As16(), ip.DestIP.As16()
		buf = append(buf, s[:]...)
		buf = append(buf, d[:]...)
	default:
		return nil, errors.New("invalid address family")
	}
	buf = binary.BigEndian.AppendUint16(buf, ip.SourcePort)
	buf = binary.BigEndian.AppendUint16(buf, ip.DestPort)
	return buf, nil
}

// MarshalBinary returns the value of an SSL extension in wire format.
func (s SSL) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(s.Client)
	binary.Write(&buf, binary.BigEndian, s.Verify)
	for _, t := range s.Sub {
		if _, err := t.WriteTo(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
