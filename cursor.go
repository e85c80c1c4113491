package proxyv2

import "encoding/binary"

// cursor provides bounds-checked reads over a fixed buffer. Every decoder
// in this package reads through a cursor rather than indexing directly.
type cursor struct {
	buf []byte
}

// read returns buf[off:off+n], or ErrOutOfBounds if it would run past the end.
func (c cursor) read(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off > len(c.buf) || n > len(c.buf)-off {
		return nil, &InvalidHeaderErr{Kind: ErrOutOfBounds, Offset: off, Read: c.buf}
	}
	return c.buf[off : off+n], nil
}

func (c cursor) u8(off int) (byte, error) {
	b, err := c.read(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c cursor) u16(off int) (uint16, error) {
	b, err := c.read(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c cursor) u32(off int) (uint32, error) {
	b, err := c.read(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// sub returns a cursor over buf[off:off+n].
func (c cursor) sub(off, n int) (cursor, error) {
	b, err := c.read(off, n)
	if err != nil {
		return cursor{}, err
	}
	return cursor{buf: b}, nil
}

func (c cursor) len() int { return len(c.buf) }
