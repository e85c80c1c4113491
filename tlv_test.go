package proxyv2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tlvBytes(t *testing.T, tlvs ...TLV) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, tlv := range tlvs {
		_, err := tlv.WriteTo(&buf)
		require.NoError(t, err)
	}
	return buf.Bytes()
}

func withExtensions(ext []byte) []byte {
	buf := join(tcp4Sections(uint16(12 + len(ext))))
	return append(buf, ext...)
}

func TestDecode_ALPN(t *testing.T) {
	data := join(append(tcp4Sections(0x11), section{name: "ALPN", value: []byte{0x01, 0x00, 0x02, 'h', '2'}}))
	hdr, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, hdr.TLVs, 1)
	assert.Equal(t, PP2TypeALPN, hdr.TLVs[0].Type)
	assert.Equal(t, []byte("h2"), hdr.TLVs[0].Value)

	v, ok := FindTLV(hdr, PP2TypeALPN)
	assert.True(t, ok)
	assert.Equal(t, "h2", string(v))
	_, ok = FindTLV(hdr, PP2TypeAuthority)
	assert.False(t, ok)
}

func TestDecode_ExtensionPastEnd(t *testing.T) {
	ext := []byte{0x01, 0x00, 0x05, 'h', '2'}
	_, err := Decode(withExtensions(ext))
	e := assertKind(t, ErrExtensionBounds, err)
	assert.Equal(t, ext, e.Read)
	assert.Equal(t, 3, e.Offset)

	require.NotNil(t, e.Header)
	assert.Equal(t, "10.0.0.1:8080", e.Header.IP().Source().String())
	assert.Empty(t, e.Header.TLVs)
}

func TestParseTLVs_Partial(t *testing.T) {
	tlvs, err := ParseTLVs([]byte{0x01, 0x00, 0x02, 'h', '2', 0x02, 0x00})
	assertKind(t, ErrExtensionBounds, err)
	assert.Equal(t, []TLV{{Type: PP2TypeALPN, Value: []byte("h2")}}, tlvs)
}

func TestParseTLVs(t *testing.T) {
	check := func(name string, data []byte, exp []TLV) {
		t.Run(name, func(t *testing.T) {
			tlvs, err := ParseTLVs(data)
			require.NoError(t, err)
			assert.Equal(t, exp, tlvs)
		})
	}

	check("empty", nil, []TLV{})
	check("alpn-authority", []byte{
		0x01, 0x00, 0x02, 'h', '2',
		0x02, 0x00, 0x0b, 'e', 'x', 'a', 'm', 'p', 'l', 'e', '.', 'c', 'o', 'm',
	}, []TLV{
		{Type: PP2TypeALPN, Value: []byte("h2")},
		{Type: PP2TypeAuthority, Value: []byte("example.com")},
	})
	check("unknown-then-alpn", []byte{
		0xee, 0x00, 0x01, 0x00,
		0x01, 0x00, 0x08, 'h', 't', 't', 'p', '/', '1', '.', '1',
	}, []TLV{
		{Type: 0xee, Value: []byte{0x00}},
		{Type: PP2TypeALPN, Value: []byte("http/1.1")},
	})
}

func TestParseTLVs_Bounds(t *testing.T) {
	check := func(name string, data []byte) {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTLVs(data)
			e := assertKind(t, ErrExtensionBounds, err)
			assert.Equal(t, data, e.Read)
		})
	}

	check("short-header", []byte{0x01, 0x00})
	check("header-only", []byte{0x01, 0x00, 0x01})
	check("zero-length", []byte{0x01, 0x00, 0x00, 0x00})
	check("past-end", []byte{0x01, 0x00, 0x03, 'h', '2'})
	check("trailing", []byte{0x01, 0x00, 0x02, 'h', '2', 0x02})
}

// Every prefix of a valid extension area either decodes or fails with
// a bounds error; nothing reads past the area.
func TestParseTLVs_Prefixes(t *testing.T) {
	ssl, err := SSL{
		Client: 0x07,
		Sub:    []TLV{{Type: PP2SubTypeSSLVersion, Value: []byte("TLSv1.3")}},
	}.MarshalBinary()
	require.NoError(t, err)
	data := tlvBytes(t,
		TLV{Type: PP2TypeALPN, Value: []byte("h2")},
		TLV{Type: PP2TypeSSL, Value: ssl},
		TLV{Type: PP2TypeNOOP, Value: []byte{0, 0, 0}},
	)

	for n := 0; n <= len(data); n++ {
		tlvs, err := ParseTLVs(data[:n])
		if err != nil {
			assertKind(t, ErrExtensionBounds, err)
			continue
		}
		assert.Equal(t, data[:n], tlvBytes(t, tlvs...), "prefix %d", n)
	}
}

func TestParseTLVs_SSL(t *testing.T) {
	value := []byte{
		0x05,                   // client
		0x00, 0x00, 0x00, 0x02, // verify
		// version
		0x21, 0x00, 0x07, 'T', 'L', 'S', 'v', '1', '.', '3',
		// common name, skipped
		0x22, 0x00, 0x02, 'c', 'n',
		// cipher
		0x23, 0x00, 0x06, 'A', 'E', 'S', '1', '2', '8',
	}
	tlvs, err := ParseTLVs(tlvBytes(t, TLV{Type: PP2TypeSSL, Value: value}))
	require.NoError(t, err)
	require.Len(t, tlvs, 1)

	ssl := tlvs[0].SSL
	require.NotNil(t, ssl)
	assert.Equal(t, byte(0x05), ssl.Client)
	assert.Equal(t, uint32(2), ssl.Verify)
	assert.Equal(t, []TLV{
		{Type: PP2SubTypeSSLVersion, Value: []byte("TLSv1.3")},
		{Type: PP2SubTypeSSLCipher, Value: []byte("AES128")},
	}, ssl.Sub)
	assert.Equal(t, value, tlvs[0].Value)

	v, ok := ssl.Find(PP2SubTypeSSLCipher)
	assert.True(t, ok)
	assert.Equal(t, "AES128", string(v))
	_, ok = ssl.Find(PP2SubTypeSSLCN)
	assert.False(t, ok)
}

func TestParseTLVs_SSLBounds(t *testing.T) {
	check := func(name string, value []byte) {
		t.Run(name, func(t *testing.T) {
			data := tlvBytes(t, TLV{Type: PP2TypeSSL, Value: value})
			_, err := ParseTLVs(data)
			e := assertKind(t, ErrExtensionBounds, err)
			assert.Equal(t, data, e.Read)
		})
	}

	check("no-verify", []byte{0x01, 0x00, 0x00})
	check("sub-header", []byte{0x01, 0, 0, 0, 0, 0x21, 0x00})
	check("sub-value", []byte{0x01, 0, 0, 0, 0, 0x21, 0x00, 0x09, 'T', 'L', 'S'})
}

func TestParseTLVs_SSLFollowedByALPN(t *testing.T) {
	// a sub-extension claiming more than the SSL value holds must not
	// be read from the following extension
	data := []byte{
		0x20, 0x00, 0x08, 0x01, 0, 0, 0, 0, 0x21, 0x00, 0x05,
		0x01, 0x00, 0x02, 'h', '2',
	}
	_, err := ParseTLVs(data)
	assertKind(t, ErrExtensionBounds, err)
}
