/*
Package proxyv2 decodes and validates PROXY protocol version 2 headers.

Decode is a pure function of a byte slice: it checks the signature, version
and command, decodes the address block for the family/transport in the
header and walks the TLV extensions, including the sub-extensions of the
SSL extension. Every read goes through a bounds-checked cursor.

	buf, err := proxyv2.ReadHeader(os.Stdin)
	if err != nil {
		// handle error
	}
	res := proxyv2.NewResult(proxyv2.Decode(buf))
	res.WriteText(os.Stdout)
	os.Exit(res.ExitCode())

Headers are sorted three ways: invalid (Decode returns an *InvalidHeaderErr),
valid but unsupported (UDP and UNIX transports decode with
Header.Unsupported set) and supported. Text (version 1) headers are
recognized and rejected with ErrUnsupportedV1.
*/
package proxyv2
