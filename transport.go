package proxyv2

// Transport is the combined address family and transport protocol byte (byte 13).
type Transport byte

// Transports known to protocol version 2.
const (
	TransportUnspec     = Transport(byte(AddrFamilyUnspec)<<4 | byte(ProtoUnspec))
	TransportTCPv4      = Transport(byte(AddrFamilyInet)<<4 | byte(ProtoStream))
	TransportUDPv4      = Transport(byte(AddrFamilyInet)<<4 | byte(ProtoDGram))
	TransportTCPv6      = Transport(byte(AddrFamilyInet6)<<4 | byte(ProtoStream))
	TransportUDPv6      = Transport(byte(AddrFamilyInet6)<<4 | byte(ProtoDGram))
	TransportUnixStream = Transport(byte(AddrFamilyUnix)<<4 | byte(ProtoStream))
	TransportUnixDgram  = Transport(byte(AddrFamilyUnix)<<4 | byte(ProtoDGram))
)

type transportInfo struct {
	name      string
	addrLen   int
	supported bool
}

var transports = map[Transport]transportInfo{
	TransportUnspec:     {name: "Unspecified/unsupported"},
	TransportTCPv4:      {name: "TCP over IPv4", addrLen: 12, supported: true},
	TransportUDPv4:      {name: "UDP over IPv4", addrLen: 12},
	TransportTCPv6:      {name: "TCP over IPv6", addrLen: 36, supported: true},
	TransportUDPv6:      {name: "UDP over IPv6", addrLen: 36},
	TransportUnixStream: {name: "UNIX stream", addrLen: 216},
	TransportUnixDgram:  {name: "UNIX datagram", addrLen: 216},
}

// Family returns the address family (high nibble).
func (t Transport) Family() AddrFamily { return AddrFamily(t >> 4) }

// Proto returns the transport protocol (low nibble).
func (t Transport) Proto() Proto { return Proto(t & 0xf) }

// Known reports whether t is one of the defined family/transport pairs.
func (t Transport) Known() bool {
	_, ok := transports[t]
	return ok
}

// AddrLen returns the size of the address block for t.
func (t Transport) AddrLen() int { return transports[t].addrLen }

// Supported reports whether t is fully supported; UDP and UNIX
// headers decode but are flagged.
func (t Transport) Supported() bool { return transports[t].supported }

func (t Transport) String() string {
	if info, ok := transports[t]; ok {
		return info.name
	}
	return "Unknown"
}
