package socketshare

// IPv4Address is a 32-bit IPv4 address stored as four octets in network
// order (the same layout as a C `struct in_addr`). It is a value type:
// callers copy it freely.
type IPv4Address struct {
	Octets [4]byte
}

// IPv6Address is a 128-bit IPv6 address plus the scoping metadata the
// original ABI carried alongside it.
//
//   - ScopeID is meaningful only for link-local addresses (spec.md §3); all
//     other addresses must carry zero.
//   - FlowInfo is preserved by ToHostBO/ToNetworkBO and is never
//     interpreted (spec.md §1 Non-goals: "IPv6 flow-label semantics"). It is
//     not passed to the OS when a socket is bound or connected, and
//     GetAnotherHostIPSocketAddress always reports it as zero.
type IPv6Address struct {
	Hextets  [8]uint16
	ScopeID  uint32
	FlowInfo uint32
}

// asU32 reinterprets the four IPv4 octets as a single big-endian integer,
// giving equality/zero checks a single machine-word comparison instead of a
// byte-by-byte loop. This is the explicit integer view called for by spec.md
// §9 ("Raw byte reinterpretation for address comparisons → explicit integer
// views") in place of the original's `reinterpret_cast<uint32_t&>`.
func (a IPv4Address) asU32() uint32 {
	return uint32(a.Octets[0])<<24 | uint32(a.Octets[1])<<16 | uint32(a.Octets[2])<<8 | uint32(a.Octets[3])
}

// asU128 reinterprets the eight IPv6 hextets as a 128-bit value split across
// two uint64 halves, mirroring asU32's role for the wider address.
func (a IPv6Address) asU128() (hi, lo uint64) {
	hi = uint64(a.Hextets[0])<<48 | uint64(a.Hextets[1])<<32 | uint64(a.Hextets[2])<<16 | uint64(a.Hextets[3])
	lo = uint64(a.Hextets[4])<<48 | uint64(a.Hextets[5])<<32 | uint64(a.Hextets[6])<<16 | uint64(a.Hextets[7])
	return hi, lo
}

// IsZero reports whether every octet of addr is zero.
func (a IPv4Address) IsZero() bool {
	return a.asU32() == 0
}

// IsLoopback reports whether addr lies in 127.0.0.0/8.
func (a IPv4Address) IsLoopback() bool {
	return a.Octets[0] == 127
}

// IsLinkLocal reports whether addr lies in 169.254.0.0/16.
func (a IPv4Address) IsLinkLocal() bool {
	return a.Octets[0] == 169 && a.Octets[1] == 254
}

// IsPrivate reports whether addr lies in 10.0.0.0/8, 172.16.0.0/12, or
// 192.168.0.0/16 (RFC 1918).
func (a IPv4Address) IsPrivate() bool {
	if a.Octets[0] == 10 {
		return true
	}
	if a.Octets[0] == 172 && a.Octets[1]&0xF0 == 16 {
		return true
	}
	return a.Octets[0] == 192 && a.Octets[1] == 168
}

// IsZero reports whether every hextet of addr is zero. ScopeID and FlowInfo
// are not considered part of address identity.
func (a IPv6Address) IsZero() bool {
	hi, lo := a.asU128()
	return hi == 0 && lo == 0
}

// IsLoopback reports whether addr is exactly ::1.
func (a IPv6Address) IsLoopback() bool {
	hi, lo := a.asU128()
	return hi == 0 && lo == 1
}

// IsLinkLocal reports whether addr lies in fe80::/10.
func (a IPv6Address) IsLinkLocal() bool {
	return a.Hextets[0]&0xFFC0 == 0xFE80
}

// IsPrivate reports whether addr lies in fd00::/8.
//
// spec.md §9 Open Question 2 flags a discrepancy between the original's
// `fd00::/8` and RFC 4193's `fc00::/7`; this module follows spec.md's own
// definition (§4.1, GLOSSARY) since that is the document being implemented.
func (a IPv6Address) IsPrivate() bool {
	return a.Hextets[0]&0xFF00 == 0xFD00
}

// ToHostBO returns addr with every hextet converted from network to host
// byte order. ScopeID and FlowInfo are preserved bitwise (spec.md §4.1).
func (a IPv6Address) ToHostBO() IPv6Address {
	out := a
	for i, h := range a.Hextets {
		out.Hextets[i] = NetworkToHostBO16(h)
	}
	return out
}

// ToNetworkBO returns addr with every hextet converted from host to network
// byte order. ScopeID and FlowInfo are preserved bitwise (spec.md §4.1).
func (a IPv6Address) ToNetworkBO() IPv6Address {
	out := a
	for i, h := range a.Hextets {
		out.Hextets[i] = HostToNetworkBO16(h)
	}
	return out
}

// IsLinkLocalInNetworkBO applies IsLinkLocal's mask against a hextet[0]
// already in network byte order, avoiding a byte swap in the hot path
// (spec.md §4.1).
func (a IPv6Address) IsLinkLocalInNetworkBO() bool {
	return a.Hextets[0]&HostToNetworkBO16(0xFFC0) == HostToNetworkBO16(0xFE80)
}

// IsPrivateInNetworkBO applies IsPrivate's mask against a hextet[0] already
// in network byte order (spec.md §4.1).
func (a IPv6Address) IsPrivateInNetworkBO() bool {
	return a.Hextets[0]&HostToNetworkBO16(0xFF00) == HostToNetworkBO16(0xFD00)
}

// IsLoopbackInNetworkBO applies IsLoopback's check against an address
// already in network byte order (spec.md §4.1).
func (a IPv6Address) IsLoopbackInNetworkBO() bool {
	return a.ToHostBO().IsLoopback()
}
