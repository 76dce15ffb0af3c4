package socketshare

import "encoding/binary"

// HostToNetworkBO16 converts a 16-bit value from host byte order to network
// (big-endian) byte order. On a big-endian host this is the identity.
func HostToNetworkBO16(value uint16) uint16 {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], value)
	return hostUint16(buf[:])
}

// NetworkToHostBO16 converts a 16-bit value from network byte order to host
// byte order. It is the inverse of HostToNetworkBO16.
func NetworkToHostBO16(value uint16) uint16 {
	return HostToNetworkBO16(value)
}

// HostToNetworkBO32 converts a 32-bit value from host byte order to network
// (big-endian) byte order.
func HostToNetworkBO32(value uint32) uint32 {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], value)
	return hostUint32(buf[:])
}

// NetworkToHostBO32 converts a 32-bit value from network byte order to host
// byte order. It is the inverse of HostToNetworkBO32.
func NetworkToHostBO32(value uint32) uint32 {
	return HostToNetworkBO32(value)
}

// HostToNetworkBO64 converts a 64-bit value from host byte order to network
// (big-endian) byte order.
func HostToNetworkBO64(value uint64) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	return hostUint64(buf[:])
}

// NetworkToHostBO64 converts a 64-bit value from network byte order to host
// byte order. It is the inverse of HostToNetworkBO64.
func NetworkToHostBO64(value uint64) uint64 {
	return HostToNetworkBO64(value)
}

// hostUint16/32/64 reinterpret a big-endian byte slice using the host's
// native integer layout, so these helpers are involutions regardless of the
// host's own endianness: on a little-endian host they reverse the bytes
// written by binary.BigEndian, on a big-endian host they are a no-op.
func hostUint16(buf []byte) uint16 {
	return binary.NativeEndian.Uint16(buf)
}

func hostUint32(buf []byte) uint32 {
	return binary.NativeEndian.Uint32(buf)
}

func hostUint64(buf []byte) uint64 {
	return binary.NativeEndian.Uint64(buf)
}
