//go:build !windows

package socketshare

import (
	"errors"

	"golang.org/x/sys/unix"
)

const (
	rawSocketStream = unix.SOCK_STREAM
	rawSocketDgram  = unix.SOCK_DGRAM
)

// rawCreateSocket opens a non-blocking socket of the given family/type,
// translating unix.Socket's errno through the "socket" row of spec.md
// §4.3's mapping table. Non-blocking mode is set immediately after the raw
// handle is created (spec.md §4.5); failure to set it closes the handle and
// fails the call.
func rawCreateSocket(family socketFamily, typ int) (uintptr, *Error) {
	domain := unix.AF_INET
	if family == familyIPv6 {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, typ, 0)
	if err != nil {
		return 0, classifySocketError(err, family, typ)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return 0, newSystemError(err)
	}

	return uintptr(fd), nil
}

// classifySocketError maps unix.Socket's errno to an ErrorKind, choosing
// among the per-family/per-protocol "not supported" kinds by the family and
// type actually requested rather than a fixed pair of kinds (spec.md:84:
// "af-not-supported -> IPv4/IPv6IsNotSupported (by family)").
func classifySocketError(err error, family socketFamily, typ int) *Error {
	switch {
	case errors.Is(err, unix.EAFNOSUPPORT):
		if family == familyIPv6 {
			return newError(ErrorKindIPv6IsNotSupported)
		}
		return newError(ErrorKindIPv4IsNotSupported)
	case errors.Is(err, unix.EPROTONOSUPPORT), errors.Is(err, unix.EPROTOTYPE):
		return newError(protocolNotSupportedKind(family, typ))
	case errors.Is(err, unix.EMFILE), errors.Is(err, unix.ENFILE):
		return newError(ErrorKindSystemSocketLimitIsReached)
	case errors.Is(err, unix.ENOMEM), errors.Is(err, unix.ENOBUFS):
		return newError(ErrorKindNotEnoughMemory)
	default:
		return newSystemError(err)
	}
}

// protocolNotSupportedKind picks the exact ErrorKind out of the
// IPv{4,6}{TCP,UDP}IsNotSupported quartet (spec.md:182) for the
// family/type pair that failed.
func protocolNotSupportedKind(family socketFamily, typ int) ErrorKind {
	switch {
	case family == familyIPv4 && typ == rawSocketStream:
		return ErrorKindIPv4TCPIsNotSupported
	case family == familyIPv4 && typ == rawSocketDgram:
		return ErrorKindIPv4UDPIsNotSupported
	case family == familyIPv6 && typ == rawSocketStream:
		return ErrorKindIPv6TCPIsNotSupported
	default:
		return ErrorKindIPv6UDPIsNotSupported
	}
}

func sockaddrIPv4(addr IPv4Address, port uint16) *unix.SockaddrInet4 {
	return &unix.SockaddrInet4{Port: int(port), Addr: addr.Octets}
}

// sockaddrIPv6 builds a wire-format sockaddr from addr, which is in network
// byte order as every IPv6Address crossing the library boundary is; it is
// converted to natural per-hextet values before being serialized so the
// resulting bytes are correct regardless of host endianness.
func sockaddrIPv6(addr IPv6Address, port uint16) *unix.SockaddrInet6 {
	natural := addr.ToHostBO()
	var raw [16]byte
	for i, h := range natural.Hextets {
		raw[2*i] = byte(h >> 8)
		raw[2*i+1] = byte(h)
	}
	return &unix.SockaddrInet6{Port: int(port), ZoneId: addr.ScopeID, Addr: raw}
}

// rawBindIPv4 binds fd to (addr, port), translating errno through the
// "bind" row of spec.md §4.3's mapping table. The second return value
// reports whether the failure was specifically EADDRINUSE, which the
// ephemeral-port connect retry loop treats specially (spec.md §4.5).
func rawBindIPv4(fd uintptr, addr IPv4Address, port uint16) (*Error, bool) {
	err := unix.Bind(int(fd), sockaddrIPv4(addr, port))
	if err == nil {
		return nil, false
	}
	return classifyBindError(err), errors.Is(err, unix.EADDRINUSE)
}

func rawBindIPv6(fd uintptr, addr IPv6Address, port uint16) (*Error, bool) {
	err := unix.Bind(int(fd), sockaddrIPv6(addr, port))
	if err == nil {
		return nil, false
	}
	return classifyBindError(err), errors.Is(err, unix.EADDRINUSE)
}

func classifyBindError(err error) *Error {
	switch {
	case errors.Is(err, unix.EADDRNOTAVAIL):
		return newError(ErrorKindUnavailableIPAddress)
	case errors.Is(err, unix.EADDRINUSE), errors.Is(err, unix.EACCES):
		return newError(ErrorKindSocketAddressIsTaken)
	case errors.Is(err, unix.ENOBUFS):
		return newError(ErrorKindAllDynamicPortsAreTaken)
	case errors.Is(err, unix.EINVAL):
		return newError(ErrorKindPortNumberIsInvalid)
	default:
		return newSystemError(err)
	}
}

// rawListen translates unix.Listen's errno through the "listen" row of
// spec.md §4.3's mapping table.
func rawListen(fd uintptr, backlog int) *Error {
	err := unix.Listen(int(fd), backlog)
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, unix.EOPNOTSUPP):
		return newError(ErrorKindSocketDoesNotSupportListeningMode)
	case errors.Is(err, unix.EISCONN):
		return newError(ErrorKindSocketIsAlreadyConnectedOrConnecting)
	default:
		return newSystemError(err)
	}
}

// rawConnectIPv4 initiates a non-blocking connect. EINPROGRESS and EALREADY
// indicate the connect is still under way and are not errors (spec.md
// §4.5: "non-blocking connect's in-progress indication is NOT an error").
func rawConnectIPv4(fd uintptr, addr IPv4Address, port uint16) *Error {
	err := unix.Connect(int(fd), sockaddrIPv4(addr, port))
	return classifyConnectError(err)
}

func rawConnectIPv6(fd uintptr, addrNet IPv6Address, port uint16) *Error {
	err := unix.Connect(int(fd), sockaddrIPv6(addrNet, port))
	return classifyConnectError(err)
}

func classifyConnectError(err error) *Error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, unix.EINPROGRESS), errors.Is(err, unix.EALREADY):
		return nil
	case errors.Is(err, unix.ENETUNREACH):
		return newError(ErrorKindCannotReachNetwork)
	case errors.Is(err, unix.EHOSTUNREACH):
		return newError(ErrorKindCannotReachAnotherHost)
	case errors.Is(err, unix.ECONNREFUSED):
		return newError(ErrorKindAnotherHostRejectedConnection)
	case errors.Is(err, unix.ETIMEDOUT):
		return newError(ErrorKindCannotEstablishConnection)
	case errors.Is(err, unix.EISCONN):
		return newError(ErrorKindSocketIsAlreadyConnectedOrConnecting)
	case errors.Is(err, unix.EADDRINUSE):
		return newError(ErrorKindSocketAddressIsTaken)
	default:
		return newSystemError(err)
	}
}

// rawAccept pops one pending connection. EAGAIN/EWOULDBLOCK and
// ECONNABORTED both report wouldBlock=true with no error, matching
// spec.md §4.5's "would-block or connection-reset-before-accept writes a
// null handle and reports success".
func rawAccept(fd uintptr, family socketFamily) (uintptr, bool, *Error) {
	newFD, _, err := unix.Accept(int(fd))
	if err != nil {
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.ECONNABORTED):
			return 0, true, nil
		case errors.Is(err, unix.EOPNOTSUPP), errors.Is(err, unix.EINVAL):
			return 0, false, newError(ErrorKindSocketMustBeInListeningMode)
		default:
			return 0, false, newSystemError(err)
		}
	}

	if err := unix.SetNonblock(newFD, true); err != nil {
		_ = unix.Close(newFD)
		return 0, false, newSystemError(err)
	}

	return uintptr(newFD), false, nil
}

// rawGetpeername reads the remote address of a connected socket, reading
// the address from whichever union arm the kernel actually reports rather
// than assuming the socket's own creation family (spec.md §9 Open
// Question 5).
func rawGetpeername(fd uintptr) (ErrorIPSocketAddress, *Error) {
	sa, err := unix.Getpeername(int(fd))
	if err != nil {
		if errors.Is(err, unix.ENOTCONN) {
			return ErrorIPSocketAddress{}, newError(ErrorKindSocketMustBeConnected)
		}
		return ErrorIPSocketAddress{}, newSystemError(err)
	}

	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return ErrorIPSocketAddress{
			V4:              IPv4Address{Octets: v.Addr},
			PortInNetworkBO: HostToNetworkBO16(uint16(v.Port)),
		}, nil
	case *unix.SockaddrInet6:
		var natural [8]uint16
		for i := range natural {
			natural[i] = uint16(v.Addr[2*i])<<8 | uint16(v.Addr[2*i+1])
		}
		netBO := IPv6Address{Hextets: natural, ScopeID: v.ZoneId}.ToNetworkBO()
		return ErrorIPSocketAddress{
			IsIPv6:          true,
			V6:              netBO,
			PortInNetworkBO: HostToNetworkBO16(uint16(v.Port)),
		}, nil
	default:
		return ErrorIPSocketAddress{}, newError(ErrorKindAnotherHostUsesIncompatibleSocketAddress)
	}
}

// rawClose closes fd, returning the untranslated error so DestroySocket can
// swallow would-block before translating anything else.
func rawClose(fd uintptr) error {
	return unix.Close(int(fd))
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func classifyCloseError(err error) *Error {
	if errors.Is(err, unix.EBADF) {
		return newError(ErrorKindInvalidSocketHandle)
	}
	return newSystemError(err)
}

// rawSetNagle toggles Nagle's algorithm. The public flag is in the
// "enabled" sense; the underlying socket option is TCP_NODELAY, its
// complement, so the translator inverts (spec.md §4.5, §9 Open Question 4).
func rawSetNagle(fd uintptr, enabled bool) *Error {
	nodelay := 0
	if !enabled {
		nodelay = 1
	}
	if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, nodelay); err != nil {
		return classifySockoptError(err)
	}
	return nil
}

// rawSetLinger configures the destruction-timeout pair (enabled, seconds):
// disabled means a graceful close, enabled+0 an abortive close, and
// enabled+nonzero a bounded wait before an abortive close (spec.md §4.5).
func rawSetLinger(fd uintptr, enabled bool, seconds int) *Error {
	onoff := int32(0)
	if enabled {
		onoff = 1
	}
	l := &unix.Linger{Onoff: onoff, Linger: int32(seconds)}
	if err := unix.SetsockoptLinger(int(fd), unix.SOL_SOCKET, unix.SO_LINGER, l); err != nil {
		return classifySockoptError(err)
	}
	return nil
}

// rawSetBroadcast toggles SO_BROADCAST, meaningful only for IPv4 UDP
// sockets (spec.md §4.5).
func rawSetBroadcast(fd uintptr, enabled bool) *Error {
	v := 0
	if enabled {
		v = 1
	}
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, v); err != nil {
		return classifySockoptError(err)
	}
	return nil
}

func classifySockoptError(err error) *Error {
	switch {
	case errors.Is(err, unix.ENOPROTOOPT), errors.Is(err, unix.EINVAL):
		return newError(ErrorKindUnsupportedSocketOption)
	case errors.Is(err, unix.EBADF):
		return newError(ErrorKindInvalidSocketHandle)
	default:
		return newSystemError(err)
	}
}
