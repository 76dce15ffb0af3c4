//go:build windows

package socketshare

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	rawSocketStream = windows.SOCK_STREAM
	rawSocketDgram  = windows.SOCK_DGRAM
)

// x/sys/windows wraps most of Winsock but, because the standard net
// package gets non-blocking I/O from IOCP rather than classic
// accept()/ioctlsocket(), leaves those two unwrapped (its own Accept is an
// explicit stub). Both are plain ws2_32 exports, so they're reached the
// same way x/sys/windows itself reaches every DLL export it does wrap: a
// lazily-bound LazyProc.
var (
	ws2_32          = windows.NewLazySystemDLL("ws2_32.dll")
	procAccept      = ws2_32.NewProc("accept")
	procIoctlsocket = ws2_32.NewProc("ioctlsocket")
)

// fionbio is FIONBIO, the ioctlsocket command that toggles non-blocking
// mode.
const fionbio = 0x8004667e

func setNonblock(fd windows.Handle) error {
	arg := uint32(1)
	r1, _, err := procIoctlsocket.Call(uintptr(fd), uintptr(fionbio), uintptr(unsafe.Pointer(&arg)))
	if r1 != 0 {
		return err
	}
	return nil
}

// rawCreateSocket opens a non-blocking socket of the given family/type,
// translating WSAGetLastError's code through the "socket" row of spec.md
// §4.3's mapping table. Non-blocking mode is set immediately after the raw
// handle is created (spec.md §4.5); failure to set it closes the handle and
// fails the call.
func rawCreateSocket(family socketFamily, typ int) (uintptr, *Error) {
	domain := windows.AF_INET
	if family == familyIPv6 {
		domain = windows.AF_INET6
	}

	fd, err := windows.Socket(domain, typ, 0)
	if err != nil {
		return 0, classifySocketError(err, family, typ)
	}

	if err := setNonblock(fd); err != nil {
		_ = windows.Closesocket(fd)
		return 0, newSystemError(err)
	}

	return uintptr(fd), nil
}

// classifySocketError maps windows.Socket's WSAGetLastError code to an
// ErrorKind, choosing among the per-family/per-protocol "not supported"
// kinds by the family and type actually requested rather than a fixed pair
// of kinds (spec.md:84: "af-not-supported -> IPv4/IPv6IsNotSupported (by
// family)").
func classifySocketError(err error, family socketFamily, typ int) *Error {
	switch {
	case errors.Is(err, windows.WSAEAFNOSUPPORT):
		if family == familyIPv6 {
			return newError(ErrorKindIPv6IsNotSupported)
		}
		return newError(ErrorKindIPv4IsNotSupported)
	case errors.Is(err, windows.WSAEPROTONOSUPPORT), errors.Is(err, windows.WSAEPROTOTYPE):
		return newError(protocolNotSupportedKind(family, typ))
	case errors.Is(err, windows.WSAEMFILE):
		return newError(ErrorKindSystemSocketLimitIsReached)
	case errors.Is(err, windows.WSAENOBUFS):
		return newError(ErrorKindNotEnoughMemory)
	case errors.Is(err, windows.WSAENETDOWN):
		return newError(ErrorKindNetworkSubsystemFailed)
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

func sockaddrIPv4(addr IPv4Address, port uint16) *windows.SockaddrInet4 {
	return &windows.SockaddrInet4{Port: int(port), Addr: addr.Octets}
}

// sockaddrIPv6 builds a wire-format sockaddr from addr, which is in network
// byte order as every IPv6Address crossing the library boundary is; it is
// converted to natural per-hextet values before being serialized so the
// resulting bytes are correct regardless of host endianness.
func sockaddrIPv6(addr IPv6Address, port uint16) *windows.SockaddrInet6 {
	natural := addr.ToHostBO()
	var raw [16]byte
	for i, h := range natural.Hextets {
		raw[2*i] = byte(h >> 8)
		raw[2*i+1] = byte(h)
	}
	return &windows.SockaddrInet6{Port: int(port), ZoneId: addr.ScopeID, Addr: raw}
}

// rawBindIPv4 binds fd to (addr, port), translating WSAGetLastError's code
// through the "bind" row of spec.md §4.3's mapping table. The second return
// value reports whether the failure was specifically WSAEADDRINUSE, which
// the ephemeral-port connect retry loop treats specially (spec.md §4.5).
func rawBindIPv4(fd uintptr, addr IPv4Address, port uint16) (*Error, bool) {
	err := windows.Bind(windows.Handle(fd), sockaddrIPv4(addr, port))
	if err == nil {
		return nil, false
	}
	return classifyBindError(err), errors.Is(err, windows.WSAEADDRINUSE)
}

func rawBindIPv6(fd uintptr, addr IPv6Address, port uint16) (*Error, bool) {
	err := windows.Bind(windows.Handle(fd), sockaddrIPv6(addr, port))
	if err == nil {
		return nil, false
	}
	return classifyBindError(err), errors.Is(err, windows.WSAEADDRINUSE)
}

func classifyBindError(err error) *Error {
	switch {
	case errors.Is(err, windows.WSAEADDRNOTAVAIL):
		return newError(ErrorKindUnavailableIPAddress)
	case errors.Is(err, windows.WSAEADDRINUSE), errors.Is(err, windows.WSAEACCES):
		return newError(ErrorKindSocketAddressIsTaken)
	case errors.Is(err, windows.WSAENOBUFS):
		return newError(ErrorKindAllDynamicPortsAreTaken)
	case errors.Is(err, windows.WSAEINVAL):
		return newError(ErrorKindPortNumberIsInvalid)
	default:
		return newSystemError(err)
	}
}

// rawListen translates windows.Listen's WSAGetLastError code through the
// "listen" row of spec.md §4.3's mapping table.
func rawListen(fd uintptr, backlog int) *Error {
	err := windows.Listen(windows.Handle(fd), backlog)
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, windows.WSAEOPNOTSUPP):
		return newError(ErrorKindSocketDoesNotSupportListeningMode)
	case errors.Is(err, windows.WSAEISCONN):
		return newError(ErrorKindSocketIsAlreadyConnectedOrConnecting)
	default:
		return newSystemError(err)
	}
}

// rawConnectIPv4 initiates a non-blocking connect. Winsock reports an
// in-progress connect as WSAEWOULDBLOCK rather than the POSIX EINPROGRESS,
// and a connect already under way as WSAEALREADY; neither is an error
// (spec.md §4.5: "non-blocking connect's in-progress indication is NOT an
// error"). WSAEINVAL is not treated as in-progress.
func rawConnectIPv4(fd uintptr, addr IPv4Address, port uint16) *Error {
	err := windows.Connect(windows.Handle(fd), sockaddrIPv4(addr, port))
	return classifyConnectError(err)
}

func rawConnectIPv6(fd uintptr, addrNet IPv6Address, port uint16) *Error {
	err := windows.Connect(windows.Handle(fd), sockaddrIPv6(addrNet, port))
	return classifyConnectError(err)
}

func classifyConnectError(err error) *Error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, windows.WSAEWOULDBLOCK), errors.Is(err, windows.WSAEALREADY):
		return nil
	case errors.Is(err, windows.WSAENETUNREACH):
		return newError(ErrorKindCannotReachNetwork)
	case errors.Is(err, windows.WSAEHOSTUNREACH):
		return newError(ErrorKindCannotReachAnotherHost)
	case errors.Is(err, windows.WSAECONNREFUSED):
		return newError(ErrorKindAnotherHostRejectedConnection)
	case errors.Is(err, windows.WSAETIMEDOUT):
		return newError(ErrorKindCannotEstablishConnection)
	case errors.Is(err, windows.WSAEISCONN):
		return newError(ErrorKindSocketIsAlreadyConnectedOrConnecting)
	case errors.Is(err, windows.WSAEADDRINUSE):
		return newError(ErrorKindSocketAddressIsTaken)
	default:
		return newSystemError(err)
	}
}

// rawAccept pops one pending connection. WSAEWOULDBLOCK and
// WSAECONNABORTED ("connection reset before accept") both report
// wouldBlock=true with no error, matching spec.md §4.5's "would-block or
// connection-reset-before-accept writes a null handle and reports success".
func rawAccept(fd uintptr, family socketFamily) (uintptr, bool, *Error) {
	r1, _, callErr := procAccept.Call(fd, 0, 0)
	if r1 == uintptr(^windows.Handle(0)) {
		err := callErr
		switch {
		case errors.Is(err, windows.WSAEWOULDBLOCK), errors.Is(err, windows.WSAECONNABORTED):
			return 0, true, nil
		case errors.Is(err, windows.WSAEOPNOTSUPP), errors.Is(err, windows.WSAEINVAL):
			return 0, false, newError(ErrorKindSocketMustBeInListeningMode)
		default:
			return 0, false, newSystemError(err)
		}
	}
	newFD := windows.Handle(r1)

	if err := setNonblock(newFD); err != nil {
		_ = windows.Closesocket(newFD)
		return 0, false, newSystemError(err)
	}

	return uintptr(newFD), false, nil
}

// rawGetpeername reads the remote address of a connected socket, reading
// the address from whichever union arm the kernel actually reports rather
// than assuming the socket's own creation family (spec.md §9 Open
// Question 5).
func rawGetpeername(fd uintptr) (ErrorIPSocketAddress, *Error) {
	sa, err := windows.Getpeername(windows.Handle(fd))
	if err != nil {
		if errors.Is(err, windows.WSAENOTCONN) {
			return ErrorIPSocketAddress{}, newError(ErrorKindSocketMustBeConnected)
		}
		return ErrorIPSocketAddress{}, newSystemError(err)
	}

	switch v := sa.(type) {
	case *windows.SockaddrInet4:
		return ErrorIPSocketAddress{
			V4:              IPv4Address{Octets: v.Addr},
			PortInNetworkBO: HostToNetworkBO16(uint16(v.Port)),
		}, nil
	case *windows.SockaddrInet6:
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
	return windows.Closesocket(windows.Handle(fd))
}

func isWouldBlock(err error) bool {
	return errors.Is(err, windows.WSAEWOULDBLOCK)
}

func classifyCloseError(err error) *Error {
	if errors.Is(err, windows.WSAENOTSOCK) {
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
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_TCP, windows.TCP_NODELAY, nodelay); err != nil {
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
	l := &windows.Linger{Onoff: onoff, Linger: int32(seconds)}
	if err := windows.SetsockoptLinger(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_LINGER, l); err != nil {
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
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, v); err != nil {
		return classifySockoptError(err)
	}
	return nil
}

func classifySockoptError(err error) *Error {
	switch {
	case errors.Is(err, windows.WSAENOPROTOOPT), errors.Is(err, windows.WSAEINVAL):
		return newError(ErrorKindUnsupportedSocketOption)
	case errors.Is(err, windows.WSAENOTSOCK):
		return newError(ErrorKindInvalidSocketHandle)
	default:
		return newSystemError(err)
	}
}
