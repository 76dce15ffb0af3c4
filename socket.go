package socketshare

import "fmt"

// Handle is an opaque reference to a library-owned socket. The zero value
// denotes "absent" and is never returned for a successfully created socket
// (spec.md §3); Library.allocHandle starts its counter at 1, so the
// offset-by-one encoding the original ABI applied at its boundary falls out
// naturally from the registry key space instead of needing a separate
// encode/decode step.
type Handle uint64

// IsValid reports whether h could plausibly name a live socket. It does not
// consult any registry, so a valid-looking Handle that has already been
// destroyed still passes this check; use it only to reject the zero value
// before a lookup.
func (h Handle) IsValid() bool { return h != 0 }

type socketFamily int

const (
	familyIPv4 socketFamily = iota
	familyIPv6
)

type socketKind int

const (
	kindUDP socketKind = iota
	kindTCPBound
	kindTCPListening
	kindTCPConnecting
)

// socketEntry is the library's record of one OS socket. fd is a raw
// OS-level socket descriptor (an int on POSIX, a SOCKET handle on Windows);
// it is stored widened to uintptr so this struct needs no build tag of its
// own, with the platform-specific raw* functions doing the narrowing.
type socketEntry struct {
	fd     uintptr
	family socketFamily
	kind   socketKind

	localPort uint16
	portOwned bool // true if Library's ephemeral allocator must reclaim localPort on close

	naglesEnabled bool
	broadcastOn   bool
	lingerEnabled bool
	lingerSeconds int
}

func (e *socketEntry) closeNow() error {
	return rawClose(e.fd)
}

// lookupSocket resolves h to its entry, reporting ErrorKindInvalidSocketHandle
// if h is zero or unknown to l (spec.md §7: any/invalid-socket).
func (l *Library) lookupSocket(h Handle) (*socketEntry, *Error) {
	if !h.IsValid() {
		return nil, newError(ErrorKindInvalidSocketHandle)
	}
	entry, ok := l.sockets[h]
	if !ok {
		return nil, newError(ErrorKindInvalidSocketHandle)
	}
	return entry, nil
}

// register adds entry under a freshly allocated handle and returns it.
func (l *Library) register(entry *socketEntry) Handle {
	h := l.allocHandle()
	l.sockets[h] = entry
	if l.metrics != nil {
		l.metrics.IncSocketsCreated(entry.family, entry.kind)
	}
	return h
}

// resolveLocalPort implements the "port == 0 requests an auto-assigned
// dynamic port, and the assigned value is written back" rule shared by
// every creation entry point (spec.md §6 ephemeral port range 49152-65535).
func (l *Library) resolveLocalPort(requested uint16) (uint16, bool, *Error) {
	if requested != 0 {
		l.ports.Reserve(requested)
		return requested, false, nil
	}
	port, err := l.ports.Allocate()
	if err != nil {
		return 0, false, newError(ErrorKindAllDynamicPortsAreTaken)
	}
	return port, true, nil
}

func (l *Library) releasePort(entry *socketEntry) {
	if entry.portOwned {
		l.ports.Release(entry.localPort)
	}
}

// CreateIPv4UDPSocket creates a non-blocking IPv4 UDP socket bound to
// (addr, port). If port is 0 a port is assigned from the dynamic range and
// returned (spec.md §4.5).
func CreateIPv4UDPSocket(addr IPv4Address, port uint16) (Handle, uint16, error) {
	return Default.CreateIPv4UDPSocket(addr, port)
}

func (l *Library) CreateIPv4UDPSocket(addr IPv4Address, port uint16) (Handle, uint16, error) {
	if err := l.requireInitialized(); err != nil {
		return 0, 0, err
	}
	if addr.IsZero() {
		return 0, 0, l.signal(ErrorKindInvalidIPAddress)
	}

	resolvedPort, owned, err := l.resolveLocalPort(port)
	if err != nil {
		return 0, 0, l.signal(err.Kind)
	}

	fd, rawErr := rawCreateSocket(familyIPv4, rawSocketDgram)
	if rawErr != nil {
		if owned {
			l.ports.Release(resolvedPort)
		}
		return 0, 0, l.deliver(rawErr)
	}

	if rawErr, _ := rawBindIPv4(fd, addr, resolvedPort); rawErr != nil {
		_ = rawClose(fd)
		if owned {
			l.ports.Release(resolvedPort)
		}
		return 0, 0, l.deliver(rawErr)
	}

	entry := &socketEntry{fd: fd, family: familyIPv4, kind: kindUDP, localPort: resolvedPort, portOwned: owned}
	return l.register(entry), resolvedPort, nil
}

// CreateIPv6UDPSocket creates a non-blocking IPv6 UDP socket. addrNet is in
// network byte order, as is every IPv6Address crossing the library boundary
// (spec.md §6).
func CreateIPv6UDPSocket(addrNet IPv6Address, port uint16) (Handle, uint16, error) {
	return Default.CreateIPv6UDPSocket(addrNet, port)
}

func (l *Library) CreateIPv6UDPSocket(addrNet IPv6Address, port uint16) (Handle, uint16, error) {
	if err := l.requireInitialized(); err != nil {
		return 0, 0, err
	}
	if addrNet.IsZero() {
		return 0, 0, l.signal(ErrorKindInvalidIPAddress)
	}

	resolvedPort, owned, err := l.resolveLocalPort(port)
	if err != nil {
		return 0, 0, l.signal(err.Kind)
	}

	fd, rawErr := rawCreateSocket(familyIPv6, rawSocketDgram)
	if rawErr != nil {
		if owned {
			l.ports.Release(resolvedPort)
		}
		return 0, 0, l.deliver(rawErr)
	}

	if rawErr, _ := rawBindIPv6(fd, addrNet, resolvedPort); rawErr != nil {
		_ = rawClose(fd)
		if owned {
			l.ports.Release(resolvedPort)
		}
		return 0, 0, l.deliver(rawErr)
	}

	entry := &socketEntry{fd: fd, family: familyIPv6, kind: kindUDP, localPort: resolvedPort, portOwned: owned}
	return l.register(entry), resolvedPort, nil
}

// CreateIPv4TCPSocket creates a bind-only, non-listening IPv4 TCP socket.
// It is not part of spec.md's own entry-point table but mirrors the
// original library's bare `CreateIPv4TCPSocket` (original_source
// Interface/SocketDataSharing.hpp), kept here for callers that want to bind
// a TCP socket before deciding whether to Connect or to
// SetSocketInListeningMode against it.
func CreateIPv4TCPSocket(addr IPv4Address, port uint16) (Handle, uint16, error) {
	return Default.CreateIPv4TCPSocket(addr, port)
}

func (l *Library) CreateIPv4TCPSocket(addr IPv4Address, port uint16) (Handle, uint16, error) {
	if err := l.requireInitialized(); err != nil {
		return 0, 0, err
	}
	if addr.IsZero() {
		return 0, 0, l.signal(ErrorKindInvalidIPAddress)
	}

	resolvedPort, owned, err := l.resolveLocalPort(port)
	if err != nil {
		return 0, 0, l.signal(err.Kind)
	}

	fd, rawErr := rawCreateSocket(familyIPv4, rawSocketStream)
	if rawErr != nil {
		if owned {
			l.ports.Release(resolvedPort)
		}
		return 0, 0, l.deliver(rawErr)
	}

	if rawErr, _ := rawBindIPv4(fd, addr, resolvedPort); rawErr != nil {
		_ = rawClose(fd)
		if owned {
			l.ports.Release(resolvedPort)
		}
		return 0, 0, l.deliver(rawErr)
	}

	entry := &socketEntry{fd: fd, family: familyIPv4, kind: kindTCPBound, localPort: resolvedPort, portOwned: owned, naglesEnabled: true}
	return l.register(entry), resolvedPort, nil
}

// CreateIPv6TCPSocket is CreateIPv4TCPSocket's IPv6 counterpart.
func CreateIPv6TCPSocket(addrNet IPv6Address, port uint16) (Handle, uint16, error) {
	return Default.CreateIPv6TCPSocket(addrNet, port)
}

func (l *Library) CreateIPv6TCPSocket(addrNet IPv6Address, port uint16) (Handle, uint16, error) {
	if err := l.requireInitialized(); err != nil {
		return 0, 0, err
	}
	if addrNet.IsZero() {
		return 0, 0, l.signal(ErrorKindInvalidIPAddress)
	}

	resolvedPort, owned, err := l.resolveLocalPort(port)
	if err != nil {
		return 0, 0, l.signal(err.Kind)
	}

	fd, rawErr := rawCreateSocket(familyIPv6, rawSocketStream)
	if rawErr != nil {
		if owned {
			l.ports.Release(resolvedPort)
		}
		return 0, 0, l.deliver(rawErr)
	}

	if rawErr, _ := rawBindIPv6(fd, addrNet, resolvedPort); rawErr != nil {
		_ = rawClose(fd)
		if owned {
			l.ports.Release(resolvedPort)
		}
		return 0, 0, l.deliver(rawErr)
	}

	entry := &socketEntry{fd: fd, family: familyIPv6, kind: kindTCPBound, localPort: resolvedPort, portOwned: owned, naglesEnabled: true}
	return l.register(entry), resolvedPort, nil
}

// CreateListeningIPv4TCPSocket creates, binds, and begins listening on an
// IPv4 TCP socket in one step. backlog is clamped to non-negative before
// being passed to the OS (spec.md §6: "recommended caller range 0-128").
func CreateListeningIPv4TCPSocket(addr IPv4Address, port uint16, backlog int) (Handle, uint16, error) {
	return Default.CreateListeningIPv4TCPSocket(addr, port, backlog)
}

func (l *Library) CreateListeningIPv4TCPSocket(addr IPv4Address, port uint16, backlog int) (Handle, uint16, error) {
	h, resolvedPort, err := l.CreateIPv4TCPSocket(addr, port)
	if err != nil {
		return 0, 0, err
	}
	if err := l.startListening(h, backlog); err != nil {
		_ = l.DestroySocket(h)
		return 0, 0, err
	}
	return h, resolvedPort, nil
}

// CreateListeningIPv6TCPSocket is CreateListeningIPv4TCPSocket's IPv6
// counterpart.
func CreateListeningIPv6TCPSocket(addrNet IPv6Address, port uint16, backlog int) (Handle, uint16, error) {
	return Default.CreateListeningIPv6TCPSocket(addrNet, port, backlog)
}

func (l *Library) CreateListeningIPv6TCPSocket(addrNet IPv6Address, port uint16, backlog int) (Handle, uint16, error) {
	h, resolvedPort, err := l.CreateIPv6TCPSocket(addrNet, port)
	if err != nil {
		return 0, 0, err
	}
	if err := l.startListening(h, backlog); err != nil {
		_ = l.DestroySocket(h)
		return 0, 0, err
	}
	return h, resolvedPort, nil
}

// SetSocketInListeningMode transitions a bound-but-idle TCP socket (as
// returned by CreateIPv4TCPSocket/CreateIPv6TCPSocket) into listening mode.
// It reports ErrorKindSocketIsAlreadyInListeningMode if h is already
// listening rather than silently re-calling listen (spec.md §4.5).
func SetSocketInListeningMode(h Handle, backlog int) error {
	return Default.SetSocketInListeningMode(h, backlog)
}

func (l *Library) SetSocketInListeningMode(h Handle, backlog int) error {
	if err := l.requireInitialized(); err != nil {
		return err
	}
	return l.startListening(h, backlog)
}

func (l *Library) startListening(h Handle, backlog int) error {
	entry, err := l.lookupSocket(h)
	if err != nil {
		return l.signal(err.Kind)
	}
	if entry.kind == kindTCPListening {
		return l.signal(ErrorKindSocketIsAlreadyInListeningMode)
	}
	if entry.kind == kindTCPConnecting {
		return l.signal(ErrorKindSocketDoesNotSupportListeningMode)
	}
	if backlog < 0 {
		backlog = 0
	}
	if rawErr := rawListen(entry.fd, backlog); rawErr != nil {
		return l.deliver(rawErr)
	}
	if l.metrics != nil {
		l.metrics.SocketsActive.WithLabelValues(entry.family.String(), entry.kind.String()).Dec()
		l.metrics.SocketsActive.WithLabelValues(entry.family.String(), kindTCPListening.String()).Inc()
	}
	entry.kind = kindTCPListening
	return nil
}

// CreateConnectedIPv4TCPSocket creates a non-blocking IPv4 TCP socket bound
// to fromPort (0 for ephemeral) and begins connecting it to (toAddr,
// toPort). A non-blocking connect's in-progress indication is not treated
// as failure (spec.md §4.5); only a genuine connect error fails the call.
// If binding the ephemeral local port collides (EADDRINUSE) the whole
// create-bind-connect sequence is retried once with a freshly allocated
// port, since the collision is benign for ephemeral selection.
func CreateConnectedIPv4TCPSocket(fromPort uint16, toAddr IPv4Address, toPort uint16) (Handle, error) {
	return Default.CreateConnectedIPv4TCPSocket(fromPort, toAddr, toPort)
}

func (l *Library) CreateConnectedIPv4TCPSocket(fromPort uint16, toAddr IPv4Address, toPort uint16) (Handle, error) {
	if err := l.requireInitialized(); err != nil {
		return 0, err
	}
	if toAddr.IsZero() || toPort == 0 {
		return 0, l.signal(ErrorKindInvalidIPAddress)
	}

	const maxAttempts = 2
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resolvedPort, owned, perr := l.resolveLocalPort(fromPort)
		if perr != nil {
			return 0, l.signal(perr.Kind)
		}

		fd, rawErr := rawCreateSocket(familyIPv4, rawSocketStream)
		if rawErr != nil {
			if owned {
				l.ports.Release(resolvedPort)
			}
			return 0, l.deliver(rawErr)
		}

		if rawErr, addrInUse := rawBindIPv4(fd, IPv4Address{}, resolvedPort); rawErr != nil {
			_ = rawClose(fd)
			if owned {
				l.ports.Release(resolvedPort)
			}
			if owned && addrInUse {
				continue // retry with a different ephemeral port
			}
			return 0, l.deliver(rawErr)
		}

		connErr := rawConnectIPv4(fd, toAddr, toPort)
		if connErr != nil {
			_ = rawClose(fd)
			if owned {
				l.ports.Release(resolvedPort)
			}
			return 0, l.deliver(connErr)
		}

		entry := &socketEntry{fd: fd, family: familyIPv4, kind: kindTCPConnecting, localPort: resolvedPort, portOwned: owned, naglesEnabled: true}
		return l.register(entry), nil
	}

	return 0, l.signal(ErrorKindAllDynamicPortsAreTaken)
}

// CreateConnectedIPv6TCPSocket is CreateConnectedIPv4TCPSocket's IPv6
// counterpart. toAddrHost is in host byte order and is converted internally
// (spec.md §6).
func CreateConnectedIPv6TCPSocket(fromPort uint16, toAddrHost IPv6Address, toPort uint16) (Handle, error) {
	return Default.CreateConnectedIPv6TCPSocket(fromPort, toAddrHost, toPort)
}

func (l *Library) CreateConnectedIPv6TCPSocket(fromPort uint16, toAddrHost IPv6Address, toPort uint16) (Handle, error) {
	if err := l.requireInitialized(); err != nil {
		return 0, err
	}
	if toAddrHost.IsZero() || toPort == 0 {
		return 0, l.signal(ErrorKindInvalidIPAddress)
	}

	toAddrNet := toAddrHost.ToNetworkBO()

	const maxAttempts = 2
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resolvedPort, owned, perr := l.resolveLocalPort(fromPort)
		if perr != nil {
			return 0, l.signal(perr.Kind)
		}

		fd, rawErr := rawCreateSocket(familyIPv6, rawSocketStream)
		if rawErr != nil {
			if owned {
				l.ports.Release(resolvedPort)
			}
			return 0, l.deliver(rawErr)
		}

		if rawErr, addrInUse := rawBindIPv6(fd, IPv6Address{}, resolvedPort); rawErr != nil {
			_ = rawClose(fd)
			if owned {
				l.ports.Release(resolvedPort)
			}
			if owned && addrInUse {
				continue
			}
			return 0, l.deliver(rawErr)
		}

		connErr := rawConnectIPv6(fd, toAddrNet, toPort)
		if connErr != nil {
			_ = rawClose(fd)
			if owned {
				l.ports.Release(resolvedPort)
			}
			return 0, l.deliver(connErr)
		}

		entry := &socketEntry{fd: fd, family: familyIPv6, kind: kindTCPConnecting, localPort: resolvedPort, portOwned: owned, naglesEnabled: true}
		return l.register(entry), nil
	}

	return 0, l.signal(ErrorKindAllDynamicPortsAreTaken)
}

// AcceptNewConnection pops one pending connection from a listening socket.
// A socket with no pending connection, or whose pending connection reset
// before being accepted, yields Handle(0) with a nil error: would-block is
// not a failure (spec.md §4.5).
func AcceptNewConnection(h Handle) (Handle, error) {
	return Default.AcceptNewConnection(h)
}

func (l *Library) AcceptNewConnection(h Handle) (Handle, error) {
	if err := l.requireInitialized(); err != nil {
		return 0, err
	}
	entry, err := l.lookupSocket(h)
	if err != nil {
		return 0, l.signal(err.Kind)
	}
	if entry.kind != kindTCPListening {
		return 0, l.signal(ErrorKindSocketMustBeInListeningMode)
	}

	newFD, wouldBlock, rawErr := rawAccept(entry.fd, entry.family)
	if rawErr != nil {
		return 0, l.deliver(rawErr)
	}
	if wouldBlock {
		return 0, nil
	}

	accepted := &socketEntry{fd: newFD, family: entry.family, kind: kindTCPConnecting, naglesEnabled: true}
	return l.register(accepted), nil
}

// ErrorIPSocketAddress is a peer socket address as reported by
// GetAnotherHostIPSocketAddress (spec.md §3). Exactly one of V4/V6 is
// meaningful, selected by IsIPv6.
type ErrorIPSocketAddress struct {
	IsIPv6          bool
	V4              IPv4Address
	V6              IPv6Address
	PortInNetworkBO uint16
}

// GetAnotherHostIPSocketAddress reports the remote peer address of a
// connected socket. The family of the OS-reported address, not the family
// the socket was created with, determines whether V4 or V6 is populated
// (spec.md §9 Open Question 5: the original read the peer's IPv4 octets
// from the wrong union arm; this reads from whichever field the kernel
// actually reports).
func GetAnotherHostIPSocketAddress(h Handle) (ErrorIPSocketAddress, error) {
	return Default.GetAnotherHostIPSocketAddress(h)
}

func (l *Library) GetAnotherHostIPSocketAddress(h Handle) (ErrorIPSocketAddress, error) {
	if err := l.requireInitialized(); err != nil {
		return ErrorIPSocketAddress{}, err
	}
	entry, err := l.lookupSocket(h)
	if err != nil {
		return ErrorIPSocketAddress{}, l.signal(err.Kind)
	}
	if entry.kind != kindTCPConnecting {
		return ErrorIPSocketAddress{}, l.signal(ErrorKindSocketMustBeConnected)
	}

	addr, rawErr := rawGetpeername(entry.fd)
	if rawErr != nil {
		return ErrorIPSocketAddress{}, l.deliver(rawErr)
	}
	return addr, nil
}

// DestroySocket closes h. A would-block status from the underlying close
// (a lingering graceful shutdown still in progress) is swallowed rather
// than reported as failure (spec.md §4.5); h is invalid for every other
// operation once DestroySocket returns, regardless of the underlying
// close's outcome.
func DestroySocket(h Handle) error {
	return Default.DestroySocket(h)
}

func (l *Library) DestroySocket(h Handle) error {
	if err := l.requireInitialized(); err != nil {
		return err
	}
	entry, err := l.lookupSocket(h)
	if err != nil {
		return l.signal(err.Kind)
	}

	delete(l.sockets, h)
	l.releasePort(entry)
	if l.metrics != nil {
		l.metrics.IncSocketsDestroyed(entry.family, entry.kind)
	}

	if rawErr := entry.closeNow(); rawErr != nil {
		if isWouldBlock(rawErr) {
			return nil
		}
		return l.deliver(classifyCloseError(rawErr))
	}
	return nil
}

// deliver signals kind (or the raw platform error, for
// ErrorKindUnexpectedSystemError) through l's callback and returns the
// resulting error.
func (l *Library) deliver(e *Error) error {
	if e.Kind == ErrorKindUnexpectedSystemError {
		return l.signalSystem(e.SystemError)
	}
	return l.signal(e.Kind)
}

func (s socketFamily) String() string {
	if s == familyIPv4 {
		return "ipv4"
	}
	return "ipv6"
}

func (k socketKind) String() string {
	switch k {
	case kindUDP:
		return "udp"
	case kindTCPBound:
		return "tcp-bound"
	case kindTCPListening:
		return "tcp-listening"
	case kindTCPConnecting:
		return "tcp-connecting"
	default:
		return fmt.Sprintf("socketKind(%d)", int(k))
	}
}
