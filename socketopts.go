package socketshare

// SetTCPSocketNaglesAlgorithm enables or disables Nagle's algorithm on a
// TCP socket. Nagle is enabled by default at creation (spec.md §4.5). The
// setter may be called in any socket state, including a still-connecting
// socket.
func SetTCPSocketNaglesAlgorithm(h Handle, enabled bool) error {
	return Default.SetTCPSocketNaglesAlgorithm(h, enabled)
}

func (l *Library) SetTCPSocketNaglesAlgorithm(h Handle, enabled bool) error {
	if err := l.requireInitialized(); err != nil {
		return err
	}
	entry, err := l.lookupSocket(h)
	if err != nil {
		return l.signal(err.Kind)
	}
	if entry.kind == kindUDP {
		return l.signal(ErrorKindUnsupportedSocketOption)
	}
	if rawErr := rawSetNagle(entry.fd, enabled); rawErr != nil {
		return l.deliver(rawErr)
	}
	entry.naglesEnabled = enabled
	return nil
}

// SetSocketDestructionTimeout configures the (enabled, seconds) linger pair
// applied when the socket is later destroyed: disabled means a graceful
// close, enabled+0 an abortive close, enabled+nonzero a bounded wait
// before an abortive close. Destruction-timeout is disabled by default
// (spec.md §4.5).
func SetSocketDestructionTimeout(h Handle, enabled bool, seconds int) error {
	return Default.SetSocketDestructionTimeout(h, enabled, seconds)
}

func (l *Library) SetSocketDestructionTimeout(h Handle, enabled bool, seconds int) error {
	if err := l.requireInitialized(); err != nil {
		return err
	}
	entry, err := l.lookupSocket(h)
	if err != nil {
		return l.signal(err.Kind)
	}
	if seconds < 0 {
		seconds = 0
	}
	if rawErr := rawSetLinger(entry.fd, enabled, seconds); rawErr != nil {
		return l.deliver(rawErr)
	}
	entry.lingerEnabled = enabled
	entry.lingerSeconds = seconds
	return nil
}

// SetSocketBroadcast enables or disables SO_BROADCAST. It applies only to
// IPv4 UDP sockets, off by default (spec.md §4.5).
func SetSocketBroadcast(h Handle, enabled bool) error {
	return Default.SetSocketBroadcast(h, enabled)
}

func (l *Library) SetSocketBroadcast(h Handle, enabled bool) error {
	if err := l.requireInitialized(); err != nil {
		return err
	}
	entry, err := l.lookupSocket(h)
	if err != nil {
		return l.signal(err.Kind)
	}
	if entry.family != familyIPv4 || entry.kind != kindUDP {
		return l.signal(ErrorKindUnsupportedSocketOption)
	}
	if rawErr := rawSetBroadcast(entry.fd, enabled); rawErr != nil {
		return l.deliver(rawErr)
	}
	entry.broadcastOn = enabled
	return nil
}
