package socketshare

import "net"

// ErrorSupportedProtocols is the capability bitmap for the four
// family×transport combinations the factory can create sockets for
// (spec.md §3).
type ErrorSupportedProtocols struct {
	// Err is non-nil if the underlying enumeration itself failed; when Err
	// is set the four flags below are meaningless.
	Err error

	IPv4TCP bool
	IPv4UDP bool
	IPv6TCP bool
	IPv6UDP bool
}

// EnumerateSupportedProtocols reports which of the four family×transport
// combinations the host supports (spec.md §4.4), using Default.
func EnumerateSupportedProtocols() ErrorSupportedProtocols {
	return Default.EnumerateSupportedProtocols()
}

// EnumerateSupportedProtocols reports which of the four family×transport
// combinations l's host supports. Each combination is probed by opening and
// immediately closing a loopback-bound socket of that family/type, since
// the standard library exposes no direct capability query equivalent to
// WSAEnumProtocols.
func (l *Library) EnumerateSupportedProtocols() ErrorSupportedProtocols {
	if err := l.requireInitialized(); err != nil {
		return ErrorSupportedProtocols{Err: err}
	}

	return ErrorSupportedProtocols{
		IPv4TCP: probeListen("tcp4"),
		IPv4UDP: probeListen("udp4"),
		IPv6TCP: probeListen("tcp6"),
		IPv6UDP: probeListen("udp6"),
	}
}

// probeListen reports whether the host can open a loopback-bound,
// ephemeral-port socket of the given network ("tcp4", "udp6", ...).
func probeListen(network string) bool {
	switch network[:3] {
	case "tcp":
		ln, err := net.Listen(network, loopbackFor(network)+":0")
		if err != nil {
			return false
		}
		_ = ln.Close()
		return true
	default:
		pc, err := net.ListenPacket(network, loopbackFor(network)+":0")
		if err != nil {
			return false
		}
		_ = pc.Close()
		return true
	}
}

func loopbackFor(network string) string {
	if network == "tcp6" || network == "udp6" {
		return "[::1]"
	}
	return "127.0.0.1"
}
