//go:build windows

package socketshare

import "syscall"

// requestedWinsockVersion is Winsock version 2.2, the version the original
// library requested (spec.md §4.4).
const requestedWinsockVersion = 0x0202

// platformSubsystemStart performs the Winsock startup handshake
// (spec.md §4.4): request version 2.2 and fail with NotSupportedMachine if
// the host grants a different version, tearing the subsystem back down
// first.
func platformSubsystemStart() *Error {
	var data syscall.WSAData
	if err := syscall.WSAStartup(requestedWinsockVersion, &data); err != nil {
		return classifyWSAStartupError(err)
	}

	if uint32(data.Version) != requestedWinsockVersion {
		_ = syscall.WSACleanup()
		return newError(ErrorKindNotSupportedMachine)
	}

	return nil
}

// platformSubsystemStop performs the Winsock teardown handshake
// (spec.md §4.4). WSACleanup implicitly closes every socket still open on
// the process, mirroring spec.md's "Shutdown ... automatically destroys
// all created sockets" — Library.Shutdown closes every socket in its own
// registry first, discarding any close error, before the OS-level teardown
// runs.
func platformSubsystemStop() *Error {
	if err := syscall.WSACleanup(); err != nil {
		return classifyWSACleanupError(err)
	}
	return nil
}

// classifyWSAStartupError maps WSAStartup's failure codes to ErrorKind
// (spec.md §4.3 mapping table, "initialize" row).
func classifyWSAStartupError(err error) *Error {
	switch err {
	case syscall.WSASYSNOTREADY:
		return newError(ErrorKindNetworkSubsystemIsUnavailable)
	case syscall.WSAEPROCLIM:
		return newError(ErrorKindTooManyApplicationsAreUsingSystemLibrary)
	case syscall.WSAVERNOTSUPPORTED:
		return newError(ErrorKindNotSupportedMachine)
	default:
		return newSystemError(err)
	}
}

// classifyWSACleanupError maps WSACleanup's failure codes to ErrorKind
// (spec.md §4.3 mapping table, "teardown" row).
func classifyWSACleanupError(err error) *Error {
	if err == syscall.WSAENETDOWN {
		return newError(ErrorKindNetworkSubsystemFailed)
	}
	return newSystemError(err)
}
