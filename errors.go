package socketshare

import "fmt"

// ErrorKind is the portable error taxonomy every platform failure is
// translated into (spec.md §7). Values are frozen as of this release
// (spec.md §9 Open Question 1) and must not be renumbered.
type ErrorKind int32

const (
	// ErrorKindSuccess is reported once, synchronously, when a freshly
	// registered callback is validated (spec.md §4.3). It is never paired
	// with a returned error.
	ErrorKindSuccess ErrorKind = iota

	// Lifecycle.
	ErrorKindIsAlreadyInitialized
	ErrorKindIsNotInitialized
	ErrorKindNotSupportedMachine
	ErrorKindNetworkSubsystemIsUnavailable
	ErrorKindNetworkSubsystemFailed
	ErrorKindTooManyApplicationsAreUsingSystemLibrary
	ErrorKindServiceProviderFailed

	// Resource.
	ErrorKindNotEnoughMemory
	ErrorKindSystemSocketLimitIsReached
	ErrorKindAllDynamicPortsAreTaken

	// Argument.
	ErrorKindPassedPointerIsNull
	ErrorKindInvalidIPAddress
	ErrorKindPortNumberIsInvalid
	ErrorKindInvalidSocketHandle
	ErrorKindUnsupportedSocketOption

	// Protocol capability.
	ErrorKindIPv4IsNotSupported
	ErrorKindIPv6IsNotSupported
	ErrorKindIPv4TCPIsNotSupported
	ErrorKindIPv4UDPIsNotSupported
	ErrorKindIPv6TCPIsNotSupported
	ErrorKindIPv6UDPIsNotSupported

	// Binding/Connectivity.
	ErrorKindUnavailableIPAddress
	ErrorKindSocketAddressIsTaken
	ErrorKindCannotReachNetwork
	ErrorKindCannotReachAnotherHost
	ErrorKindAnotherHostRejectedConnection
	ErrorKindCannotEstablishConnection

	// State.
	ErrorKindSocketIsAlreadyConnectedOrConnecting
	ErrorKindSocketIsAlreadyInListeningMode
	ErrorKindSocketDoesNotSupportListeningMode
	ErrorKindSocketMustBeInListeningMode
	ErrorKindSocketMustBeConnected
	ErrorKindPeerHasDifferentSocketAddress
	ErrorKindAnotherHostUsesIncompatibleSocketAddress

	// Catch-all.
	ErrorKindUnexpectedSystemError
)

//go:generate stringer -type=ErrorKind
func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int32(k))
}

var errorKindNames = map[ErrorKind]string{
	ErrorKindSuccess:                                  "Success",
	ErrorKindIsAlreadyInitialized:                     "IsAlreadyInitialized",
	ErrorKindIsNotInitialized:                         "IsNotInitialized",
	ErrorKindNotSupportedMachine:                      "NotSupportedMachine",
	ErrorKindNetworkSubsystemIsUnavailable:            "NetworkSubsystemIsUnavailable",
	ErrorKindNetworkSubsystemFailed:                   "NetworkSubsystemFailed",
	ErrorKindTooManyApplicationsAreUsingSystemLibrary: "TooManyApplicationsAreUsingSystemLibrary",
	ErrorKindServiceProviderFailed:                    "ServiceProviderFailed",
	ErrorKindNotEnoughMemory:                          "NotEnoughMemory",
	ErrorKindSystemSocketLimitIsReached:               "SystemSocketLimitIsReached",
	ErrorKindAllDynamicPortsAreTaken:                  "AllDynamicPortsAreTaken",
	ErrorKindPassedPointerIsNull:                      "PassedPointerIsNull",
	ErrorKindInvalidIPAddress:                         "InvalidIPAddress",
	ErrorKindPortNumberIsInvalid:                      "PortNumberIsInvalid",
	ErrorKindInvalidSocketHandle:                      "InvalidSocketHandle",
	ErrorKindUnsupportedSocketOption:                  "UnsupportedSocketOption",
	ErrorKindIPv4IsNotSupported:                       "IPv4IsNotSupported",
	ErrorKindIPv6IsNotSupported:                       "IPv6IsNotSupported",
	ErrorKindIPv4TCPIsNotSupported:                    "IPv4TCPIsNotSupported",
	ErrorKindIPv4UDPIsNotSupported:                    "IPv4UDPIsNotSupported",
	ErrorKindIPv6TCPIsNotSupported:                    "IPv6TCPIsNotSupported",
	ErrorKindIPv6UDPIsNotSupported:                    "IPv6UDPIsNotSupported",
	ErrorKindUnavailableIPAddress:                     "UnavailableIPAddress",
	ErrorKindSocketAddressIsTaken:                     "SocketAddressIsTaken",
	ErrorKindCannotReachNetwork:                       "CannotReachNetwork",
	ErrorKindCannotReachAnotherHost:                   "CannotReachAnotherHost",
	ErrorKindAnotherHostRejectedConnection:            "AnotherHostRejectedConnection",
	ErrorKindCannotEstablishConnection:                "CannotEstablishConnection",
	ErrorKindSocketIsAlreadyConnectedOrConnecting:     "SocketIsAlreadyConnectedOrConnecting",
	ErrorKindSocketIsAlreadyInListeningMode:           "SocketIsAlreadyInListeningMode",
	ErrorKindSocketDoesNotSupportListeningMode:        "SocketDoesNotSupportListeningMode",
	ErrorKindSocketMustBeInListeningMode:              "SocketMustBeInListeningMode",
	ErrorKindSocketMustBeConnected:                    "SocketMustBeConnected",
	ErrorKindPeerHasDifferentSocketAddress:            "PeerHasDifferentSocketAddress",
	ErrorKindAnotherHostUsesIncompatibleSocketAddress: "AnotherHostUsesIncompatibleSocketAddress",
	ErrorKindUnexpectedSystemError:                    "UnexpectedSystemError",
}

// Error is the error value returned alongside every failed public-function
// call. SystemError is only meaningful when Kind is ErrorKindUnexpectedSystemError
// (spec.md §7); it is the raw platform error the translator could not
// classify, preserved for diagnostics.
type Error struct {
	Kind        ErrorKind
	SystemError error
}

func (e *Error) Error() string {
	if e.SystemError != nil {
		return fmt.Sprintf("socketshare: %s: %v", e.Kind, e.SystemError)
	}
	return fmt.Sprintf("socketshare: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.SystemError
}

func newError(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}

func newSystemError(sysErr error) *Error {
	return &Error{Kind: ErrorKindUnexpectedSystemError, SystemError: sysErr}
}
