package socketshare

import (
	"log/slog"

	"github.com/migenn/socketshare/internal/portalloc"
)

// Library is the library's explicit context: the process-wide mutable state
// spec.md §9 asks to be "consolidated into a single library context value"
// instead of scattered globals. It is not safe for concurrent use — spec.md
// §5 declares the whole library single-threaded, and Library mutates its
// fields (isInitialized, the socket registry, the callback slot) without
// any synchronization.
//
// Most callers use the package-level convenience functions (Initialize,
// Shutdown, CreateIPv4UDPSocket, ...), which all operate on the package's
// Default Library. Constructing a separate *Library is useful only for
// tests that want an isolated registry.
type Library struct {
	logger *slog.Logger

	callback    ErrorCallback
	callbackCtx any

	isInitialized bool

	sockets    map[Handle]*socketEntry
	nextHandle uint64
	ports      *portalloc.Allocator

	metrics *Collector
}

// NewLibrary returns a Library with the default no-op error callback that
// logs to slog.Default(). Use WithLogger to attach another logger, and
// SetErrorOccuredCallback before calling Initialize in production code
// (spec.md §9: "writes via SetErrorOccuredCallback should happen before any
// other API call").
func NewLibrary() *Library {
	return &Library{
		callback: noopCallback,
		logger:   slog.Default(),
		sockets:  make(map[Handle]*socketEntry),
		ports:    portalloc.New(),
	}
}

// WithLogger attaches logger for internal diagnostic tracing (ambient,
// never a substitute for the error callback) and returns l for chaining.
func (l *Library) WithLogger(logger *slog.Logger) *Library {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithMetrics attaches a Collector that is updated as a side effect of
// socket creation/destruction and error signaling.
func (l *Library) WithMetrics(c *Collector) *Library {
	l.metrics = c
	return l
}

// Default is the package-level Library instance the flat package functions
// (Initialize, Shutdown, CreateIPv4UDPSocket, ...) operate on, mirroring the
// original's process-wide singleton while keeping the implementation
// routed through an explicit, testable Library value (spec.md §9).
var Default = NewLibrary()

// Initialize starts the library (spec.md §4.4). It must be called before
// any other operation except SetErrorOccuredCallback, and must be paired
// with a later call to Shutdown.
func Initialize() error { return Default.Initialize() }

// Shutdown tears the library down, implicitly closing every socket the
// library created (spec.md §4.4).
func Shutdown() error { return Default.Shutdown() }

// SetErrorOccuredCallback registers the process-wide error callback on the
// Default Library (spec.md §4.3).
func SetErrorOccuredCallback(callback ErrorCallback, ctx any) error {
	return Default.SetErrorOccuredCallback(callback, ctx)
}

// Initialize starts l. A second call without an intervening Shutdown
// returns ErrorKindIsAlreadyInitialized (spec.md §4.4, testable property
// S1).
func (l *Library) Initialize() error {
	if l.isInitialized {
		return l.signal(ErrorKindIsAlreadyInitialized)
	}

	if err := platformSubsystemStart(); err != nil {
		if err.Kind == ErrorKindUnexpectedSystemError {
			return l.signalSystem(err.SystemError)
		}
		return l.signal(err.Kind)
	}

	l.isInitialized = true
	if l.sockets == nil {
		l.sockets = make(map[Handle]*socketEntry)
	}
	if l.ports == nil {
		l.ports = portalloc.New()
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger.Debug("socketshare initialized")
	return nil
}

// Shutdown tears l down. It refuses with ErrorKindIsNotInitialized unless a
// prior Initialize succeeded (spec.md §4.4). Every socket still present in
// l's registry is closed as a side effect, in the same way the original's
// WSACleanup implicitly closed all sockets.
func (l *Library) Shutdown() error {
	if !l.isInitialized {
		return l.signal(ErrorKindIsNotInitialized)
	}

	for handle, entry := range l.sockets {
		_ = entry.closeNow()
		delete(l.sockets, handle)
		if l.metrics != nil {
			l.metrics.IncSocketsDestroyed(entry.family, entry.kind)
		}
	}

	if err := platformSubsystemStop(); err != nil {
		if err.Kind == ErrorKindUnexpectedSystemError {
			return l.signalSystem(err.SystemError)
		}
		return l.signal(err.Kind)
	}

	l.isInitialized = false
	l.logger.Debug("socketshare shut down")
	return nil
}

func (l *Library) requireInitialized() *Error {
	if !l.isInitialized {
		return l.signal(ErrorKindIsNotInitialized)
	}
	return nil
}

// allocHandle returns the next registry key. Handle zero is reserved for
// "absent" (spec.md §3 invariant), so the counter starts at 1 and is never
// reused while any socket created from it could still be valid. Library is
// not safe for concurrent use (spec.md §5), so a plain increment suffices.
func (l *Library) allocHandle() Handle {
	l.nextHandle++
	return Handle(l.nextHandle)
}
