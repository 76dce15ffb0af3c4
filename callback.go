package socketshare

import "fmt"

// ErrorCallback is invoked exactly once per failing public-function call,
// with the portable ErrorKind and the context value registered alongside it
// (spec.md §4.3, §7). It is also invoked once, synchronously, with
// ErrorKindSuccess when it is first registered, so that a callback which
// panics is rejected at registration time rather than during normal use.
type ErrorCallback func(kind ErrorKind, systemError error, ctx any)

// noopCallback is the default sink, matching the original's
// "DoNothingWhenErrorOccured" (spec.md §4.3: "Default sink is a no-op.").
func noopCallback(ErrorKind, error, any) {}

// SetErrorOccuredCallback registers callback as l's error sink. callback is
// validated by invoking it synchronously once with (ErrorKindSuccess, nil,
// ctx); if that invocation panics, or callback is nil, registration fails
// and the previous sink is left untouched (spec.md §4.3, §7).
func (l *Library) SetErrorOccuredCallback(callback ErrorCallback, ctx any) error {
	if callback == nil {
		return newError(ErrorKindPassedPointerIsNull)
	}

	if err := probeCallback(callback, ctx); err != nil {
		return err
	}

	l.callback = callback
	l.callbackCtx = ctx
	return nil
}

// probeCallback invokes callback once with the Success sentinel, converting
// a panic into a configuration error instead of letting it escape to the
// caller — the original's "Passing an invalid callback will throw an
// exception" (spec.md §4.3), expressed as a returned error rather than a
// language-level exception.
func probeCallback(callback ErrorCallback, ctx any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("socketshare: error callback panicked during registration: %v", r)
		}
	}()

	callback(ErrorKindSuccess, nil, ctx)
	return nil
}

// signal invokes l's registered callback with kind and a nil platform error;
// signalSystem is the variant that carries the originating platform error
// for ErrorKindUnexpectedSystemError (spec.md §7: "only for
// UnexpectedSystemError, a non-zero platform code").
// It always returns a *Error so call sites can `return nil, l.signal(...)`.
func (l *Library) signal(kind ErrorKind) *Error {
	e := newError(kind)
	l.callback(kind, nil, l.callbackCtx)
	if l.metrics != nil {
		l.metrics.incErrorsSignaled(kind)
	}
	return e
}

// signalSystem is signal's counterpart for ErrorKindUnexpectedSystemError,
// carrying the untranslatable platform error through to the callback.
func (l *Library) signalSystem(sysErr error) *Error {
	e := newSystemError(sysErr)
	l.callback(ErrorKindUnexpectedSystemError, sysErr, l.callbackCtx)
	if l.metrics != nil {
		l.metrics.incErrorsSignaled(ErrorKindUnexpectedSystemError)
	}
	return e
}
