package socketshare_test

import (
	"errors"
	"testing"

	"github.com/migenn/socketshare"
)

// -------------------------------------------------------------------------
// Error callback registration and invocation tests (spec.md §4.3, §7)
// -------------------------------------------------------------------------

func TestSetErrorOccuredCallbackValidatesWithSuccess(t *testing.T) {
	t.Parallel()

	l := socketshare.NewLibrary()

	var gotKind socketshare.ErrorKind
	var calls int
	err := l.SetErrorOccuredCallback(func(kind socketshare.ErrorKind, sysErr error, ctx any) {
		calls++
		gotKind = kind
	}, nil)
	if err != nil {
		t.Fatalf("SetErrorOccuredCallback() = %v, want nil", err)
	}
	if calls != 1 {
		t.Fatalf("callback invoked %d times during registration, want 1", calls)
	}
	if gotKind != socketshare.ErrorKindSuccess {
		t.Fatalf("registration callback kind = %s, want %s", gotKind, socketshare.ErrorKindSuccess)
	}
}

func TestSetErrorOccuredCallbackRejectsNil(t *testing.T) {
	t.Parallel()

	l := socketshare.NewLibrary()
	if err := l.SetErrorOccuredCallback(nil, nil); err == nil {
		t.Fatal("SetErrorOccuredCallback(nil, ...) succeeded, want error")
	}
}

func TestSetErrorOccuredCallbackRejectsPanickingCallback(t *testing.T) {
	t.Parallel()

	l := socketshare.NewLibrary()
	err := l.SetErrorOccuredCallback(func(socketshare.ErrorKind, error, any) {
		panic("boom")
	}, nil)
	if err == nil {
		t.Fatal("SetErrorOccuredCallback with a panicking callback succeeded, want error")
	}
}

func TestErrorCallbackInvokedOnceForFailingCall(t *testing.T) {
	t.Parallel()

	l := socketshare.NewLibrary()
	var calls int
	if err := l.SetErrorOccuredCallback(func(socketshare.ErrorKind, error, any) {
		calls++
	}, nil); err != nil {
		t.Fatalf("SetErrorOccuredCallback() = %v, want nil", err)
	}

	calls = 0 // reset after the registration probe call
	if err := l.Shutdown(); err == nil {
		t.Fatal("Shutdown() on an uninitialized Library succeeded, want error")
	}
	if calls != 1 {
		t.Fatalf("error callback invoked %d times, want exactly 1", calls)
	}
}

func TestErrorUnwrapsSystemError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("platform failure")
	wrapped := &socketshare.Error{Kind: socketshare.ErrorKindUnexpectedSystemError, SystemError: sentinel}
	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is did not see through Error.Unwrap to the system error")
	}
}
