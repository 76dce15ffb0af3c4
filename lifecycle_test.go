package socketshare_test

import (
	"errors"
	"testing"

	"github.com/migenn/socketshare"
)

// -------------------------------------------------------------------------
// S1: Initialize/Shutdown handshake (spec.md §8 scenario S1)
// -------------------------------------------------------------------------

func TestLibraryInitializeShutdown(t *testing.T) {
	t.Parallel()

	l := socketshare.NewLibrary()

	if err := l.Initialize(); err != nil {
		t.Fatalf("Initialize() = %v, want nil", err)
	}

	if err := l.Shutdown(); err != nil {
		t.Fatalf("Shutdown() = %v, want nil", err)
	}
}

func TestLibraryDoubleInitializeFails(t *testing.T) {
	t.Parallel()

	l := socketshare.NewLibrary()
	if err := l.Initialize(); err != nil {
		t.Fatalf("Initialize() = %v, want nil", err)
	}
	t.Cleanup(func() { _ = l.Shutdown() })

	err := l.Initialize()
	assertErrorKind(t, err, socketshare.ErrorKindIsAlreadyInitialized)
}

func TestLibraryShutdownWithoutInitializeFails(t *testing.T) {
	t.Parallel()

	l := socketshare.NewLibrary()
	err := l.Shutdown()
	assertErrorKind(t, err, socketshare.ErrorKindIsNotInitialized)
}

func TestLibraryOperationBeforeInitializeFails(t *testing.T) {
	t.Parallel()

	l := socketshare.NewLibrary()
	_, _, err := l.CreateIPv4UDPSocket(socketshare.IPv4Address{Octets: [4]byte{127, 0, 0, 1}}, 0)
	assertErrorKind(t, err, socketshare.ErrorKindIsNotInitialized)
}

func TestLibraryShutdownClosesOutstandingSockets(t *testing.T) {
	t.Parallel()

	l := socketshare.NewLibrary()
	if err := l.Initialize(); err != nil {
		t.Fatalf("Initialize() = %v, want nil", err)
	}

	h, _, err := l.CreateIPv4UDPSocket(socketshare.IPv4Address{Octets: [4]byte{127, 0, 0, 1}}, 0)
	if err != nil {
		t.Fatalf("CreateIPv4UDPSocket() = %v, want nil", err)
	}

	if err := l.Shutdown(); err != nil {
		t.Fatalf("Shutdown() = %v, want nil", err)
	}

	if err := l.Initialize(); err != nil {
		t.Fatalf("re-Initialize() = %v, want nil", err)
	}
	t.Cleanup(func() { _ = l.Shutdown() })

	// h was implicitly destroyed by Shutdown (spec.md §4.4); it must be
	// invalid even against the freshly re-initialized Library.
	if err := l.DestroySocket(h); err == nil {
		t.Error("DestroySocket on a handle from a prior Shutdown generation succeeded, want error")
	}
}

func assertErrorKind(t *testing.T, err error, want socketshare.ErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatalf("error = nil, want ErrorKind %s", want)
	}
	var se *socketshare.Error
	if !errors.As(err, &se) {
		t.Fatalf("error = %v (%T), want *socketshare.Error", err, err)
	}
	if se.Kind != want {
		t.Fatalf("error kind = %s, want %s", se.Kind, want)
	}
}
