package socketshare_test

import "testing"

func TestEnumerateSupportedProtocolsIPv4(t *testing.T) {
	t.Parallel()
	l := newInitializedLibrary(t)

	protocols := l.EnumerateSupportedProtocols()
	if protocols.Err != nil {
		t.Fatalf("EnumerateSupportedProtocols().Err = %v, want nil", protocols.Err)
	}
	if !protocols.IPv4TCP {
		t.Error("IPv4TCP reported unsupported on a host with a loopback interface")
	}
	if !protocols.IPv4UDP {
		t.Error("IPv4UDP reported unsupported on a host with a loopback interface")
	}
}

func TestEnumerateSupportedProtocolsRequiresInitialize(t *testing.T) {
	t.Parallel()
	l := newUninitializedLibrary(t)

	protocols := l.EnumerateSupportedProtocols()
	if protocols.Err == nil {
		t.Fatal("EnumerateSupportedProtocols() on an uninitialized Library succeeded, want error")
	}
}
