package socketshare_test

import (
	"testing"

	"github.com/migenn/socketshare"
)

// -------------------------------------------------------------------------
// IPv4Address classifier tests (spec.md §4.1, §8 testable property 4)
// -------------------------------------------------------------------------

func TestIPv4AddressIsZero(t *testing.T) {
	t.Parallel()

	if !(socketshare.IPv4Address{}).IsZero() {
		t.Error("zero-valued IPv4Address should report IsZero")
	}
	if (socketshare.IPv4Address{Octets: [4]byte{1, 0, 0, 0}}).IsZero() {
		t.Error("non-zero IPv4Address reported IsZero")
	}
}

func TestIPv4AddressIsLoopback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr socketshare.IPv4Address
		want bool
	}{
		{"loopback_host", socketshare.IPv4Address{Octets: [4]byte{127, 0, 0, 1}}, true},
		{"loopback_edge", socketshare.IPv4Address{Octets: [4]byte{127, 255, 255, 255}}, true},
		{"not_loopback", socketshare.IPv4Address{Octets: [4]byte{128, 0, 0, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.addr.IsLoopback(); got != tt.want {
				t.Errorf("IsLoopback() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIPv4AddressIsLinkLocal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr socketshare.IPv4Address
		want bool
	}{
		{"link_local", socketshare.IPv4Address{Octets: [4]byte{169, 254, 1, 1}}, true},
		{"not_link_local", socketshare.IPv4Address{Octets: [4]byte{169, 253, 1, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.addr.IsLinkLocal(); got != tt.want {
				t.Errorf("IsLinkLocal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIPv4AddressIsPrivate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr socketshare.IPv4Address
		want bool
	}{
		{"10_slash_8", socketshare.IPv4Address{Octets: [4]byte{10, 1, 2, 3}}, true},
		{"172_16_slash_12_low", socketshare.IPv4Address{Octets: [4]byte{172, 16, 0, 1}}, true},
		{"172_16_slash_12_high", socketshare.IPv4Address{Octets: [4]byte{172, 31, 255, 255}}, true},
		{"172_not_private", socketshare.IPv4Address{Octets: [4]byte{172, 32, 0, 1}}, false},
		{"192_168_slash_16", socketshare.IPv4Address{Octets: [4]byte{192, 168, 1, 1}}, true},
		{"public", socketshare.IPv4Address{Octets: [4]byte{8, 8, 8, 8}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.addr.IsPrivate(); got != tt.want {
				t.Errorf("IsPrivate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// -------------------------------------------------------------------------
// IPv6Address classifier and byte-order tests
// -------------------------------------------------------------------------

func TestIPv6AddressIsLoopback(t *testing.T) {
	t.Parallel()

	loopback := socketshare.IPv6Address{Hextets: [8]uint16{0, 0, 0, 0, 0, 0, 0, 1}}
	if !loopback.IsLoopback() {
		t.Error("::1 should report IsLoopback")
	}

	notLoopback := socketshare.IPv6Address{Hextets: [8]uint16{0, 0, 0, 0, 0, 0, 0, 2}}
	if notLoopback.IsLoopback() {
		t.Error("::2 should not report IsLoopback")
	}
}

func TestIPv6AddressIsLinkLocal(t *testing.T) {
	t.Parallel()

	linkLocal := socketshare.IPv6Address{Hextets: [8]uint16{0xFE80, 0, 0, 0, 0, 0, 0, 1}}
	if !linkLocal.IsLinkLocal() {
		t.Error("fe80::1 should report IsLinkLocal")
	}

	global := socketshare.IPv6Address{Hextets: [8]uint16{0x2001, 0xDB8, 0, 0, 0, 0, 0, 1}}
	if global.IsLinkLocal() {
		t.Error("2001:db8::1 should not report IsLinkLocal")
	}
}

func TestIPv6AddressIsPrivate(t *testing.T) {
	t.Parallel()

	unique := socketshare.IPv6Address{Hextets: [8]uint16{0xFD00, 0, 0, 0, 0, 0, 0, 1}}
	if !unique.IsPrivate() {
		t.Error("fd00::1 should report IsPrivate")
	}

	global := socketshare.IPv6Address{Hextets: [8]uint16{0x2001, 0xDB8, 0, 0, 0, 0, 0, 1}}
	if global.IsPrivate() {
		t.Error("2001:db8::1 should not report IsPrivate")
	}
}

func TestIPv6AddressByteOrderRoundTrip(t *testing.T) {
	t.Parallel()

	addr := socketshare.IPv6Address{
		Hextets:  [8]uint16{0x2001, 0x0DB8, 0, 0, 0, 0, 0, 1},
		ScopeID:  7,
		FlowInfo: 0xDEADBEEF,
	}

	roundTripped := addr.ToNetworkBO().ToHostBO()
	if roundTripped.Hextets != addr.Hextets {
		t.Errorf("hextets after round trip = %v, want %v", roundTripped.Hextets, addr.Hextets)
	}
	if roundTripped.ScopeID != addr.ScopeID {
		t.Errorf("ScopeID after round trip = %d, want %d", roundTripped.ScopeID, addr.ScopeID)
	}
	if roundTripped.FlowInfo != addr.FlowInfo {
		t.Errorf("FlowInfo after round trip = %#x, want %#x", roundTripped.FlowInfo, addr.FlowInfo)
	}
}
