package portalloc_test

import (
	"errors"
	"testing"

	"github.com/migenn/socketshare/internal/portalloc"
)

func TestAllocateReturnsPortInRange(t *testing.T) {
	t.Parallel()

	a := portalloc.New()
	port, err := a.Allocate()
	if err != nil {
		t.Fatalf("Allocate() = %v, want nil", err)
	}
	if port < portalloc.Min || port > portalloc.Max {
		t.Errorf("Allocate() = %d, want in [%d, %d]", port, portalloc.Min, portalloc.Max)
	}
}

func TestAllocateNeverReturnsADuplicateWithoutRelease(t *testing.T) {
	t.Parallel()

	a := portalloc.New()
	seen := make(map[uint16]bool)
	for i := 0; i < 100; i++ {
		port, err := a.Allocate()
		if err != nil {
			t.Fatalf("Allocate() call %d = %v, want nil", i, err)
		}
		if seen[port] {
			t.Fatalf("Allocate() returned port %d twice without an intervening Release", port)
		}
		seen[port] = true
	}
}

func TestReleaseAllowsReallocation(t *testing.T) {
	t.Parallel()

	a := portalloc.New()
	port, err := a.Allocate()
	if err != nil {
		t.Fatalf("Allocate() = %v, want nil", err)
	}
	a.Release(port)

	// Released port must be eligible for reallocation again at some point;
	// exhausting the pool proves Release actually freed capacity.
	span := int(portalloc.Max) - int(portalloc.Min) + 1
	reallocated := false
	for i := 0; i < span; i++ {
		p, err := a.Allocate()
		if err != nil {
			t.Fatalf("Allocate() call %d after Release = %v, want nil", i, err)
		}
		if p == port {
			reallocated = true
		}
	}
	if !reallocated {
		t.Errorf("released port %d was never allocated again", port)
	}
}

func TestAllocateExhaustion(t *testing.T) {
	t.Parallel()

	a := portalloc.New()
	span := int(portalloc.Max) - int(portalloc.Min) + 1
	for i := 0; i < span; i++ {
		if _, err := a.Allocate(); err != nil {
			t.Fatalf("Allocate() call %d = %v, want nil", i, err)
		}
	}

	_, err := a.Allocate()
	if !errors.Is(err, portalloc.ErrExhausted) {
		t.Fatalf("Allocate() after exhausting the range = %v, want ErrExhausted", err)
	}
}
