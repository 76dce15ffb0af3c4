// Package portalloc allocates ephemeral source ports from a fixed range,
// independent of whatever range the host OS would otherwise hand out for
// port 0.
package portalloc

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Min and Max bound the dynamic port range spec.md §6 requires
// auto-assigned ports to come from: 49152-65535 inclusive.
const (
	Min uint16 = 49152
	Max uint16 = 65535
)

// ErrExhausted is returned by Allocate when every port in [Min, Max] is
// currently in use (spec.md §7: ErrorKindAllDynamicPortsAreTaken).
var ErrExhausted = errors.New("portalloc: no dynamic ports available")

// Allocator tracks which ports in [Min, Max] are currently handed out.
// Not safe for concurrent use: it is embedded in Library, which spec.md §5
// explicitly declares single-threaded.
type Allocator struct {
	inUse map[uint16]struct{}
	span  int
}

// New returns an Allocator covering the full dynamic port range.
func New() *Allocator {
	return &Allocator{
		inUse: make(map[uint16]struct{}),
		span:  int(Max) - int(Min) + 1,
	}
}

// Allocate returns an unused port in [Min, Max], chosen by probing from a
// random starting offset so repeated runs don't hand out a predictable
// sequence.
func (a *Allocator) Allocate() (uint16, error) {
	if len(a.inUse) >= a.span {
		return 0, fmt.Errorf("%w: all %d ports allocated", ErrExhausted, a.span)
	}

	offset := rand.IntN(a.span)
	for i := range a.span {
		port := Min + uint16((offset+i)%a.span)
		if _, used := a.inUse[port]; !used {
			a.inUse[port] = struct{}{}
			return port, nil
		}
	}

	return 0, fmt.Errorf("%w: all %d ports allocated", ErrExhausted, a.span)
}

// Reserve marks port as in use without going through Allocate, for when the
// caller already picked an explicit non-zero port.
func (a *Allocator) Reserve(port uint16) {
	a.inUse[port] = struct{}{}
}

// Release returns port to the available pool. Releasing a port that is not
// currently allocated or reserved is a no-op.
func (a *Allocator) Release(port uint16) {
	delete(a.inUse, port)
}
