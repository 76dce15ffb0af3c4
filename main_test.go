package socketshare_test

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain runs every test in this package and checks for goroutine leaks
// once they all complete.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
