// Package buffer provides a reusable growable byte buffer for the
// probe-then-fill pattern adapter enumeration uses: call an OS
// API with a buffer, have it report the size actually needed, grow, and
// retry.
package buffer

// Buffer is a growable contiguous byte region. The zero value is an empty
// buffer ready to use.
type Buffer struct {
	data []byte
}

// Size returns the buffer's current length.
func (b *Buffer) Size() int {
	return len(b.data)
}

// Data returns the buffer's backing slice. The returned slice is only valid
// until the next call to Resize.
func (b *Buffer) Data() []byte {
	return b.data
}

// Resize grows or shrinks the buffer to exactly newSize bytes, preserving
// existing contents up to min(oldSize, newSize). Passing zero releases the
// backing array.
func (b *Buffer) Resize(newSize int) {
	if newSize == 0 {
		b.data = nil
		return
	}
	if newSize <= cap(b.data) {
		b.data = b.data[:newSize]
		return
	}
	grown := make([]byte, newSize)
	copy(grown, b.data)
	b.data = grown
}

// GrowFor runs fn against the buffer, resizing it to the size tooSmall
// reports (or doubling it when that size is not larger than the current one)
// and retrying whenever fn reports its buffer was too small, up to a small
// number of attempts. It mirrors GetNetworkIPAddressesArray's "grow the
// reusable buffer until the OS accepts it" loop.
func GrowFor(b *Buffer, initialSize int, tooSmall func(err error) (wantedSize int, retry bool), fn func() error) error {
	if b.Size() < initialSize {
		b.Resize(initialSize)
	}

	const maxAttempts = 8
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		wanted, retry := tooSmall(err)
		if !retry {
			return err
		}
		if wanted <= b.Size() {
			wanted = b.Size() * 2
		}
		b.Resize(wanted)
	}
	return nil
}
