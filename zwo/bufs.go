package zwo

// frameBuffer is the reusable storage the SDK downloads frames into.
// It is owned exclusively by the Camera; the same backing array is reused
// across captures when the frame size is unchanged.
type frameBuffer struct {
	data []byte
}

// EnsureCapacity reallocates the storage only when the requested size
// differs from the current one
func (b *frameBuffer) EnsureCapacity(sizeBytes int) {
	if len(b.data) != sizeBytes {
		b.data = make([]byte, sizeBytes)
	}
}

// Clear zeroes every byte.  A stale frame from a failed capture must never
// leak into the next one, so this is an explicit full pass rather than a
// conditional fast path.
func (b *frameBuffer) Clear() {
	for i := range b.data {
		b.data[i] = 0
	}
}

// Bytes exposes the storage for the driver download
func (b *frameBuffer) Bytes() []byte {
	return b.data
}
