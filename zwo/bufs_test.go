package zwo

import "testing"

func TestFrameBufferReusesStorageAtSameSize(t *testing.T) {
	b := frameBuffer{}
	b.EnsureCapacity(64)
	first := &b.Bytes()[0]
	b.EnsureCapacity(64)
	second := &b.Bytes()[0]
	if first != second {
		t.Errorf("expected same-size EnsureCapacity to reuse storage")
	}
}

func TestFrameBufferReallocatesOnSizeChange(t *testing.T) {
	b := frameBuffer{}
	b.EnsureCapacity(64)
	b.EnsureCapacity(128)
	if len(b.Bytes()) != 128 {
		t.Errorf("expected 128 bytes got %d", len(b.Bytes()))
	}
	b.EnsureCapacity(32)
	if len(b.Bytes()) != 32 {
		t.Errorf("expected 32 bytes got %d", len(b.Bytes()))
	}
}

func TestFrameBufferClearZeroes(t *testing.T) {
	b := frameBuffer{}
	b.EnsureCapacity(16)
	data := b.Bytes()
	for i := range data {
		data[i] = 0xFF
	}
	b.Clear()
	for i, v := range b.Bytes() {
		if v != 0 {
			t.Errorf("expected zero at position %d got %d", i, v)
		}
	}
	// a second clear is a no-op, not a fault
	b.Clear()
}

func TestFrameBufferClearEmpty(t *testing.T) {
	b := frameBuffer{}
	b.Clear()
	if len(b.Bytes()) != 0 {
		t.Errorf("expected empty buffer got %d bytes", len(b.Bytes()))
	}
}
