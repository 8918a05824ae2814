package capture

import "fmt"

// maxBufferBytes is the default cap on a single frame allocation. Anything
// larger is treated as an allocation failure rather than attempted.
const maxBufferBytes = 1 << 30

// PixelBuffer owns the bytes of one BGRA frame. It is over-allocated by 10%
// so small resolution jitter does not reallocate every cycle.
type PixelBuffer struct {
	data  []byte
	limit int // 0 means maxBufferBytes
}

func (b *PixelBuffer) maxBytes() int {
	if b.limit > 0 {
		return b.limit
	}
	return maxBufferBytes
}

// slackFor returns the allocation size used for a requirement.
func slackFor(required int) int { return required * 110 / 100 }

// Ensure makes the buffer hold at least required bytes. The current
// allocation is kept while its length lies within [required, required*1.1];
// otherwise the buffer is replaced by one of required*1.1 bytes. On failure
// the previous allocation is left untouched.
func (b *PixelBuffer) Ensure(required int) (err error) {
	if required <= 0 {
		return errorf(InvalidParameter, "buffer", "invalid size %d", required)
	}
	size := slackFor(required)
	if n := len(b.data); n >= required && n <= size {
		return nil
	}
	if required > b.maxBytes() {
		return errorf(OutOfMemory, "buffer", "%d bytes exceeds limit", required)
	}
	defer func() {
		if r := recover(); r != nil {
			err = newError(OutOfMemory, "buffer", fmt.Errorf("allocate %d bytes: %v", size, r))
		}
	}()
	b.data = make([]byte, size)
	return nil
}

// Bytes returns the whole allocation.
func (b *PixelBuffer) Bytes() []byte { return b.data }

// Len is the allocated size in bytes.
func (b *PixelBuffer) Len() int { return len(b.data) }

// Zero clears every byte of the allocation.
func (b *PixelBuffer) Zero() { clear(b.data) }

// Free drops the allocation.
func (b *PixelBuffer) Free() { b.data = nil }

// copyRows copies h rows of rowBytes from src, whose rows are pitch bytes
// apart starting at offset, into dst packed at rowBytes per row.
func copyRows(dst, src []byte, offset, pitch, rowBytes, h int) error {
	if pitch < rowBytes {
		return errorf(CaptureFailed, "copy", "row pitch %d below row size %d", pitch, rowBytes)
	}
	if need := offset + (h-1)*pitch + rowBytes; h > 0 && need > len(src) {
		return errorf(CaptureFailed, "copy", "source holds %d bytes, need %d", len(src), need)
	}
	if len(dst) < rowBytes*h {
		return errorf(CaptureFailed, "copy", "destination holds %d bytes, need %d", len(dst), rowBytes*h)
	}
	if pitch == rowBytes {
		copy(dst[:rowBytes*h], src[offset:offset+rowBytes*h])
		return nil
	}
	for y := 0; y < h; y++ {
		s := offset + y*pitch
		copy(dst[y*rowBytes:(y+1)*rowBytes], src[s:s+rowBytes])
	}
	return nil
}
