package capture

import (
	"sync/atomic"
	"time"
)

// published is one immutable generation of a session's output. Readers load
// it with a single atomic operation, so pointer and dimensions always match.
type published struct {
	index      int
	data       []byte
	width      int
	height     int
	stride     int
	sequence   uint64
	capturedAt time.Time
}

// publisher implements single-writer double buffering. The write side
// (target, publish, zero, free) must be serialized by the caller; load may
// run from any goroutine.
type publisher struct {
	bufs     [2]PixelBuffer
	writeIdx int
	sequence uint64
	current  atomic.Pointer[published]
}

// target returns the buffer not exposed to readers.
func (p *publisher) target() *PixelBuffer { return &p.bufs[p.writeIdx] }

// ensureIdle sizes every buffer the published record does not point into.
// The exposed buffer is left alone so outstanding views stay inside it.
func (p *publisher) ensureIdle(required int) error {
	cur := p.current.Load()
	for i := range p.bufs {
		if cur != nil && cur.index == i {
			continue
		}
		if err := p.bufs[i].Ensure(required); err != nil {
			return err
		}
	}
	return nil
}

// setLimit caps the allocation of both buffers. n <= 0 restores the default.
func (p *publisher) setLimit(n int) {
	p.bufs[0].limit = n
	p.bufs[1].limit = n
}

// publish exposes the first width*height*4 bytes of the write buffer and
// flips the write target. The pixels must be fully written before the call.
func (p *publisher) publish(width, height int, capturedAt time.Time) *published {
	size := width * height * BytesPerPixel
	p.sequence++
	rec := &published{
		index:      p.writeIdx,
		data:       p.bufs[p.writeIdx].data[:size:size],
		width:      width,
		height:     height,
		stride:     width * BytesPerPixel,
		sequence:   p.sequence,
		capturedAt: capturedAt,
	}
	p.current.Store(rec)
	p.writeIdx = 1 - rec.index
	return rec
}

func (p *publisher) load() *published { return p.current.Load() }

// zero clears both buffers. The published record keeps its dimensions, so
// the next read returns a blank frame of the last known size.
func (p *publisher) zero() {
	p.bufs[0].Zero()
	p.bufs[1].Zero()
}

func (p *publisher) free() {
	p.current.Store(nil)
	p.bufs[0].Free()
	p.bufs[1].Free()
	p.writeIdx = 0
}
