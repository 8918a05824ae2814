package capture

import (
	"testing"
	"time"
)

func TestPublisher_AlternatesBuffers(t *testing.T) {
	var p publisher
	if p.load() != nil {
		t.Fatalf("fresh publisher should have nothing published")
	}
	if err := p.ensureIdle(16); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	p.target().Bytes()[0] = 1
	first := p.publish(2, 2, time.Now())
	if first.index != 0 || first.sequence != 1 || first.stride != 8 || len(first.data) != 16 {
		t.Fatalf("unexpected first record %+v", first)
	}
	if p.target() != &p.bufs[1] {
		t.Fatalf("write target did not flip")
	}
	p.target().Bytes()[0] = 2
	second := p.publish(1, 1, time.Now())
	if second.index != 1 || len(second.data) != 4 || second.data[0] != 2 {
		t.Fatalf("unexpected second record %+v", second)
	}
	// The first record still describes buffer 0 intact.
	if first.data[0] != 1 || len(first.data) != 16 {
		t.Fatalf("older record changed: %+v", first)
	}
	if p.load() != second {
		t.Fatalf("load returned stale record")
	}
}

func TestPublisher_ZeroKeepsDimensions(t *testing.T) {
	var p publisher
	_ = p.ensureIdle(4)
	copy(p.target().Bytes(), []byte{9, 9, 9, 9})
	p.publish(1, 1, time.Now())
	p.zero()
	rec := p.load()
	if rec == nil || rec.width != 1 || rec.data[0] != 0 {
		t.Fatalf("zero should clear pixels and keep record: %+v", rec)
	}
	p.free()
	if p.load() != nil || p.bufs[0].Len() != 0 || p.bufs[1].Len() != 0 {
		t.Fatalf("free left state behind")
	}
}

func TestPublisher_EnsureIdleLeavesExposedBuffer(t *testing.T) {
	var p publisher
	_ = p.ensureIdle(16)
	p.target().Bytes()[0] = 7
	rec := p.publish(2, 2, time.Now())
	exposed := &p.bufs[rec.index].Bytes()[0]

	if err := p.ensureIdle(64); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if &p.bufs[rec.index].Bytes()[0] != exposed || p.bufs[rec.index].Len() != 17 {
		t.Fatalf("exposed buffer was reallocated (len %d)", p.bufs[rec.index].Len())
	}
	if p.target().Len() < 64 {
		t.Fatalf("idle buffer not grown: %d", p.target().Len())
	}
	p.zero()
	if rec.data[0] != 0 {
		t.Fatalf("published view no longer aliases a session buffer")
	}
}

func TestPublisher_SetLimit(t *testing.T) {
	var p publisher
	p.setLimit(8)
	if err := p.ensureIdle(16); CodeOf(err) != OutOfMemory {
		t.Fatalf("expected out of memory above limit, got %v", err)
	}
	p.setLimit(0)
	if err := p.ensureIdle(16); err != nil {
		t.Fatalf("default limit: %v", err)
	}
}
