package capture

import (
	"sync/atomic"
	"time"
)

// Stats summarises the refresh behaviour of one session.
type Stats struct {
	State          State
	Captures       uint64
	Throttled      uint64
	NoFrame        uint64
	Failures       uint64
	Reacquires     uint64
	AvgCopy        time.Duration
	AvgCopyMicros  float64
	LastCapture    time.Time
	LatestFrameAge time.Duration
	Sequence       uint64
	Width          int
	Height         int
}

type counters struct {
	captures   atomic.Uint64
	throttled  atomic.Uint64
	noFrame    atomic.Uint64
	failures   atomic.Uint64
	reacquires atomic.Uint64
	copyNanos  atomic.Uint64
}

func (c *counters) snapshot(rec *published, state State) Stats {
	captures := c.captures.Load()
	total := c.copyNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	st := Stats{
		State:         state,
		Captures:      captures,
		Throttled:     c.throttled.Load(),
		NoFrame:       c.noFrame.Load(),
		Failures:      c.failures.Load(),
		Reacquires:    c.reacquires.Load(),
		AvgCopy:       avg,
		AvgCopyMicros: avgMicros,
	}
	if rec != nil {
		st.LastCapture = rec.capturedAt
		st.LatestFrameAge = time.Since(rec.capturedAt)
		st.Sequence = rec.sequence
		st.Width = rec.width
		st.Height = rec.height
	}
	return st
}
