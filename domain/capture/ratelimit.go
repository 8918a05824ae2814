package capture

import "time"

// Clock yields monotonic time as an offset from an arbitrary origin.
// Wall-clock adjustments never move it.
type Clock interface {
	Now() time.Duration
}

type monotonicClock struct{ origin time.Time }

// NewMonotonicClock returns a Clock backed by the runtime's monotonic reading.
func NewMonotonicClock() Clock { return monotonicClock{origin: time.Now()} }

func (c monotonicClock) Now() time.Duration { return time.Since(c.origin) }

// Due reports whether a capture may run at now given the previous capture
// time. An interval of zero or less disables throttling.
func Due(now, last, interval time.Duration) bool {
	if interval <= 0 {
		return true
	}
	return now-last >= interval
}

const (
	defaultBackoffMin = 50 * time.Millisecond
	defaultBackoffMax = 2 * time.Second
)

// backoff gates re-acquisition of a frame source after failures. Each
// failure doubles the wait up to max; a successful open resets it.
type backoff struct {
	min, max time.Duration
	wait     time.Duration
	notUntil time.Duration
	failures int
}

func newBackoff(min, max time.Duration) backoff {
	if min <= 0 {
		min = defaultBackoffMin
	}
	if max < min {
		max = min
	}
	return backoff{min: min, max: max}
}

func (b *backoff) ready(now time.Duration) bool {
	return b.failures == 0 || now >= b.notUntil
}

func (b *backoff) fail(now time.Duration) time.Duration {
	switch {
	case b.wait == 0:
		b.wait = b.min
	case b.wait < b.max:
		b.wait *= 2
		if b.wait > b.max {
			b.wait = b.max
		}
	}
	b.failures++
	b.notUntil = now + b.wait
	return b.wait
}

func (b *backoff) reset() {
	b.wait = 0
	b.failures = 0
	b.notUntil = 0
}
