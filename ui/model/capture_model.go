package model

import (
	"sync/atomic"
)

// CaptureModel tracks whether the preview session is running. The zero value
// is disabled and usable. UI callbacks and presenter ticks may race, hence atomics.
type CaptureModel struct {
	enabled atomic.Bool
	cleared atomic.Uint64
}

// Enabled reports whether capture is currently enabled.
func (m *CaptureModel) Enabled() bool {
	if m == nil {
		return false
	}
	return m.enabled.Load()
}

// SetEnabled stores the enabled flag.
func (m *CaptureModel) SetEnabled(b bool) {
	if m == nil {
		return
	}
	m.enabled.Store(b)
}

// MarkCleared counts a frame cache clear.
func (m *CaptureModel) MarkCleared() {
	if m == nil {
		return
	}
	m.cleared.Add(1)
}

// Cleared returns how many times the frame cache was cleared.
func (m *CaptureModel) Cleared() uint64 {
	if m == nil {
		return 0
	}
	return m.cleared.Load()
}
