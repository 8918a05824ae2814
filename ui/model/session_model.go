package model

import (
	"time"
)

// SessionModel tracks the current session duration, the accumulated active
// time and the rate at which new frames are published. It is decoupled from
// the UI; presenters poll Values() and FPS(). The zero value is ready to use.
type SessionModel struct {
	active              bool
	captureStart        time.Time
	lastSessionDuration time.Duration
	accumulated         time.Duration

	// frame rate window
	windowStart time.Time
	windowSeq   uint64
	fps         float64
}

// fpsWindow is how much time must pass before the frame rate is recomputed.
const fpsWindow = time.Second

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick updates the model using the current capture state, the sequence of
// the latest published frame and the timestamp. Call periodically.
func (m *SessionModel) OnTick(capturing bool, seq uint64, now time.Time) {
	if m == nil {
		return
	}
	if capturing {
		if !m.active { // off -> on
			m.active = true
			m.captureStart = now
			m.lastSessionDuration = 0
			m.windowStart = now
			m.windowSeq = seq
			m.fps = 0
		}
		m.lastSessionDuration = now.Sub(m.captureStart)
		if el := now.Sub(m.windowStart); el >= fpsWindow {
			if seq >= m.windowSeq {
				m.fps = float64(seq-m.windowSeq) / el.Seconds()
			}
			m.windowStart = now
			m.windowSeq = seq
		}
	} else if m.active { // on -> off
		m.lastSessionDuration = now.Sub(m.captureStart)
		m.accumulated += m.lastSessionDuration
		m.active = false
		m.fps = 0
	}
}

// Values returns the current session duration and the total accumulated duration.
// The total includes the ongoing session when active.
func (m *SessionModel) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.lastSessionDuration
	total = m.accumulated
	if m.active {
		total += session
	}
	return
}

// FPS returns the published frames per second over the last full window.
func (m *SessionModel) FPS() float64 {
	if m == nil {
		return 0
	}
	return m.fps
}
