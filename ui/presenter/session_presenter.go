package presenter

import (
	"fmt"
	"time"

	"github.com/soocke/pixel-capture-go/domain/capture"
	"github.com/soocke/pixel-capture-go/ui/model"
)

// CaptureEnabledModel reports whether capture is enabled.
type CaptureEnabledModel interface{ Enabled() bool }

// StatsSource reports the refresh counters of the previewed session.
type StatsSource interface {
	Stats() (capture.Stats, error)
}

// SessionView displays session durations and a one-line stats summary.
type SessionView interface {
	SetSession(session, total time.Duration)
	SetStats(text string)
}

// SessionPresenter formats session durations and frame stats for the view.
type SessionPresenter struct {
	sess  *model.SessionModel
	cap   CaptureEnabledModel
	stats StatsSource
	view  SessionView
}

// NewSessionPresenter returns a new SessionPresenter.
func NewSessionPresenter(sess *model.SessionModel, cap CaptureEnabledModel, stats StatsSource, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, cap: cap, stats: stats, view: view}
}

// Tick advances the session model and pushes values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.cap == nil || p.view == nil {
		return
	}
	var st capture.Stats
	if p.stats != nil {
		if s, err := p.stats.Stats(); err == nil {
			st = s
		}
	}
	p.sess.OnTick(p.cap.Enabled(), st.Sequence, now)
	s, t := p.sess.Values()
	p.view.SetSession(s, t)
	p.view.SetStats(FormatStats(st, p.sess.FPS()))
}

// FormatStats renders the stats line shown under the preview.
func FormatStats(st capture.Stats, fps float64) string {
	return fmt.Sprintf("%.1f fps | %dx%d | captures %d | idle %d | throttled %d | failures %d | copy %.0fus",
		fps, st.Width, st.Height, st.Captures, st.NoFrame, st.Throttled, st.Failures, st.AvgCopyMicros)
}
