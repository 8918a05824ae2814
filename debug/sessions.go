package debug

import (
	"context"
	"log/slog"
	"time"

	"github.com/soocke/pixel-capture-go/domain/capture"
)

// StatsSource is the part of capture.Registry the session logger reads.
type StatsSource interface {
	Sessions() []capture.Handle
	Stats(capture.Handle) (capture.Stats, error)
}

// StartSessionLogger logs the refresh counters of every live session each
// interval until ctx is done.
func StartSessionLogger(ctx context.Context, interval time.Duration, src StatsSource, logger *slog.Logger) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			LogSessions(src, logger)
		}
	}()
}

// LogSessions writes one "session.stats" line per live session.
func LogSessions(src StatsSource, logger *slog.Logger) {
	for _, h := range src.Sessions() {
		st, err := src.Stats(h)
		if err != nil {
			continue
		}
		logger.Info("session.stats",
			slog.Uint64("handle", uint64(h)),
			slog.String("state", st.State.String()),
			slog.Uint64("captures", st.Captures),
			slog.Uint64("throttled", st.Throttled),
			slog.Uint64("no_frame", st.NoFrame),
			slog.Uint64("failures", st.Failures),
			slog.Uint64("reacquires", st.Reacquires),
			slog.Float64("avg_copy_us", st.AvgCopyMicros),
			slog.Int("width", st.Width),
			slog.Int("height", st.Height),
			slog.Duration("age", st.LatestFrameAge),
		)
	}
}
