package capture

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const captureStatsLogInterval = 5 * time.Second

// session owns one capture target, its configuration, the double-buffered
// output and the frame source binding.
type session struct {
	handle         Handle
	target         Target
	output         int
	platform       Platform
	logger         *slog.Logger
	clock          Clock
	acquireTimeout time.Duration

	state atomic.Int32
	cfg   atomic.Pointer[Config]
	stats counters

	// mu serializes refresh cycles with start, stop, destroy and cache
	// clears. Readers of the published frame never take it.
	mu          sync.Mutex
	src         FrameSource
	pub         publisher
	captured    bool
	lastCapture time.Duration
	lastStats   time.Duration
	retry       backoff
}

func (s *session) State() State { return State(s.state.Load()) }

func (s *session) config() Config { return *s.cfg.Load() }

func (s *session) setConfig(c Config) { s.cfg.Store(&c) }

func (s *session) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.State() {
	case StateRunning:
		return nil
	case StateDestroyed:
		return errorf(InvalidParameter, "start", "session %d destroyed", s.handle)
	}
	src, err := s.platform.Open(s.output)
	if err != nil {
		return newError(CaptureFailed, "start", err)
	}
	w, h := src.Bounds()
	cfg := s.config()
	if rect := Clip(cfg.Region, cfg.EnableRegion, w, h); !rect.Empty() {
		if err := s.pub.ensureIdle(rect.Dx() * rect.Dy() * BytesPerPixel); err != nil {
			_ = src.Close()
			return err
		}
	}
	s.src = src
	s.retry.reset()
	s.lastStats = s.clock.Now()
	s.state.Store(int32(StateRunning))
	s.logger.Info("capture.start", "handle", s.handle, "output", s.output, "width", w, "height", h)

	if err := s.refreshLocked(); err != nil {
		s.logger.Debug("capture.start priming refresh failed", "handle", s.handle, "error", err)
	}
	return nil
}

func (s *session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != StateRunning {
		return
	}
	s.dropSource()
	s.state.Store(int32(StateStopped))
	s.logger.Info("capture.stop", "handle", s.handle)
}

func (s *session) destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropSource()
	s.pub.free()
	s.state.Store(int32(StateDestroyed))
	s.logger.Info("capture.destroy", "handle", s.handle)
}

func (s *session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pub.zero()
}

func (s *session) dropSource() {
	if s.src == nil {
		return
	}
	if err := s.src.Close(); err != nil {
		s.logger.Debug("capture.source close", "handle", s.handle, "error", err)
	}
	s.src = nil
}

// frame runs one refresh cycle unless another goroutine is already running
// one, then returns the most recently published frame.
func (s *session) frame() (*Frame, error) {
	if st := s.State(); st != StateRunning {
		return nil, errorf(CaptureFailed, "frame", "session %d is %s", s.handle, st)
	}
	var refreshErr error
	if s.mu.TryLock() {
		if s.State() == StateRunning {
			refreshErr = s.refreshLocked()
		}
		s.mu.Unlock()
	}
	rec := s.pub.load()
	if rec == nil || len(rec.data) == 0 {
		if CodeOf(refreshErr) == OutOfMemory {
			return nil, refreshErr
		}
		return nil, newError(CaptureFailed, "frame", firstErr(refreshErr, errors.New("no frame published")))
	}
	return &Frame{
		Width:      rec.width,
		Height:     rec.height,
		Stride:     rec.stride,
		Timestamp:  time.Now(),
		CapturedAt: rec.capturedAt,
		Sequence:   rec.sequence,
		Format:     FormatBGRA,
		Data:       rec.data,
	}, nil
}

// refreshLocked performs one capture cycle. Throttled cycles and unchanged
// sources are not errors. Any failure leaves the published frame untouched.
func (s *session) refreshLocked() error {
	now := s.clock.Now()
	cfg := s.config()
	if s.captured && !Due(now, s.lastCapture, cfg.Interval()) {
		s.stats.throttled.Add(1)
		return nil
	}
	if s.src == nil {
		if !s.retry.ready(now) {
			return nil
		}
		if err := s.reacquire(now); err != nil {
			return err
		}
	}

	src := s.src
	mf, err := src.Acquire(s.acquireTimeout)
	if errors.Is(err, ErrNoFrame) {
		s.stats.noFrame.Add(1)
		return nil
	}
	if err != nil {
		s.stats.failures.Add(1)
		s.dropSource()
		wait := s.retry.fail(now)
		s.logger.Warn("capture.acquire failed", "handle", s.handle, "output", s.output, "retry_in", wait, "error", err)
		return newError(CaptureFailed, "acquire", err)
	}
	defer src.Release(mf)
	s.captured = true
	s.lastCapture = now

	began := time.Now()
	rect := Clip(cfg.Region, cfg.EnableRegion, mf.Width, mf.Height)
	if rect.Empty() {
		s.stats.failures.Add(1)
		return errorf(CaptureFailed, "refresh", "source reported %dx%d", mf.Width, mf.Height)
	}
	w, h := rect.Dx(), rect.Dy()
	rowBytes := w * BytesPerPixel
	buf := s.pub.target()
	if err := buf.Ensure(rowBytes * h); err != nil {
		s.stats.failures.Add(1)
		s.logger.Error("capture.resize", "handle", s.handle, "width", w, "height", h, "error", err)
		return err
	}
	offset := rect.Min.Y*mf.RowPitch + rect.Min.X*BytesPerPixel
	if err := copyRows(buf.Bytes(), mf.Data, offset, mf.RowPitch, rowBytes, h); err != nil {
		s.stats.failures.Add(1)
		return err
	}
	s.pub.publish(w, h, time.Now())
	s.stats.copyNanos.Add(uint64(time.Since(began).Nanoseconds()))
	s.stats.captures.Add(1)

	if now-s.lastStats >= captureStatsLogInterval {
		s.lastStats = now
		s.logStats()
	}
	return nil
}

func (s *session) reacquire(now time.Duration) error {
	src, err := s.platform.Open(s.output)
	if err != nil {
		s.stats.failures.Add(1)
		wait := s.retry.fail(now)
		s.logger.Warn("capture.reacquire failed", "handle", s.handle, "output", s.output, "retry_in", wait, "error", err)
		return newError(CaptureFailed, "reacquire", err)
	}
	s.src = src
	s.retry.reset()
	s.stats.reacquires.Add(1)
	s.logger.Info("capture.reacquire", "handle", s.handle, "output", s.output)
	return nil
}

func (s *session) snapshot() Stats { return s.stats.snapshot(s.pub.load(), s.State()) }

func (s *session) logStats() {
	st := s.snapshot()
	s.logger.Debug("capture.stats",
		"handle", s.handle,
		"captures", st.Captures,
		"throttled", st.Throttled,
		"no_frame", st.NoFrame,
		"failures", st.Failures,
		"avg_copy", st.AvgCopy,
		"width", st.Width,
		"height", st.Height,
	)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
