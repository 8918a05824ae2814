package capture

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegistry_RequiresInit(t *testing.T) {
	r := NewRegistry(newFakePlatform(10, 10), WithLogger(discardLogger))
	if _, err := r.CreateMonitorSession(0); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("create before init: %v", err)
	}
	if r.LastError() != NotInitialized {
		t.Fatalf("last error %v", r.LastError())
	}
	for name, fn := range map[string]func() error{
		"start": func() error { return r.Start(1) },
		"stop":  func() error { return r.Stop(1) },
		"frame": func() error { _, err := r.Frame(1); return err },
		"clear": func() error { return r.ClearFrameCache(1) },
		"set":   func() error { return r.SetConfig(1, DefaultConfig()) },
	} {
		if err := fn(); CodeOf(err) != NotInitialized {
			t.Fatalf("%s before init: %v", name, err)
		}
	}
}

func TestRegistry_InitIdempotentAndFailure(t *testing.T) {
	p := newFakePlatform(10, 10)
	r := NewRegistry(p, WithLogger(discardLogger))
	_ = r.Init()
	_ = r.Init()
	if p.inits != 1 || r.LastError() != None {
		t.Fatalf("init not idempotent: inits=%d last=%v", p.inits, r.LastError())
	}

	bad := newFakePlatform(10, 10)
	bad.initErr = errors.New("no adapter")
	r2 := NewRegistry(bad, WithLogger(discardLogger))
	if err := r2.Init(); !errors.Is(err, ErrInitializationFailed) {
		t.Fatalf("expected initialization failed, got %v", err)
	}
	if r2.Initialized() || r2.LastError() != InitializationFailed {
		t.Fatalf("failed init left registry initialized")
	}
}

func TestRegistry_CreateValidation(t *testing.T) {
	r, p, _ := newTestRegistry(100, 100)
	p.monitors[0x10] = 1

	if _, err := r.CreateWindowSession(0); CodeOf(err) != InvalidParameter {
		t.Fatalf("null window: %v", err)
	}
	if _, err := r.CreateWindowSession(0x99); CodeOf(err) != InvalidParameter {
		t.Fatalf("dead window: %v", err)
	}
	if _, err := r.CreateMonitorSession(-1); CodeOf(err) != InvalidParameter {
		t.Fatalf("negative monitor: %v", err)
	}
	bad := Config{Region: Region{Width: -1, Height: 10}, EnableRegion: true}
	if _, err := r.CreateMonitorSessionWithConfig(0, bad); CodeOf(err) != InvalidParameter {
		t.Fatalf("negative region: %v", err)
	}
	if r.LastError() != InvalidParameter {
		t.Fatalf("last error %v", r.LastError())
	}

	h, err := r.CreateWindowSession(0x10)
	if err != nil || h == 0 {
		t.Fatalf("window session: h=%d err=%v", h, err)
	}
	if r.LastError() != None {
		t.Fatalf("success did not clear last error: %v", r.LastError())
	}
	v, _ := r.sessions.Load(h)
	if s := v.(*session); s.output != 1 {
		t.Fatalf("window resolved to output %d, want 1", s.output)
	}
	cfg, _ := r.Config(h)
	if cfg != DefaultConfig() || cfg.CaptureIntervalMs != 60 || cfg.EnableRegion {
		t.Fatalf("default config not applied: %+v", cfg)
	}
}

func TestRegistry_HandlesNotReused(t *testing.T) {
	r, _, _ := newTestRegistry(10, 10)
	a, _ := r.CreateMonitorSession(0)
	r.Destroy(a)
	b, _ := r.CreateMonitorSession(0)
	if a == b {
		t.Fatalf("handle %d reused", a)
	}
	if got := r.Sessions(); len(got) != 1 || got[0] != b {
		t.Fatalf("sessions %v", got)
	}
}

func TestRegistry_FrameRequiresRunning(t *testing.T) {
	r, _, _ := newTestRegistry(10, 10)
	h, _ := r.CreateMonitorSession(0)
	f, err := r.Frame(h)
	if f != nil || CodeOf(err) != CaptureFailed || r.LastError() != CaptureFailed {
		t.Fatalf("created session: frame=%v err=%v", f, err)
	}
	if err := r.Start(h); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Frame(h); err != nil {
		t.Fatalf("running frame: %v", err)
	}
	_ = r.Stop(h)
	f, err = r.Frame(h)
	if f != nil || CodeOf(err) != CaptureFailed {
		t.Fatalf("stopped session: frame=%v err=%v", f, err)
	}
	if _, err := r.Frame(0); CodeOf(err) != InvalidParameter {
		t.Fatalf("null handle: %v", err)
	}
	if _, err := r.Frame(h + 100); CodeOf(err) != InvalidParameter {
		t.Fatalf("unknown handle: %v", err)
	}
}

func TestRegistry_StopDestroyIdempotent(t *testing.T) {
	r, p, _ := newTestRegistry(10, 10)
	h, _ := r.CreateMonitorSession(0)
	if err := r.Stop(h); err != nil {
		t.Fatalf("stop on created session: %v", err)
	}
	_ = r.Start(h)
	_ = r.Start(h)
	if p.openCount() != 1 {
		t.Fatalf("second start re-opened source: opens=%d", p.openCount())
	}
	if err := r.Stop(h); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := r.Stop(h); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if st, _ := r.State(h); st != StateStopped {
		t.Fatalf("state %v", st)
	}
	if !p.src.closed {
		t.Fatalf("stop did not close source")
	}
	r.Destroy(h)
	r.Destroy(h)
	r.Destroy(0)
	r.Destroy(12345)
	if _, err := r.State(h); CodeOf(err) != InvalidParameter {
		t.Fatalf("destroyed handle still resolves: %v", err)
	}
}

func TestRegistry_RestartAfterStop(t *testing.T) {
	r, p, clk := newTestRegistry(10, 10)
	h, _ := r.CreateMonitorSession(0)
	_ = r.Start(h)
	_ = r.Stop(h)
	clk.Advance(time.Second)
	if err := r.Start(h); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if p.openCount() != 2 {
		t.Fatalf("restart opens=%d", p.openCount())
	}
	f, err := r.Frame(h)
	if err != nil || f.Width != 10 {
		t.Fatalf("frame after restart: %v %v", f, err)
	}
}

func TestRegistry_ConfigRoundTrip(t *testing.T) {
	r, _, _ := newTestRegistry(10, 10)
	h, _ := r.CreateMonitorSession(0)
	want := Config{CaptureIntervalMs: -3, Region: Region{X: 500, Y: -7, Width: 0, Height: 9000}, EnableRegion: true}
	if err := r.SetConfig(h, want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := r.Config(h)
	if err != nil || got != want {
		t.Fatalf("round trip: got %+v err=%v want %+v", got, err, want)
	}
	if err := r.SetConfig(h, Config{Region: Region{Height: -1}}); CodeOf(err) != InvalidParameter {
		t.Fatalf("negative region accepted: %v", err)
	}
	if got, _ := r.Config(h); got != want {
		t.Fatalf("rejected config replaced stored one: %+v", got)
	}
}

func TestRegistry_RateLimiting(t *testing.T) {
	r, p, clk := newTestRegistry(20, 20)
	h, _ := r.CreateMonitorSessionWithConfig(0, Config{CaptureIntervalMs: 100})
	_ = r.Start(h) // priming refresh acquires once
	if n := p.src.acquireCount(); n != 1 {
		t.Fatalf("priming acquires=%d", n)
	}

	clk.Advance(150 * time.Millisecond)
	if _, err := r.Frame(h); err != nil {
		t.Fatalf("frame: %v", err)
	}
	clk.Advance(10 * time.Millisecond)
	if _, err := r.Frame(h); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if n := p.src.acquireCount(); n != 2 {
		t.Fatalf("calls 10ms apart acquired %d times total, want 2", n)
	}
	clk.Advance(150 * time.Millisecond)
	_, _ = r.Frame(h)
	if n := p.src.acquireCount(); n != 3 {
		t.Fatalf("calls 150ms apart acquired %d times total, want 3", n)
	}
	st, _ := r.Stats(h)
	if st.Captures != 3 || st.Throttled != 1 {
		t.Fatalf("stats %+v", st)
	}
}

func TestRegistry_NoThrottleWhenIntervalZero(t *testing.T) {
	r, p, _ := newTestRegistry(4, 4)
	h, _ := r.CreateMonitorSessionWithConfig(0, Config{})
	_ = r.Start(h)
	for i := 0; i < 5; i++ {
		_, _ = r.Frame(h)
	}
	if n := p.src.acquireCount(); n != 6 {
		t.Fatalf("acquires=%d want 6", n)
	}
}

func TestRegistry_RegionResize(t *testing.T) {
	r, _, _ := newTestRegistry(200, 200)
	cfg := Config{Region: Region{0, 0, 100, 100}, EnableRegion: true}
	h, _ := r.CreateMonitorSessionWithConfig(0, cfg)
	_ = r.Start(h)
	f, err := r.Frame(h)
	if err != nil || f.Width != 100 || f.Height != 100 || f.Stride != 400 || f.DataSize() != 40000 {
		t.Fatalf("initial frame %+v err=%v", f, err)
	}
	cfg.Region = Region{0, 0, 50, 50}
	_ = r.SetConfig(h, cfg)
	f, err = r.Frame(h)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if f.Width != 50 || f.Height != 50 || f.Stride != 200 || f.DataSize() != 50*50*4 {
		t.Fatalf("resized frame w=%d h=%d stride=%d size=%d", f.Width, f.Height, f.Stride, f.DataSize())
	}
	if f.Format != FormatBGRA {
		t.Fatalf("format %v", f.Format)
	}
}

func TestRegistry_RegionOffsetAndRowPitch(t *testing.T) {
	r, p, _ := newTestRegistry(32, 16)
	p.src.pitch = 32*4 + 24
	cfg := Config{Region: Region{X: 10, Y: 5, Width: 4, Height: 3}, EnableRegion: true}
	h, _ := r.CreateMonitorSessionWithConfig(0, cfg)
	_ = r.Start(h)
	f, err := r.Frame(h)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			off := y*f.Stride + x*4
			px := f.Data[off : off+4]
			if px[0] != byte(10+x) || px[1] != byte(5+y) || px[3] != 0xFF {
				t.Fatalf("pixel (%d,%d) = %v", x, y, px)
			}
		}
	}
}

func TestRegistry_ClearCacheThenNoFrame(t *testing.T) {
	r, p, _ := newTestRegistry(8, 6)
	p.src.fill = 0x7F
	h, _ := r.CreateMonitorSessionWithConfig(0, Config{})
	_ = r.Start(h)
	if _, err := r.Frame(h); err != nil {
		t.Fatalf("frame: %v", err)
	}
	p.src.set(func(s *fakeSource) { s.noFrame = true })
	if err := r.ClearFrameCache(h); err != nil {
		t.Fatalf("clear: %v", err)
	}
	f, err := r.Frame(h)
	if err != nil {
		t.Fatalf("frame after clear: %v", err)
	}
	if f.Width != 8 || f.Height != 6 || f.DataSize() != 8*6*4 {
		t.Fatalf("dimensions lost: %+v", f)
	}
	for i, b := range f.Data {
		if b != 0 {
			t.Fatalf("byte %d = %#x after clear", i, b)
		}
	}
	st, _ := r.Stats(h)
	if st.NoFrame == 0 {
		t.Fatalf("no-frame outcome not counted: %+v", st)
	}
}

func TestRegistry_FirstFrameWithoutPublishFails(t *testing.T) {
	r, p, _ := newTestRegistry(8, 8)
	p.src.noFrame = true
	h, _ := r.CreateMonitorSession(0)
	if err := r.Start(h); err != nil {
		t.Fatalf("start must succeed even if priming fails: %v", err)
	}
	f, err := r.Frame(h)
	if f != nil || CodeOf(err) != CaptureFailed {
		t.Fatalf("expected capture failed before first publish, got %v %v", f, err)
	}
}

func TestRegistry_StartFailsWhenSourceUnavailable(t *testing.T) {
	r, p, _ := newTestRegistry(8, 8)
	p.openErr = errors.New("duplication denied")
	h, _ := r.CreateMonitorSession(0)
	if err := r.Start(h); CodeOf(err) != CaptureFailed {
		t.Fatalf("expected capture failed, got %v", err)
	}
	if st, _ := r.State(h); st != StateCreated {
		t.Fatalf("state after failed start %v", st)
	}
}

func TestRegistry_SourceFailureReacquiresWithBackoff(t *testing.T) {
	p := newFakePlatform(8, 8)
	clk := &fakeClock{}
	r := NewRegistry(p, WithLogger(discardLogger), WithClock(clk), WithBackoff(50*time.Millisecond, time.Second))
	_ = r.Init()
	h, _ := r.CreateMonitorSessionWithConfig(0, Config{})
	_ = r.Start(h)
	before, _ := r.Frame(h)

	p.src.set(func(s *fakeSource) { s.failNext = errors.New("access lost") })
	f, err := r.Frame(h)
	if err != nil || f.Sequence != before.Sequence {
		t.Fatalf("failure should return previous frame: f=%+v err=%v", f, err)
	}
	if st, _ := r.State(h); st != StateRunning {
		t.Fatalf("session left running state: %v", st)
	}
	if !p.src.closed {
		t.Fatalf("broken source not closed")
	}

	opens := p.openCount()
	clk.Advance(10 * time.Millisecond)
	_, _ = r.Frame(h)
	if p.openCount() != opens {
		t.Fatalf("re-open attempted inside backoff window")
	}
	clk.Advance(50 * time.Millisecond)
	f, err = r.Frame(h)
	if err != nil || p.openCount() != opens+1 {
		t.Fatalf("re-open after backoff: opens=%d err=%v", p.openCount(), err)
	}
	if f.Sequence <= before.Sequence {
		t.Fatalf("no new frame after re-acquire: seq=%d", f.Sequence)
	}
	st, _ := r.Stats(h)
	if st.Reacquires != 1 || st.Failures != 1 {
		t.Fatalf("stats %+v", st)
	}
}

func TestRegistry_ConcurrentReadersSeeConsistentFrames(t *testing.T) {
	r, _, _ := newTestRegistry(64, 64)
	h, _ := r.CreateMonitorSessionWithConfig(0, Config{Region: Region{0, 0, 64, 64}, EnableRegion: true})
	if err := r.Start(h); err != nil {
		t.Fatalf("start: %v", err)
	}

	var stop atomic.Bool
	var bad atomic.Int64
	var reads atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				f, err := r.Frame(h)
				if err != nil {
					continue
				}
				reads.Add(1)
				if f.DataSize() != f.Width*f.Height*4 || f.Stride != f.Width*4 {
					bad.Add(1)
				}
			}
		}()
	}

	sizes := []int32{64, 17, 33, 1, 48}
	for i := 0; i < 200; i++ {
		s := sizes[i%len(sizes)]
		_ = r.SetConfig(h, Config{Region: Region{0, 0, s, s + 1}, EnableRegion: true})
		time.Sleep(100 * time.Microsecond)
	}
	stop.Store(true)
	wg.Wait()
	if bad.Load() != 0 {
		t.Fatalf("%d inconsistent frames out of %d reads", bad.Load(), reads.Load())
	}
	if reads.Load() == 0 {
		t.Fatalf("readers never got a frame")
	}
}

func TestRegistry_CleanupDestroysSessions(t *testing.T) {
	r, p, _ := newTestRegistry(8, 8)
	h, _ := r.CreateMonitorSession(0)
	_ = r.Start(h)
	r.Cleanup()
	if r.Initialized() || len(r.Sessions()) != 0 || p.closes != 1 {
		t.Fatalf("cleanup incomplete: init=%v sessions=%v closes=%d", r.Initialized(), r.Sessions(), p.closes)
	}
	if _, err := r.Frame(h); CodeOf(err) != NotInitialized {
		t.Fatalf("frame after cleanup: %v", err)
	}
	_ = r.Init()
	if _, err := r.Frame(h); CodeOf(err) != InvalidParameter {
		t.Fatalf("old handle after re-init: %v", err)
	}
}

func TestRegistry_EnumWindowsAndTitle(t *testing.T) {
	r, p, _ := newTestRegistry(8, 8)
	long := strings.Repeat("é", 200)
	p.windows = []WindowInfo{{Handle: 1, Title: "Editor"}, {Handle: 2, Title: long}, {Handle: 3, Title: "Shell"}}
	got := r.EnumWindows(2)
	if len(got) != 2 || got[0].Title != "Editor" {
		t.Fatalf("enum %+v", got)
	}
	if n := len(got[1].Title); n > MaxTitleBytes || n%2 != 0 {
		t.Fatalf("title truncated to %d bytes", n)
	}
	if r.EnumWindows(0) != nil || r.LastError() != InvalidParameter {
		t.Fatalf("zero max accepted")
	}
	if title, ok := r.WindowTitle(3); !ok || title != "Shell" {
		t.Fatalf("title %q ok=%v", title, ok)
	}
	if _, ok := r.WindowTitle(0); ok {
		t.Fatalf("null window title resolved")
	}
}

func TestErrorStrings(t *testing.T) {
	want := map[ErrorCode]string{
		None:                 "No error",
		NotInitialized:       "Library not initialized",
		InitializationFailed: "Initialization failed",
		InvalidParameter:     "Invalid parameter",
		CaptureFailed:        "Capture failed",
		OutOfMemory:          "Out of memory",
		Unsupported:          "Operation not supported",
		ErrorCode(-42):       "Unknown error",
	}
	r := NewRegistry(nil)
	for code, text := range want {
		if got := r.ErrorString(code); got != text {
			t.Fatalf("code %d: %q want %q", code, got, text)
		}
	}
	if int32(OutOfMemory) != -5 || int32(Unsupported) != -6 {
		t.Fatalf("codes drifted from ABI values")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(nil) != None {
		t.Fatalf("nil should map to None")
	}
	if CodeOf(errors.New("x")) != CaptureFailed {
		t.Fatalf("plain error should map to CaptureFailed")
	}
	wrapped := errors.Join(errors.New("ctx"), errorf(OutOfMemory, "buffer", "big"))
	if CodeOf(wrapped) != OutOfMemory || !errors.Is(wrapped, ErrOutOfMemory) {
		t.Fatalf("wrapped code lost")
	}
}

func TestRegistry_RestartWithSmallerRegionKeepsPublishedFrameInBuffers(t *testing.T) {
	r, p, _ := newTestRegistry(8, 6)
	p.src.fill = 0x7F
	h, _ := r.CreateMonitorSessionWithConfig(0, Config{})
	_ = r.Start(h)
	if _, err := r.Frame(h); err != nil {
		t.Fatalf("frame: %v", err)
	}
	_ = r.Stop(h)
	_ = r.SetConfig(h, Config{Region: Region{0, 0, 2, 2}, EnableRegion: true})
	p.src.set(func(s *fakeSource) { s.noFrame = true })
	if err := r.Start(h); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := r.ClearFrameCache(h); err != nil {
		t.Fatalf("clear: %v", err)
	}
	f, err := r.Frame(h)
	if err != nil {
		t.Fatalf("frame after restart: %v", err)
	}
	if f.Width != 8 || f.Height != 6 || f.DataSize() != 8*6*4 {
		t.Fatalf("expected previous 8x6 frame, got %dx%d size=%d", f.Width, f.Height, f.DataSize())
	}
	nonzero := 0
	for _, b := range f.Data {
		if b != 0 {
			nonzero++
		}
	}
	if nonzero != 0 {
		t.Fatalf("clear left %d nonzero bytes in the published frame", nonzero)
	}
}

func newCappedRegistry(w, h, maxBytes int) (*Registry, *fakePlatform) {
	p := newFakePlatform(w, h)
	r := NewRegistry(p, WithLogger(discardLogger), WithClock(&fakeClock{}), WithMaxFrameBytes(maxBytes))
	if err := r.Init(); err != nil {
		panic(err)
	}
	return r, p
}

func TestRegistry_ResizeFailureKeepsPreviousFrame(t *testing.T) {
	r, p := newCappedRegistry(8, 6, 300)
	h, _ := r.CreateMonitorSessionWithConfig(0, Config{})
	_ = r.Start(h)
	first, err := r.Frame(h)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	p.src.set(func(s *fakeSource) { s.width, s.height = 16, 12 })
	f, err := r.Frame(h)
	if err != nil {
		t.Fatalf("resize failure must not fail the read: %v", err)
	}
	if f.Sequence != first.Sequence || f.Width != 8 || f.Height != 6 || f.DataSize() != 8*6*4 {
		t.Fatalf("previous frame not kept: seq=%d/%d %dx%d", f.Sequence, first.Sequence, f.Width, f.Height)
	}
	if st, _ := r.Stats(h); st.Failures == 0 {
		t.Fatalf("resize failure not counted: %+v", st)
	}
}

func TestRegistry_ResizeFailureBeforeFirstPublish(t *testing.T) {
	r, p := newCappedRegistry(8, 6, 300)
	p.src.noFrame = true
	h, _ := r.CreateMonitorSessionWithConfig(0, Config{})
	if err := r.Start(h); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.src.set(func(s *fakeSource) { s.width, s.height, s.noFrame = 16, 12, false })
	f, err := r.Frame(h)
	if f != nil || CodeOf(err) != OutOfMemory {
		t.Fatalf("expected out of memory, got %v %v", f, err)
	}
	if r.LastError() != OutOfMemory {
		t.Fatalf("last error %v", r.LastError())
	}
}

func TestRegistry_CreateRacingCleanup(t *testing.T) {
	for i := 0; i < 50; i++ {
		r, _, _ := newTestRegistry(4, 4)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = r.CreateMonitorSession(0)
			}
		}()
		r.Cleanup()
		wg.Wait()
		if n := len(r.Sessions()); n != 0 {
			t.Fatalf("iteration %d: %d sessions survived cleanup", i, n)
		}
	}
}

func TestFrame_TimestampMillisAndFreeFrame(t *testing.T) {
	if (*Frame)(nil).TimestampMillis() != 0 {
		t.Fatalf("nil frame timestamp")
	}
	if got := (&Frame{Timestamp: time.UnixMilli(1234)}).TimestampMillis(); got != 1234 {
		t.Fatalf("timestamp millis = %d", got)
	}
	r, _, _ := newTestRegistry(4, 4)
	h, _ := r.CreateMonitorSession(0)
	_ = r.Start(h)
	f, _ := r.Frame(h)
	r.FreeFrame(f)
	r.FreeFrame(nil)
	if f.DataSize() != 4*4*4 || r.LastError() != None {
		t.Fatalf("free frame disturbed state: size=%d last=%v", f.DataSize(), r.LastError())
	}
}
