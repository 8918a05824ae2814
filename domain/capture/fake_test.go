package capture

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type fakeClock struct {
	mu  sync.Mutex
	now time.Duration
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

const padByte = 0xEE

// fakeSource produces frames whose pixel at (x, y) is {x, y, fill, 0xFF}.
// Bytes between width*4 and pitch are padByte.
type fakeSource struct {
	mu       sync.Mutex
	width    int
	height   int
	pitch    int
	fill     byte
	noFrame  bool
	failNext error
	acquires int
	releases int
	closed   bool
}

func (s *fakeSource) Acquire(time.Duration) (*MappedFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquires++
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return nil, err
	}
	if s.noFrame {
		return nil, ErrNoFrame
	}
	pitch := s.pitch
	if pitch < s.width*4 {
		pitch = s.width * 4
	}
	data := make([]byte, pitch*s.height)
	for i := range data {
		data[i] = padByte
	}
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			off := y*pitch + x*4
			data[off] = byte(x)
			data[off+1] = byte(y)
			data[off+2] = s.fill
			data[off+3] = 0xFF
		}
	}
	return &MappedFrame{Data: data, Width: s.width, Height: s.height, RowPitch: pitch}, nil
}

func (s *fakeSource) Release(*MappedFrame) {
	s.mu.Lock()
	s.releases++
	s.mu.Unlock()
}

func (s *fakeSource) Bounds() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSource) set(fn func(*fakeSource)) {
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

func (s *fakeSource) acquireCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquires
}

type fakePlatform struct {
	mu       sync.Mutex
	src      *fakeSource
	initErr  error
	openErr  error
	opens    int
	inits    int
	closes   int
	monitors map[WindowHandle]int
	windows  []WindowInfo
}

func newFakePlatform(w, h int) *fakePlatform {
	return &fakePlatform{
		src:      &fakeSource{width: w, height: h},
		monitors: map[WindowHandle]int{},
	}
}

func (p *fakePlatform) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inits++
	return p.initErr
}

func (p *fakePlatform) Close() error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	return nil
}

func (p *fakePlatform) Open(output int) (FrameSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opens++
	if p.openErr != nil {
		return nil, p.openErr
	}
	p.src.set(func(s *fakeSource) { s.closed = false })
	return p.src, nil
}

func (p *fakePlatform) MonitorForWindow(w WindowHandle) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx, ok := p.monitors[w]
	if !ok {
		return 0, errors.New("window gone")
	}
	return idx, nil
}

func (p *fakePlatform) Windows(max int) ([]WindowInfo, error) {
	out := append([]WindowInfo(nil), p.windows...)
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (p *fakePlatform) WindowTitle(w WindowHandle) (string, error) {
	for _, info := range p.windows {
		if info.Handle == w {
			return info.Title, nil
		}
	}
	return "", errors.New("no such window")
}

func (p *fakePlatform) openCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

// newTestRegistry returns an initialized registry over a w x h fake source.
func newTestRegistry(w, h int) (*Registry, *fakePlatform, *fakeClock) {
	p := newFakePlatform(w, h)
	clk := &fakeClock{}
	r := NewRegistry(p, WithLogger(discardLogger), WithClock(clk))
	if err := r.Init(); err != nil {
		panic(err)
	}
	return r, p, clk
}
