package capture

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const defaultAcquireTimeout = 0

// Registry owns every capture session and is the only place handles are
// validated. Construct one per host application with NewRegistry; there is
// no package-level state.
//
// LastError is a single slot shared by all goroutines using the registry.
// Prefer the error returned by each call when calling concurrently.
type Registry struct {
	platform       Platform
	logger         *slog.Logger
	clock          Clock
	acquireTimeout time.Duration
	backoffMin     time.Duration
	backoffMax     time.Duration
	maxFrameBytes  int

	// mu guards init, cleanup and session creation and is held around
	// cache clears.
	mu          sync.Mutex
	initialized atomic.Bool
	sessions    sync.Map // Handle -> *session
	nextHandle  atomic.Uint64
	lastErr     errorSlot
}

// Option customises a Registry.
type Option func(*Registry)

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithClock(c Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithAcquireTimeout sets how long a refresh waits for the source to
// produce a frame. The default of zero polls without waiting.
func WithAcquireTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d >= 0 {
			r.acquireTimeout = d
		}
	}
}

// WithMaxFrameBytes caps a single frame buffer allocation. Larger
// requirements fail with OutOfMemory. n <= 0 keeps the 1 GiB default.
func WithMaxFrameBytes(n int) Option {
	return func(r *Registry) { r.maxFrameBytes = n }
}

// WithBackoff bounds the delay between attempts to re-open a failed source.
func WithBackoff(min, max time.Duration) Option {
	return func(r *Registry) {
		r.backoffMin = min
		r.backoffMax = max
	}
}

// NewRegistry returns an uninitialized registry backed by platform.
func NewRegistry(platform Platform, opts ...Option) *Registry {
	r := &Registry{
		platform:       platform,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:          NewMonotonicClock(),
		acquireTimeout: defaultAcquireTimeout,
		backoffMin:     defaultBackoffMin,
		backoffMax:     defaultBackoffMax,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init bootstraps the platform. Calling it again is a no-op.
func (r *Registry) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized.Load() {
		return r.lastErr.record(nil)
	}
	if r.platform == nil {
		return r.lastErr.record(errorf(InitializationFailed, "init", "no platform"))
	}
	if err := r.platform.Init(); err != nil {
		r.logger.Error("capture.init", "error", err)
		return r.lastErr.record(newError(InitializationFailed, "init", err))
	}
	r.initialized.Store(true)
	r.logger.Info("capture.init")
	return r.lastErr.record(nil)
}

// Cleanup destroys every session and releases the platform. The registry
// may be initialized again afterwards.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized.Load() {
		return
	}
	r.sessions.Range(func(key, value any) bool {
		value.(*session).destroy()
		r.sessions.Delete(key)
		return true
	})
	if err := r.platform.Close(); err != nil {
		r.logger.Warn("capture.cleanup", "error", err)
	}
	r.initialized.Store(false)
	r.lastErr.record(nil)
	r.logger.Info("capture.cleanup")
}

// Initialized reports whether Init has succeeded since the last Cleanup.
func (r *Registry) Initialized() bool { return r.initialized.Load() }

func (r *Registry) CreateWindowSession(w WindowHandle) (Handle, error) {
	return r.Create(WindowTarget(w), DefaultConfig())
}

func (r *Registry) CreateWindowSessionWithConfig(w WindowHandle, cfg Config) (Handle, error) {
	return r.Create(WindowTarget(w), cfg)
}

func (r *Registry) CreateMonitorSession(index int) (Handle, error) {
	return r.Create(MonitorTarget(index), DefaultConfig())
}

func (r *Registry) CreateMonitorSessionWithConfig(index int, cfg Config) (Handle, error) {
	return r.Create(MonitorTarget(index), cfg)
}

// Create allocates a session in the Created state. A window target is
// resolved to its monitor once, here.
func (r *Registry) Create(target Target, cfg Config) (Handle, error) {
	h, err := r.create(target, cfg)
	r.lastErr.record(err)
	return h, err
}

func (r *Registry) create(target Target, cfg Config) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized.Load() {
		return 0, newError(NotInitialized, "create", nil)
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	var output int
	switch target.Kind {
	case TargetMonitor:
		if target.Monitor < 0 {
			return 0, errorf(InvalidParameter, "create", "monitor index %d", target.Monitor)
		}
		output = target.Monitor
	case TargetWindow:
		if target.Window == 0 {
			return 0, errorf(InvalidParameter, "create", "null window handle")
		}
		idx, err := r.platform.MonitorForWindow(target.Window)
		if err != nil {
			return 0, newError(InvalidParameter, "create", err)
		}
		output = idx
	default:
		return 0, errorf(InvalidParameter, "create", "unknown target kind %d", target.Kind)
	}

	s := &session{
		handle:         Handle(r.nextHandle.Add(1)),
		target:         target,
		output:         output,
		platform:       r.platform,
		logger:         r.logger,
		clock:          r.clock,
		acquireTimeout: r.acquireTimeout,
		retry:          newBackoff(r.backoffMin, r.backoffMax),
	}
	s.pub.setLimit(r.maxFrameBytes)
	s.setConfig(cfg)
	s.state.Store(int32(StateCreated))
	r.sessions.Store(s.handle, s)
	r.logger.Info("capture.create", "handle", s.handle, "target", target.Kind.String(), "output", output)
	return s.handle, nil
}

func (r *Registry) lookup(op string, h Handle) (*session, error) {
	if !r.initialized.Load() {
		return nil, newError(NotInitialized, op, nil)
	}
	if h == 0 {
		return nil, errorf(InvalidParameter, op, "null handle")
	}
	v, ok := r.sessions.Load(h)
	if !ok {
		return nil, errorf(InvalidParameter, op, "unknown handle %d", h)
	}
	return v.(*session), nil
}

// Start binds the session to its output and primes one refresh. Starting a
// running session is a no-op.
func (r *Registry) Start(h Handle) error {
	s, err := r.lookup("start", h)
	if err != nil {
		return r.lastErr.record(err)
	}
	return r.lastErr.record(s.start())
}

// Stop releases the source binding and keeps the buffers.
func (r *Registry) Stop(h Handle) error {
	s, err := r.lookup("stop", h)
	if err != nil {
		return r.lastErr.record(err)
	}
	s.stop()
	return r.lastErr.record(nil)
}

// Destroy releases everything held by the session and invalidates h.
// Unknown and null handles are ignored.
func (r *Registry) Destroy(h Handle) {
	r.lastErr.record(nil)
	if h == 0 {
		return
	}
	v, ok := r.sessions.LoadAndDelete(h)
	if !ok {
		return
	}
	v.(*session).destroy()
}

// SetConfig replaces the configuration. Buffers are resized lazily by the
// next refresh.
func (r *Registry) SetConfig(h Handle, cfg Config) error {
	s, err := r.lookup("set_config", h)
	if err != nil {
		return r.lastErr.record(err)
	}
	if err := cfg.Validate(); err != nil {
		return r.lastErr.record(err)
	}
	s.setConfig(cfg)
	return r.lastErr.record(nil)
}

func (r *Registry) Config(h Handle) (Config, error) {
	s, err := r.lookup("get_config", h)
	if err != nil {
		return Config{}, r.lastErr.record(err)
	}
	r.lastErr.record(nil)
	return s.config(), nil
}

// ClearFrameCache zero-fills both buffers of the session. It excludes
// concurrent refreshes of that session and other cache clears.
func (r *Registry) ClearFrameCache(h Handle) error {
	s, err := r.lookup("clear_cache", h)
	if err != nil {
		return r.lastErr.record(err)
	}
	r.mu.Lock()
	s.clear()
	r.mu.Unlock()
	return r.lastErr.record(nil)
}

// Frame refreshes the session if due and returns a view of the latest
// published pixels. The view is valid until the session publishes again.
func (r *Registry) Frame(h Handle) (*Frame, error) {
	s, err := r.lookup("get_frame", h)
	if err != nil {
		return nil, r.lastErr.record(err)
	}
	f, err := s.frame()
	if err != nil {
		return nil, r.lastErr.record(err)
	}
	r.lastErr.record(nil)
	return f, nil
}

// FreeFrame exists for symmetry with Frame. Frame memory belongs to the
// session, so there is nothing to release.
func (r *Registry) FreeFrame(*Frame) {}

func (r *Registry) Stats(h Handle) (Stats, error) {
	s, err := r.lookup("stats", h)
	if err != nil {
		return Stats{}, r.lastErr.record(err)
	}
	r.lastErr.record(nil)
	return s.snapshot(), nil
}

func (r *Registry) State(h Handle) (State, error) {
	s, err := r.lookup("state", h)
	if err != nil {
		return StateDestroyed, r.lastErr.record(err)
	}
	r.lastErr.record(nil)
	return s.State(), nil
}

// Sessions lists live handles in creation order.
func (r *Registry) Sessions() []Handle {
	var out []Handle
	r.sessions.Range(func(key, _ any) bool {
		out = append(out, key.(Handle))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EnumWindows lists up to max visible top-level windows with a title.
func (r *Registry) EnumWindows(max int) []WindowInfo {
	if max <= 0 {
		r.lastErr.record(errorf(InvalidParameter, "enum_windows", "max %d", max))
		return nil
	}
	list, err := r.platform.Windows(max)
	if err != nil {
		r.lastErr.record(newError(CodeOf(err), "enum_windows", err))
		return nil
	}
	if len(list) > max {
		list = list[:max]
	}
	for i := range list {
		list[i].Title = TruncateTitle(list[i].Title)
	}
	r.lastErr.record(nil)
	return list
}

// WindowTitle fetches the title of w.
func (r *Registry) WindowTitle(w WindowHandle) (string, bool) {
	if w == 0 {
		r.lastErr.record(errorf(InvalidParameter, "window_title", "null window handle"))
		return "", false
	}
	title, err := r.platform.WindowTitle(w)
	if err != nil {
		r.lastErr.record(newError(InvalidParameter, "window_title", err))
		return "", false
	}
	r.lastErr.record(nil)
	return TruncateTitle(title), true
}

// LastError returns the code recorded by the most recent operation.
func (r *Registry) LastError() ErrorCode { return r.lastErr.load() }

func (r *Registry) ErrorString(c ErrorCode) string { return c.String() }
