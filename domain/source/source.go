// Package source provides the display backends behind capture.Platform.
package source

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/soocke/pixel-capture-go/domain/capture"
)

// Backend names accepted by New.
const (
	BackendAuto      = "auto"
	BackendDisplays  = "displays"
	BackendPrimary   = "primary"
	BackendSynthetic = "synthetic"
	BackendDXGI      = "dxgi"
	BackendGDI       = "gdi"
)

type options struct {
	logger    *slog.Logger
	synthetic SyntheticSpec
}

// Option customises a Platform.
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSynthetic sets the geometry of the synthetic backend.
func WithSynthetic(spec SyntheticSpec) Option {
	return func(o *options) { o.synthetic = spec }
}

// Platform implements capture.Platform on top of one backend. Window
// enumeration and window-to-monitor mapping always use the operating
// system, whatever backend produces the pixels.
type Platform struct {
	backend string
	opts    options
	logger  *slog.Logger

	mu    sync.Mutex
	ready bool
}

var _ capture.Platform = (*Platform)(nil)

// Backends lists the backends available on this operating system.
func Backends() []string {
	list := []string{BackendDisplays, BackendPrimary, BackendSynthetic}
	list = append(list, nativeBackends()...)
	slices.Sort(list)
	return list
}

// DefaultBackend is the backend chosen for "auto".
func DefaultBackend() string {
	if runtime.GOOS == "windows" {
		return BackendDXGI
	}
	return BackendDisplays
}

// New returns a Platform for backend. Unknown backends fail with
// capture.Unsupported.
func New(backend string, opts ...Option) (*Platform, error) {
	o := options{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		synthetic: DefaultSyntheticSpec(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if backend == "" || backend == BackendAuto {
		backend = DefaultBackend()
	}
	if !slices.Contains(Backends(), backend) {
		return nil, &capture.Error{Code: capture.Unsupported, Op: "source", Err: fmt.Errorf("backend %q not available on %s", backend, runtime.GOOS)}
	}
	return &Platform{backend: backend, opts: o, logger: o.logger.With("backend", backend)}, nil
}

func (p *Platform) Backend() string { return p.backend }

// Init checks that the backend can run here. It is safe to call repeatedly.
func (p *Platform) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	var err error
	switch p.backend {
	case BackendSynthetic:
		err = p.opts.synthetic.validate()
	case BackendDisplays:
		if displayCount() == 0 {
			err = fmt.Errorf("source: no active displays")
		}
	case BackendPrimary:
		_, err = primaryBounds()
	default:
		err = initNative(p.backend)
	}
	if err != nil {
		return err
	}
	p.ready = true
	p.logger.Debug("source.init")
	return nil
}

func (p *Platform) Close() error {
	p.mu.Lock()
	p.ready = false
	p.mu.Unlock()
	return nil
}

// Open binds a frame source to output.
func (p *Platform) Open(output int) (capture.FrameSource, error) {
	if output < 0 {
		return nil, fmt.Errorf("source: negative output %d", output)
	}
	var (
		src capture.FrameSource
		err error
	)
	switch p.backend {
	case BackendSynthetic:
		src, err = openSynthetic(p.opts.synthetic, output)
	case BackendDisplays:
		src, err = openDisplay(output)
	case BackendPrimary:
		src, err = openPrimary(output)
	default:
		src, err = openNative(p.backend, output, p.logger)
	}
	if err != nil {
		return nil, err
	}
	w, h := src.Bounds()
	p.logger.Debug("source.open", "output", output, "width", w, "height", h)
	return src, nil
}

// MonitorForWindow returns the output index, in EnumDisplayMonitors order,
// of the monitor w is on.
func (p *Platform) MonitorForWindow(w capture.WindowHandle) (int, error) {
	return monitorForWindow(w)
}

func (p *Platform) Windows(max int) ([]capture.WindowInfo, error) {
	return listWindows(max)
}

func (p *Platform) WindowTitle(w capture.WindowHandle) (string, error) {
	return windowTitle(w)
}

// Outputs reports how many outputs the backend can open.
func (p *Platform) Outputs() int {
	switch p.backend {
	case BackendSynthetic:
		return p.opts.synthetic.Outputs
	case BackendDisplays:
		return displayCount()
	case BackendPrimary:
		return 1
	default:
		return nativeOutputs()
	}
}
