package capture

import (
	"time"
)

// BytesPerPixel is fixed: every published frame is 32-bit BGRA.
const BytesPerPixel = 4

// DefaultIntervalMs is the throttle applied by the default-config constructors.
const DefaultIntervalMs = 60

// Handle identifies a session inside a Registry. The zero value is the null handle.
type Handle uint64

// WindowHandle is an opaque platform window identifier (HWND on Windows).
type WindowHandle uintptr

// TargetKind discriminates Target.
type TargetKind int

const (
	TargetMonitor TargetKind = iota
	TargetWindow
)

func (k TargetKind) String() string {
	switch k {
	case TargetMonitor:
		return "monitor"
	case TargetWindow:
		return "window"
	default:
		return "unknown"
	}
}

// Target is what a session captures: a monitor by index or the monitor
// hosting a window. Immutable after session creation.
type Target struct {
	Kind    TargetKind
	Window  WindowHandle
	Monitor int
}

func MonitorTarget(index int) Target    { return Target{Kind: TargetMonitor, Monitor: index} }
func WindowTarget(w WindowHandle) Target { return Target{Kind: TargetWindow, Window: w} }

// Region is a rectangle in output-local pixel coordinates.
type Region struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// Config is the per-session capture configuration. A CaptureIntervalMs of
// zero or less disables throttling; EnableRegion false captures the full output.
type Config struct {
	CaptureIntervalMs int32
	Region            Region
	EnableRegion      bool
}

// DefaultConfig returns the configuration used by the default-config constructors.
func DefaultConfig() Config {
	return Config{CaptureIntervalMs: DefaultIntervalMs}
}

// Interval returns the throttle interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.CaptureIntervalMs) * time.Millisecond
}

// Validate rejects negative region dimensions.
func (c Config) Validate() error {
	if c.Region.Width < 0 || c.Region.Height < 0 {
		return errorf(InvalidParameter, "config", "negative region %dx%d", c.Region.Width, c.Region.Height)
	}
	return nil
}

// PixelFormat enumerates frame layouts. Only FormatBGRA is produced.
type PixelFormat int32

const (
	FormatBGRA PixelFormat = 0
	FormatRGBA PixelFormat = 1
	FormatRGB  PixelFormat = 2
)

func (f PixelFormat) String() string {
	switch f {
	case FormatBGRA:
		return "bgra"
	case FormatRGBA:
		return "rgba"
	case FormatRGB:
		return "rgb"
	default:
		return "unknown"
	}
}

// Frame is a read-only view of the most recently published pixels of a
// session. Data aliases a session-owned buffer: it stays intact until the
// session publishes again and must not be written to or retained beyond that.
type Frame struct {
	Width      int
	Height     int
	Stride     int
	Timestamp  time.Time
	CapturedAt time.Time
	Sequence   uint64
	Format     PixelFormat
	Data       []byte
}

// DataSize is the number of valid pixel bytes, Width*Height*4.
func (f *Frame) DataSize() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// TimestampMillis returns Timestamp as Unix milliseconds.
func (f *Frame) TimestampMillis() int64 {
	if f == nil {
		return 0
	}
	return f.Timestamp.UnixMilli()
}

// MaxTitleBytes mirrors the fixed-size title field of window listings.
const MaxTitleBytes = 255

// WindowInfo describes a visible top-level window.
type WindowInfo struct {
	Handle WindowHandle
	Title  string
}

// State is the lifecycle position of a session.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopped
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
