package capture

import "time"

// MappedFrame is a CPU-readable view of one acquired source frame. Rows are
// RowPitch bytes apart, which may exceed Width*4.
type MappedFrame struct {
	Data     []byte
	Width    int
	Height   int
	RowPitch int
}

// FrameSource yields successive frames of one display output.
//
// Acquire returns ErrNoFrame when nothing changed since the previous call;
// any other error marks the source as broken and the session re-opens it.
// Every successful Acquire must be paired with Release before the next one.
type FrameSource interface {
	Acquire(timeout time.Duration) (*MappedFrame, error)
	Release(*MappedFrame)
	Bounds() (width, height int)
	Close() error
}

// Platform bootstraps the capture backend and resolves targets to outputs.
type Platform interface {
	Init() error
	Close() error
	Open(output int) (FrameSource, error)
	// MonitorForWindow returns an index Open accepts for the monitor w is on.
	MonitorForWindow(w WindowHandle) (int, error)
	Windows(max int) ([]WindowInfo, error)
	WindowTitle(w WindowHandle) (string, error)
}

// TruncateTitle shortens s to at most MaxTitleBytes without splitting a rune.
func TruncateTitle(s string) string {
	if len(s) <= MaxTitleBytes {
		return s
	}
	cut := MaxTitleBytes
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
