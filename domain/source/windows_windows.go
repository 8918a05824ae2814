package source

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/pixel-capture-go/domain/capture"
)

const monitorDefaultToNull = 0

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows         = user32.NewProc("EnumWindows")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procIsWindowVisible     = user32.NewProc("IsWindowVisible")
	procIsWindow            = user32.NewProc("IsWindow")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procMonitorFromWindow   = user32.NewProc("MonitorFromWindow")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
)

type rect32 struct{ Left, Top, Right, Bottom int32 }

func nativeBackends() []string { return []string{BackendDXGI, BackendGDI} }

func initNative(backend string) error {
	switch backend {
	case BackendDXGI:
		return initDXGI()
	case BackendGDI:
		return initGDI()
	}
	return fmt.Errorf("source: unknown backend %q", backend)
}

func openNative(backend string, output int, logger *slog.Logger) (capture.FrameSource, error) {
	switch backend {
	case BackendDXGI:
		return openDXGI(output, logger)
	case BackendGDI:
		return openGDI(output)
	}
	return nil, fmt.Errorf("source: unknown backend %q", backend)
}

// readTitle returns the trimmed window text of hwnd.
func readTitle(hwnd uintptr) string {
	const maxChars = 256
	buf := make([]uint16, maxChars)
	r, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r == 0 {
		return ""
	}
	end := int(r)
	for i, v := range buf[:end] {
		if v == 0 {
			end = i
			break
		}
	}
	return strings.TrimSpace(string(utf16.Decode(buf[:end])))
}

// listWindows returns visible top-level windows with a non-empty title.
func listWindows(max int) ([]capture.WindowInfo, error) {
	var out []capture.WindowInfo
	cb := windows.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if len(out) >= max {
			return 0
		}
		if vis, _, _ := procIsWindowVisible.Call(hwnd); vis == 0 {
			return 1
		}
		if title := readTitle(hwnd); title != "" {
			out = append(out, capture.WindowInfo{Handle: capture.WindowHandle(hwnd), Title: title})
		}
		return 1
	})
	// EnumWindows reports failure when the callback stops early.
	if r, _, err := procEnumWindows.Call(cb, 0); r == 0 && len(out) < max {
		if !errors.Is(err, windows.ERROR_SUCCESS) {
			return nil, fmt.Errorf("windows: EnumWindows: %w", err)
		}
	}
	return out, nil
}

func isWindow(w capture.WindowHandle) bool {
	r, _, _ := procIsWindow.Call(uintptr(w))
	return r != 0
}

func windowTitle(w capture.WindowHandle) (string, error) {
	if !isWindow(w) {
		return "", fmt.Errorf("windows: %#x is not a window", uintptr(w))
	}
	return readTitle(uintptr(w)), nil
}

// ForegroundWindow returns the window that currently has focus.
func ForegroundWindow() (capture.WindowHandle, string, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return 0, "", errors.New("windows: no foreground window")
	}
	return capture.WindowHandle(hwnd), readTitle(hwnd), nil
}

// enumMonitors returns monitor handles and rectangles in enumeration order.
func enumMonitors() ([]uintptr, []image.Rectangle, error) {
	var handles []uintptr
	var rects []image.Rectangle
	cb := windows.NewCallback(func(hmon, _ uintptr, rc *rect32, _ uintptr) uintptr {
		handles = append(handles, hmon)
		rects = append(rects, image.Rect(int(rc.Left), int(rc.Top), int(rc.Right), int(rc.Bottom)))
		return 1
	})
	if r, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0); r == 0 {
		return nil, nil, fmt.Errorf("windows: EnumDisplayMonitors: %w", err)
	}
	return handles, rects, nil
}

func monitorRects() ([]image.Rectangle, error) {
	_, rects, err := enumMonitors()
	return rects, err
}

// monitorForWindow resolves w to the index of the monitor it occupies.
// Indices follow EnumDisplayMonitors order. The dxgi backend opens that
// index with EnumOutputs on the default adapter, which assumes every
// monitor hangs off that adapter in the same order; on multi-GPU hosts
// the two can disagree and the gdi backend should be used instead.
func monitorForWindow(w capture.WindowHandle) (int, error) {
	if !isWindow(w) {
		return 0, fmt.Errorf("windows: %#x is not a window", uintptr(w))
	}
	hmon, _, _ := procMonitorFromWindow.Call(uintptr(w), monitorDefaultToNull)
	if hmon == 0 {
		return 0, fmt.Errorf("windows: %#x is not on any monitor", uintptr(w))
	}
	handles, _, err := enumMonitors()
	if err != nil {
		return 0, err
	}
	for i, h := range handles {
		if h == hmon {
			return i, nil
		}
	}
	return 0, fmt.Errorf("windows: monitor %#x not enumerated", hmon)
}

func nativeOutputs() int {
	rects, err := monitorRects()
	if err != nil {
		return 0
	}
	return len(rects)
}
