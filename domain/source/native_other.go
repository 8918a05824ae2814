//go:build !windows

package source

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/soocke/pixel-capture-go/domain/capture"
)

var errNoWindowAPI = &capture.Error{Code: capture.Unsupported, Op: "windows", Err: errors.New("window enumeration requires Windows")}

func nativeBackends() []string { return nil }

func initNative(backend string) error {
	return fmt.Errorf("source: backend %q requires Windows", backend)
}

func openNative(backend string, _ int, _ *slog.Logger) (capture.FrameSource, error) {
	return nil, fmt.Errorf("source: backend %q requires Windows", backend)
}

func listWindows(int) ([]capture.WindowInfo, error) { return nil, errNoWindowAPI }

func windowTitle(capture.WindowHandle) (string, error) { return "", errNoWindowAPI }

func monitorForWindow(capture.WindowHandle) (int, error) { return 0, errNoWindowAPI }

// ForegroundWindow is only available on Windows.
func ForegroundWindow() (capture.WindowHandle, string, error) { return 0, "", errNoWindowAPI }

func nativeOutputs() int { return 0 }
