package source

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Monitor describes one active display in virtual-screen coordinates.
type Monitor struct {
	Index  int
	Bounds image.Rectangle
}

// Monitors lists the active displays in the order used for output indices.
func Monitors() []Monitor {
	n := screenshot.NumActiveDisplays()
	out := make([]Monitor, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Monitor{Index: i, Bounds: screenshot.GetDisplayBounds(i)})
	}
	return out
}

func displayCount() int { return screenshot.NumActiveDisplays() }

func openDisplay(output int) (*grabSource, error) {
	if n := screenshot.NumActiveDisplays(); output >= n {
		return nil, fmt.Errorf("displays: output %d out of range (%d active)", output, n)
	}
	bounds := screenshot.GetDisplayBounds(output)
	if bounds.Empty() {
		return nil, fmt.Errorf("displays: output %d has no area", output)
	}
	return &grabSource{
		name:   BackendDisplays,
		output: output,
		bounds: bounds,
		grab:   screenshot.CaptureRect,
	}, nil
}
