package source

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

func primaryBounds() (image.Rectangle, error) {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("primary: screen rect: %w", err)
	}
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("primary: screen has no area")
	}
	return r, nil
}

// openPrimary captures the primary screen only.
func openPrimary(output int) (*grabSource, error) {
	if output != 0 {
		return nil, fmt.Errorf("primary: only output 0 is available, got %d", output)
	}
	bounds, err := primaryBounds()
	if err != nil {
		return nil, err
	}
	return &grabSource{
		name:   BackendPrimary,
		output: output,
		bounds: bounds,
		grab:   screenshot.CaptureRect,
	}, nil
}
