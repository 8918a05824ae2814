package source

import (
	"fmt"
	"image"
	"time"

	"github.com/soocke/pixel-capture-go/domain/capture"
)

// grabSource adapts a synchronous screenshot function to capture.FrameSource.
// Frames are converted to BGRA into a reused scratch buffer and unchanged
// frames are reported as capture.ErrNoFrame.
type grabSource struct {
	name    string
	output  int
	bounds  image.Rectangle
	grab    func(image.Rectangle) (*image.RGBA, error)
	scratch []byte
	diff    changeDetector
	frame   capture.MappedFrame
}

// Acquire ignores timeout: screenshot libraries block until the copy is done.
func (s *grabSource) Acquire(time.Duration) (*capture.MappedFrame, error) {
	img, err := s.grab(s.bounds)
	if err != nil {
		return nil, fmt.Errorf("%s: capture output %d: %w", s.name, s.output, err)
	}
	if img == nil || img.Rect.Empty() {
		return nil, fmt.Errorf("%s: empty image for output %d", s.name, s.output)
	}
	s.scratch = toBGRA(s.scratch, img)
	if !s.diff.changed(s.scratch) {
		return nil, capture.ErrNoFrame
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	s.frame = capture.MappedFrame{Data: s.scratch, Width: w, Height: h, RowPitch: w * 4}
	return &s.frame, nil
}

func (s *grabSource) Release(*capture.MappedFrame) {}

func (s *grabSource) Bounds() (int, int) { return s.bounds.Dx(), s.bounds.Dy() }

func (s *grabSource) Close() error {
	s.scratch = nil
	s.diff.reset()
	return nil
}
