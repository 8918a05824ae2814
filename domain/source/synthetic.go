package source

import (
	"fmt"
	"time"

	"github.com/soocke/pixel-capture-go/domain/capture"
)

// SyntheticSpec shapes the synthetic backend. Padding adds bytes to every
// row so the row pitch exceeds Width*4. Static sources report no change
// after their first frame.
type SyntheticSpec struct {
	Width   int
	Height  int
	Padding int
	Outputs int
	Static  bool
}

func DefaultSyntheticSpec() SyntheticSpec {
	return SyntheticSpec{Width: 640, Height: 360, Padding: 64, Outputs: 1}
}

func (s SyntheticSpec) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("synthetic: invalid size %dx%d", s.Width, s.Height)
	}
	if s.Padding < 0 || s.Outputs <= 0 {
		return fmt.Errorf("synthetic: invalid padding %d or outputs %d", s.Padding, s.Outputs)
	}
	return nil
}

// syntheticSource renders a moving test pattern: blue follows x shifted by
// the frame number, green follows y and red encodes the output index.
type syntheticSource struct {
	spec   SyntheticSpec
	output int
	pitch  int
	count  uint64
	buf    []byte
	frame  capture.MappedFrame
}

func openSynthetic(spec SyntheticSpec, output int) (*syntheticSource, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if output >= spec.Outputs {
		return nil, fmt.Errorf("synthetic: output %d out of range (%d outputs)", output, spec.Outputs)
	}
	pitch := spec.Width*4 + spec.Padding
	return &syntheticSource{
		spec:   spec,
		output: output,
		pitch:  pitch,
		buf:    make([]byte, pitch*spec.Height),
	}, nil
}

func (s *syntheticSource) Acquire(time.Duration) (*capture.MappedFrame, error) {
	if s.spec.Static && s.count > 0 {
		return nil, capture.ErrNoFrame
	}
	s.count++
	shift := byte(s.count)
	red := byte(s.output * 40)
	for y := 0; y < s.spec.Height; y++ {
		row := s.buf[y*s.pitch : y*s.pitch+s.spec.Width*4]
		for x := 0; x < s.spec.Width; x++ {
			px := row[x*4 : x*4+4]
			px[0] = byte(x) + shift
			px[1] = byte(y)
			px[2] = red
			px[3] = 0xFF
		}
	}
	s.frame = capture.MappedFrame{Data: s.buf, Width: s.spec.Width, Height: s.spec.Height, RowPitch: s.pitch}
	return &s.frame, nil
}

func (s *syntheticSource) Release(*capture.MappedFrame) {}

func (s *syntheticSource) Bounds() (int, int) { return s.spec.Width, s.spec.Height }

func (s *syntheticSource) Close() error { return nil }
