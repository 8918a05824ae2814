package presenter

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/pixel-capture-go/domain/capture"
	"github.com/soocke/pixel-capture-go/ui/images"
)

// FrameSource supplies the latest published frame of the previewed session.
type FrameSource interface {
	Frame() (*capture.Frame, error)
}

// PreviewView describes the UI surface updated by the presenter.
type PreviewView interface {
	UpdateCapture(img image.Image)
	SetFrameInfo(text string)
}

// PreviewPresenter pulls frames and pushes scaled copies to the view. A frame
// is rendered once; ticks that see the same sequence do nothing.
type PreviewPresenter struct {
	Enabled func() bool
	Source  FrameSource
	View    PreviewView
	Logger  *slog.Logger
	MaxW    int
	MaxH    int

	lastSeq uint64
	lastErr capture.ErrorCode
}

func NewPreviewPresenter(enabled func() bool, src FrameSource, view PreviewView, logger *slog.Logger, maxW, maxH int) *PreviewPresenter {
	return &PreviewPresenter{Enabled: enabled, Source: src, View: view, Logger: logger, MaxW: maxW, MaxH: maxH}
}

// ProcessFrame renders the latest frame if it is newer than the last one shown.
func (p *PreviewPresenter) ProcessFrame() {
	if p == nil || p.Source == nil || p.View == nil {
		return
	}
	if p.Enabled != nil && !p.Enabled() {
		return
	}
	f, err := p.Source.Frame()
	if err != nil {
		code := capture.CodeOf(err)
		if code != p.lastErr && p.Logger != nil {
			p.Logger.Debug("preview frame unavailable", "error", err)
		}
		p.lastErr = code
		return
	}
	p.lastErr = capture.None
	if f.Sequence == p.lastSeq {
		return
	}
	p.lastSeq = f.Sequence
	img, err := images.FromFrame(f)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Error("preview conversion failed", "error", err)
		}
		return
	}
	p.View.UpdateCapture(images.ScaleToFit(img, p.MaxW, p.MaxH))
	p.View.SetFrameInfo(fmt.Sprintf("%dx%d #%d", f.Width, f.Height, f.Sequence))
}

// Reset forgets the last rendered sequence so the next frame is always drawn.
func (p *PreviewPresenter) Reset() {
	if p == nil {
		return
	}
	p.lastSeq = 0
}
