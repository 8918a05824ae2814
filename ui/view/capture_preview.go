package view

import (
	"image"

	"github.com/soocke/pixel-capture-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CapturePreview shows the most recent frame of the previewed session.
type CapturePreview interface {
	UpdateCapture(img image.Image)
	SetFrameInfo(text string)
	Reset()
}

type capturePreview struct {
	captureLabel *LabelWidget
	infoLabel    *LabelWidget
	placeholderW int
	placeholderH int
	prevPhoto    *Img // disposed before replacement so Tk does not retain old pixels
}

// NewCapturePreview creates the preview label spanning columns 0-4 of row and
// a frame info label below it.
func NewCapturePreview(row, w, h int) CapturePreview {
	v := &capturePreview{placeholderW: w / 2, placeholderH: h / 2}
	v.prevPhoto = NewPhoto(Data(v.placeholder()))
	v.captureLabel = Label(Image(v.prevPhoto), Borderwidth(1), Relief("sunken"))
	v.infoLabel = Label(Txt("no frame"), Anchor("e"))
	Grid(v.captureLabel, Row(row), Column(0), Columnspan(5), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	Grid(v.infoLabel, Row(row+1), Column(0), Columnspan(5), Sticky("e"), Padx("0.4m"))
	return v
}

func (v *capturePreview) placeholder() []byte {
	w, h := v.placeholderW, v.placeholderH
	if w < 50 {
		w = 50
	}
	if h < 50 {
		h = 50
	}
	return images.EncodePNG(image.NewNRGBA(image.Rect(0, 0, w, h)))
}

// UpdateCapture expects an already scaled image.
func (v *capturePreview) UpdateCapture(img image.Image) {
	if v.captureLabel == nil || img == nil {
		return
	}
	pngBytes := images.EncodePNG(img)
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = NewPhoto(Data(pngBytes))
	v.captureLabel.Configure(Image(v.prevPhoto))
}

func (v *capturePreview) SetFrameInfo(text string) {
	if v.infoLabel != nil {
		v.infoLabel.Configure(Txt(text))
	}
}

func (v *capturePreview) Reset() {
	if v.captureLabel == nil {
		return
	}
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = NewPhoto(Data(v.placeholder()))
	v.captureLabel.Configure(Image(v.prevPhoto))
	v.SetFrameInfo("no frame")
}
