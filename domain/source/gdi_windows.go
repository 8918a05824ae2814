package source

// GDI capture into a persistent top-down DIB section. The DIB is created
// once per source and BitBlt'ed into on every Acquire, so the mapped frame
// aliases GDI memory directly without a conversion pass.

import (
	"fmt"
	"image"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/pixel-capture-go/domain/capture"
)

const (
	srccopy      = 0x00CC0020
	captureBlt   = 0x40000000
	dibRGBColors = 0
	biRGB        = 0
)

var (
	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

// bitmapInfoHeader matches BITMAPINFOHEADER.
type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	_      [4]byte
}

func initGDI() error {
	if err := gdi32.Load(); err != nil {
		return fmt.Errorf("gdi: load gdi32.dll: %w", err)
	}
	return nil
}

type gdiSource struct {
	output   int
	rect     image.Rectangle
	screenDC uintptr
	memDC    uintptr
	bmp      uintptr
	prev     uintptr
	pix      []byte
	diff     changeDetector
	frame    capture.MappedFrame
}

func openGDI(output int) (*gdiSource, error) {
	rects, err := monitorRects()
	if err != nil {
		return nil, err
	}
	if output >= len(rects) {
		return nil, fmt.Errorf("gdi: output %d out of range (%d monitors)", output, len(rects))
	}
	s := &gdiSource{output: output, rect: rects[output]}
	if err := s.setup(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *gdiSource) setup() error {
	w, h := s.rect.Dx(), s.rect.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("gdi: invalid monitor rect %v", s.rect)
	}
	s.screenDC, _, _ = procGetDC.Call(0)
	if s.screenDC == 0 {
		return fmt.Errorf("gdi: GetDC failed: %w", windows.GetLastError())
	}
	s.memDC, _, _ = procCreateCompatibleDC.Call(s.screenDC)
	if s.memDC == 0 {
		return fmt.Errorf("gdi: CreateCompatibleDC failed: %w", windows.GetLastError())
	}

	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(w)
	bi.Header.BiHeight = -int32(h)
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = 32
	bi.Header.BiCompression = biRGB
	bi.Header.BiSizeImage = uint32(w * h * 4)

	var bits unsafe.Pointer
	s.bmp, _, _ = procCreateDIBSection.Call(s.memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors, uintptr(unsafe.Pointer(&bits)), 0, 0)
	if s.bmp == 0 || bits == nil {
		return fmt.Errorf("gdi: CreateDIBSection failed: %w", windows.GetLastError())
	}
	s.prev, _, _ = procSelectObject.Call(s.memDC, s.bmp)
	if s.prev == 0 || s.prev == ^uintptr(0) {
		return fmt.Errorf("gdi: SelectObject failed: %w", windows.GetLastError())
	}
	s.pix = unsafe.Slice((*byte)(bits), w*h*4)
	return nil
}

func (s *gdiSource) Acquire(time.Duration) (*capture.MappedFrame, error) {
	w, h := s.rect.Dx(), s.rect.Dy()
	ok, _, _ := procBitBlt.Call(s.memDC, 0, 0, uintptr(w), uintptr(h), s.screenDC,
		uintptr(s.rect.Min.X), uintptr(s.rect.Min.Y), srccopy|captureBlt)
	if ok == 0 {
		return nil, fmt.Errorf("gdi: BitBlt output %d: %w", s.output, windows.GetLastError())
	}
	// GDI leaves alpha undefined.
	for i := 3; i < len(s.pix); i += 4 {
		s.pix[i] = 0xFF
	}
	if !s.diff.changed(s.pix) {
		return nil, capture.ErrNoFrame
	}
	s.frame = capture.MappedFrame{Data: s.pix, Width: w, Height: h, RowPitch: w * 4}
	return &s.frame, nil
}

func (s *gdiSource) Release(*capture.MappedFrame) {}

func (s *gdiSource) Bounds() (int, int) { return s.rect.Dx(), s.rect.Dy() }

func (s *gdiSource) Close() error {
	s.pix = nil
	if s.memDC != 0 && s.prev != 0 {
		procSelectObject.Call(s.memDC, s.prev)
	}
	if s.bmp != 0 {
		procDeleteObject.Call(s.bmp)
	}
	if s.memDC != 0 {
		procDeleteDC.Call(s.memDC)
	}
	if s.screenDC != 0 {
		procReleaseDC.Call(0, s.screenDC)
	}
	s.bmp, s.memDC, s.screenDC, s.prev = 0, 0, 0, 0
	return nil
}
