package source

import (
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/pixel-capture-go/domain/capture"
)

var (
	d3d11DLL              = windows.NewLazySystemDLL("d3d11.dll")
	procD3D11CreateDevice = d3d11DLL.NewProc("D3D11CreateDevice")
)

const (
	d3dDriverTypeHardware        = 1
	d3dFeatureLevel11_0          = 0xb000
	d3d11SDKVersion              = 7
	d3d11CreateDeviceBGRASupport = 0x20

	d3d11UsageStaging  = 3
	d3d11CPUAccessRead = 0x20000
	d3d11MapRead       = 1
	dxgiFormatB8G8R8A8 = 87

	dxgiErrWaitTimeout = 0x887A0027

	dxgiDeviceGetAdapter       = 7
	dxgiAdapterEnumOutputs     = 7
	dxgiOutput1DuplicateOutput = 22
	dxgiDuplGetDesc            = 7
	dxgiDuplAcquireNextFrame   = 8
	dxgiDuplReleaseFrame       = 14
	d3d11DeviceCreateTexture2D = 5
	d3d11Texture2DGetDesc      = 10
	d3d11CtxMap                = 14
	d3d11CtxUnmap              = 15
	d3d11CtxCopyResource       = 47
)

var (
	iidIDXGIDevice     = comGUID{0x54ec77fa, 0x1377, 0x44e6, [8]byte{0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}}
	iidID3D11Texture2D = comGUID{0x6f15aaf2, 0xd208, 0x4e89, [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
	iidIDXGIOutput1    = comGUID{0x00cddea8, 0x939b, 0x4b83, [8]byte{0xa3, 0x40, 0xa6, 0x85, 0x22, 0x66, 0x66, 0xcc}}
)

// d3d11Texture2DDesc matches D3D11_TEXTURE2D_DESC.
type d3d11Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// d3d11MappedSubresource matches D3D11_MAPPED_SUBRESOURCE.
type d3d11MappedSubresource struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}

type dxgiModeDesc struct {
	Width            uint32
	Height           uint32
	RefreshNum       uint32
	RefreshDen       uint32
	Format           uint32
	ScanlineOrdering uint32
	Scaling          uint32
}

// dxgiOutDuplDesc matches DXGI_OUTDUPL_DESC.
type dxgiOutDuplDesc struct {
	ModeDesc                   dxgiModeDesc
	Rotation                   uint32
	DesktopImageInSystemMemory int32
}

// dxgiOutDuplFrameInfo matches DXGI_OUTDUPL_FRAME_INFO.
type dxgiOutDuplFrameInfo struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            int32
	ProtectedContentMaskedOut int32
	PointerPositionX          int32
	PointerPositionY          int32
	PointerVisible            int32
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

func initDXGI() error {
	if err := d3d11DLL.Load(); err != nil {
		return fmt.Errorf("dxgi: load d3d11.dll: %w", err)
	}
	return procD3D11CreateDevice.Find()
}

// dxgiSource duplicates one output of the default adapter. The staging
// texture is reused while the desktop texture keeps its dimensions.
type dxgiSource struct {
	output int
	logger *slog.Logger

	device      uintptr
	context     uintptr
	duplication uintptr
	staging     uintptr
	stagingW    int
	stagingH    int
	width       int
	height      int

	mapped bool
	held   bool
	frame  capture.MappedFrame
}

func openDXGI(output int, logger *slog.Logger) (*dxgiSource, error) {
	s := &dxgiSource{output: output, logger: logger}
	if err := s.setup(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *dxgiSource) setup() error {
	featureLevel := uint32(d3dFeatureLevel11_0)
	var actualLevel uint32
	hr, _, _ := procD3D11CreateDevice.Call(
		0,
		uintptr(d3dDriverTypeHardware),
		0,
		uintptr(d3d11CreateDeviceBGRASupport),
		uintptr(unsafe.Pointer(&featureLevel)),
		1,
		uintptr(d3d11SDKVersion),
		uintptr(unsafe.Pointer(&s.device)),
		uintptr(unsafe.Pointer(&actualLevel)),
		uintptr(unsafe.Pointer(&s.context)),
	)
	if int32(hr) < 0 {
		return fmt.Errorf("dxgi: D3D11CreateDevice: 0x%08X", uint32(hr))
	}

	var dxgiDevice uintptr
	if _, err := comCall(s.device, vtblQueryInterface, uintptr(unsafe.Pointer(&iidIDXGIDevice)), uintptr(unsafe.Pointer(&dxgiDevice))); err != nil {
		return fmt.Errorf("dxgi: QueryInterface IDXGIDevice: %w", err)
	}
	defer comRelease(dxgiDevice)

	var adapter uintptr
	if _, err := comCall(dxgiDevice, dxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapter))); err != nil {
		return fmt.Errorf("dxgi: GetAdapter: %w", err)
	}
	defer comRelease(adapter)

	// Output indices are taken to match EnumDisplayMonitors order on this adapter.
	var out uintptr
	if _, err := comCall(adapter, dxgiAdapterEnumOutputs, uintptr(s.output), uintptr(unsafe.Pointer(&out))); err != nil {
		return fmt.Errorf("dxgi: EnumOutputs(%d): %w", s.output, err)
	}
	var out1 uintptr
	_, err := comCall(out, vtblQueryInterface, uintptr(unsafe.Pointer(&iidIDXGIOutput1)), uintptr(unsafe.Pointer(&out1)))
	comRelease(out)
	if err != nil {
		return fmt.Errorf("dxgi: QueryInterface IDXGIOutput1: %w", err)
	}
	defer comRelease(out1)

	if _, err := comCall(out1, dxgiOutput1DuplicateOutput, s.device, uintptr(unsafe.Pointer(&s.duplication))); err != nil {
		return fmt.Errorf("dxgi: DuplicateOutput: %w", err)
	}

	var desc dxgiOutDuplDesc
	comCallVoid(s.duplication, dxgiDuplGetDesc, uintptr(unsafe.Pointer(&desc)))
	s.width, s.height = int(desc.ModeDesc.Width), int(desc.ModeDesc.Height)
	if s.width <= 0 || s.height <= 0 {
		return fmt.Errorf("dxgi: invalid duplication size %dx%d", s.width, s.height)
	}
	s.logger.Info("dxgi.duplicate", "output", s.output, "width", s.width, "height", s.height)
	return nil
}

func (s *dxgiSource) ensureStaging(w, h int) error {
	if s.staging != 0 && s.stagingW == w && s.stagingH == h {
		return nil
	}
	comRelease(s.staging)
	s.staging = 0
	desc := d3d11Texture2DDesc{
		Width:          uint32(w),
		Height:         uint32(h),
		MipLevels:      1,
		ArraySize:      1,
		Format:         dxgiFormatB8G8R8A8,
		SampleCount:    1,
		Usage:          d3d11UsageStaging,
		CPUAccessFlags: d3d11CPUAccessRead,
	}
	if _, err := comCall(s.device, d3d11DeviceCreateTexture2D, uintptr(unsafe.Pointer(&desc)), 0, uintptr(unsafe.Pointer(&s.staging))); err != nil {
		return fmt.Errorf("dxgi: CreateTexture2D staging: %w", err)
	}
	s.stagingW, s.stagingH = w, h
	return nil
}

// Acquire waits up to timeout for a new desktop image. A timeout or a frame
// without accumulated updates is reported as capture.ErrNoFrame.
func (s *dxgiSource) Acquire(timeout time.Duration) (*capture.MappedFrame, error) {
	if s.duplication == 0 {
		return nil, fmt.Errorf("dxgi: output %d not duplicated", s.output)
	}
	var info dxgiOutDuplFrameInfo
	var resource uintptr
	hr, err := comCall(s.duplication, dxgiDuplAcquireNextFrame,
		uintptr(timeout.Milliseconds()),
		uintptr(unsafe.Pointer(&info)),
		uintptr(unsafe.Pointer(&resource)),
	)
	if uint32(hr) == dxgiErrWaitTimeout {
		return nil, capture.ErrNoFrame
	}
	if err != nil {
		return nil, fmt.Errorf("dxgi: AcquireNextFrame: %w", err)
	}
	s.held = true
	if info.AccumulatedFrames == 0 {
		comRelease(resource)
		s.releaseFrame()
		return nil, capture.ErrNoFrame
	}

	var texture uintptr
	_, err = comCall(resource, vtblQueryInterface, uintptr(unsafe.Pointer(&iidID3D11Texture2D)), uintptr(unsafe.Pointer(&texture)))
	comRelease(resource)
	if err != nil {
		s.releaseFrame()
		return nil, fmt.Errorf("dxgi: QueryInterface ID3D11Texture2D: %w", err)
	}
	var desc d3d11Texture2DDesc
	comCallVoid(texture, d3d11Texture2DGetDesc, uintptr(unsafe.Pointer(&desc)))
	w, h := int(desc.Width), int(desc.Height)
	if err := s.ensureStaging(w, h); err != nil {
		comRelease(texture)
		s.releaseFrame()
		return nil, err
	}
	comCallVoid(s.context, d3d11CtxCopyResource, s.staging, texture)
	comRelease(texture)

	var mapped d3d11MappedSubresource
	if _, err := comCall(s.context, d3d11CtxMap, s.staging, 0, d3d11MapRead, 0, uintptr(unsafe.Pointer(&mapped))); err != nil {
		s.releaseFrame()
		return nil, fmt.Errorf("dxgi: Map staging: %w", err)
	}
	s.mapped = true
	pitch := int(mapped.RowPitch)
	s.width, s.height = w, h
	s.frame = capture.MappedFrame{
		Data:     unsafe.Slice((*byte)(unsafe.Pointer(mapped.PData)), pitch*h),
		Width:    w,
		Height:   h,
		RowPitch: pitch,
	}
	return &s.frame, nil
}

func (s *dxgiSource) Release(*capture.MappedFrame) {
	if s.mapped {
		comCallVoid(s.context, d3d11CtxUnmap, s.staging, 0)
		s.mapped = false
	}
	s.frame = capture.MappedFrame{}
	s.releaseFrame()
}

func (s *dxgiSource) releaseFrame() {
	if s.held && s.duplication != 0 {
		comCallVoid(s.duplication, dxgiDuplReleaseFrame)
	}
	s.held = false
}

func (s *dxgiSource) Bounds() (int, int) { return s.width, s.height }

func (s *dxgiSource) Close() error {
	s.Release(nil)
	comRelease(s.staging)
	comRelease(s.duplication)
	comRelease(s.context)
	comRelease(s.device)
	s.staging, s.duplication, s.context, s.device = 0, 0, 0, 0
	return nil
}
