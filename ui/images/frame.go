package images

import (
	"fmt"
	"image"

	"github.com/soocke/pixel-capture-go/domain/capture"
)

// FromFrame copies a published frame into an NRGBA image. The frame data is
// only read, so it is safe to call while the producer publishes newer frames.
func FromFrame(f *capture.Frame) (*image.NRGBA, error) {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("images: empty frame")
	}
	bpp := 4
	if f.Format == capture.FormatRGB {
		bpp = 3
	}
	rowBytes := f.Width * bpp
	stride := f.Stride
	if stride < rowBytes {
		return nil, fmt.Errorf("images: stride %d below row size %d", stride, rowBytes)
	}
	if need := stride*(f.Height-1) + rowBytes; len(f.Data) < need {
		return nil, fmt.Errorf("images: frame data %d bytes, need %d", len(f.Data), need)
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := f.Data[y*stride : y*stride+rowBytes]
		dst := img.Pix[y*img.Stride : y*img.Stride+f.Width*4]
		switch f.Format {
		case capture.FormatRGBA:
			copy(dst, src)
		case capture.FormatRGB:
			for x := 0; x < f.Width; x++ {
				dst[x*4+0] = src[x*3+0]
				dst[x*4+1] = src[x*3+1]
				dst[x*4+2] = src[x*3+2]
				dst[x*4+3] = 0xFF
			}
		default:
			for i := 0; i < rowBytes; i += 4 {
				dst[i+0] = src[i+2]
				dst[i+1] = src[i+1]
				dst[i+2] = src[i+0]
				dst[i+3] = src[i+3]
			}
		}
	}
	return img, nil
}
