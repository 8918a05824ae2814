package source

import (
	"hash/crc32"
	"image"
)

// toBGRA packs img into dst as BGRA rows of Dx()*4 bytes, growing dst when
// needed, and returns the filled slice.
func toBGRA(dst []byte, img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	n := w * h * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	row := w * 4
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+row]
		out := dst[y*row : (y+1)*row]
		for i := 0; i < row; i += 4 {
			out[i] = src[i+2]
			out[i+1] = src[i+1]
			out[i+2] = src[i]
			out[i+3] = src[i+3]
		}
	}
	return dst
}

// changeDetector reports unchanged frames by CRC32 of the pixel data.
type changeDetector struct {
	last    uint32
	hasLast bool
	skipped uint64
}

// changed returns true on the first frame and whenever the hash differs
// from the previous one.
func (d *changeDetector) changed(pix []byte) bool {
	h := crc32.ChecksumIEEE(pix)
	if d.hasLast && h == d.last {
		d.skipped++
		return false
	}
	d.last = h
	d.hasLast = true
	return true
}

func (d *changeDetector) reset() { d.hasLast = false }
