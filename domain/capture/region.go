package capture

import "image"

// Clip computes the effective capture rectangle for a source of srcW x srcH
// pixels. The result always lies inside the source and has positive area,
// whatever the configured region holds. A source without area yields an
// empty rectangle.
func Clip(r Region, enabled bool, srcW, srcH int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 {
		return image.Rectangle{}
	}
	if !enabled {
		return image.Rect(0, 0, srcW, srcH)
	}
	x := clamp(int(r.X), 0, srcW-1)
	y := clamp(int(r.Y), 0, srcH-1)
	w := clamp(int(r.Width), 1, srcW-x)
	h := clamp(int(r.Height), 1, srcH-y)
	return image.Rect(x, y, x+w, y+h)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
