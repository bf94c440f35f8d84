package pixel8

import (
	"image"
	"image/color"
)

// acceleratedEngine adds a per-worker nearest-color memo on top of the
// stripe parallelism. A pixelated image rarely holds more than a few
// thousand distinct colors, so most pixels hit the memo instead of scanning
// the palette. All arithmetic stays integer, so output matches the baseline
// byte for byte.
type acceleratedEngine struct{}

func (acceleratedEngine) pixelate(dst, src *image.NRGBA, blockSize int) {
	// Block means are already single-pass integer sums; the advanced
	// scheduling is the fast path here too.
	advancedEngine{}.pixelate(dst, src, blockSize)
}

func (acceleratedEngine) quantize(dst, src *image.NRGBA, pal []color.NRGBA) {
	w := src.Rect.Dx()
	parallelRange(src.Rect.Dy(), func(lo, hi int) {
		// Memo is worker-local: no sharing, no locks. Palette indices
		// fit in a byte because palettes cap at 256 entries.
		memo := make(map[uint32]uint8, 512)
		for y := lo; y < hi; y++ {
			off := src.PixOffset(0, y)
			for i := 0; i < w; i++ {
				r := src.Pix[off]
				g := src.Pix[off+1]
				b := src.Pix[off+2]
				key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
				idx, ok := memo[key]
				if !ok {
					idx = uint8(nearestIndex(pal, int(r), int(g), int(b)))
					memo[key] = idx
				}
				c := pal[idx]
				dst.Pix[off] = c.R
				dst.Pix[off+1] = c.G
				dst.Pix[off+2] = c.B
				dst.Pix[off+3] = src.Pix[off+3]
				off += 4
			}
		}
	})
}
