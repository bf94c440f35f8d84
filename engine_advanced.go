package pixel8

import (
	"image"
	"image/color"
)

// advancedEngine parallelizes across block rows and pixel rows. Each worker
// owns a disjoint horizontal stripe of the output; block and pixel
// computations are independent, so the result matches the baseline exactly.
type advancedEngine struct{}

func (advancedEngine) pixelate(dst, src *image.NRGBA, blockSize int) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	blockRows := (h + blockSize - 1) / blockSize
	parallelRange(blockRows, func(lo, hi int) {
		for br := lo; br < hi; br++ {
			by := br * blockSize
			bh := min(blockSize, h-by)
			for bx := 0; bx < w; bx += blockSize {
				meanBlock(dst, src, bx, by, min(blockSize, w-bx), bh)
			}
		}
	})
}

func (advancedEngine) quantize(dst, src *image.NRGBA, pal []color.NRGBA) {
	parallelRange(src.Rect.Dy(), func(lo, hi int) {
		quantizeRows(dst, src, pal, lo, hi)
	})
}
