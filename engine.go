package pixel8

import (
	"image"
	"image/color"
	"runtime"
	"sync"
)

// engine is one interchangeable pixelation/quantization backend. Backends
// must produce byte-identical output for identical inputs; they may differ
// only in how the work is scheduled. Dithered quantization is not part of
// the interface because it is inherently sequential (see
// ditherFloydSteinberg).
type engine interface {
	pixelate(dst, src *image.NRGBA, blockSize int)
	quantize(dst, src *image.NRGBA, pal []color.NRGBA)
}

// baselineEngine is the plain sequential reference backend. The parallel
// backends are checked against it in tests.
type baselineEngine struct{}

func (baselineEngine) pixelate(dst, src *image.NRGBA, blockSize int) {
	forEachBlock(src.Rect.Dx(), src.Rect.Dy(), blockSize, func(bx, by, bw, bh int) {
		meanBlock(dst, src, bx, by, bw, bh)
	})
}

func (baselineEngine) quantize(dst, src *image.NRGBA, pal []color.NRGBA) {
	quantizeRows(dst, src, pal, 0, src.Rect.Dy())
}

// quantizeRows maps rows [y0,y1) to their nearest palette colors. Pixels are
// independent, so callers may split the row range across goroutines.
func quantizeRows(dst, src *image.NRGBA, pal []color.NRGBA, y0, y1 int) {
	w := src.Rect.Dx()
	for y := y0; y < y1; y++ {
		off := src.PixOffset(0, y)
		for i := 0; i < w; i++ {
			c := pal[nearestIndex(pal,
				int(src.Pix[off]), int(src.Pix[off+1]), int(src.Pix[off+2]))]
			dst.Pix[off] = c.R
			dst.Pix[off+1] = c.G
			dst.Pix[off+2] = c.B
			dst.Pix[off+3] = src.Pix[off+3]
			off += 4
		}
	}
}

// parallelRange splits [0,n) into contiguous chunks, one worker goroutine
// per chunk. Workers write disjoint output regions, so no locking is needed
// and the result does not depend on scheduling.
func parallelRange(n int, fn func(lo, hi int)) {
	workers := min(runtime.GOMAXPROCS(0), n)
	if workers <= 1 {
		fn(0, n)
		return
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
