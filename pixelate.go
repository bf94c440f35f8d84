package pixel8

import (
	"fmt"
	"image"
)

// forEachBlock walks the non-overlapping blockSize grid over a w×h image.
// Boundary blocks are truncated so every pixel belongs to exactly one block.
func forEachBlock(w, h, blockSize int, fn func(bx, by, bw, bh int)) {
	for by := 0; by < h; by += blockSize {
		bh := min(blockSize, h-by)
		for bx := 0; bx < w; bx += blockSize {
			fn(bx, by, min(blockSize, w-bx), bh)
		}
	}
}

// meanBlock fills one block of dst with the round-half-up mean of src's
// color channels over that block. Alpha is copied per pixel, not averaged.
func meanBlock(dst, src *image.NRGBA, bx, by, bw, bh int) {
	var sr, sg, sb int
	for y := by; y < by+bh; y++ {
		off := src.PixOffset(bx, y)
		for i := 0; i < bw; i++ {
			sr += int(src.Pix[off])
			sg += int(src.Pix[off+1])
			sb += int(src.Pix[off+2])
			off += 4
		}
	}
	n := bw * bh
	r := uint8((sr + n/2) / n)
	g := uint8((sg + n/2) / n)
	b := uint8((sb + n/2) / n)
	for y := by; y < by+bh; y++ {
		off := dst.PixOffset(bx, y)
		for i := 0; i < bw; i++ {
			dst.Pix[off] = r
			dst.Pix[off+1] = g
			dst.Pix[off+2] = b
			dst.Pix[off+3] = src.Pix[off+3]
			off += 4
		}
	}
}

// Pixelate replaces every blockSize×blockSize block of img with its mean
// color. The output keeps the input resolution; blockSize 1 is the identity
// on the color channels.
func Pixelate(img image.Image, blockSize int) (*image.NRGBA, error) {
	if blockSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrBlockSize, blockSize)
	}
	src := toNRGBA(img)
	if src.Rect.Dx() == 0 || src.Rect.Dy() == 0 {
		return nil, ErrEmptyImage
	}
	dst := image.NewNRGBA(src.Rect)
	baselineEngine{}.pixelate(dst, src, blockSize)
	return dst, nil
}
