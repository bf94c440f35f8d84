package pixel8

import (
	"fmt"
	"image"
	"image/color"
)

// Quantize maps every pixel of img to its nearest palette color. With dither
// enabled the quantization residual is diffused to neighboring pixels,
// Floyd-Steinberg style. Quantizing an already quantized image against the
// same palette (dither off) is the identity.
func Quantize(img image.Image, pal []color.NRGBA, dither bool) (*image.NRGBA, error) {
	if len(pal) == 0 {
		return nil, fmt.Errorf("%w: empty palette", ErrPaletteSize)
	}
	src := toNRGBA(img)
	if src.Rect.Dx() == 0 || src.Rect.Dy() == 0 {
		return nil, ErrEmptyImage
	}
	dst := image.NewNRGBA(src.Rect)
	if dither {
		ditherFloydSteinberg(dst, src, pal)
	} else {
		baselineEngine{}.quantize(dst, src, pal)
	}
	return dst, nil
}

// ditherFloydSteinberg quantizes src against pal while diffusing each
// pixel's residual to its unvisited neighbors: 7/16 right, 3/16 below-left,
// 5/16 below, 1/16 below-right. Residuals falling outside the image are
// dropped, never wrapped.
//
// The scan is strict raster order, left-to-right then top-to-bottom. Every
// pixel's effective color depends on residuals from earlier pixels, so this
// function must stay single-threaded; it is the one sequential stage of the
// pipeline and is shared by all backends. The accumulator lives only for
// this call.
func ditherFloydSteinberg(dst, src *image.NRGBA, pal []color.NRGBA) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	errBuf := make([]float32, w*h*3)
	for y := 0; y < h; y++ {
		off := src.PixOffset(0, y)
		eo := y * w * 3
		for x := 0; x < w; x++ {
			er := clamp255f(float32(src.Pix[off]) + errBuf[eo])
			eg := clamp255f(float32(src.Pix[off+1]) + errBuf[eo+1])
			eb := clamp255f(float32(src.Pix[off+2]) + errBuf[eo+2])
			c := pal[nearestIndexF(pal, er, eg, eb)]
			dst.Pix[off] = c.R
			dst.Pix[off+1] = c.G
			dst.Pix[off+2] = c.B
			dst.Pix[off+3] = src.Pix[off+3]

			rr := er - float32(c.R)
			rg := eg - float32(c.G)
			rb := eb - float32(c.B)
			if x+1 < w {
				spreadError(errBuf, eo+3, rr, rg, rb, 7.0/16.0)
			}
			if y+1 < h {
				below := eo + w*3
				if x > 0 {
					spreadError(errBuf, below-3, rr, rg, rb, 3.0/16.0)
				}
				spreadError(errBuf, below, rr, rg, rb, 5.0/16.0)
				if x+1 < w {
					spreadError(errBuf, below+3, rr, rg, rb, 1.0/16.0)
				}
			}
			off += 4
			eo += 3
		}
	}
}

func spreadError(buf []float32, o int, r, g, b, weight float32) {
	buf[o] += r * weight
	buf[o+1] += g * weight
	buf[o+2] += b * weight
}
