package pixel8

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

var grayPalette = []color.NRGBA{
	{R: 0, G: 0, B: 0, A: 255},
	{R: 85, G: 85, B: 85, A: 255},
	{R: 170, G: 170, B: 170, A: 255},
	{R: 255, G: 255, B: 255, A: 255},
}

func TestQuantizeNearest(t *testing.T) {
	testCases := []struct {
		in   uint8
		want uint8
	}{
		{0, 0},
		{42, 0},
		{43, 85},
		{100, 85},
		{200, 170},
		{250, 255},
	}
	for _, tc := range testCases {
		img := flatImage(3, 2, color.NRGBA{R: tc.in, G: tc.in, B: tc.in, A: 255})
		got, err := Quantize(img, grayPalette, false)
		if err != nil {
			t.Fatalf("in=%d: %v", tc.in, err)
		}
		if got.Pix[0] != tc.want {
			t.Errorf("in=%d: got %d, want %d", tc.in, got.Pix[0], tc.want)
		}
	}
}

func TestQuantizeTieBreaksToLowestIndex(t *testing.T) {
	// 128 is exactly between both entries; index 0 must win.
	pal := []color.NRGBA{
		{R: 100, G: 100, B: 100, A: 255},
		{R: 156, G: 156, B: 156, A: 255},
	}
	img := flatImage(1, 1, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	for _, dither := range []bool{false, true} {
		got, err := Quantize(img, pal, dither)
		if err != nil {
			t.Fatalf("dither=%v: %v", dither, err)
		}
		if got.Pix[0] != 100 {
			t.Errorf("dither=%v: got %d, want 100 (lowest index wins ties)", dither, got.Pix[0])
		}
	}
}

func TestQuantizeIdempotent(t *testing.T) {
	img := testImage(20, 20, 12)
	once, err := Quantize(img, grayPalette, false)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Quantize(once, grayPalette, false)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(once.Pix, twice.Pix) {
		t.Error("re-quantizing a quantized image changed it")
	}
}

func TestQuantizeFlatColorDitherMatchesNearest(t *testing.T) {
	// A color already in the palette leaves no residual to diffuse, so
	// dithered and non-dithered output must match exactly.
	img := flatImage(16, 16, color.NRGBA{R: 170, G: 170, B: 170, A: 255})
	plain, err := Quantize(img, grayPalette, false)
	if err != nil {
		t.Fatal(err)
	}
	dithered, err := Quantize(img, grayPalette, true)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plain.Pix, dithered.Pix) {
		t.Error("dithered output differs for a zero-residual image")
	}
	if plain.Pix[0] != 170 {
		t.Errorf("got %d, want 170", plain.Pix[0])
	}
}

func TestQuantizeAlphaPassthrough(t *testing.T) {
	img := testImage(9, 9, 13)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(i % 256)
	}
	for _, dither := range []bool{false, true} {
		got, err := Quantize(img, grayPalette, dither)
		if err != nil {
			t.Fatalf("dither=%v: %v", dither, err)
		}
		for i := 3; i < len(img.Pix); i += 4 {
			if got.Pix[i] != img.Pix[i] {
				t.Fatalf("dither=%v: alpha at %d changed from %d to %d",
					dither, i, img.Pix[i], got.Pix[i])
			}
		}
	}
}

// regionMeans returns the mean R channel of each 8x8 region, row-major.
func regionMeans(img *image.NRGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	var means []float64
	forEachBlock(w, h, 8, func(bx, by, bw, bh int) {
		sum := 0
		for y := by; y < by+bh; y++ {
			for x := bx; x < bx+bw; x++ {
				sum += int(img.Pix[img.PixOffset(x, y)])
			}
		}
		means = append(means, float64(sum)/float64(bw*bh))
	})
	return means
}

func TestDitherReducesRegionalMeanError(t *testing.T) {
	// Horizontal 0..255 gray gradient against a 4-color palette: flat
	// nearest quantization bands hard, while diffusion keeps each 8x8
	// region's mean close to the original. Aggregate regional error must
	// come out strictly lower with dithering.
	img := image.NewNRGBA(image.Rect(0, 0, 256, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 256; x++ {
			v := uint8(x)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	plain, err := Quantize(img, grayPalette, false)
	if err != nil {
		t.Fatal(err)
	}
	dithered, err := Quantize(img, grayPalette, true)
	if err != nil {
		t.Fatal(err)
	}

	orig := regionMeans(img)
	plainMeans := regionMeans(plain)
	ditherMeans := regionMeans(dithered)

	var plainErr, ditherErr float64
	for i := range orig {
		plainErr += abs(plainMeans[i] - orig[i])
		ditherErr += abs(ditherMeans[i] - orig[i])
	}
	if ditherErr >= plainErr {
		t.Errorf("dithered regional mean error %.2f not below flat quantization error %.2f",
			ditherErr, plainErr)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestQuantizeErrors(t *testing.T) {
	if _, err := Quantize(testImage(4, 4, 1), nil, false); !errors.Is(err, ErrPaletteSize) {
		t.Errorf("empty palette: got %v, want %v", err, ErrPaletteSize)
	}
	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	if _, err := Quantize(empty, grayPalette, false); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("zero-area: got %v, want %v", err, ErrEmptyImage)
	}
}
