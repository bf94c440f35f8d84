// Package utils provides image I/O and palette helpers around the pixel8
// engine: alternative palette extractors, swatch rendering, resize-based
// pixelation and quality metrics.
package utils

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"math"
	"os"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"

	"github.com/setanarut/pixel8"
)

type PaletteMethod int

const (
	// PaletteMethodEngine uses the engine's seeded k-means builder. This
	// is the only reproducible extractor; the others depend on library
	// internals that randomize initialization.
	PaletteMethodEngine PaletteMethod = iota
	PaletteMethodKMeans
	PaletteMethodDominantColor
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	case PaletteMethodDominantColor:
		return "dominant"
	default:
		return "engine"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch s {
	case "engine":
		return PaletteMethodEngine, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	case "dominant":
		return PaletteMethodDominantColor, nil
	}
	return 0, fmt.Errorf("unknown palette method %q", s)
}

// ExtractPalette extracts a k-color palette from img with the chosen method.
// Library-backed methods fall back to dominantcolor when they come back
// empty, so callers always get something usable.
func ExtractPalette(img image.Image, k int, method PaletteMethod) []color.NRGBA {
	switch method {
	case PaletteMethodKMeans:
		p := ExtractKMeansPalette(img, k)
		if len(p) != 0 {
			return p
		}
		log.Println("palette warning: kmeans returned empty palette, falling back to dominantcolor")
		return ExtractDominantPalette(img, k)
	case PaletteMethodDominantColor:
		return ExtractDominantPalette(img, k)
	default:
		opt := pixel8.DefaultOptions()
		p, err := pixel8.BuildPalette(img, k, opt.MaxIterations, opt.Seed)
		if err != nil {
			log.Println("palette warning:", err)
			return nil
		}
		return p
	}
}

// ExtractKMeansPalette clusters a bounded pixel sample with muesli/kmeans
// and returns up to k centers, most populous first. Initialization inside
// the library is randomized, so repeated calls may differ; use the engine
// method when reproducibility matters.
func ExtractKMeansPalette(img image.Image, k int) []color.NRGBA {
	if k <= 0 {
		return nil
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Subsample to keep kmeans tractable on large images.
	maxSamples := 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	workK := min(k, len(dataset))
	km := kmeans.New()
	cc, err := km.Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil
	}

	// Sort by cluster population so dominant colors come first.
	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	out := make([]color.NRGBA, 0, len(cc))
	for _, c := range cc {
		center := c.Center
		if len(center) < 3 {
			continue
		}
		col := colorful.Color{R: center[0], G: center[1], B: center[2]}.Clamped()
		out = append(out, colorfulToNRGBA(col))
	}
	return out
}

// ExtractDominantPalette returns the k strongest candidates reported by
// dominantcolor.
func ExtractDominantPalette(img image.Image, k int) []color.NRGBA {
	if k <= 0 {
		return nil
	}
	candidates := dominantcolor.FindWeight(img, max(24, k*2))
	if len(candidates) == 0 {
		// Last resort: avoid an empty palette breaking downstream swatches.
		candidates = append(candidates, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}
	slices.SortFunc(candidates, func(a, b dominantcolor.Color) int {
		if a.Weight > b.Weight {
			return -1
		}
		if a.Weight < b.Weight {
			return 1
		}
		return 0
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]color.NRGBA, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, color.NRGBA{R: c.RGBA.R, G: c.RGBA.G, B: c.RGBA.B, A: 255})
	}
	return out
}

// ConvertWithPalette runs the pixelate -> quantize pipeline against an
// externally extracted palette instead of the engine's seeded builder. This
// is the path the CLI takes for the kmeans and dominant palette methods.
func ConvertWithPalette(img image.Image, palette []color.NRGBA, blockSize int, dither bool) (*image.NRGBA, error) {
	px, err := pixel8.Pixelate(img, blockSize)
	if err != nil {
		return nil, err
	}
	return pixel8.Quantize(px, palette, dither)
}

// SortPaletteByBrightness orders colors from darkest to brightest using
// linear-RGB luminance.
func SortPaletteByBrightness(palette []color.NRGBA) {
	slices.SortFunc(palette, func(a, b color.NRGBA) int {
		ri, gi, bi := nrgbaToColorful(a).LinearRgb()
		rj, gj, bj := nrgbaToColorful(b).LinearRgb()
		yi := 0.2126*ri + 0.7152*gi + 0.0722*bi
		yj := 0.2126*rj + 0.7152*gj + 0.0722*bj
		if yi < yj {
			return -1
		}
		if yi > yj {
			return 1
		}
		return 0
	})
}

// PixelateResize pixelates by round-tripping through a small intermediate:
// nearest-neighbor downscale by factor, then nearest-neighbor upscale back
// to the original size. A cheaper, sampling-based alternative to the
// engine's block-mean pixelation.
func PixelateResize(img image.Image, factor int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if factor <= 1 {
		draw.Draw(out, out.Rect, img, b.Min, draw.Src)
		return out
	}
	small := image.NewNRGBA(image.Rect(0, 0, max(1, w/factor), max(1, h/factor)))
	xdraw.NearestNeighbor.Scale(small, small.Rect, img, b, xdraw.Src, nil)
	xdraw.NearestNeighbor.Scale(out, out.Rect, small, small.Rect, xdraw.Src, nil)
	return out
}

// MSE returns the mean squared error between the RGB channels of a and b.
// Alpha is ignored.
func MSE(a, b image.Image) (float64, error) {
	na := ToNRGBA(a)
	nb := ToNRGBA(b)
	w, h := na.Rect.Dx(), na.Rect.Dy()
	if w != nb.Rect.Dx() || h != nb.Rect.Dy() {
		return 0, fmt.Errorf("dimension mismatch: %dx%d vs %dx%d",
			w, h, nb.Rect.Dx(), nb.Rect.Dy())
	}
	if w == 0 || h == 0 {
		return 0, fmt.Errorf("zero-area image")
	}
	diffs := make([]float64, 0, w*h*3)
	for y := 0; y < h; y++ {
		oa := na.PixOffset(0, y)
		ob := nb.PixOffset(0, y)
		for i := 0; i < w; i++ {
			for ch := 0; ch < 3; ch++ {
				d := float64(na.Pix[oa+ch]) - float64(nb.Pix[ob+ch])
				diffs = append(diffs, d*d)
			}
			oa += 4
			ob += 4
		}
	}
	return stat.Mean(diffs, nil), nil
}

// PSNR returns the peak signal-to-noise ratio in dB between a and b.
// Identical images report +Inf.
func PSNR(a, b image.Image) (float64, error) {
	mse, err := MSE(a, b)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(255*255/mse), nil
}

// ToNRGBA copies img into a zero-origin NRGBA bitmap.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}

func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// SavePalette renders the palette as a strip of labeled tiles and writes it
// as PNG.
func SavePalette(palette []color.NRGBA, tileSize int, filename string) error {
	if len(palette) == 0 {
		return fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	dc := gg.NewContext(tileSize*len(palette), tileSize)
	for i, c := range palette {
		x := float64(i * tileSize)
		dc.SetRGB255(int(c.R), int(c.G), int(c.B))
		dc.DrawRectangle(x, 0, float64(tileSize), float64(tileSize))
		dc.Fill()

		col := nrgbaToColorful(c)
		lr, lg, lb := col.LinearRgb()
		if 0.2126*lr+0.7152*lg+0.0722*lb > 0.3 {
			dc.SetRGB(0, 0, 0)
		} else {
			dc.SetRGB(1, 1, 1)
		}
		dc.DrawStringAnchored(col.Hex(), x+float64(tileSize)/2, float64(tileSize)-10, 0.5, 0.5)
	}
	return dc.SavePNG(filename)
}

func nrgbaToColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

func colorfulToNRGBA(c colorful.Color) color.NRGBA {
	return color.NRGBA{
		R: uint8(max(0, min(255, c.R*255+0.5))),
		G: uint8(max(0, min(255, c.G*255+0.5))),
		B: uint8(max(0, min(255, c.B*255+0.5))),
		A: 255,
	}
}
