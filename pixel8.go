// Package pixel8 converts RGB(A) images into a retro 8-bit style: block
// pixelation, a per-image k-means palette, and nearest-color quantization
// with optional Floyd-Steinberg dithering.
//
// The pipeline is pixelate -> build palette -> quantize. Every stage keeps
// the input resolution; blockiness comes from uniform block fills, not from
// shrinking the image. Alpha passes through untouched and never participates
// in color distance or clustering.
package pixel8

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Method selects one of the interchangeable engine backends. All backends
// implement the same contract and produce byte-identical output for the same
// input, options and seed; they differ only in how the work is scheduled.
type Method int

const (
	// MethodBaseline is the sequential reference implementation.
	MethodBaseline Method = iota
	// MethodAdvanced splits pixelation and nearest-color quantization
	// across worker goroutines.
	MethodAdvanced
	// MethodAccelerated adds memoized palette lookups on top of the
	// parallel scheduling.
	MethodAccelerated
)

func (m Method) String() string {
	switch m {
	case MethodBaseline:
		return "baseline"
	case MethodAdvanced:
		return "advanced"
	case MethodAccelerated:
		return "accelerated"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod maps a backend name from the CLI/config surface to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "baseline":
		return MethodBaseline, nil
	case "advanced":
		return MethodAdvanced, nil
	case "accelerated":
		return MethodAccelerated, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrMethod, s)
}

func (m Method) engine() engine {
	switch m {
	case MethodAdvanced:
		return advancedEngine{}
	case MethodAccelerated:
		return acceleratedEngine{}
	}
	return baselineEngine{}
}

// Configuration and input errors. All are detected before any pixel is
// processed; a failed conversion never returns partial output.
var (
	ErrPaletteSize = errors.New("pixel8: palette size out of range")
	ErrBlockSize   = errors.New("pixel8: block size must be at least 1")
	ErrIterations  = errors.New("pixel8: max iterations must be at least 1")
	ErrMethod      = errors.New("pixel8: unknown method")
	ErrEmptyImage  = errors.New("pixel8: zero-area image")
)

type Options struct {
	// PaletteSize is the number of palette colors, 4 to 256.
	PaletteSize int
	// BlockSize is the pixelation block side length in pixels.
	// 1 disables pixelation.
	BlockSize int
	// Dither enables Floyd-Steinberg error diffusion during quantization.
	Dither bool
	// Method picks the engine backend.
	Method Method
	// Seed drives palette initialization. Identical seeds give identical
	// palettes; keep it fixed for reproducible output.
	Seed int64
	// MaxIterations caps the k-means refinement loop.
	MaxIterations int
}

func DefaultOptions() Options {
	return Options{
		PaletteSize:   8,
		BlockSize:     8,
		Dither:        true,
		Method:        MethodAccelerated,
		Seed:          1,
		MaxIterations: 16,
	}
}

func (o Options) Validate() error {
	if o.PaletteSize < 4 || o.PaletteSize > 256 {
		return fmt.Errorf("%w [4,256]: got %d", ErrPaletteSize, o.PaletteSize)
	}
	if o.BlockSize < 1 {
		return fmt.Errorf("%w: got %d", ErrBlockSize, o.BlockSize)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("%w: got %d", ErrIterations, o.MaxIterations)
	}
	switch o.Method {
	case MethodBaseline, MethodAdvanced, MethodAccelerated:
	default:
		return fmt.Errorf("%w: %d", ErrMethod, int(o.Method))
	}
	return nil
}

// Converter runs the pixelate -> palette -> quantize pipeline. After Convert
// the palette built for the last image is available in Palette. Palettes are
// image specific and never reused across images.
type Converter struct {
	Options Options
	Palette []color.NRGBA
}

func New(opt Options) *Converter {
	return &Converter{Options: opt}
}

// Convert produces the 8-bit styled version of img. Output dimensions always
// equal input dimensions.
func (c *Converter) Convert(img image.Image) (*image.NRGBA, error) {
	if err := c.Options.Validate(); err != nil {
		return nil, err
	}
	src := toNRGBA(img)
	if src.Rect.Dx() == 0 || src.Rect.Dy() == 0 {
		return nil, ErrEmptyImage
	}
	eng := c.Options.Method.engine()

	px := image.NewNRGBA(src.Rect)
	eng.pixelate(px, src, c.Options.BlockSize)

	c.Palette = buildPalette(colorSamples(px), c.Options.PaletteSize,
		c.Options.MaxIterations, c.Options.Seed)

	out := image.NewNRGBA(src.Rect)
	if c.Options.Dither {
		// Error diffusion chains every pixel to the ones before it.
		// This stays single-threaded on every backend.
		ditherFloydSteinberg(out, px, c.Palette)
	} else {
		eng.quantize(out, px, c.Palette)
	}
	return out, nil
}

// Convert is the one-shot form of Converter.Convert.
func Convert(img image.Image, opt Options) (*image.NRGBA, error) {
	return New(opt).Convert(img)
}

// toNRGBA copies img into a zero-origin NRGBA bitmap. The engine owns the
// copy, so callers' buffers are never aliased or mutated.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			so := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w*4], src.Pix[so:so+w*4])
		}
		return dst
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}
