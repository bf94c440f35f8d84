// Command pixel8 converts an image into a retro 8-bit styled PNG.
//
// The input may be any registered format (png, jpeg, gif, bmp, tiff, webp);
// output is always PNG. The generative front end that produces input images
// lives elsewhere; this tool only consumes decoded bitmaps.
package main

import (
	"flag"
	"image"
	"image/color"
	"log"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/setanarut/pixel8"
	"github.com/setanarut/pixel8/utils"
)

func main() {
	in := flag.String("in", "", "input image path")
	out := flag.String("out", "8bit.png", "output PNG path")
	colors := flag.Int("colors", 8, "palette size (4-256)")
	block := flag.Int("block", 8, "pixelation block size in pixels")
	dither := flag.Bool("dither", true, "enable Floyd-Steinberg dithering")
	method := flag.String("method", "accelerated", "engine backend: baseline, advanced or accelerated")
	palette := flag.String("palette", "engine", "palette extractor: engine, kmeans or dominant")
	seed := flag.Int64("seed", 1, "palette seed (same seed, same palette)")
	iters := flag.Int("iters", 16, "k-means iteration cap")
	paletteOut := flag.String("palette-out", "", "optional palette swatch PNG path")
	stats := flag.Bool("stats", false, "print MSE/PSNR of the result against the input")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		log.Fatal("missing -in")
	}

	m, err := pixel8.ParseMethod(*method)
	if err != nil {
		log.Fatal(err)
	}
	pm, err := utils.ParsePaletteMethod(*palette)
	if err != nil {
		log.Fatal(err)
	}
	opt := pixel8.DefaultOptions()
	opt.PaletteSize = *colors
	opt.BlockSize = *block
	opt.Dither = *dither
	opt.Method = m
	opt.Seed = *seed
	opt.MaxIterations = *iters
	if err := opt.Validate(); err != nil {
		log.Fatal(err)
	}

	img, err := utils.ReadImage(*in)
	if err != nil {
		log.Fatal(err)
	}

	var result *image.NRGBA
	var pal []color.NRGBA
	if pm == utils.PaletteMethodEngine {
		conv := pixel8.New(opt)
		result, err = conv.Convert(img)
		if err != nil {
			log.Fatal(err)
		}
		pal = conv.Palette
	} else {
		pal = utils.ExtractPalette(img, opt.PaletteSize, pm)
		result, err = utils.ConvertWithPalette(img, pal, opt.BlockSize, opt.Dither)
		if err != nil {
			log.Fatal(err)
		}
	}
	if err := utils.SaveImage(result, *out); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s (%d colors, block %d, dither %v, %s, %s palette)",
		*out, len(pal), opt.BlockSize, opt.Dither, opt.Method, pm)

	if *paletteOut != "" {
		if err := utils.SavePalette(pal, 64, *paletteOut); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s (%d colors)", *paletteOut, len(pal))
	}

	if *stats {
		mse, err := utils.MSE(img, result)
		if err != nil {
			log.Fatal(err)
		}
		psnr, err := utils.PSNR(img, result)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("mse=%.2f psnr=%.2fdB", mse, psnr)
	}
}
