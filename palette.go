package pixel8

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
	"sort"
)

// Palette building runs on a bounded subsample so the k-means cost stays
// independent of image resolution.
const maxPaletteSamples = 12000

// colorSamples collects R,G,B samples on a stride grid capped near
// maxPaletteSamples. Fully transparent pixels carry no usable color and are
// skipped; if the whole image is transparent the skip is dropped so the
// builder still gets input.
func colorSamples(img *image.NRGBA) [][3]int {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	step := 1
	if w*h > maxPaletteSamples {
		step = int(math.Sqrt(float64(w*h)/float64(maxPaletteSamples))) + 1
	}
	samples := collectSamples(img, step, true)
	if len(samples) == 0 {
		samples = collectSamples(img, step, false)
	}
	return samples
}

func collectSamples(img *image.NRGBA, step int, skipTransparent bool) [][3]int {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	samples := make([][3]int, 0, (w/step+1)*(h/step+1))
	for y := 0; y < h; y += step {
		off := img.PixOffset(0, y)
		for x := 0; x < w; x += step {
			o := off + x*4
			if skipTransparent && img.Pix[o+3] == 0 {
				continue
			}
			samples = append(samples, [3]int{int(img.Pix[o]), int(img.Pix[o+1]), int(img.Pix[o+2])})
		}
	}
	return samples
}

// buildPalette runs seeded Lloyd's k-means over the samples and returns
// exactly k colors ordered by descending cluster population (ties keep the
// lower centroid index). The same samples and seed always yield the same
// palette.
//
// Initial centroids are a seeded permutation of the samples, cycled when
// there are fewer samples than k. A cluster that loses all its samples keeps
// its previous centroid, so degenerate inputs (fewer distinct colors than k)
// produce duplicate palette entries instead of failing.
func buildPalette(samples [][3]int, k, maxIterations int, seed int64) []color.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(samples))
	cents := make([][3]int, k)
	for i := range cents {
		cents[i] = samples[perm[i%len(perm)]]
	}

	assign := make([]int, len(samples))
	counts := make([]int, k)
	for iter := 0; iter < maxIterations; iter++ {
		changed := iter == 0
		for si, s := range samples {
			best := 0
			bestD := distanceSq(s[0], s[1], s[2], cents[0][0], cents[0][1], cents[0][2])
			for ci := 1; ci < k; ci++ {
				d := distanceSq(s[0], s[1], s[2], cents[ci][0], cents[ci][1], cents[ci][2])
				if d < bestD {
					bestD = d
					best = ci
				}
			}
			if assign[si] != best {
				assign[si] = best
				changed = true
			}
		}
		// Stable assignments mean the means cannot move either.
		if !changed {
			break
		}
		sums := make([][3]int, k)
		for ci := range counts {
			counts[ci] = 0
		}
		for si, s := range samples {
			ci := assign[si]
			sums[ci][0] += s[0]
			sums[ci][1] += s[1]
			sums[ci][2] += s[2]
			counts[ci]++
		}
		for ci, n := range counts {
			if n == 0 {
				continue
			}
			cents[ci] = [3]int{
				(sums[ci][0] + n/2) / n,
				(sums[ci][1] + n/2) / n,
				(sums[ci][2] + n/2) / n,
			}
		}
	}

	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	pal := make([]color.NRGBA, k)
	for i, ci := range order {
		pal[i] = color.NRGBA{
			R: uint8(cents[ci][0]),
			G: uint8(cents[ci][1]),
			B: uint8(cents[ci][2]),
			A: 255,
		}
	}
	return pal
}

// BuildPalette extracts a k-color palette from img using seeded k-means over
// a bounded sample of its pixels. Unlike Convert, which enforces the [4,256]
// configuration range, k may be as small as 1 here.
func BuildPalette(img image.Image, k, maxIterations int, seed int64) ([]color.NRGBA, error) {
	if k < 1 || k > 256 {
		return nil, fmt.Errorf("%w [1,256]: got %d", ErrPaletteSize, k)
	}
	if maxIterations < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrIterations, maxIterations)
	}
	src := toNRGBA(img)
	if src.Rect.Dx() == 0 || src.Rect.Dy() == 0 {
		return nil, ErrEmptyImage
	}
	return buildPalette(colorSamples(src), k, maxIterations, seed), nil
}
