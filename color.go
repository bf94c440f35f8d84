package pixel8

import "image/color"

// distanceSq is the squared Euclidean distance between two colors over the
// R,G,B channels. Alpha never participates. Integer math, fixed summation
// order, so identical inputs give identical results on every backend.
func distanceSq(r0, g0, b0, r1, g1, b1 int) int {
	dr := r0 - r1
	dg := g0 - g1
	db := b0 - b1
	return dr*dr + dg*dg + db*db
}

// nearestIndex returns the index of the palette entry closest to (r,g,b).
// Equidistant entries resolve to the lowest palette index (strict < while
// scanning in palette order), keeping output independent of traversal order.
func nearestIndex(pal []color.NRGBA, r, g, b int) int {
	best := 0
	bestD := distanceSq(r, g, b, int(pal[0].R), int(pal[0].G), int(pal[0].B))
	for i := 1; i < len(pal); i++ {
		d := distanceSq(r, g, b, int(pal[i].R), int(pal[i].G), int(pal[i].B))
		if d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}

// nearestIndexF is nearestIndex for effective (error-carrying) colors during
// dithering. Accumulation is float64 in fixed r,g,b order; the tie-break
// matches the integer path.
func nearestIndexF(pal []color.NRGBA, r, g, b float32) int {
	best := 0
	bestD := distanceSqF(r, g, b, pal[0])
	for i := 1; i < len(pal); i++ {
		d := distanceSqF(r, g, b, pal[i])
		if d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}

func distanceSqF(r, g, b float32, c color.NRGBA) float64 {
	dr := float64(r) - float64(c.R)
	dg := float64(g) - float64(c.G)
	db := float64(b) - float64(c.B)
	return dr*dr + dg*dg + db*db
}

func clamp255f(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
