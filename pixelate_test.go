package pixel8

import (
	"bytes"
	"errors"
	"image"
	"testing"
)

func TestPixelateBlockOneIsIdentity(t *testing.T) {
	img := testImage(13, 7, 2)
	got, err := Pixelate(img, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, img.Pix) {
		t.Error("blockSize=1 modified the image")
	}
}

func TestPixelateBlockMeans(t *testing.T) {
	// 10x10 with blockSize 4 exercises truncated boundary blocks:
	// 4x4, 4x4, 2x4 across, then 4x2, 4x2, 2x2 on the last row.
	const w, h, block = 10, 10, 4
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := img.PixOffset(x, y)
			img.Pix[off] = uint8(10 + x*13)
			img.Pix[off+1] = uint8(10 + y*17)
			img.Pix[off+2] = uint8(10 + x + y)
			img.Pix[off+3] = uint8(100 + x + y)
		}
	}
	got, err := Pixelate(img, block)
	if err != nil {
		t.Fatal(err)
	}

	forEachBlock(w, h, block, func(bx, by, bw, bh int) {
		var sr, sg, sb int
		for y := by; y < by+bh; y++ {
			for x := bx; x < bx+bw; x++ {
				off := img.PixOffset(x, y)
				sr += int(img.Pix[off])
				sg += int(img.Pix[off+1])
				sb += int(img.Pix[off+2])
			}
		}
		n := bw * bh
		wr := uint8((sr + n/2) / n)
		wg := uint8((sg + n/2) / n)
		wb := uint8((sb + n/2) / n)
		for y := by; y < by+bh; y++ {
			for x := bx; x < bx+bw; x++ {
				off := got.PixOffset(x, y)
				if got.Pix[off] != wr || got.Pix[off+1] != wg || got.Pix[off+2] != wb {
					t.Fatalf("block (%d,%d %dx%d) pixel (%d,%d): got (%d,%d,%d), want (%d,%d,%d)",
						bx, by, bw, bh, x, y,
						got.Pix[off], got.Pix[off+1], got.Pix[off+2], wr, wg, wb)
				}
				if got.Pix[off+3] != img.Pix[off+3] {
					t.Fatalf("pixel (%d,%d): alpha changed from %d to %d",
						x, y, img.Pix[off+3], got.Pix[off+3])
				}
			}
		}
	})
}

func TestPixelateOneByOne(t *testing.T) {
	img := testImage(1, 1, 4)
	got, err := Pixelate(img, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, img.Pix) {
		t.Errorf("1x1: got %v, want %v", got.Pix, img.Pix)
	}
}

func TestPixelateInvalidBlockSize(t *testing.T) {
	if _, err := Pixelate(testImage(4, 4, 1), 0); !errors.Is(err, ErrBlockSize) {
		t.Errorf("got %v, want %v", err, ErrBlockSize)
	}
}
