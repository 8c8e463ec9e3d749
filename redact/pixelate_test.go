package redact

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/wudi/redactkit/ocr"
)

func boxAt(x0, y0, x1, y1 int) ocr.Box {
	return ocr.Box{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func noiseImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r := rand.New(rand.NewSource(42))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(r.Intn(256))
		img.Pix[i+1] = uint8(r.Intn(256))
		img.Pix[i+2] = uint8(r.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func clonePix(img *image.RGBA) []byte {
	return append([]byte(nil), img.Pix...)
}

func TestPixelateBlockColor(t *testing.T) {
	img := noiseImage(40, 40)
	region := image.Rect(16, 16, 32, 32)
	top := img.RGBAAt(16, 16)

	if err := Pixelate(img, []image.Rectangle{region}, 16); err != nil {
		t.Fatalf("Pixelate() error = %v", err)
	}
	// The region covers exactly one grid block: every pixel takes the
	// top-left color.
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			got := img.RGBAAt(x, y)
			if got.R != top.R || got.G != top.G || got.B != top.B {
				t.Fatalf("pixel (%d,%d) = %v, want flattened %v", x, y, got, top)
			}
		}
	}
}

func TestPixelateGridAnchoredToImage(t *testing.T) {
	img := noiseImage(40, 40)
	// Unaligned region: its pixels belong to the image-anchored 16x16
	// blocks, so each quadrant takes the color of that block's top-left
	// pixel even when it lies outside the region.
	region := image.Rect(8, 8, 24, 24)
	reps := map[image.Point]color.RGBA{
		{0, 0}:   img.RGBAAt(0, 0),
		{16, 0}:  img.RGBAAt(16, 0),
		{0, 16}:  img.RGBAAt(0, 16),
		{16, 16}: img.RGBAAt(16, 16),
	}

	if err := Pixelate(img, []image.Rectangle{region}, 16); err != nil {
		t.Fatalf("Pixelate() error = %v", err)
	}
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			want := reps[image.Pt(x/16*16, y/16*16)]
			got := img.RGBAAt(x, y)
			if got.R != want.R || got.G != want.G || got.B != want.B {
				t.Fatalf("pixel (%d,%d) = %v, want block color %v", x, y, got, want)
			}
		}
	}
}

func TestPixelateOrderIndependent(t *testing.T) {
	a := image.Rect(5, 5, 40, 30)
	b := image.Rect(20, 10, 60, 45)

	first := noiseImage(64, 48)
	second := noiseImage(64, 48)
	if err := Pixelate(first, []image.Rectangle{a, b}, 7); err != nil {
		t.Fatalf("Pixelate(a, b) error = %v", err)
	}
	if err := Pixelate(second, []image.Rectangle{b, a}, 7); err != nil {
		t.Fatalf("Pixelate(b, a) error = %v", err)
	}
	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("redaction order of overlapping regions changed the final image")
	}
}

func TestPixelateIdempotent(t *testing.T) {
	img := noiseImage(64, 48)
	regions := []image.Rectangle{image.Rect(5, 5, 40, 30), image.Rect(20, 10, 60, 45)}

	if err := Pixelate(img, regions, 7); err != nil {
		t.Fatalf("first Pixelate() error = %v", err)
	}
	once := clonePix(img)
	if err := Pixelate(img, regions, 7); err != nil {
		t.Fatalf("second Pixelate() error = %v", err)
	}
	if !bytes.Equal(once, img.Pix) {
		t.Error("pixelating twice changed pixels; filter must be idempotent")
	}
}

func TestPixelatePreservesAlpha(t *testing.T) {
	img := noiseImage(20, 20)
	img.SetRGBA(3, 3, color.RGBA{R: 10, G: 20, B: 30, A: 77})
	if err := Pixelate(img, []image.Rectangle{image.Rect(0, 0, 10, 10)}, 4); err != nil {
		t.Fatalf("Pixelate() error = %v", err)
	}
	if a := img.RGBAAt(3, 3).A; a != 77 {
		t.Errorf("alpha = %d, want 77 (unchanged)", a)
	}
}

func TestPixelateOutsidePixelsUntouched(t *testing.T) {
	img := noiseImage(30, 30)
	before := clonePix(img)
	region := image.Rect(10, 10, 20, 20)
	if err := Pixelate(img, []image.Rectangle{region}, 5); err != nil {
		t.Fatalf("Pixelate() error = %v", err)
	}
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			if image.Pt(x, y).In(region) {
				continue
			}
			o := img.PixOffset(x, y)
			if !bytes.Equal(before[o:o+4], img.Pix[o:o+4]) {
				t.Fatalf("pixel (%d,%d) outside region was modified", x, y)
			}
		}
	}
}

func TestPixelateClampsPartialRegion(t *testing.T) {
	img := noiseImage(16, 16)
	// Overhangs the right and bottom edges; must clamp, not fail.
	if err := Pixelate(img, []image.Rectangle{image.Rect(10, 10, 40, 40)}, 8); err != nil {
		t.Fatalf("Pixelate() error = %v", err)
	}
}

func TestPixelateOutOfBounds(t *testing.T) {
	img := noiseImage(16, 16)
	err := Pixelate(img, []image.Rectangle{image.Rect(100, 100, 120, 120)}, 8)
	if err == nil {
		t.Fatal("Pixelate() error = nil, want ErrRegionOutOfBounds")
	}
}

func TestPixelateBlockSizeValidation(t *testing.T) {
	img := noiseImage(8, 8)
	for _, block := range []int{0, -3, 51} {
		if err := Pixelate(img, nil, block); err == nil {
			t.Errorf("Pixelate(block=%d) error = nil, want range error", block)
		}
	}
}

func TestRegionsFromBoxes(t *testing.T) {
	boxes := []Box{{Box: boxAt(2, 3, 12, 13)}}
	regions := Regions(boxes)
	if len(regions) != 1 || regions[0] != image.Rect(2, 3, 12, 13) {
		t.Fatalf("Regions() = %v", regions)
	}
}
