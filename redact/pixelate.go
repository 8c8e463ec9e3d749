package redact

import (
	"errors"
	"fmt"
	"image"
)

// Block size limits for Pixelate.
const (
	MinBlockSize = 1
	MaxBlockSize = 50
)

// ErrRegionOutOfBounds reports a region that lies entirely outside the image.
var ErrRegionOutOfBounds = errors.New("redact: region outside image bounds")

// Regions extracts the pixel rectangles from a set of redaction boxes.
func Regions(boxes []Box) []image.Rectangle {
	regions := make([]image.Rectangle, 0, len(boxes))
	for _, b := range boxes {
		regions = append(regions, image.Rect(b.Box.X0, b.Box.Y0, b.Box.X1, b.Box.Y1))
	}
	return regions
}

// Pixelate overwrites each region of img in place with block-average
// pixelation: the image is partitioned into square blocks of the given side
// length anchored at the image origin, each block takes the color of its
// top-left pixel, and every region pixel is overwritten with its block's
// color. Alpha is preserved. Regions partially outside the image are clamped
// to its bounds; regions entirely outside fail with ErrRegionOutOfBounds.
// Because all regions share the same block partition and a block's top-left
// pixel always keeps its original value, overlapping and duplicate regions
// are fine and processing order never affects the final image.
func Pixelate(img *image.RGBA, regions []image.Rectangle, block int) error {
	if block < MinBlockSize || block > MaxBlockSize {
		return fmt.Errorf("redact: block size %d outside [%d,%d]", block, MinBlockSize, MaxBlockSize)
	}
	bounds := img.Bounds()
	for _, r := range regions {
		if r.Empty() {
			continue
		}
		if !r.Overlaps(bounds) {
			return fmt.Errorf("%w: %v vs %v", ErrRegionOutOfBounds, r, bounds)
		}
		pixelateRegion(img, r.Intersect(bounds), block)
	}
	return nil
}

func pixelateRegion(img *image.RGBA, r image.Rectangle, block int) {
	// The block grid is anchored at the image origin, not the region corner.
	// A block's top-left pixel may therefore lie outside r; it is only read,
	// never written, so its value survives earlier regions intact.
	bounds := img.Bounds()
	startX := bounds.Min.X + (r.Min.X-bounds.Min.X)/block*block
	startY := bounds.Min.Y + (r.Min.Y-bounds.Min.Y)/block*block
	for by := startY; by < r.Max.Y; by += block {
		for bx := startX; bx < r.Max.X; bx += block {
			// Representative color: the block's top-left pixel.
			top := img.PixOffset(bx, by)
			cr, cg, cb := img.Pix[top], img.Pix[top+1], img.Pix[top+2]

			xMin := max(bx, r.Min.X)
			yMin := max(by, r.Min.Y)
			xMax := min(bx+block, r.Max.X)
			yMax := min(by+block, r.Max.Y)
			for y := yMin; y < yMax; y++ {
				o := img.PixOffset(xMin, y)
				for x := xMin; x < xMax; x++ {
					img.Pix[o] = cr
					img.Pix[o+1] = cg
					img.Pix[o+2] = cb
					o += 4
				}
			}
		}
	}
}
