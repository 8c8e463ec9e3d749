// Package watermark tiles a rotated text label across an image using a
// low-opacity inverting blend, so the mark stays legible over both light and
// dark backgrounds. Stamping is purely additive: pixel dimensions and alpha
// are never touched. Repeated application double-stacks marks, so the
// pipeline applies it at most once per run.
package watermark

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Options controls the stamp geometry and strength.
type Options struct {
	// FontSize is the approximate glyph height in pixels. The label is
	// rendered with a fixed bitmap face and integer-scaled to the nearest
	// multiple, so the effective size is approximate.
	FontSize int
	// Opacity is the blend strength in (0,1].
	Opacity float64
	// AngleDegrees rotates the tiling grid; negative values slope upward.
	AngleDegrees float64
}

func (o Options) withDefaults() Options {
	if o.FontSize <= 0 {
		o.FontSize = 14
	}
	if o.Opacity <= 0 || o.Opacity > 1 {
		o.Opacity = 0.18
	}
	if o.AngleDegrees == 0 {
		o.AngleDegrees = -30
	}
	return o
}

// Stamp tiles label across img in place. The grid is computed in rotated
// coordinates and sampled per destination pixel, so the visible area is fully
// covered regardless of angle. Covered pixels move toward their RGB inverse
// by the glyph coverage times Opacity; alpha is left unchanged.
func Stamp(img *image.RGBA, label string, opts Options) {
	if label == "" {
		return
	}
	opts = opts.withDefaults()

	mask := renderLabel(label)
	mw := mask.Bounds().Dx()
	mh := mask.Bounds().Dy()
	if mw == 0 || mh == 0 {
		return
	}
	scale := opts.FontSize / basicfont.Face7x13.Height
	if scale < 1 {
		scale = 1
	}
	tileW := float64(mw * scale)
	tileH := float64(mh * scale)
	stepX := tileW * 1.5
	stepY := tileH * 4

	theta := opts.AngleDegrees * math.Pi / 180
	sin, cos := math.Sincos(theta)

	b := img.Bounds()
	cx := float64(b.Min.X+b.Max.X) / 2
	cy := float64(b.Min.Y+b.Max.Y) / 2

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			// Undo the grid rotation to find the tile-space coordinate.
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos

			row := math.Floor(v / stepY)
			if int(row)&1 != 0 {
				// Stagger alternate rows by half a step.
				u += stepX / 2
			}
			mu := floorMod(u, stepX)
			mv := floorMod(v, stepY)
			if mu >= tileW || mv >= tileH {
				continue
			}
			a := mask.AlphaAt(int(mu)/scale, int(mv)/scale).A
			if a == 0 {
				continue
			}
			f := opts.Opacity * float64(a) / 255
			o := img.PixOffset(x, y)
			img.Pix[o] = invert(img.Pix[o], f)
			img.Pix[o+1] = invert(img.Pix[o+1], f)
			img.Pix[o+2] = invert(img.Pix[o+2], f)
		}
	}
}

// invert moves channel c toward its inverse by fraction f.
func invert(c uint8, f float64) uint8 {
	fc := float64(c)
	return uint8(math.Round(fc + (255-2*fc)*f))
}

func floorMod(a, m float64) float64 {
	r := math.Mod(a, m)
	if r < 0 {
		r += m
	}
	return r
}

// renderLabel rasterizes the label once into an alpha mask at the bitmap
// face's native size.
func renderLabel(label string) *image.Alpha {
	face := basicfont.Face7x13
	width := font.MeasureString(face, label).Ceil()
	mask := image.NewAlpha(image.Rect(0, 0, width, face.Height))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.NewUniform(color.Alpha{A: 255}),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(label)
	return mask
}
