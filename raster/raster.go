// Package raster turns an input document into the single mutable RGBA
// surface the pipeline owns for a run. PDFs are rendered via MuPDF (go-fitz),
// first page only; PNG and JPEG images are decoded directly. Everything else
// is rejected up front so no stage starts on an unsupported file.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"
)

// ErrUnsupportedFormat reports an input that is neither a PDF nor a
// supported image.
var ErrUnsupportedFormat = errors.New("raster: unsupported file format")

// DefaultDPI is the rendering resolution for PDF pages. 150 keeps word boxes
// precise enough for redaction while bounding the pixel buffer size.
const DefaultDPI = 150

// Sniff returns the detected MIME type of data.
func Sniff(data []byte) string {
	return http.DetectContentType(data)
}

// Supported reports whether Load accepts the given MIME type.
func Supported(mime string) bool {
	switch mime {
	case "application/pdf", "image/png", "image/jpeg":
		return true
	}
	return false
}

// Load decodes data into an RGBA buffer. An empty mime is sniffed from the
// payload. The returned buffer is freshly allocated and exclusively owned by
// the caller.
func Load(ctx context.Context, data []byte, mime string) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if mime == "" {
		mime = Sniff(data)
	}
	switch mime {
	case "application/pdf":
		return renderFirstPage(data)
	case "image/png", "image/jpeg":
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("raster: decode %s: %w", mime, err)
		}
		return ToRGBA(img), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
}

func renderFirstPage(data []byte) (*image.RGBA, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("raster: open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("raster: pdf has no pages")
	}
	img, err := doc.ImageDPI(0, DefaultDPI)
	if err != nil {
		return nil, fmt.Errorf("raster: render page: %w", err)
	}
	return ToRGBA(img), nil
}

// ToRGBA returns img as *image.RGBA, copying only when the underlying type
// or geometry requires it.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// Thumbnail scales img down so its longest edge is maxEdge pixels, keeping
// aspect ratio. Images already small enough are copied unscaled.
func Thumbnail(img *image.RGBA, maxEdge int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
		return out
	}
	if w >= h {
		h = h * maxEdge / w
		w = maxEdge
	} else {
		w = w * maxEdge / h
		h = maxEdge
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
