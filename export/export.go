// Package export encodes the finished pixel buffer into its output payload.
// JPEG and PNG use the standard encoders; the PDF path wraps the encoded
// image as a single-page document sized to the image's pixel dimensions.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Format selects the output encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
)

// Options configures one export call.
type Options struct {
	Format Format
	// Quality is the lossy-encoding quality in (0,1]; zero means 0.9. PNG
	// ignores it.
	Quality float64
}

// Encoder is the export collaborator consumed by the pipeline.
type Encoder interface {
	Encode(img *image.RGBA, opts Options) ([]byte, error)
}

// Std is the default, dependency-free-at-runtime encoder.
type Std struct{}

// Encode renders img into the requested format.
func (Std) Encode(img *image.RGBA, opts Options) ([]byte, error) {
	return Encode(img, opts)
}

// Encode renders img into the requested format.
func Encode(img *image.RGBA, opts Options) ([]byte, error) {
	switch opts.Format {
	case FormatJPEG:
		return encodeJPEG(img, opts.Quality)
	case FormatPNG:
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("export: encode png: %w", err)
		}
		return buf.Bytes(), nil
	case FormatPDF:
		return encodePDF(img, opts.Quality)
	}
	return nil, fmt.Errorf("export: unknown format %q", opts.Format)
}

func encodeJPEG(img *image.RGBA, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return nil, fmt.Errorf("export: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// encodePDF wraps the image, JPEG-encoded at the requested quality, as one
// PDF page whose media box matches the image dimensions ("pos:full").
func encodePDF(img *image.RGBA, quality float64) ([]byte, error) {
	encoded, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}
	imp, err := api.Import("pos:full", types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("export: import config: %w", err)
	}
	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(encoded)}, imp, nil); err != nil {
		return nil, fmt.Errorf("export: build pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// jpegQuality maps the (0,1] option onto the encoder's 1..100 scale.
func jpegQuality(q float64) int {
	if q <= 0 || q > 1 {
		q = 0.9
	}
	n := int(math.Round(q * 100))
	if n < 1 {
		n = 1
	}
	return n
}
