// Package ocr defines the boundary to the optical character recognition
// engine that turns a document image into text plus per-word bounding boxes.
// The interface is small and transport-agnostic so engines can be backed by
// native libraries or external binaries without leaking provider-specific
// concerns into the pipeline.
package ocr

import "context"

// DefaultLanguages is the multi-language hint used when an input carries
// none. Two languages are recognized simultaneously.
var DefaultLanguages = []string{"fra", "eng"}

// Box is an axis-aligned rectangle in pixel coordinates, origin in the
// upper-left corner of the image.
type Box struct {
	X0, Y0, X1, Y1 int
}

// Dx returns the box width in pixels.
func (b Box) Dx() int { return b.X1 - b.X0 }

// Dy returns the box height in pixels.
func (b Box) Dy() int { return b.Y1 - b.Y0 }

// Word is a single recognized token. Words arrive in reading order but are
// not guaranteed contiguous with entity spans found later in the text.
type Word struct {
	Text string
	// Confidence is the engine's word confidence in [0,100].
	Confidence float64
	Box        Box
	// Baseline is the y coordinate of the word baseline, or zero when the
	// engine does not report one.
	Baseline int
}

// Result captures recognition output for one image.
type Result struct {
	// Text is the linearized page text.
	Text string
	// Confidence is the mean word confidence in [0,100].
	Confidence float64
	Words      []Word
}

// Input encapsulates a single encoded image submitted for recognition.
type Input struct {
	// Image is the encoded payload (PNG or JPEG).
	Image []byte
	// Languages lists trained-data hints; empty means DefaultLanguages.
	Languages []string
	// DPI carries the effective dots-per-inch; zero means unknown.
	DPI int
	// Progress, when non-nil, receives fractional progress in [0,1]. Engines
	// without native progress reporting call it at least at 0 and 1.
	Progress func(float64)
	// Variables passes engine-specific knobs (e.g. Tesseract's
	// "tessedit_char_whitelist") without hard-coding them into the API.
	Variables map[string]string
}

// Engine is the OCR provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

var defaultEngine Engine = noopEngine{}

// DefaultEngine returns the process-wide default OCR engine.
func DefaultEngine() Engine { return defaultEngine }

// SetDefaultEngine replaces the process-wide default OCR engine. The
// tesseract subpackage installs itself here on import.
func SetDefaultEngine(engine Engine) { defaultEngine = engine }

type noopEngine struct{}

func (noopEngine) Name() string { return "noop" }

func (noopEngine) Recognize(ctx context.Context, input Input) (Result, error) {
	if input.Progress != nil {
		input.Progress(1)
	}
	return Result{}, nil
}
