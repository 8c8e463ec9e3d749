package pipeline

import (
	"github.com/wudi/redactkit/export"
	"github.com/wudi/redactkit/redact"
)

// Options controls one pipeline run. Out-of-range numeric values are clamped
// rather than rejected, matching how the option surface treats slider-style
// inputs.
type Options struct {
	// Anonymize enables the detection and redaction stages.
	Anonymize bool
	// BlurBlockSize is the pixelation block side length, clamped to [1,50];
	// zero means 10.
	BlurBlockSize int
	// OutputQuality is the lossy export quality, clamped to (0,1]; zero
	// means 0.9.
	OutputQuality float64
	// ExtractTextOnly stops the run after OCR and returns text only.
	ExtractTextOnly bool
	// Format selects the export encoding; empty means JPEG.
	Format export.Format
	// RuleScript optionally adds user-defined detection rules (JavaScript,
	// see detect/scriptrules). An empty script adds nothing.
	RuleScript string
	// Watermark stamps the output; set by the caller from the license state
	// (free tier stamps, premium does not).
	Watermark bool
}

func (o Options) normalized() Options {
	if o.BlurBlockSize == 0 {
		o.BlurBlockSize = 10
	}
	if o.BlurBlockSize < redact.MinBlockSize {
		o.BlurBlockSize = redact.MinBlockSize
	}
	if o.BlurBlockSize > redact.MaxBlockSize {
		o.BlurBlockSize = redact.MaxBlockSize
	}
	if o.OutputQuality <= 0 || o.OutputQuality > 1 {
		o.OutputQuality = 0.9
	}
	if o.Format == "" {
		o.Format = export.FormatJPEG
	}
	return o
}
