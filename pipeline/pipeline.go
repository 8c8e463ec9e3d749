// Package pipeline orchestrates one document's journey from raw bytes to a
// redacted, optionally watermarked, re-encoded output. Stages run strictly
// in sequence (MIME detection, rasterization, OCR, entity analysis,
// redaction, watermark, export), each mapped to a fixed slice of the [0,1]
// progress range. The orchestrator owns the run's pixel buffer for its whole
// lifetime and releases it on every exit path, success or failure.
//
// An Orchestrator supports at most one in-flight run; concurrent runs need
// separate instances. Progress, completion and error events go out on three
// independent multi-subscriber channels.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/wudi/redactkit/detect"
	"github.com/wudi/redactkit/detect/scriptrules"
	"github.com/wudi/redactkit/export"
	"github.com/wudi/redactkit/nlp"
	"github.com/wudi/redactkit/observability"
	"github.com/wudi/redactkit/ocr"
	"github.com/wudi/redactkit/raster"
	"github.com/wudi/redactkit/redact"
	"github.com/wudi/redactkit/watermark"
)

var (
	// ErrBusy reports a Process call while another run is in flight on the
	// same instance.
	ErrBusy = errors.New("pipeline: run already in flight")
	// ErrDestroyed reports a Process call after Destroy.
	ErrDestroyed = errors.New("pipeline: orchestrator destroyed")
	// ErrEmptyDocument reports an input with no payload.
	ErrEmptyDocument = errors.New("pipeline: empty document")
)

// thumbnailEdge is the longest edge of the result thumbnail in pixels.
const thumbnailEdge = 256

// Document is one input file.
type Document struct {
	Data []byte
	// MIME is the declared content type; empty means sniff from Data.
	MIME string
	Name string
}

// Config assembles an orchestrator's collaborators. Nil engines fall back to
// the process-wide defaults; a nil Exporter uses the standard encoder.
type Config struct {
	OCR      ocr.Engine
	NER      nlp.Engine
	Exporter export.Encoder
	Logger   observability.Logger
	// Languages overrides the OCR language hints; empty means
	// ocr.DefaultLanguages.
	Languages []string
	// WatermarkLabel is the text tiled over free-tier output.
	WatermarkLabel string
}

// Result is the outcome of a successful run.
type Result struct {
	// Encoded is the re-encoded output payload; nil for text-only runs.
	Encoded []byte
	// Thumbnail is a small PNG preview; nil for text-only runs.
	Thumbnail []byte
	Text       string
	Confidence float64
	// EntitiesFound counts the redaction targets (entities plus pattern
	// matches) identified during analysis.
	EntitiesFound int
	Watermarked   bool
}

// Orchestrator drives the staged pipeline. Create one with New.
type Orchestrator struct {
	cfg Config

	mu           sync.Mutex
	running      bool
	destroyed    bool
	lastStep     Step
	progressSubs subscribers[ProgressEvent]
	completeSubs subscribers[*Result]
	errorSubs    subscribers[error]
}

// New builds an orchestrator over cfg, filling in defaults.
func New(cfg Config) *Orchestrator {
	if cfg.OCR == nil {
		cfg.OCR = ocr.DefaultEngine()
	}
	if cfg.NER == nil {
		cfg.NER = nlp.DefaultEngine()
	}
	if cfg.Exporter == nil {
		cfg.Exporter = export.Std{}
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.WatermarkLabel == "" {
		cfg.WatermarkLabel = "redactkit"
	}
	return &Orchestrator{cfg: cfg}
}

// Destroy releases the orchestrator. Subsequent Process calls fail with
// ErrDestroyed; subscriptions are dropped.
func (o *Orchestrator) Destroy() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destroyed = true
	o.progressSubs.subs = nil
	o.completeSubs.subs = nil
	o.errorSubs.subs = nil
}

// Process runs the full pipeline on doc. It returns the result and also
// publishes it on the completion channel; failures are published on the
// error channel and returned. No stage is retried: every failure is terminal
// for the run.
func (o *Orchestrator) Process(ctx context.Context, doc Document, opts Options) (res *Result, err error) {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return nil, ErrDestroyed
	}
	if o.running {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.running = true
	o.mu.Unlock()

	var img *image.RGBA
	defer func() {
		// Cleanup is unconditional: the run's buffer is dropped and the
		// busy flag cleared on every exit path before the error surfaces.
		img = nil
		o.mu.Lock()
		o.running = false
		step := o.lastStep
		o.mu.Unlock()
		if err != nil {
			err = fmt.Errorf("pipeline: stage %s: %w", step, err)
			o.cfg.Logger.Error("run failed",
				observability.String("document", doc.Name),
				observability.Error("err", err))
			o.emitError(err)
		}
	}()

	opts = opts.normalized()
	if len(doc.Data) == 0 {
		o.mu.Lock()
		o.lastStep = StepMIMEDetection
		o.mu.Unlock()
		return nil, ErrEmptyDocument
	}

	// Stage: MIME detection. Unsupported inputs fail here, before any
	// resource is acquired.
	o.emitProgress(ProgressEvent{Step: StepMIMEDetection, Progress: progressMIME, Message: "detecting file type"})
	mime := doc.MIME
	if mime == "" {
		mime = raster.Sniff(doc.Data)
	}
	if !raster.Supported(mime) {
		return nil, fmt.Errorf("%w: %s", raster.ErrUnsupportedFormat, mime)
	}

	// Stage: image load.
	o.emitProgress(ProgressEvent{Step: StepImageLoad, Progress: progressImageLoad, Message: "rasterizing document"})
	img, err = raster.Load(ctx, doc.Data, mime)
	if err != nil {
		return nil, err
	}

	// Stage: OCR. Engine sub-progress is rescaled into the reserved band.
	ocrInput := ocr.NewInput(nil,
		ocr.WithLanguages(o.languages()...),
		ocr.WithProgress(func(f float64) {
			if f < 0 {
				f = 0
			} else if f > 1 {
				f = 1
			}
			o.emitProgress(ProgressEvent{
				Step:     StepOCR,
				Progress: ocrBandStart + f*(ocrBandEnd-ocrBandStart),
				Message:  "recognizing text",
			})
		}),
	)
	ocrInput.Image, err = encodePNG(img)
	if err != nil {
		return nil, err
	}
	ocrStart := time.Now()
	recognized, err := o.cfg.OCR.Recognize(ctx, ocrInput)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	o.cfg.Logger.Debug("ocr finished",
		observability.Int(observability.MetricWordCount, len(recognized.Words)),
		observability.Float64("confidence", recognized.Confidence),
		observability.Float64(observability.MetricOCRTime, time.Since(ocrStart).Seconds()))

	result := &Result{Text: recognized.Text, Confidence: recognized.Confidence}

	if opts.ExtractTextOnly {
		o.emitProgress(ProgressEvent{Step: StepComplete, Progress: progressComplete, Message: "text extracted"})
		o.emitComplete(result)
		return result, nil
	}

	if opts.Anonymize {
		if err = o.anonymize(ctx, img, recognized, opts, result); err != nil {
			return nil, err
		}
	}

	if opts.Watermark {
		o.emitProgress(ProgressEvent{Step: StepWatermark, Progress: progressWatermark, Message: "stamping watermark"})
		watermark.Stamp(img, o.cfg.WatermarkLabel, watermark.Options{})
		result.Watermarked = true
	}

	// Stage: export.
	o.emitProgress(ProgressEvent{Step: StepExport, Progress: progressExport, Message: "encoding output"})
	exportStart := time.Now()
	result.Encoded, err = o.cfg.Exporter.Encode(img, export.Options{Format: opts.Format, Quality: opts.OutputQuality})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	o.cfg.Logger.Debug("export finished",
		observability.String("format", string(opts.Format)),
		observability.Float64(observability.MetricExportTime, time.Since(exportStart).Seconds()))
	result.Thumbnail, err = encodePNG(raster.Thumbnail(img, thumbnailEdge))
	if err != nil {
		return nil, err
	}

	o.emitProgress(ProgressEvent{Step: StepComplete, Progress: progressComplete, Message: "done"})
	o.emitComplete(result)
	return result, nil
}

// anonymize runs the analysis and redaction stages, mutating img in place
// and filling in result.EntitiesFound.
func (o *Orchestrator) anonymize(ctx context.Context, img *image.RGBA, recognized ocr.Result, opts Options, result *Result) error {
	o.emitProgress(ProgressEvent{Step: StepNLPAnalysis, Progress: progressNLP, Message: "analyzing entities"})
	analysisStart := time.Now()
	entities, err := o.cfg.NER.Analyze(ctx, recognized.Text)
	if err != nil {
		return fmt.Errorf("ner: %w", err)
	}
	spans := detect.Scan(recognized.Text)
	if opts.RuleScript != "" {
		custom, err := scriptrules.New().Run(ctx, opts.RuleScript, recognized.Text)
		if err != nil {
			// A broken custom rule must not block redaction of the document.
			o.cfg.Logger.Warn("rule script failed", observability.Error("err", err))
		} else {
			spans = append(spans, custom...)
		}
	}

	targets := redact.MergeTargets(entities, spans)
	result.EntitiesFound = len(targets)
	boxes := redact.MapWords(targets, recognized.Words)
	o.cfg.Logger.Debug("analysis finished",
		observability.Int(observability.MetricTargetCount, len(targets)),
		observability.Int("boxes", len(boxes)),
		observability.Float64(observability.MetricAnalysisTime, time.Since(analysisStart).Seconds()))

	if len(boxes) == 0 {
		o.emitProgress(ProgressEvent{Step: StepBlurSkip, Progress: progressBlurEnd, Message: "no sensitive data"})
		return nil
	}

	o.emitProgress(ProgressEvent{
		Step:     StepBlur,
		Progress: progressBlurStart,
		Message:  fmt.Sprintf("redacting %d regions", len(boxes)),
	})
	blurStart := time.Now()
	if err := redact.Pixelate(img, redact.Regions(boxes), opts.BlurBlockSize); err != nil {
		return err
	}
	o.cfg.Logger.Debug("regions redacted",
		observability.Float64(observability.MetricRedactionTime, time.Since(blurStart).Seconds()))
	o.emitProgress(ProgressEvent{Step: StepBlur, Progress: progressBlurEnd, Message: "regions redacted"})
	return nil
}

func (o *Orchestrator) languages() []string {
	if len(o.cfg.Languages) > 0 {
		return o.cfg.Languages
	}
	return ocr.DefaultLanguages
}

func encodePNG(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
