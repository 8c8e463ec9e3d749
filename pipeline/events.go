package pipeline

// Step identifies a pipeline stage in progress events. The step carried by
// the last progress event before a failure tells the caller where the run
// stopped.
type Step string

const (
	StepMIMEDetection Step = "mime_detection"
	StepImageLoad     Step = "image_load"
	StepOCR           Step = "ocr"
	StepNLPAnalysis   Step = "nlp_analysis"
	StepBlur          Step = "blur"
	// StepBlurSkip is emitted instead of StepBlur when anonymization found
	// nothing to redact.
	StepBlurSkip  Step = "blur_skip"
	StepWatermark Step = "watermark"
	StepExport    Step = "export"
	StepComplete  Step = "complete"
)

// Stage progress fractions. OCR owns the open band between ocrBandStart and
// ocrBandEnd, driven by the engine's sub-progress.
const (
	progressMIME      = 0.10
	progressImageLoad = 0.15
	ocrBandStart      = 0.20
	ocrBandEnd        = 0.60
	progressNLP       = 0.65
	progressBlurStart = 0.75
	progressBlurEnd   = 0.85
	progressWatermark = 0.90
	progressExport    = 0.95
	progressComplete  = 1.0
)

// ProgressEvent is one tick on the progress channel. Progress values over a
// successful run are non-decreasing and end at 1.0 with StepComplete.
type ProgressEvent struct {
	Step     Step
	Progress float64
	Message  string
}

type subscribers[T any] struct {
	next int
	subs map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) (id int) {
	if s.subs == nil {
		s.subs = make(map[int]func(T))
	}
	id = s.next
	s.next++
	s.subs[id] = fn
	return id
}

func (s *subscribers[T]) remove(id int) { delete(s.subs, id) }

// snapshot returns the current subscriber set so emission can run without
// holding the orchestrator lock; subscribers added during an emission see
// only later events.
func (s *subscribers[T]) snapshot() []func(T) {
	out := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

// OnProgress subscribes fn to progress events and returns an unsubscribe
// function. Multiple subscribers are supported on each channel.
func (o *Orchestrator) OnProgress(fn func(ProgressEvent)) func() {
	o.mu.Lock()
	id := o.progressSubs.add(fn)
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		o.progressSubs.remove(id)
		o.mu.Unlock()
	}
}

// OnComplete subscribes fn to successful-run results.
func (o *Orchestrator) OnComplete(fn func(*Result)) func() {
	o.mu.Lock()
	id := o.completeSubs.add(fn)
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		o.completeSubs.remove(id)
		o.mu.Unlock()
	}
}

// OnError subscribes fn to run failures.
func (o *Orchestrator) OnError(fn func(error)) func() {
	o.mu.Lock()
	id := o.errorSubs.add(fn)
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		o.errorSubs.remove(id)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) emitProgress(ev ProgressEvent) {
	o.mu.Lock()
	o.lastStep = ev.Step
	subs := o.progressSubs.snapshot()
	o.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (o *Orchestrator) emitComplete(res *Result) {
	o.mu.Lock()
	subs := o.completeSubs.snapshot()
	o.mu.Unlock()
	for _, fn := range subs {
		fn(res)
	}
}

func (o *Orchestrator) emitError(err error) {
	o.mu.Lock()
	subs := o.errorSubs.snapshot()
	o.mu.Unlock()
	for _, fn := range subs {
		fn(err)
	}
}
