// Package scriptrules lets callers extend the pattern scanner with detection
// rules written in JavaScript. A rule script receives the document text as the
// global `text` and evaluates to an array of matches:
//
//	[{kind: "invoiceRef", text: "FAC-123", offset: 10, length: 7}, ...]
//
// Rows with out-of-range offsets or unknown shapes are dropped rather than
// failing the run; a malformed custom rule must not take down redaction of a
// document.
package scriptrules

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/wudi/redactkit/detect"
)

// Engine evaluates rule scripts in an embedded JavaScript VM. An Engine is
// not safe for concurrent use; create one per goroutine.
type Engine struct {
	vm *goja.Runtime
}

// New constructs a rule engine with a fresh VM.
func New() *Engine {
	return &Engine{vm: goja.New()}
}

// Run evaluates script against text and converts the result rows into spans.
// Cancelling ctx interrupts the VM.
func (e *Engine) Run(ctx context.Context, script, text string) ([]detect.Span, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	if err := e.vm.Set("text", text); err != nil {
		return nil, fmt.Errorf("scriptrules: set text: %w", err)
	}
	val, err := e.vm.RunString(script)
	if err != nil {
		if interrupted, ok := err.(*goja.InterruptedError); ok {
			if cause := interrupted.Unwrap(); cause != nil {
				if cerr, ok := cause.(error); ok {
					return nil, cerr
				}
			}
			return nil, context.Canceled
		}
		return nil, fmt.Errorf("scriptrules: run: %w", err)
	}

	rows, ok := val.Export().([]interface{})
	if !ok {
		return nil, fmt.Errorf("scriptrules: script must evaluate to an array, got %T", val.Export())
	}
	spans := make([]detect.Span, 0, len(rows))
	for _, row := range rows {
		if sp, ok := spanFromRow(row, len(text)); ok {
			spans = append(spans, sp)
		}
	}
	return spans, nil
}

func spanFromRow(row interface{}, textLen int) (detect.Span, bool) {
	m, ok := row.(map[string]interface{})
	if !ok {
		return detect.Span{}, false
	}
	text, _ := m["text"].(string)
	offset, okOff := toInt(m["offset"])
	length, okLen := toInt(m["length"])
	if text == "" || !okOff || !okLen {
		return detect.Span{}, false
	}
	if offset < 0 || length <= 0 || offset+length > textLen {
		return detect.Span{}, false
	}
	kind := detect.KindCustom
	if k, ok := m["kind"].(string); ok && detect.Kind(k).Valid() {
		kind = detect.Kind(k)
	}
	return detect.Span{Kind: kind, Text: text, Offset: offset, Length: length}, true
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}
