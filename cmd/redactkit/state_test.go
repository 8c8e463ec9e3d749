package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/wudi/redactkit/export"
	"github.com/wudi/redactkit/license"
	"github.com/wudi/redactkit/nlp"
	"github.com/wudi/redactkit/ocr"
	"github.com/wudi/redactkit/pipeline"
)

type stubOCR struct {
	res ocr.Result
	err error
}

func (s *stubOCR) Name() string { return "stub" }

func (s *stubOCR) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	return s.res, s.err
}

type stubNER struct{}

func (stubNER) Name() string { return "stub" }

func (stubNER) Analyze(ctx context.Context, text string) (nlp.Entities, error) {
	return nlp.Entities{}, nil
}

func writeInputPNG(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	path := filepath.Join(dir, "doc.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func remaining(t *testing.T, stateDir string) int {
	t.Helper()
	state, err := loadState(stateDir)
	if err != nil {
		t.Fatalf("loadState() error = %v", err)
	}
	free, ok := state.tier.(*license.Free)
	if !ok {
		t.Fatalf("state tier = %T, want *license.Free", state.tier)
	}
	return free.Remaining
}

func TestProcessFilePersistsConsumedQuota(t *testing.T) {
	dir := t.TempDir()
	stateDir := filepath.Join(dir, "state")
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	input := writeInputPNG(t, dir)

	state, err := loadState(stateDir)
	if err != nil {
		t.Fatalf("loadState() error = %v", err)
	}
	orch := pipeline.New(pipeline.Config{OCR: &stubOCR{}, NER: stubNER{}})
	defer orch.Destroy()

	if err := processFile(orch, state, input, dir, pipeline.Options{Format: export.FormatPNG}); err != nil {
		t.Fatalf("processFile() error = %v", err)
	}
	if got := remaining(t, stateDir); got != license.DefaultDailyQuota-1 {
		t.Errorf("persisted quota = %d, want %d", got, license.DefaultDailyQuota-1)
	}
}

func TestProcessFilePersistsQuotaBeforeFailure(t *testing.T) {
	dir := t.TempDir()
	stateDir := filepath.Join(dir, "state")
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	input := writeInputPNG(t, dir)

	state, err := loadState(stateDir)
	if err != nil {
		t.Fatalf("loadState() error = %v", err)
	}
	boom := errors.New("engine down")
	orch := pipeline.New(pipeline.Config{OCR: &stubOCR{err: boom}, NER: stubNER{}})
	defer orch.Destroy()

	if err := processFile(orch, state, input, dir, pipeline.Options{}); !errors.Is(err, boom) {
		t.Fatalf("processFile() error = %v, want engine failure", err)
	}
	// The credit was spent before the run failed and must survive it.
	if got := remaining(t, stateDir); got != license.DefaultDailyQuota-1 {
		t.Errorf("persisted quota = %d, want %d", got, license.DefaultDailyQuota-1)
	}
}

func TestProcessFileQuotaExhausted(t *testing.T) {
	dir := t.TempDir()
	stateDir := filepath.Join(dir, "state")
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	input := writeInputPNG(t, dir)

	state, err := loadState(stateDir)
	if err != nil {
		t.Fatalf("loadState() error = %v", err)
	}
	state.tier.(*license.Free).Remaining = 0
	orch := pipeline.New(pipeline.Config{OCR: &stubOCR{}, NER: stubNER{}})
	defer orch.Destroy()

	if err := processFile(orch, state, input, dir, pipeline.Options{}); err == nil {
		t.Fatal("processFile() error = nil with exhausted quota")
	}
}
