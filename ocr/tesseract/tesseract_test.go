package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/redactkit/ocr"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderTextPNG(t *testing.T, text string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	var first, last float64 = -1, -1
	in := ocr.NewInput(renderTextPNG(t, "Hello Redact"),
		ocr.WithLanguages("eng"),
		ocr.WithDPI(300),
		ocr.WithProgress(func(f float64) {
			if first < 0 {
				first = f
			}
			last = f
		}),
	)

	res, err := NewEngine().Recognize(context.Background(), in)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if !strings.Contains(res.Text, "Hello") {
		t.Errorf("Text = %q, want to contain \"Hello\"", res.Text)
	}
	if len(res.Words) == 0 {
		t.Error("Recognize() returned no words")
	}
	for _, w := range res.Words {
		if w.Box.Dx() <= 0 || w.Box.Dy() <= 0 {
			t.Errorf("word %q has empty box %+v", w.Text, w.Box)
		}
	}
	if first != 0 || last != 1 {
		t.Errorf("progress endpoints = %v..%v, want 0..1", first, last)
	}
}

func TestEngineRecognizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEngine().Recognize(ctx, ocr.Input{}); err == nil {
		t.Fatal("Recognize() error = nil, want context error")
	}
}
