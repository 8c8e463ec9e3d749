package scriptrules

import (
	"context"
	"strings"
	"testing"

	"github.com/wudi/redactkit/detect"
)

func TestRunReturnsSpans(t *testing.T) {
	e := New()
	script := `
		var out = [];
		var idx = text.indexOf("REF-77");
		if (idx >= 0) {
			out.push({kind: "invoiceRef", text: "REF-77", offset: idx, length: 6});
		}
		out;
	`
	spans, err := e.Run(context.Background(), script, "dossier REF-77 clos")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("Run() returned %d spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Kind != detect.KindInvoiceRef || got.Text != "REF-77" || got.Offset != 8 || got.Length != 6 {
		t.Errorf("Run() span = %+v", got)
	}
}

func TestRunUnknownKindBecomesCustom(t *testing.T) {
	e := New()
	spans, err := e.Run(context.Background(), `[{kind: "badge", text: "X1", offset: 0, length: 2}]`, "X1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(spans) != 1 || spans[0].Kind != detect.KindCustom {
		t.Fatalf("Run() = %+v, want one custom span", spans)
	}
}

func TestRunDropsInvalidRows(t *testing.T) {
	e := New()
	script := `[
		{kind: "email", text: "ok", offset: 0, length: 2},
		{kind: "email", text: "bad", offset: -1, length: 3},
		{kind: "email", text: "bad", offset: 0, length: 99},
		"not an object",
	]`
	spans, err := e.Run(context.Background(), script, "ok here")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("Run() kept %d rows, want 1", len(spans))
	}
}

func TestRunNotAnArray(t *testing.T) {
	e := New()
	if _, err := e.Run(context.Background(), `"just a string"`, "x"); err == nil {
		t.Fatal("Run() error = nil, want non-array error")
	}
}

func TestRunCanceled(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Run(ctx, `[]`, "x")
	if err == nil || !strings.Contains(err.Error(), "canceled") {
		t.Fatalf("Run() error = %v, want context canceled", err)
	}
}
