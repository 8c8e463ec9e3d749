// Package redact turns detected sensitive text into pixel regions and
// irreversibly overwrites them. The mapper half unifies NER entities and
// pattern-scanner spans into redaction targets and matches them against OCR
// word boxes; the pixelate half applies a block-average filter to the matched
// regions directly on the backing pixel buffer.
package redact

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/wudi/redactkit/detect"
	"github.com/wudi/redactkit/nlp"
	"github.com/wudi/redactkit/ocr"
)

// Target is one string whose occurrences on the page must be redacted.
type Target struct {
	Kind detect.Kind
	Text string
}

// Box is a word judged to overlap a redaction target. Its coordinates come
// verbatim from the OCR word; the mapper never synthesizes geometry.
type Box struct {
	Box        ocr.Box
	Kind       detect.Kind
	SourceText string
	Confidence float64
}

// MergeTargets combines NER entities and scanner spans into one target list.
// No deduplication is performed: a token flagged by both sources yields two
// targets, which is harmless because mapping is idempotent per word.
func MergeTargets(entities nlp.Entities, spans []detect.Span) []Target {
	targets := make([]Target, 0, entities.Count()+len(spans))
	for _, p := range entities.Persons {
		targets = append(targets, Target{Kind: detect.KindPerson, Text: p})
	}
	for _, p := range entities.Places {
		targets = append(targets, Target{Kind: detect.KindPlace, Text: p})
	}
	for _, o := range entities.Organizations {
		targets = append(targets, Target{Kind: detect.KindOrganization, Text: o})
	}
	for _, s := range spans {
		targets = append(targets, Target{Kind: s.Kind, Text: s.Text})
	}
	return targets
}

// Normalize lower-cases s, strips diacritics and drops punctuation, keeping
// letters, digits and spaces. Both targets and words go through the same
// normalization before matching.
func Normalize(s string) string {
	s = strings.ToLower(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MapWords computes the redaction boxes for a page: a word is redacted when
// its normalized text is a substring of a normalized target. Containment
// rather than exact equality means short common words can also match inside
// longer sensitive strings. The output may contain duplicate boxes when
// several targets match the same word; Pixelate tolerates that.
func MapWords(targets []Target, words []ocr.Word) []Box {
	var boxes []Box
	for _, target := range targets {
		nt := Normalize(target.Text)
		if nt == "" {
			continue
		}
		for _, w := range words {
			nw := Normalize(w.Text)
			if nw == "" {
				continue
			}
			if strings.Contains(nt, nw) {
				boxes = append(boxes, Box{
					Box:        w.Box,
					Kind:       target.Kind,
					SourceText: w.Text,
					Confidence: w.Confidence,
				})
			}
		}
	}
	return boxes
}
