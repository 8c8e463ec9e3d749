// Package detect finds structured sensitive values (contact details,
// financial references, official identifiers) in plain text using a fixed set
// of compiled patterns. Scanning is a pure function over the input string:
// each pattern kind is matched independently and exhaustively, spans from
// different kinds may overlap, and nothing is deduplicated or ranked here.
// That is the redaction mapper's job.
//
// The pattern set follows the French document formats the toolkit targets
// (FR phone numbers, NIR social security numbers, SIREN/SIRET, TVA numbers)
// alongside format-agnostic kinds such as email addresses and card numbers.
package detect

import "regexp"

type pattern struct {
	kind Kind
	re   *regexp.Regexp
}

// patterns are scanned in declaration order so Scan output is deterministic
// for a given input.
var patterns = []pattern{
	{KindEmail, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	{KindPhone, regexp.MustCompile(`(?:\+33\s?|0033\s?|0)[1-9](?:[\s.-]?\d{2}){4}`)},
	{KindIBAN, regexp.MustCompile(`\b[A-Z]{2}\d{2}(?:\s?[A-Z0-9]{4}){3,7}(?:\s?[A-Z0-9]{1,3})?\b`)},
	{KindNationalID, regexp.MustCompile(`\b[12]\s?\d{2}\s?(?:0[1-9]|1[0-2])\s?(?:\d{2}|2[AB])\s?\d{3}\s?\d{3}(?:\s?\d{2})?\b`)},
	{KindCreditCard, regexp.MustCompile(`\b(?:\d{4}[\s-]?){3}\d{4}\b`)},
	{KindPostalCode, regexp.MustCompile(`\b(?:0[1-9]|[1-8]\d|9[0-8])\d{3}\b`)},
	{KindInvoiceRef, regexp.MustCompile(`(?i)\b(?:facture|invoice|devis|commande)\s*(?:n[o°]?\s*)?[:#]?\s*[A-Z0-9][A-Z0-9/-]{2,}\b`)},
	{KindAmount, regexp.MustCompile(`\b\d{1,3}(?:[\s.]?\d{3})*(?:[.,]\d{2})?\s?(?:€|EUR\b|euros?\b)`)},
	{KindDate, regexp.MustCompile(`\b(?:0?[1-9]|[12]\d|3[01])[/.-](?:0?[1-9]|1[0-2])[/.-](?:\d{4}|\d{2})\b`)},
	{KindBusinessID, regexp.MustCompile(`\b\d{3}\s?\d{3}\s?\d{3}(?:\s?\d{5})?\b`)},
	{KindTaxID, regexp.MustCompile(`\bFR\s?[0-9A-Z]{2}\s?\d{9}\b`)},
}

// Scan returns one span per pattern match across the whole input. Matches of
// a single kind never overlap each other; matches of different kinds may.
// Blank input yields nil. Scan never fails.
func Scan(text string) []Span {
	if text == "" {
		return nil
	}
	var spans []Span
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			spans = append(spans, Span{
				Kind:   p.kind,
				Text:   text[loc[0]:loc[1]],
				Offset: loc[0],
				Length: loc[1] - loc[0],
			})
		}
	}
	return spans
}
