package detect

// Kind classifies a sensitive span. The first three kinds originate from the
// NER collaborator; the rest are produced by the pattern scanner.
type Kind string

const (
	KindPerson       Kind = "person"
	KindPlace        Kind = "place"
	KindOrganization Kind = "organization"
	KindEmail        Kind = "email"
	KindPhone        Kind = "phone"
	KindIBAN         Kind = "iban"
	KindNationalID   Kind = "nationalId"
	KindCreditCard   Kind = "creditCard"
	KindPostalCode   Kind = "postalCode"
	KindInvoiceRef   Kind = "invoiceRef"
	KindAmount       Kind = "amount"
	KindDate         Kind = "date"
	KindBusinessID   Kind = "businessId"
	KindTaxID        Kind = "taxId"
	// KindCustom marks spans emitted by user-supplied script rules that did
	// not name one of the known kinds.
	KindCustom Kind = "custom"
)

var knownKinds = map[Kind]bool{
	KindPerson: true, KindPlace: true, KindOrganization: true,
	KindEmail: true, KindPhone: true, KindIBAN: true, KindNationalID: true,
	KindCreditCard: true, KindPostalCode: true, KindInvoiceRef: true,
	KindAmount: true, KindDate: true, KindBusinessID: true, KindTaxID: true,
	KindCustom: true,
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return knownKinds[k] }

// Span describes a sensitive substring detected within a text.
type Span struct {
	Kind Kind
	// Text is the matched substring, verbatim.
	Text string
	// Offset is the byte offset of the first character within the scanned
	// string (UTF-8).
	Offset int
	// Length is the byte length of the match, always > 0.
	Length int
}

// End returns the byte offset one past the last character of the span.
func (s Span) End() int { return s.Offset + s.Length }
