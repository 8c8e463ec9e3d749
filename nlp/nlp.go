// Package nlp defines the boundary to the named-entity recognizer. The
// toolkit never ships a model; callers plug in an Engine (a local model
// binding, a rule-based tagger) and the redaction mapper consumes the grouped
// entity literals it returns. Character offsets are absent from the
// contract: the mapper recomputes positions by first-occurrence search, so
// engines that only produce surface forms remain usable.
package nlp

import "context"

// Entities groups recognized entity literals by category.
type Entities struct {
	Persons       []string
	Places        []string
	Organizations []string
}

// Count returns the total number of entity literals across all groups.
func (e Entities) Count() int {
	return len(e.Persons) + len(e.Places) + len(e.Organizations)
}

// Engine is the named-entity recognizer contract: one text in, grouped
// entity literals out. Implementations must be safe for concurrent use.
type Engine interface {
	Name() string
	Analyze(ctx context.Context, text string) (Entities, error)
}

var defaultEngine Engine = noopEngine{}

// DefaultEngine returns the process-wide default NER engine.
func DefaultEngine() Engine { return defaultEngine }

// SetDefaultEngine replaces the process-wide default NER engine.
func SetDefaultEngine(engine Engine) { defaultEngine = engine }

type noopEngine struct{}

func (noopEngine) Name() string { return "noop" }

func (noopEngine) Analyze(ctx context.Context, text string) (Entities, error) {
	return Entities{}, nil
}
