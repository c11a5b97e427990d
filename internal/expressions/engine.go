package expressions

import "context"

// Engine handles one expression language used inside node configs.
// Check verifies syntax without evaluating; the validator relies on it.
// Evaluate runs the expression against flow data, used by preview tooling.
// Three implementations: CEL and Expr for conditions, GoJQ for extracted-data
// transforms.
type Engine interface {
	Name() string
	Check(expression string) error
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Set bundles the available engines, keyed by language tag as it appears in
// node configs ("cel", "expr", "jq").
type Set struct {
	engines map[string]Engine
}

// NewSet creates the default engine set.
func NewSet() (*Set, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}

	s := &Set{engines: make(map[string]Engine, 3)}
	for _, e := range []Engine{celEngine, NewExprEngine(), NewGoJQEngine()} {
		s.engines[e.Name()] = e
	}
	return s, nil
}

// ForLanguage returns the engine for a language tag. An empty tag resolves to
// CEL, the default condition language.
func (s *Set) ForLanguage(lang string) (Engine, bool) {
	if lang == "" {
		lang = "cel"
	}
	e, ok := s.engines[lang]
	return e, ok
}
