package pipeline

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/classifier"
)

// Explanation reports where a text would land in the top-level passes.
type Explanation struct {
	Normalized string `json:"normalized"`
	Pass       string `json:"pass,omitempty"`
	Category   string `json:"category,omitempty"`
	Predicate  string `json:"predicate,omitempty"`
}

// Explain runs text through the top-level passes in order and reports the
// first category that takes it. Pass and Category are empty when the text
// would be left uncategorized.
func (p *Pipeline) Explain(text string) (Explanation, error) {
	exp := Explanation{Normalized: classifier.NormalizeText(text)}
	for _, rules := range p.passes {
		label, predicate, ok, err := rules.Explain(exp.Normalized)
		if err != nil {
			return exp, fmt.Errorf("explain with %q: %w", rules.Name(), err)
		}
		if ok {
			exp.Pass = rules.Name()
			exp.Category = label
			exp.Predicate = predicate
			return exp, nil
		}
	}
	return exp, nil
}

// RemainderLabel returns the label of the uncategorized bucket.
func (p *Pipeline) RemainderLabel() string {
	return p.plan.remainderLabel()
}
