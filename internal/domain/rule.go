package domain

// LiteralMode selects how literal predicates are tested.
type LiteralMode string

const (
	// LiteralBoundary matches a literal only between word boundaries.
	LiteralBoundary LiteralMode = "boundary"
	// LiteralSubstring matches a literal anywhere, as a raw substring.
	LiteralSubstring LiteralMode = "substring"
)

// Predicate tests normalised text. Exactly one of Literal or Pattern is used;
// IsPattern selects which.
type Predicate struct {
	Literal   string
	Pattern   string
	IsPattern bool
}

// LiteralPredicate builds a literal predicate.
func LiteralPredicate(s string) Predicate {
	return Predicate{Literal: s}
}

// PatternPredicate builds a regular expression predicate.
func PatternPredicate(expr string) Predicate {
	return Predicate{Pattern: expr, IsPattern: true}
}

// String returns the predicate source for diagnostics.
func (p Predicate) String() string {
	if p.IsPattern {
		return "/" + p.Pattern + "/"
	}
	return `"` + p.Literal + `"`
}

// Category is one labelled entry of a rule set.
type Category struct {
	Label      string
	Predicates []Predicate
	// CatchAll makes the category match every prayer, including empty text.
	CatchAll bool
}

// LongTextOverride assigns a long text to Category when Predicate matches.
type LongTextOverride struct {
	Category  string
	Predicate Predicate
}

// LongTextRule gates abnormally long texts away from the full rule scan.
type LongTextRule struct {
	// Threshold is the normalised length at or above which the gate applies.
	Threshold int
	Overrides []LongTextOverride
}

// RuleSet is the ordered table driving one classification pass. Category
// order is significant: the first matching category wins.
type RuleSet struct {
	Name        string
	LiteralMode LiteralMode
	Categories  []Category
	Fallback    string
	LongText    *LongTextRule
}

// Labels returns the category labels in declaration order.
func (rs RuleSet) Labels() []string {
	labels := make([]string, len(rs.Categories))
	for i, c := range rs.Categories {
		labels[i] = c.Label
	}
	return labels
}

// FallbackLabel returns the explicit fallback, or the last catch-all
// category when none is set.
func (rs RuleSet) FallbackLabel() string {
	if rs.Fallback != "" {
		return rs.Fallback
	}
	for i := len(rs.Categories) - 1; i >= 0; i-- {
		if rs.Categories[i].CatchAll {
			return rs.Categories[i].Label
		}
	}
	return ""
}
