package classifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/dlclark/regexp2"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
)

var (
	// ErrUnknownCategory is returned when a rule references a label the rule set does not declare.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrNoFallback is returned when a refinement rule set has no fallback bucket.
	ErrNoFallback = errors.New("rule set has no fallback category")
	// ErrDuplicateCategory is returned when a label is declared twice.
	ErrDuplicateCategory = errors.New("duplicate category")
)

// RuleError reports a predicate that could not be compiled.
type RuleError struct {
	RuleSet   string
	Category  string
	Predicate domain.Predicate
	Err       error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule set %q, category %q, predicate %s: %v", e.RuleSet, e.Category, e.Predicate, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// compiledPredicate is one predicate ready for evaluation.
type compiledPredicate struct {
	source   domain.Predicate
	dictIdx  int // index into the automaton dictionary, -1 when not prefiltered
	boundary *regexp.Regexp
	pattern  *regexp2.Regexp
}

type compiledCategory struct {
	label      string
	catchAll   bool
	predicates []compiledPredicate
}

type compiledOverride struct {
	category  int
	predicate compiledPredicate
}

// CompiledRuleSet is a rule set with every predicate compiled and all
// literals loaded into one Aho-Corasick automaton.
type CompiledRuleSet struct {
	source     domain.RuleSet
	mode       domain.LiteralMode
	categories []compiledCategory
	index      map[string]int
	fallback   int // -1 when the set has no fallback

	dictionary []string
	// automaton keeps per-call state; mu serialises Match.
	mu        sync.Mutex
	automaton *ahocorasick.Matcher

	threshold int
	overrides []compiledOverride
}

// Compile validates and compiles rs. Every error is reported before any
// prayer is classified.
func Compile(rs domain.RuleSet) (*CompiledRuleSet, error) {
	mode := rs.LiteralMode
	switch mode {
	case "":
		mode = domain.LiteralBoundary
	case domain.LiteralBoundary, domain.LiteralSubstring:
	default:
		return nil, fmt.Errorf("rule set %q: unknown literal mode %q", rs.Name, mode)
	}

	c := &CompiledRuleSet{
		source:   rs,
		mode:     mode,
		index:    make(map[string]int, len(rs.Categories)),
		fallback: -1,
	}
	dictIndex := make(map[string]int)

	for _, cat := range rs.Categories {
		if _, dup := c.index[cat.Label]; dup {
			return nil, fmt.Errorf("rule set %q: %w: %q", rs.Name, ErrDuplicateCategory, cat.Label)
		}
		cc := compiledCategory{label: cat.Label, catchAll: cat.CatchAll}
		for _, p := range cat.Predicates {
			cp, err := c.compilePredicate(p, dictIndex)
			if err != nil {
				return nil, &RuleError{RuleSet: rs.Name, Category: cat.Label, Predicate: p, Err: err}
			}
			cc.predicates = append(cc.predicates, cp)
		}
		c.index[cat.Label] = len(c.categories)
		c.categories = append(c.categories, cc)
	}

	if label := rs.FallbackLabel(); label != "" {
		idx, ok := c.index[label]
		if !ok {
			return nil, fmt.Errorf("rule set %q fallback: %w: %q", rs.Name, ErrUnknownCategory, label)
		}
		c.fallback = idx
	}

	if rs.LongText != nil {
		c.threshold = rs.LongText.Threshold
		for _, o := range rs.LongText.Overrides {
			idx, ok := c.index[o.Category]
			if !ok {
				return nil, fmt.Errorf("rule set %q long-text override: %w: %q", rs.Name, ErrUnknownCategory, o.Category)
			}
			cp, err := c.compilePredicate(o.Predicate, dictIndex)
			if err != nil {
				return nil, &RuleError{RuleSet: rs.Name, Category: o.Category, Predicate: o.Predicate, Err: err}
			}
			c.overrides = append(c.overrides, compiledOverride{category: idx, predicate: cp})
		}
	}

	if len(c.dictionary) > 0 {
		c.automaton = ahocorasick.NewStringMatcher(c.dictionary)
	}
	return c, nil
}

func (c *CompiledRuleSet) compilePredicate(p domain.Predicate, dictIndex map[string]int) (compiledPredicate, error) {
	cp := compiledPredicate{source: p, dictIdx: -1}

	if p.IsPattern {
		if p.Pattern == "" {
			return cp, errors.New("empty pattern")
		}
		re, err := regexp2.Compile(p.Pattern, regexp2.ECMAScript)
		if err != nil {
			return cp, fmt.Errorf("compile pattern: %w", err)
		}
		cp.pattern = re
		return cp, nil
	}

	if c.mode == domain.LiteralBoundary {
		cp.boundary = regexp.MustCompile(`\b` + regexp.QuoteMeta(p.Literal) + `\b`)
	}
	if p.Literal == "" {
		return cp, nil
	}

	idx, seen := dictIndex[p.Literal]
	if !seen {
		idx = len(c.dictionary)
		dictIndex[p.Literal] = idx
		c.dictionary = append(c.dictionary, p.Literal)
	}
	cp.dictIdx = idx
	return cp, nil
}

// Name returns the rule set name.
func (c *CompiledRuleSet) Name() string { return c.source.Name }

// Labels returns the category labels in evaluation order.
func (c *CompiledRuleSet) Labels() []string { return c.source.Labels() }

// Fallback returns the fallback label, or "" when the set has none.
func (c *CompiledRuleSet) Fallback() string {
	if c.fallback < 0 {
		return ""
	}
	return c.categories[c.fallback].label
}

// LongTextThreshold returns the long-text gate, or 0 when disabled.
func (c *CompiledRuleSet) LongTextThreshold() int { return c.threshold }

// hits reports which dictionary literals occur in text as raw substrings.
func (c *CompiledRuleSet) hits(text string) map[int]bool {
	if c.automaton == nil {
		return nil
	}
	c.mu.Lock()
	found := c.automaton.Match([]byte(text))
	c.mu.Unlock()
	set := make(map[int]bool, len(found))
	for _, idx := range found {
		set[idx] = true
	}
	return set
}

func (c *CompiledRuleSet) matches(p compiledPredicate, text string, hits map[int]bool) (bool, error) {
	if p.pattern != nil {
		ok, err := p.pattern.MatchString(text)
		if err != nil {
			return false, fmt.Errorf("evaluate %s: %w", p.source, err)
		}
		return ok, nil
	}

	// A literal the automaton did not see cannot match in either mode.
	if p.dictIdx >= 0 && !hits[p.dictIdx] {
		return false, nil
	}

	if c.mode == domain.LiteralSubstring {
		return strings.Contains(text, p.source.Literal), nil
	}
	return p.boundary.MatchString(text), nil
}

// verdict is the outcome of evaluating one text: the winning category
// (-1 when none), the rule that decided it, and whether the long-text gate
// applied.
type verdict struct {
	category int
	reason   string
	gated    bool
}

// evaluate applies the long-text gate and then the ordered category scan.
// Classification and Explain both go through here.
func (c *CompiledRuleSet) evaluate(text string) (verdict, error) {
	hits := c.hits(text)

	if c.threshold > 0 && len(text) >= c.threshold {
		v := verdict{category: -1, gated: true}
		for _, o := range c.overrides {
			ok, err := c.matches(o.predicate, text, hits)
			if err != nil {
				return verdict{category: -1}, fmt.Errorf("long-text override: %w", err)
			}
			if ok {
				v.category = o.category
				v.reason = "long-text override " + o.predicate.source.String()
				return v, nil
			}
		}
		return v, nil
	}

	for i, cat := range c.categories {
		if cat.catchAll {
			return verdict{category: i, reason: "catch-all"}, nil
		}
		for _, p := range cat.predicates {
			ok, err := c.matches(p, text, hits)
			if err != nil {
				return verdict{category: -1}, fmt.Errorf("category %q: %w", cat.label, err)
			}
			if ok {
				return verdict{category: i, reason: p.source.String()}, nil
			}
		}
	}
	return verdict{category: -1}, nil
}

// Explain returns the label and predicate that assign text, for rule
// authors debugging an assignment. ok is false when nothing matches.
func (c *CompiledRuleSet) Explain(text string) (label string, predicate string, ok bool, err error) {
	v, err := c.evaluate(text)
	if err != nil || v.category < 0 {
		return "", "", false, err
	}
	return c.categories[v.category].label, v.reason, true, nil
}
