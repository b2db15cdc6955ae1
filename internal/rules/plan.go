package rules

import (
	"strings"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/pipeline"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

// ParsePredicate reads one match entry. Entries of the form /expr/ are
// patterns; everything else, including the empty string, is a literal.
func ParsePredicate(s string) domain.Predicate {
	if len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		return domain.PatternPredicate(s[1 : len(s)-1])
	}
	return domain.LiteralPredicate(s)
}

// RuleSet converts the YAML entry into a domain rule set.
func (rs RuleSetSpec) RuleSet() domain.RuleSet {
	out := domain.RuleSet{
		Name:        rs.Name,
		LiteralMode: domain.LiteralMode(rs.LiteralMode),
		Fallback:    rs.Fallback,
		Categories:  make([]domain.Category, len(rs.Categories)),
	}
	for i, c := range rs.Categories {
		cat := domain.Category{Label: c.Label, CatchAll: c.CatchAll}
		for _, m := range c.Match {
			cat.Predicates = append(cat.Predicates, ParsePredicate(m))
		}
		out.Categories[i] = cat
	}
	if rs.LongText != nil {
		lt := &domain.LongTextRule{Threshold: rs.LongText.Threshold}
		for _, o := range rs.LongText.Overrides {
			lt.Overrides = append(lt.Overrides, domain.LongTextOverride{
				Category:  o.Category,
				Predicate: ParsePredicate(o.Match),
			})
		}
		out.LongText = lt
	}
	return out
}

// Plan converts the file into a pipeline plan.
func (f *File) Plan() pipeline.Plan {
	plan := pipeline.Plan{
		RemainderLabel: f.RemainderLabel,
		DisplayOrder:   f.Transforms.DisplayOrder,
	}
	for _, rs := range f.Passes {
		plan.Passes = append(plan.Passes, rs.RuleSet())
	}
	for _, s := range f.Splits {
		split := pipeline.Split{Category: s.Category, ByAuthor: s.ByAuthor}
		if s.Rules != nil {
			split.Rules = s.Rules.RuleSet()
		}
		plan.Splits = append(plan.Splits, split)
	}
	for _, a := range f.AuthorOrder {
		plan.AuthorOrder = append(plan.AuthorOrder, domain.Author(a))
	}
	for _, m := range f.Transforms.Merge {
		plan.Merges = append(plan.Merges, pipeline.Merge{Into: tree.ParsePath(m.Into), From: tree.ParsePath(m.From)})
	}
	for _, s := range f.Transforms.StripAnnotations {
		strip := pipeline.Strip{Type: s.Type}
		for _, p := range s.Paths {
			strip.Paths = append(strip.Paths, tree.ParsePath(p))
		}
		plan.Strips = append(plan.Strips, strip)
	}
	for _, p := range f.Transforms.SortByLength {
		plan.SortByLength = append(plan.SortByLength, tree.ParsePath(p))
	}
	for _, p := range f.Transforms.Promote {
		plan.Promotions = append(plan.Promotions, pipeline.Promotion{Path: tree.ParsePath(p.Path), Before: p.Before})
	}
	for _, p := range f.Transforms.Flatten {
		plan.Flatten = append(plan.Flatten, tree.ParsePath(p))
	}
	return plan
}
