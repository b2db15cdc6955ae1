package pipeline

import (
	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

// DefaultRemainderLabel names the bucket of prayers no pass assigned.
const DefaultRemainderLabel = "Uncategorized"

// Split re-partitions one top-level bucket into sub-buckets, either with a
// refinement rule set or by author.
type Split struct {
	Category string
	Rules    domain.RuleSet
	ByAuthor bool
}

// Merge unions the leaf From into the leaf Into.
type Merge struct {
	Into tree.Path
	From tree.Path
}

// Strip drops annotation items of Type from every prayer under Paths.
type Strip struct {
	Type  string
	Paths []tree.Path
}

// Promotion lifts a nested node to the top level before Before.
type Promotion struct {
	Path   tree.Path
	Before string
}

// Plan describes a full classification run. Passes run in order: the first
// over the corpus, each later one over the previous remainder. The
// transformations run after assembly in the order merges, strips, sorts,
// promotions, flattens, display order. Flatten splices a branch's children
// into its parent in place of the branch.
type Plan struct {
	Passes         []domain.RuleSet
	Splits         []Split
	Merges         []Merge
	Strips         []Strip
	SortByLength   []tree.Path
	Promotions     []Promotion
	Flatten        []tree.Path
	DisplayOrder   []string
	AuthorOrder    []domain.Author
	RemainderLabel string
}

func (p Plan) remainderLabel() string {
	if p.RemainderLabel == "" {
		return DefaultRemainderLabel
	}
	return p.RemainderLabel
}

func (p Plan) authorOrder() []domain.Author {
	if len(p.AuthorOrder) == 0 {
		return domain.DefaultAuthorOrder
	}
	return p.AuthorOrder
}
