// Package pipeline runs a classification plan over a corpus: sequential
// top-level passes, level-2 splits, tree assembly and the named
// presentation transformations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/classifier"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/telemetry"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

var (
	// ErrEmptyPlan is returned when a plan has no top-level pass.
	ErrEmptyPlan = errors.New("plan has no classification pass")
	// ErrUnknownSplit is returned when a split names a category no pass declares.
	ErrUnknownSplit = errors.New("split names an unknown category")
)

// PassStats summarises one top-level pass.
type PassStats struct {
	Name      string
	Counts    []classifier.LabelCount
	Remainder int
}

// Result is the output of a run.
type Result struct {
	Tree      *tree.Tree
	Passes    []PassStats
	Remainder []domain.Prayer
}

type split struct {
	Split
	refiner *classifier.Classifier
}

// Pipeline is a compiled plan.
type Pipeline struct {
	plan      Plan
	passes    []*classifier.CompiledRuleSet
	splits    []split
	logger    logger.Logger
	telemetry *telemetry.Provider
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTelemetry records metrics and spans for every pass and run.
func WithTelemetry(tp *telemetry.Provider) Option {
	return func(p *Pipeline) { p.telemetry = tp }
}

// New compiles every rule set of plan. Invalid rules fail here, before any
// prayer is classified.
func New(plan Plan, log logger.Logger, opts ...Option) (*Pipeline, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if len(plan.Passes) == 0 {
		return nil, ErrEmptyPlan
	}

	p := &Pipeline{plan: plan, logger: log}
	for _, opt := range opts {
		opt(p)
	}

	labels := map[string]string{plan.remainderLabel(): "remainder"}
	for _, rs := range plan.Passes {
		compiled, err := classifier.Compile(rs)
		if err != nil {
			return nil, fmt.Errorf("compile pass %q: %w", rs.Name, err)
		}
		for _, label := range compiled.Labels() {
			if owner, dup := labels[label]; dup {
				return nil, fmt.Errorf("pass %q: %w: %q already declared by %s",
					rs.Name, classifier.ErrDuplicateCategory, label, owner)
			}
			labels[label] = fmt.Sprintf("pass %q", rs.Name)
		}
		p.passes = append(p.passes, compiled)
	}

	seen := make(map[string]bool, len(plan.Splits))
	for _, s := range plan.Splits {
		if _, ok := labels[s.Category]; !ok || s.Category == plan.remainderLabel() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSplit, s.Category)
		}
		if seen[s.Category] {
			return nil, fmt.Errorf("split %q declared twice", s.Category)
		}
		seen[s.Category] = true

		entry := split{Split: s}
		if !s.ByAuthor {
			compiled, err := classifier.Compile(s.Rules)
			if err != nil {
				return nil, fmt.Errorf("compile split %q: %w", s.Category, err)
			}
			if compiled.Fallback() == "" {
				return nil, fmt.Errorf("split %q: %w", s.Category, classifier.ErrNoFallback)
			}
			entry.refiner = classifier.New(compiled, log, classifier.WithTelemetry(p.telemetry))
		}
		p.splits = append(p.splits, entry)
	}

	return p, nil
}

// Run classifies corpus and returns the assembled tree. The corpus is copied
// and numbered by position; the caller's slice is not modified.
func (p *Pipeline) Run(ctx context.Context, corpus []domain.Prayer) (*Result, error) {
	start := time.Now()
	ctx, span := p.telemetry.StartSpan(ctx, "pipeline.run", attribute.Int("prayers", len(corpus)))
	defer span.End()

	prayers := make([]domain.Prayer, len(corpus))
	for i, prayer := range corpus {
		if err := prayer.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		prayer.Index = i
		prayers[i] = prayer
	}

	cache := classifier.NewTextCache()
	result := &Result{}

	remainder := prayers
	var level1 []classifier.Bucket
	for _, rules := range p.passes {
		c := classifier.New(rules, p.logger,
			classifier.WithTextCache(cache),
			classifier.WithTelemetry(p.telemetry))
		partition, err := c.Classify(ctx, remainder)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		level1 = append(level1, partition.Buckets...)
		remainder = partition.Remainder
		result.Passes = append(result.Passes, PassStats{
			Name:      rules.Name(),
			Counts:    partition.Counts(),
			Remainder: len(partition.Remainder),
		})
		p.logger.Info("Classification pass complete",
			logger.String("rule_set", rules.Name()),
			logger.Int("assigned", partition.Total()-len(partition.Remainder)),
			logger.Int("remainder", len(partition.Remainder)))
	}

	splits, err := p.refine(ctx, level1)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result.Remainder = remainder
	if len(remainder) > 0 {
		p.logger.Warn("Prayers left uncategorized",
			logger.Int("count", len(remainder)),
			logger.Ints("indexes", prayerIndexes(remainder)),
			logger.String("bucket", p.plan.remainderLabel()))
		level1 = append(level1, classifier.Bucket{Label: p.plan.remainderLabel(), Prayers: remainder})
	}

	t, err := p.transform(tree.Assemble(level1, splits))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	result.Tree = t

	p.telemetry.RecordRun(leafCounts(t), len(remainder))
	p.logger.Info("Classification run complete",
		logger.Int("prayers", len(prayers)),
		logger.Int("leaves", len(t.Counts())),
		logger.Int("uncategorized", len(remainder)),
		logger.Duration("duration", time.Since(start)))

	return result, nil
}

func (p *Pipeline) refine(ctx context.Context, level1 []classifier.Bucket) (map[string][]classifier.Bucket, error) {
	splits := make(map[string][]classifier.Bucket, len(p.splits))
	for _, s := range p.splits {
		members := bucketPrayers(level1, s.Category)
		if s.ByAuthor {
			splits[s.Category] = classifier.PartitionByAuthor(members, p.plan.authorOrder())
			continue
		}
		buckets, err := s.refiner.Refine(ctx, members)
		if err != nil {
			return nil, fmt.Errorf("split %q: %w", s.Category, err)
		}
		splits[s.Category] = buckets
	}
	return splits, nil
}

func (p *Pipeline) transform(t *tree.Tree) (*tree.Tree, error) {
	var err error
	for _, m := range p.plan.Merges {
		if t, err = t.Merge(m.Into, m.From); err != nil {
			return nil, fmt.Errorf("merge %s into %s: %w", m.From, m.Into, err)
		}
	}
	for _, s := range p.plan.Strips {
		if t, err = t.StripAnnotations(s.Type, s.Paths...); err != nil {
			return nil, fmt.Errorf("strip %q annotations: %w", s.Type, err)
		}
	}
	for _, path := range p.plan.SortByLength {
		if t, err = t.SortByLength(path); err != nil {
			return nil, fmt.Errorf("sort %s by length: %w", path, err)
		}
	}
	for _, pr := range p.plan.Promotions {
		if t, err = t.Promote(pr.Path, pr.Before); err != nil {
			return nil, fmt.Errorf("promote %s: %w", pr.Path, err)
		}
	}
	for _, path := range p.plan.Flatten {
		if t, err = t.Flatten(path); err != nil {
			return nil, fmt.Errorf("flatten %s: %w", path, err)
		}
	}
	if len(p.plan.DisplayOrder) > 0 {
		t = t.Reorder(p.plan.DisplayOrder)
	}
	return t, nil
}

func bucketPrayers(buckets []classifier.Bucket, label string) []domain.Prayer {
	for _, b := range buckets {
		if b.Label == label {
			return b.Prayers
		}
	}
	return nil
}

func prayerIndexes(prayers []domain.Prayer) []int {
	out := make([]int, len(prayers))
	for i, p := range prayers {
		out[i] = p.Index
	}
	return out
}

func leafCounts(t *tree.Tree) []telemetry.PassCount {
	counts := t.Counts()
	out := make([]telemetry.PassCount, len(counts))
	for i, c := range counts {
		out[i] = telemetry.PassCount{Label: c.Path.String(), Count: c.Count}
	}
	return out
}
