// Package classifier assigns prayers to categories with ordered, hand-authored
// rule sets. A category matches when any of its predicates matches the
// normalised prayer text; the first matching category in rule-set order wins.
package classifier

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/telemetry"
)

// Classifier runs one compiled rule set over a list of prayers.
type Classifier struct {
	rules     *CompiledRuleSet
	cache     *TextCache
	logger    logger.Logger
	telemetry *telemetry.Provider
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTextCache shares normalised texts across passes of one run.
func WithTextCache(cache *TextCache) Option {
	return func(c *Classifier) { c.cache = cache }
}

// WithTelemetry records pass metrics and spans.
func WithTelemetry(tp *telemetry.Provider) Option {
	return func(c *Classifier) { c.telemetry = tp }
}

// New creates a classifier for rules. A nil logger disables logging.
func New(rules *CompiledRuleSet, log logger.Logger, opts ...Option) *Classifier {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Classifier{
		rules:  rules,
		logger: log.With(logger.String("rule_set", rules.Name())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns the compiled rule set.
func (c *Classifier) Rules() *CompiledRuleSet {
	return c.rules
}

// Classify assigns each prayer to the first matching category. Prayers no
// category matches are returned in the remainder. Texts at or above the
// rule set's long-text threshold skip the full scan and only try the
// long-text overrides.
func (c *Classifier) Classify(ctx context.Context, prayers []domain.Prayer) (*Partition, error) {
	start := time.Now()
	_, span := c.telemetry.StartSpan(ctx, "classifier.classify",
		attribute.String("rule_set", c.rules.Name()),
		attribute.Int("prayers", len(prayers)))
	defer span.End()

	partition, err := c.partition(prayers, -1)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.telemetry.RecordPass(c.rules.Name(), time.Since(start), partition.passCounts(), len(partition.Remainder))
	c.logger.Debug("classification pass complete",
		logger.Int("prayers", len(prayers)),
		logger.Int("remainder", len(partition.Remainder)),
		logger.Duration("duration", time.Since(start)))

	return partition, nil
}

// partition assigns every prayer to a bucket. Unmatched prayers go to the
// bucket at fallback, or to the remainder when fallback is negative.
func (c *Classifier) partition(prayers []domain.Prayer, fallback int) (*Partition, error) {
	partition := &Partition{
		Buckets:   emptyBuckets(c.rules.Labels()),
		Remainder: []domain.Prayer{},
	}

	for i, prayer := range prayers {
		idx, err := c.assign(prayer)
		if err != nil {
			return nil, fmt.Errorf("classify prayer %d with %q: %w", i, c.rules.Name(), err)
		}
		if idx < 0 {
			idx = fallback
		}
		if idx < 0 {
			partition.Remainder = append(partition.Remainder, prayer)
			continue
		}
		partition.Buckets[idx].Prayers = append(partition.Buckets[idx].Prayers, prayer)
	}
	return partition, nil
}

// assign returns the category index for prayer, or -1.
func (c *Classifier) assign(prayer domain.Prayer) (int, error) {
	text := c.cache.Text(prayer)

	v, err := c.rules.evaluate(text)
	if err != nil {
		return -1, err
	}
	if v.gated {
		// The pass carries on with the next prayer whether or not an
		// override matched.
		c.logger.Debug("long text gated",
			logger.Int("index", prayer.Index),
			logger.Int("length", len(text)),
			logger.Bool("overridden", v.category >= 0))
	}
	return v.category, nil
}
