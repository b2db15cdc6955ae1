package classifier

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/logger"
)

// Refine re-partitions the members of one bucket (or a previous remainder)
// with this classifier's rule set. Prayers no category matches go to the
// rule set's fallback bucket, so every input prayer lands in exactly one
// returned bucket.
func (c *Classifier) Refine(ctx context.Context, prayers []domain.Prayer) ([]Bucket, error) {
	if c.rules.fallback < 0 {
		return nil, fmt.Errorf("refine with %q: %w", c.rules.Name(), ErrNoFallback)
	}

	_, span := c.telemetry.StartSpan(ctx, "classifier.refine",
		attribute.String("rule_set", c.rules.Name()),
		attribute.Int("prayers", len(prayers)))
	defer span.End()

	start := time.Now()
	partition, err := c.partition(prayers, c.rules.fallback)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.telemetry.RecordPass(c.rules.Name(), time.Since(start), partition.passCounts(), 0)
	c.logger.Debug("refinement complete",
		logger.Int("prayers", len(prayers)),
		logger.String("fallback", c.rules.Fallback()),
		logger.Duration("duration", time.Since(start)))

	return partition.Buckets, nil
}
