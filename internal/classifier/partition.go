package classifier

import (
	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/telemetry"
)

// Bucket is the list of prayers assigned to one category in one pass.
type Bucket struct {
	Label   string
	Prayers []domain.Prayer
}

// Partition is the output of a single-level pass: one bucket per category
// in rule-set order, plus the prayers no category matched.
type Partition struct {
	Buckets   []Bucket
	Remainder []domain.Prayer
}

// Bucket returns the bucket with the given label.
func (p *Partition) Bucket(label string) (Bucket, bool) {
	for _, b := range p.Buckets {
		if b.Label == label {
			return b, true
		}
	}
	return Bucket{}, false
}

// Total returns the number of prayers across buckets and remainder.
func (p *Partition) Total() int {
	n := len(p.Remainder)
	for _, b := range p.Buckets {
		n += len(b.Prayers)
	}
	return n
}

// Counts returns label -> bucket size in bucket order.
func (p *Partition) Counts() []LabelCount {
	counts := make([]LabelCount, len(p.Buckets))
	for i, b := range p.Buckets {
		counts[i] = LabelCount{Label: b.Label, Count: len(b.Prayers)}
	}
	return counts
}

// LabelCount pairs a bucket label with its size.
type LabelCount struct {
	Label string
	Count int
}

func (p *Partition) passCounts() []telemetry.PassCount {
	counts := make([]telemetry.PassCount, len(p.Buckets))
	for i, b := range p.Buckets {
		counts[i] = telemetry.PassCount{Label: b.Label, Count: len(b.Prayers)}
	}
	return counts
}

func emptyBuckets(labels []string) []Bucket {
	buckets := make([]Bucket, len(labels))
	for i, label := range labels {
		buckets[i] = Bucket{Label: label, Prayers: []domain.Prayer{}}
	}
	return buckets
}
