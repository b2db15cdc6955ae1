package classifier_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/classifier"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
)

func teachingRules() domain.RuleSet {
	return domain.RuleSet{
		Name: "teaching",
		Categories: []domain.Category{
			category("Humanity", "humanity", "mankind"),
			category("Teaching: Collective", "assemblies", "friends"),
			{Label: "Teaching: Individual", CatchAll: true},
		},
	}
}

func TestRefine_IsTotalOverItsInput(t *testing.T) {
	c := mustClassifier(t, teachingRules())
	input := []domain.Prayer{
		prayer(3, domain.AuthorAbdulBaha, "O Lord, enlighten all mankind."),
		prayer(8, domain.AuthorAbdulBaha, "Confirm the friends in teaching Thy Cause."),
		prayer(9, domain.AuthorAbdulBaha, "Make me a herald of Thy Kingdom."),
		prayer(12, domain.AuthorAbdulBaha, ""),
	}

	buckets, err := c.Refine(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	assert.Equal(t, "Humanity", buckets[0].Label)
	assert.Equal(t, []domain.Prayer{input[0]}, buckets[0].Prayers)
	assert.Equal(t, "Teaching: Collective", buckets[1].Label)
	assert.Equal(t, []domain.Prayer{input[1]}, buckets[1].Prayers)
	assert.Equal(t, "Teaching: Individual", buckets[2].Label)
	assert.Equal(t, []domain.Prayer{input[2], input[3]}, buckets[2].Prayers)

	total := 0
	for _, b := range buckets {
		total += len(b.Prayers)
	}
	assert.Equal(t, len(input), total)
}

func TestRefine_ExplicitFallbackReceivesUnmatched(t *testing.T) {
	c := mustClassifier(t, domain.RuleSet{
		Name:     "nearness",
		Fallback: "Nearness: Individual",
		Categories: []domain.Category{
			category("Nearness: Collective", "we", "us"),
			category("Nearness: Individual", "me"),
		},
	})
	input := []domain.Prayer{
		prayer(0, domain.AuthorBahaullah, "Draw us nigh unto Thee."),
		prayer(1, domain.AuthorBahaullah, "Thou art the Beloved."),
	}

	buckets, err := c.Refine(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []domain.Prayer{input[0]}, buckets[0].Prayers)
	assert.Equal(t, []domain.Prayer{input[1]}, buckets[1].Prayers)
}

func TestRefine_KeepsEmptyBuckets(t *testing.T) {
	c := mustClassifier(t, teachingRules())

	buckets, err := c.Refine(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	for _, b := range buckets {
		assert.NotNil(t, b.Prayers)
		assert.Empty(t, b.Prayers)
	}
}

func TestRefine_RequiresFallback(t *testing.T) {
	c := mustClassifier(t, domain.RuleSet{
		Name:       "aid",
		Categories: []domain.Category{category("Tests", "tests")},
	})

	_, err := c.Refine(context.Background(), []domain.Prayer{prayer(0, domain.AuthorBab, "x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, classifier.ErrNoFallback)
}
