package classifier_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/classifier"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/telemetry"
)

func prayer(index int, author domain.Author, paragraphs ...string) domain.Prayer {
	content := make([]domain.Content, len(paragraphs))
	for i, text := range paragraphs {
		content[i] = domain.Plain(text)
	}
	return domain.Prayer{Author: author, Content: content, Index: index}
}

func category(label string, literals ...string) domain.Category {
	preds := make([]domain.Predicate, len(literals))
	for i, lit := range literals {
		preds[i] = domain.LiteralPredicate(lit)
	}
	return domain.Category{Label: label, Predicates: preds}
}

func mustClassifier(t *testing.T, rs domain.RuleSet) *classifier.Classifier {
	t.Helper()
	compiled, err := classifier.Compile(rs)
	require.NoError(t, err)
	return classifier.New(compiled, nil)
}

func labelOf(t *testing.T, p *classifier.Partition, index int) string {
	t.Helper()
	for _, b := range p.Buckets {
		for _, member := range b.Prayers {
			if member.Index == index {
				return b.Label
			}
		}
	}
	for _, member := range p.Remainder {
		if member.Index == index {
			return ""
		}
	}
	t.Fatalf("prayer %d missing from partition", index)
	return ""
}

func TestClassify_EndToEndScenario(t *testing.T) {
	c := mustClassifier(t, domain.RuleSet{
		Name: "themes",
		Categories: []domain.Category{
			category("A", "adversity"),
			category("B", "unite"),
		},
	})
	corpus := []domain.Prayer{
		prayer(0, domain.AuthorBahaullah, "Thou seest me in adversity."),
		prayer(1, domain.AuthorAbdulBaha, "O God, unite all the peoples."),
		prayer(2, domain.AuthorBab, "Praised be Thou."),
	}

	partition, err := c.Classify(context.Background(), corpus)
	require.NoError(t, err)

	a, ok := partition.Bucket("A")
	require.True(t, ok)
	b, ok := partition.Bucket("B")
	require.True(t, ok)

	assert.Equal(t, []domain.Prayer{corpus[0]}, a.Prayers)
	assert.Equal(t, []domain.Prayer{corpus[1]}, b.Prayers)
	assert.Equal(t, []domain.Prayer{corpus[2]}, partition.Remainder)
	assert.Equal(t, []classifier.LabelCount{{Label: "A", Count: 1}, {Label: "B", Count: 1}}, partition.Counts())
}

func TestClassify_Totality(t *testing.T) {
	c := mustClassifier(t, domain.RuleSet{
		Name: "themes",
		Categories: []domain.Category{
			category("Healing", "heal", "healing"),
			category("Protection", "protect"),
			category("Unity", "unite"),
		},
	})

	texts := []string{
		"Heal me, O God.",
		"Protect and unite us.",
		"",
		"Thy Name is my healing.",
		"Nothing to see here.",
		"protection",
	}
	corpus := make([]domain.Prayer, len(texts))
	for i, text := range texts {
		corpus[i] = prayer(i, domain.AuthorBahaullah, text)
	}

	partition, err := c.Classify(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, len(corpus), partition.Total())

	seen := make(map[int]int)
	for _, b := range partition.Buckets {
		for _, p := range b.Prayers {
			seen[p.Index]++
		}
	}
	for _, p := range partition.Remainder {
		seen[p.Index]++
	}
	for i := range corpus {
		assert.Equal(t, 1, seen[i], "prayer %d", i)
	}

	// "protection" is not the whole word "protect".
	assert.Empty(t, labelOf(t, partition, 5))
	assert.Empty(t, labelOf(t, partition, 2))
}

func TestClassify_FirstMatchWins(t *testing.T) {
	text := prayer(0, domain.AuthorBahaullah, "Unite us in the hour of adversity.")

	forward := mustClassifier(t, domain.RuleSet{
		Name:       "forward",
		Categories: []domain.Category{category("X", "adversity"), category("Y", "unite")},
	})
	reversed := mustClassifier(t, domain.RuleSet{
		Name:       "reversed",
		Categories: []domain.Category{category("Y", "unite"), category("X", "adversity")},
	})

	p, err := forward.Classify(context.Background(), []domain.Prayer{text})
	require.NoError(t, err)
	assert.Equal(t, "X", labelOf(t, p, 0))

	p, err = reversed.Classify(context.Background(), []domain.Prayer{text})
	require.NoError(t, err)
	assert.Equal(t, "Y", labelOf(t, p, 0))
}

func TestClassify_WholeWordBoundary(t *testing.T) {
	c := mustClassifier(t, domain.RuleSet{
		Name:       "boundary",
		Categories: []domain.Category{category("Marriage", "wed")},
	})

	tests := []struct {
		name string
		text string
		want string
	}{
		{"inside a longer word", "wedding", ""},
		{"whole word", "two wed today", "Marriage"},
		{"word fused by punctuation", "wed's", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.Classify(context.Background(), []domain.Prayer{prayer(0, domain.AuthorBab, tt.text)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, labelOf(t, p, 0))
		})
	}
}

func TestClassify_SubstringMode(t *testing.T) {
	c := mustClassifier(t, domain.RuleSet{
		Name:        "occasions",
		LiteralMode: domain.LiteralSubstring,
		Categories:  []domain.Category{category("Marriage", "wed")},
	})

	p, err := c.Classify(context.Background(), []domain.Prayer{prayer(0, domain.AuthorBab, "At the wedding feast")})
	require.NoError(t, err)
	assert.Equal(t, "Marriage", labelOf(t, p, 0))
}

func TestClassify_CatchAll(t *testing.T) {
	corpus := []domain.Prayer{
		prayer(0, domain.AuthorBahaullah, "Glorified art Thou, O Lord my God."),
		prayer(1, domain.AuthorBab, "In adversity I call on Thee."),
		prayer(2, domain.AuthorAbdulBaha, ""),
	}

	t.Run("empty literal placed last is a fallback for texts with letters", func(t *testing.T) {
		c := mustClassifier(t, domain.RuleSet{
			Name: "themes",
			Categories: []domain.Category{
				category("Aid", "adversity"),
				category("Glory", ""),
			},
		})
		p, err := c.Classify(context.Background(), corpus)
		require.NoError(t, err)
		assert.Equal(t, "Glory", labelOf(t, p, 0))
		assert.Equal(t, "Aid", labelOf(t, p, 1))
		assert.Empty(t, labelOf(t, p, 2), "empty text has no word boundary")
	})

	t.Run("empty literal placed first captures everything", func(t *testing.T) {
		c := mustClassifier(t, domain.RuleSet{
			Name: "themes",
			Categories: []domain.Category{
				category("Glory", ""),
				category("Aid", "adversity"),
			},
		})
		p, err := c.Classify(context.Background(), corpus)
		require.NoError(t, err)
		assert.Equal(t, "Glory", labelOf(t, p, 0))
		assert.Equal(t, "Glory", labelOf(t, p, 1))
	})

	t.Run("explicit catch-all matches empty text too", func(t *testing.T) {
		c := mustClassifier(t, domain.RuleSet{
			Name: "themes",
			Categories: []domain.Category{
				category("Aid", "adversity"),
				{Label: "Glory", CatchAll: true},
			},
		})
		p, err := c.Classify(context.Background(), corpus)
		require.NoError(t, err)
		assert.Equal(t, "Glory", labelOf(t, p, 0))
		assert.Equal(t, "Aid", labelOf(t, p, 1))
		assert.Equal(t, "Glory", labelOf(t, p, 2))
		assert.Empty(t, p.Remainder)
	})
}

func TestClassify_Patterns(t *testing.T) {
	c := mustClassifier(t, domain.RuleSet{
		Name: "themes",
		Categories: []domain.Category{
			{Label: "Women", Predicates: []domain.Predicate{
				domain.PatternPredicate(`(?<!hand)maid`),
			}},
			{Label: "Children", Predicates: []domain.Predicate{
				domain.PatternPredicate(`\bchild(ren)?\b`),
			}},
		},
	})
	corpus := []domain.Prayer{
		prayer(0, domain.AuthorAbdulBaha, "O God, this maidservant of Thine"),
		prayer(1, domain.AuthorAbdulBaha, "Thy handmaiden"),
		prayer(2, domain.AuthorAbdulBaha, "Protect these children"),
	}

	p, err := c.Classify(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, "Women", labelOf(t, p, 0))
	assert.Empty(t, labelOf(t, p, 1))
	assert.Equal(t, "Children", labelOf(t, p, 2))
}

func TestClassify_LongTextGate(t *testing.T) {
	long := strings.Repeat("o god unite the hearts ", 20)
	rs := domain.RuleSet{
		Name:        "occasions",
		LiteralMode: domain.LiteralSubstring,
		Categories: []domain.Category{
			category("Unity", "unite"),
			category("Fast", "fast"),
			category("Particular", "bayan"),
		},
		LongText: &domain.LongTextRule{
			Threshold: 100,
			Overrides: []domain.LongTextOverride{
				{Category: "Fast", Predicate: domain.LiteralPredicate("observe the fast")},
				{Category: "Particular", Predicate: domain.LiteralPredicate("bayan")},
			},
		},
	}
	c := mustClassifier(t, rs)

	corpus := []domain.Prayer{
		prayer(0, domain.AuthorBab, long+"we observe the fast"),
		prayer(1, domain.AuthorBab, long),
		prayer(2, domain.AuthorBab, "unite us"),
	}
	p, err := c.Classify(context.Background(), corpus)
	require.NoError(t, err)

	assert.Equal(t, "Fast", labelOf(t, p, 0), "override wins over the earlier Unity category")
	assert.Empty(t, labelOf(t, p, 1), "long text skips the full scan")
	assert.Equal(t, "Unity", labelOf(t, p, 2))
}

func TestClassify_LongTextOverrideContinuesWithNextPrayer(t *testing.T) {
	c := mustClassifier(t, domain.RuleSet{
		Name: "occasions",
		Categories: []domain.Category{
			category("Fast", "fast"),
			category("Healing", "heal"),
		},
		LongText: &domain.LongTextRule{
			Threshold: 50,
			Overrides: []domain.LongTextOverride{
				{Category: "Fast", Predicate: domain.LiteralPredicate("observe the fast")},
			},
		},
	})

	corpus := []domain.Prayer{
		prayer(0, domain.AuthorBab, strings.Repeat("praise be to god ", 5)+"we observe the fast"),
		prayer(1, domain.AuthorBab, "heal me"),
		prayer(2, domain.AuthorBab, "keep fast"),
	}
	p, err := c.Classify(context.Background(), corpus)
	require.NoError(t, err)

	// Prayers after an overridden long text are still classified.
	assert.Equal(t, "Fast", labelOf(t, p, 0))
	assert.Equal(t, "Healing", labelOf(t, p, 1))
	assert.Equal(t, "Fast", labelOf(t, p, 2))
	assert.Equal(t, 3, p.Total())
}

func TestClassify_UsesSharedTextCache(t *testing.T) {
	compiled, err := classifier.Compile(domain.RuleSet{
		Name:       "themes",
		Categories: []domain.Category{category("Unity", "unite")},
	})
	require.NoError(t, err)

	cache := classifier.NewTextCache()
	tp := telemetry.NewProvider()
	c := classifier.New(compiled, nil, classifier.WithTextCache(cache), classifier.WithTelemetry(tp))

	_, err = c.Classify(context.Background(), []domain.Prayer{
		prayer(0, domain.AuthorBab, "unite"),
		prayer(1, domain.AuthorBab, "other"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
	assert.Same(t, compiled, c.Rules())
}

func TestClassify_SharedTextCacheWithUnnumberedPrayers(t *testing.T) {
	compiled, err := classifier.Compile(domain.RuleSet{
		Name: "themes",
		Categories: []domain.Category{
			category("Trials", "adversity"),
			category("Unity", "unite"),
		},
	})
	require.NoError(t, err)
	c := classifier.New(compiled, nil, classifier.WithTextCache(classifier.NewTextCache()))

	p, err := c.Classify(context.Background(), []domain.Prayer{
		prayer(0, domain.AuthorBab, "adversity"),
		prayer(0, domain.AuthorBab, "unite all"),
	})
	require.NoError(t, err)

	trials, _ := p.Bucket("Trials")
	unity, _ := p.Bucket("Unity")
	assert.Len(t, trials.Prayers, 1)
	assert.Len(t, unity.Prayers, 1)
	assert.Empty(t, p.Remainder)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		rs     domain.RuleSet
		target error
	}{
		{
			name: "duplicate label",
			rs: domain.RuleSet{Name: "dup", Categories: []domain.Category{
				category("A", "x"), category("A", "y"),
			}},
			target: classifier.ErrDuplicateCategory,
		},
		{
			name: "unknown fallback",
			rs: domain.RuleSet{Name: "fb", Fallback: "Missing", Categories: []domain.Category{
				category("A", "x"),
			}},
			target: classifier.ErrUnknownCategory,
		},
		{
			name: "override names unknown category",
			rs: domain.RuleSet{
				Name:       "lt",
				Categories: []domain.Category{category("A", "x")},
				LongText: &domain.LongTextRule{Threshold: 10, Overrides: []domain.LongTextOverride{
					{Category: "Fast", Predicate: domain.LiteralPredicate("fast")},
				}},
			},
			target: classifier.ErrUnknownCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classifier.Compile(tt.rs)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestCompile_InvalidPatternIsRuleError(t *testing.T) {
	_, err := classifier.Compile(domain.RuleSet{
		Name: "themes",
		Categories: []domain.Category{
			{Label: "Broken", Predicates: []domain.Predicate{domain.PatternPredicate(`(unclosed`)}},
		},
	})
	require.Error(t, err)

	var ruleErr *classifier.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, "themes", ruleErr.RuleSet)
	assert.Equal(t, "Broken", ruleErr.Category)
	assert.Equal(t, `(unclosed`, ruleErr.Predicate.Pattern)
	assert.Contains(t, err.Error(), `"Broken"`)
}

func TestCompile_UnknownLiteralMode(t *testing.T) {
	_, err := classifier.Compile(domain.RuleSet{Name: "x", LiteralMode: "fuzzy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuzzy")
}

func TestCompiledRuleSet_Explain(t *testing.T) {
	compiled, err := classifier.Compile(domain.RuleSet{
		Name: "themes",
		Categories: []domain.Category{
			category("Aid", "adversity", "tests"),
			{Label: "Glory", CatchAll: true},
		},
	})
	require.NoError(t, err)

	label, pred, ok, err := compiled.Explain("in the midst of tests")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Aid", label)
	assert.Equal(t, `"tests"`, pred)

	label, pred, ok, err = compiled.Explain("praise")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Glory", label)
	assert.Equal(t, "catch-all", pred)

	assert.Equal(t, "Glory", compiled.Fallback())
	assert.Equal(t, []string{"Aid", "Glory"}, compiled.Labels())
}

func TestCompiledRuleSet_ExplainLongText(t *testing.T) {
	compiled, err := classifier.Compile(domain.RuleSet{
		Name:       "occasions",
		Categories: []domain.Category{category("Fast", "fast"), category("Unity", "unite")},
		LongText: &domain.LongTextRule{
			Threshold: 20,
			Overrides: []domain.LongTextOverride{{Category: "Fast", Predicate: domain.LiteralPredicate("observe the fast")}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 20, compiled.LongTextThreshold())

	label, pred, ok, err := compiled.Explain("unite us as we observe the fast")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Fast", label)
	assert.Equal(t, `long-text override "observe the fast"`, pred)

	_, _, ok, err = compiled.Explain("unite us all in the glory of god")
	require.NoError(t, err)
	assert.False(t, ok, "long texts skip the full scan")
}

func TestCompiledRuleSet_ExplainAgreesWithClassify(t *testing.T) {
	compiled, err := classifier.Compile(domain.RuleSet{
		Name:       "occasions",
		Categories: []domain.Category{category("Fast", "fast"), category("Unity", "unite")},
		LongText: &domain.LongTextRule{
			Threshold: 20,
			Overrides: []domain.LongTextOverride{{Category: "Fast", Predicate: domain.LiteralPredicate("observe the fast")}},
		},
	})
	require.NoError(t, err)

	texts := []string{
		"unite all",
		"the fast",
		"praise",
		"unite us as we observe the fast",
		"unite us all in the glory of god",
	}
	prayers := make([]domain.Prayer, len(texts))
	for i, text := range texts {
		prayers[i] = prayer(i, domain.AuthorBab, text)
	}

	p, err := classifier.New(compiled, nil).Classify(context.Background(), prayers)
	require.NoError(t, err)

	for i, text := range texts {
		label, _, ok, err := compiled.Explain(text)
		require.NoError(t, err)
		if !ok {
			label = ""
		}
		assert.Equal(t, labelOf(t, p, i), label, text)
	}
}
