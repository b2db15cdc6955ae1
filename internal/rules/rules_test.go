package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/pipeline"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/rules"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

const sample = `
name: sample
passes:
  - name: occasions
    literal_mode: substring
    long_text:
      threshold: 100
      overrides:
        - category: Fast
          match: "observe the fast"
    categories:
      - label: Fast
        match: ["the fast"]
  - name: themes
    categories:
      - label: Teaching
        match: ["to teach", '/these (are|souls)/']
      - label: Glory
        catch_all: true
splits:
  - category: Teaching
    rules:
      name: teaching
      categories:
        - label: Humanity
          match: ["mankind"]
        - label: Individual
          match: [""]
      fallback: Individual
  - category: Glory
    by_author: true
transforms:
  promote:
    - path: Teaching/Humanity
      before: Fast
  display_order: [Glory]
`

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Predicate
	}{
		{"unite", domain.LiteralPredicate("unite")},
		{"", domain.LiteralPredicate("")},
		{"/", domain.LiteralPredicate("/")},
		{" ali ", domain.LiteralPredicate(" ali ")},
		{"/help (them|thou)/", domain.PatternPredicate("help (them|thou)")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.ParsePredicate(tt.in))
		})
	}
}

func TestParse_Plan(t *testing.T) {
	f, err := rules.Parse([]byte(sample))
	require.NoError(t, err)

	plan := f.Plan()
	require.Len(t, plan.Passes, 2)

	occasions := plan.Passes[0]
	assert.Equal(t, domain.LiteralSubstring, occasions.LiteralMode)
	require.NotNil(t, occasions.LongText)
	assert.Equal(t, 100, occasions.LongText.Threshold)
	assert.Equal(t, "Fast", occasions.LongText.Overrides[0].Category)

	themes := plan.Passes[1]
	assert.Equal(t, []string{"Teaching", "Glory"}, themes.Labels())
	assert.Equal(t, domain.PatternPredicate("these (are|souls)"), themes.Categories[0].Predicates[1])
	assert.True(t, themes.Categories[1].CatchAll)
	assert.Equal(t, "Glory", themes.FallbackLabel())

	require.Len(t, plan.Splits, 2)
	assert.Equal(t, "Individual", plan.Splits[0].Rules.Fallback)
	assert.True(t, plan.Splits[1].ByAuthor)

	require.Len(t, plan.Promotions, 1)
	assert.Equal(t, tree.Path{"Teaching", "Humanity"}, plan.Promotions[0].Path)
	assert.Equal(t, []string{"Glory"}, plan.DisplayOrder)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"empty document", ``, "passes"},
		{"no passes", `name: x`, "passes"},
		{"missing category label", `
passes:
  - name: a
    categories:
      - match: ["x"]
`, "passes[0].categories[0].label"},
		{"no match and no catch-all", `
passes:
  - name: a
    categories:
      - label: A
`, "passes[0].categories[0].match"},
		{"bad literal mode", `
passes:
  - name: a
    literal_mode: fuzzy
    categories:
      - label: A
        catch_all: true
`, "passes[0].literal_mode"},
		{"split without rules", `
passes:
  - name: a
    categories:
      - label: A
        catch_all: true
splits:
  - category: A
`, "splits[0]"},
		{"promote top-level node", `
passes:
  - name: a
    categories:
      - label: A
        catch_all: true
transforms:
  promote:
    - path: A
`, "transforms.promote[0].path"},
		{"label with separator", `
passes:
  - name: a
    categories:
      - label: A/B
        catch_all: true
`, "passes[0].categories[0].label"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.Parse([]byte(tt.input))
			require.Error(t, err)
			var vErr *rules.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := rules.Parse([]byte(`
passes:
  - name: a
    categroies: []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "categroies")
}

func TestLoad_ShippedRules(t *testing.T) {
	f, err := rules.Load("../../rules/prayers.yml")
	require.NoError(t, err)

	p, err := pipeline.New(f.Plan(), nil)
	require.NoError(t, err, "shipped rules compile")

	corpus := []domain.Prayer{
		{Author: domain.AuthorAbdulBaha, Content: []domain.Content{domain.Plain("O God! Educate these children.")}},
		{Author: domain.AuthorBahaullah, Content: []domain.Content{domain.Plain("Lauded be Thy name, O Lord my God!")}},
		{Author: domain.AuthorBab, Content: []domain.Content{domain.Plain("Is there any Remover of difficulties save God?")}},
		{Author: domain.AuthorAbdulBaha, Content: []domain.Content{domain.Plain("O Lord! Unite all. Open the eyes of mankind.")}},
	}
	result, err := p.Run(context.Background(), corpus)
	require.NoError(t, err)

	assertLeaf(t, result.Tree, "Children and Youth", 0)
	assertLeaf(t, result.Tree, "Glory and Devotion/Bahá’u’lláh", 1)
	assertLeaf(t, result.Tree, "Trials and Adversity", 2)
	assertLeaf(t, result.Tree, "Unity", 3)
	assert.Empty(t, result.Remainder)
	assert.Equal(t, "Glory and Devotion", result.Tree.Labels()[0])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := rules.Load("does-not-exist.yml")
	assert.Error(t, err)
}

func assertLeaf(t *testing.T, tr *tree.Tree, path string, index int) {
	t.Helper()
	leaf, ok := tr.Find(tree.ParsePath(path))
	require.True(t, ok, path)
	for _, p := range leaf.Prayers {
		if p.Index == index {
			return
		}
	}
	t.Errorf("prayer %d not in %s", index, path)
}
