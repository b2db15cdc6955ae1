package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/classifier"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"diacritics and apostrophes fuse", "Bahá'u'lláh's café", "bahaullahs cafe"},
		{"typographic apostrophes fuse", "Bahá’u’lláh", "bahaullah"},
		{"contraction fuses", "don't", "dont"},
		{"digits vanish", "Psalm 23 verse", "psalm  verse"},
		{"spaces are not collapsed", "O  God,  guide", "o  god  guide"},
		{"non-breaking hyphen vanishes", "Naw‑Rúz", "nawruz"},
		{"dot below stripped", "Riḍván", "ridvan"},
		{"punctuation only", "!?.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.NormalizeText(tt.in))
		})
	}
}

func TestNormalize_JoinsAllContentVariants(t *testing.T) {
	p := domain.Prayer{
		Author: domain.AuthorBab,
		Content: []domain.Content{
			domain.Annotated(domain.AnnotationCall, "He is God!"),
			domain.Plain("Is there any Remover"),
			domain.Lines("of difficulties?", 3),
		},
	}

	assert.Equal(t, "he is god is there any remover of difficulties", classifier.Normalize(p))
}

func TestTextCache_KeysOnText(t *testing.T) {
	cache := classifier.NewTextCache()
	p := domain.Prayer{Index: 7, Content: []domain.Content{domain.Plain("First")}}

	assert.Equal(t, "first", cache.Text(p))

	p.Content = []domain.Content{domain.Plain("Second")}
	assert.Equal(t, "second", cache.Text(p))
	assert.Equal(t, 2, cache.Len())

	// Same text under another index is served from the cache.
	other := domain.Prayer{Index: 9, Content: []domain.Content{domain.Plain("Second")}}
	assert.Equal(t, "second", cache.Text(other))
	assert.Equal(t, 2, cache.Len())

	var nilCache *classifier.TextCache
	assert.Equal(t, "second", nilCache.Text(p))
	assert.Equal(t, 0, nilCache.Len())
}
