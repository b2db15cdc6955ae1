package classifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
)

// CombiningDiacriticals is the Combining Diacritical Marks block
// (U+0300..U+036F). Other combining marks survive decomposition and are
// then dropped by the [a-z ] filter.
var CombiningDiacriticals = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// NormalizeText lowercases s, strips diacritics and keeps only [a-z ].
// Removed characters leave no separator, so "don't" becomes "dont".
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(CombiningDiacriticals)))
	decomposed, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		decomposed = norm.NFD.String(strings.ToLower(s))
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	for i := 0; i < len(decomposed); i++ {
		c := decomposed[i]
		if (c >= 'a' && c <= 'z') || c == ' ' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Normalize returns the matching text of a prayer: every content item's
// text joined by single spaces, then NormalizeText.
func Normalize(p domain.Prayer) string {
	return NormalizeText(p.JoinedText())
}

// TextCache memoises normalised texts by raw joined text, so prayers need
// not be numbered and identical texts are normalised once.
type TextCache struct {
	texts map[string]string
}

// NewTextCache creates an empty cache.
func NewTextCache() *TextCache {
	return &TextCache{texts: make(map[string]string)}
}

// Text returns the normalised text of p, computing it on first use.
// A nil cache computes every time.
func (c *TextCache) Text(p domain.Prayer) string {
	if c == nil {
		return Normalize(p)
	}
	raw := p.JoinedText()
	if text, ok := c.texts[raw]; ok {
		return text
	}
	text := NormalizeText(raw)
	c.texts[raw] = text
	return text
}

// Len returns the number of memoised texts.
func (c *TextCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.texts)
}
