package render

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/classifier"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
)

// Ellipsis marks a truncated preview.
const Ellipsis = "…\n…"

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a label into an identifier: "Naw‑Rúz" becomes "naw-ruz".
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(classifier.CombiningDiacriticals)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	slug := nonSlug.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

// Preview returns the leading words of content, at most maxChars runes.
// Paragraphs are joined with spaces; a paragraph that does not fit is cut
// at a word boundary and the result ends in Ellipsis.
func Preview(content []domain.Content, maxChars int) string {
	var preview string
	truncated := false

	for _, item := range content {
		text := strings.TrimSpace(item.Text())
		if text == "" {
			continue
		}

		sep := ""
		if preview != "" {
			sep = " "
		}
		if candidate := preview + sep + text; runeLen(candidate) <= maxChars {
			preview = candidate
			continue
		}

		if remaining := maxChars - runeLen(preview) - len(sep); remaining > 0 {
			built := ""
			for _, word := range strings.Fields(text) {
				tentative := word
				if built != "" {
					tentative = built + " " + word
				}
				if runeLen(tentative) > remaining {
					break
				}
				built = tentative
			}
			if built != "" {
				preview += sep + built
			}
		}
		truncated = true
		break
	}

	if preview == "" {
		return ""
	}
	if truncated {
		return strings.TrimSpace(preview) + Ellipsis
	}
	return preview
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
