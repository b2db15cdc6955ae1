package domain

import "strings"

// Author attributes a prayer to one of the Central Figures.
type Author string

// Known authors.
const (
	AuthorBahaullah Author = "Bahá’u’lláh"
	AuthorBab       Author = "The Báb"
	AuthorAbdulBaha Author = "‘Abdu’l‑Bahá"
)

// DefaultAuthorOrder is the canonical presentation order.
var DefaultAuthorOrder = []Author{AuthorBahaullah, AuthorBab, AuthorAbdulBaha}

// hyphenFolder folds the hyphen variants found in source data.
var hyphenFolder = strings.NewReplacer("‑", "-", "‐", "-", "–", "-")

// Key returns a comparison key that treats hyphen variants as equal.
func (a Author) Key() string {
	return hyphenFolder.Replace(string(a))
}

// Equal reports whether two authors are the same person.
func (a Author) Equal(other Author) bool {
	return a.Key() == other.Key()
}

// Known reports whether a is one of the known authors.
func (a Author) Known() bool {
	for _, known := range DefaultAuthorOrder {
		if a.Equal(known) {
			return true
		}
	}
	return false
}

func (a Author) String() string {
	return string(a)
}
