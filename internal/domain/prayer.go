// Package domain holds the prayer, content and rule models shared by the
// classifier, the tree assembler and their collaborators.
package domain

import (
	"strings"
	"unicode/utf8"
)

// Prayer is one record of the corpus.
type Prayer struct {
	Author  Author    `json:"prayer"`
	Content []Content `json:"content"`
	// Index is the position of the prayer in the corpus it was loaded from.
	Index int `json:"-"`
}

// JoinedText concatenates the text of every content item with single spaces.
func (p Prayer) JoinedText() string {
	parts := make([]string, len(p.Content))
	for i, c := range p.Content {
		parts[i] = c.Text()
	}
	return strings.Join(parts, " ")
}

// TextLength is the total rune count of the raw content texts.
func (p Prayer) TextLength() int {
	n := 0
	for _, c := range p.Content {
		n += utf8.RuneCountInString(c.Text())
	}
	return n
}

// WithoutAnnotations returns a copy of p whose content omits annotation items
// of the given type. The original content slice is left untouched.
func (p Prayer) WithoutAnnotations(typ string) Prayer {
	kept := make([]Content, 0, len(p.Content))
	for _, c := range p.Content {
		if c.Kind() == KindAnnotation && c.Type() == typ {
			continue
		}
		kept = append(kept, c)
	}
	p.Content = kept
	return p
}

// Validate reports records that cannot take part in classification.
func (p Prayer) Validate() error {
	if strings.TrimSpace(string(p.Author)) == "" {
		return ErrMalformedRecord
	}
	return nil
}
