package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContentKind identifies the variant of a content item.
type ContentKind int

const (
	// KindPlain is a bare text paragraph.
	KindPlain ContentKind = iota
	// KindAnnotation is a paragraph carrying a type tag such as "info" or "call".
	KindAnnotation
	// KindLines is a paragraph carrying its originating line numbers.
	KindLines
)

func (k ContentKind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindAnnotation:
		return "annotation"
	case KindLines:
		return "lines"
	default:
		return fmt.Sprintf("ContentKind(%d)", int(k))
	}
}

// Annotation types seen in the corpus.
const (
	AnnotationInfo = "info"
	AnnotationCall = "call"
)

// Content is one paragraph of a prayer. Exactly one variant is populated,
// selected by Kind.
type Content struct {
	kind  ContentKind
	text  string
	typ   string
	lines []int
}

// Plain builds a bare text paragraph.
func Plain(text string) Content {
	return Content{kind: KindPlain, text: text}
}

// Annotated builds a typed annotation paragraph.
func Annotated(typ, text string) Content {
	return Content{kind: KindAnnotation, typ: typ, text: text}
}

// Lines builds a line-addressed paragraph.
func Lines(text string, lines ...int) Content {
	return Content{kind: KindLines, text: text, lines: append([]int(nil), lines...)}
}

// Kind returns the variant of the content item.
func (c Content) Kind() ContentKind { return c.kind }

// Text returns the paragraph text regardless of variant.
func (c Content) Text() string { return c.text }

// Type returns the annotation type, or "" for other variants.
func (c Content) Type() string { return c.typ }

// LineNumbers returns a copy of the originating line numbers.
func (c Content) LineNumbers() []int {
	return append([]int(nil), c.lines...)
}

type annotationJSON struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type linesJSON struct {
	Text  string `json:"text"`
	Lines []int  `json:"lines"`
}

// MarshalJSON encodes the item in the same shape it was read from.
func (c Content) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindPlain:
		return json.Marshal(c.text)
	case KindAnnotation:
		return json.Marshal(annotationJSON{Type: c.typ, Text: c.text})
	case KindLines:
		lines := c.lines
		if lines == nil {
			lines = []int{}
		}
		return json.Marshal(linesJSON{Text: c.text, Lines: lines})
	default:
		return nil, fmt.Errorf("%w: content kind %s", ErrMalformedRecord, c.kind)
	}
}

// UnmarshalJSON accepts a bare string, {"type","text"} or {"text","lines"}.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		*c = Plain(s)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: content item: %w", ErrMalformedRecord, err)
	}

	var text string
	textRaw, hasText := raw["text"]
	if !hasText {
		return fmt.Errorf("%w: content item without text", ErrMalformedRecord)
	}
	if err := json.Unmarshal(textRaw, &text); err != nil {
		return fmt.Errorf("%w: content text: %w", ErrMalformedRecord, err)
	}

	typeRaw, hasType := raw["type"]
	linesRaw, hasLines := raw["lines"]

	switch {
	case hasType && !hasLines && len(raw) == 2:
		var typ string
		if err := json.Unmarshal(typeRaw, &typ); err != nil || typ == "" {
			return fmt.Errorf("%w: annotation type must be a non-empty string", ErrMalformedRecord)
		}
		*c = Annotated(typ, text)
	case hasLines && !hasType && len(raw) == 2:
		var lines []int
		if err := json.Unmarshal(linesRaw, &lines); err != nil {
			return fmt.Errorf("%w: content lines: %w", ErrMalformedRecord, err)
		}
		*c = Lines(text, lines...)
	default:
		return fmt.Errorf("%w: unrecognised content variant %s", ErrMalformedRecord, string(data))
	}
	return nil
}
