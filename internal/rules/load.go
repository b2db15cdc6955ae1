package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

// ValidationError reports an invalid entry of the rules file.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rules validation error: %s: %s", e.Field, e.Message)
}

// Load reads and parses the rules file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a rules document. Unknown keys are rejected so that a
// misspelt option cannot silently change classification.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Field: "passes", Message: "empty rules file"}
		}
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the structure of the file. Pattern syntax is checked when
// the rule sets are compiled.
func (f *File) Validate() error {
	if len(f.Passes) == 0 {
		return &ValidationError{Field: "passes", Message: "at least one pass is required"}
	}
	for i, rs := range f.Passes {
		if err := rs.validate(fmt.Sprintf("passes[%d]", i)); err != nil {
			return err
		}
	}
	for i, s := range f.Splits {
		field := fmt.Sprintf("splits[%d]", i)
		if s.Category == "" {
			return &ValidationError{Field: field + ".category", Message: "is required"}
		}
		switch {
		case s.ByAuthor && s.Rules != nil:
			return &ValidationError{Field: field, Message: "by_author and rules are mutually exclusive"}
		case !s.ByAuthor && s.Rules == nil:
			return &ValidationError{Field: field, Message: "either by_author or rules is required"}
		case s.Rules != nil:
			if err := s.Rules.validate(field + ".rules"); err != nil {
				return err
			}
		}
	}
	for i, m := range f.Transforms.Merge {
		if m.Into == "" || m.From == "" {
			return &ValidationError{Field: fmt.Sprintf("transforms.merge[%d]", i), Message: "into and from are required"}
		}
	}
	for i, s := range f.Transforms.StripAnnotations {
		if s.Type == "" || len(s.Paths) == 0 {
			return &ValidationError{Field: fmt.Sprintf("transforms.strip_annotations[%d]", i), Message: "type and paths are required"}
		}
	}
	for i, p := range f.Transforms.Promote {
		if len(tree.ParsePath(p.Path)) < 2 {
			return &ValidationError{Field: fmt.Sprintf("transforms.promote[%d].path", i), Message: "must name a nested category"}
		}
	}
	return nil
}

func (rs RuleSetSpec) validate(field string) error {
	if rs.Name == "" {
		return &ValidationError{Field: field + ".name", Message: "is required"}
	}
	switch domain.LiteralMode(rs.LiteralMode) {
	case "", domain.LiteralBoundary, domain.LiteralSubstring:
	default:
		return &ValidationError{
			Field:   field + ".literal_mode",
			Message: fmt.Sprintf("must be %q or %q", domain.LiteralBoundary, domain.LiteralSubstring),
		}
	}
	if len(rs.Categories) == 0 {
		return &ValidationError{Field: field + ".categories", Message: "at least one category is required"}
	}
	for j, c := range rs.Categories {
		catField := fmt.Sprintf("%s.categories[%d]", field, j)
		if c.Label == "" {
			return &ValidationError{Field: catField + ".label", Message: "is required"}
		}
		if strings.Contains(c.Label, tree.PathSeparator) {
			return &ValidationError{Field: catField + ".label", Message: "must not contain " + tree.PathSeparator}
		}
		if !c.CatchAll && len(c.Match) == 0 {
			return &ValidationError{Field: catField + ".match", Message: "is required unless catch_all is set"}
		}
	}
	if rs.LongText != nil {
		if rs.LongText.Threshold <= 0 {
			return &ValidationError{Field: field + ".long_text.threshold", Message: "must be positive"}
		}
		for j, o := range rs.LongText.Overrides {
			if o.Category == "" || o.Match == "" {
				return &ValidationError{
					Field:   fmt.Sprintf("%s.long_text.overrides[%d]", field, j),
					Message: "category and match are required",
				}
			}
		}
	}
	return nil
}
