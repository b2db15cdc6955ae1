// Package rules reads the YAML rules file: the ordered rule sets of every
// classification pass and split, plus the presentation transformations.
package rules

// File is the on-disk rules document.
type File struct {
	Name           string         `yaml:"name"`
	AuthorOrder    []string       `yaml:"author_order"`
	RemainderLabel string         `yaml:"remainder_label"`
	Passes         []RuleSetSpec  `yaml:"passes"`
	Splits         []SplitSpec    `yaml:"splits"`
	Transforms     TransformsSpec `yaml:"transforms"`
}

// RuleSetSpec is one ordered rule set. Category order is evaluation order.
type RuleSetSpec struct {
	Name        string         `yaml:"name"`
	LiteralMode string         `yaml:"literal_mode"`
	Fallback    string         `yaml:"fallback"`
	LongText    *LongTextSpec  `yaml:"long_text"`
	Categories  []CategorySpec `yaml:"categories"`
}

// CategorySpec is one labelled category. Each match entry is a literal,
// or a pattern when written between slashes: "/these (men|souls)/".
type CategorySpec struct {
	Label    string   `yaml:"label"`
	Match    []string `yaml:"match"`
	CatchAll bool     `yaml:"catch_all"`
}

// LongTextSpec gates long texts away from the full scan.
type LongTextSpec struct {
	Threshold int            `yaml:"threshold"`
	Overrides []OverrideSpec `yaml:"overrides"`
}

// OverrideSpec assigns a long text to Category when Match matches.
type OverrideSpec struct {
	Category string `yaml:"category"`
	Match    string `yaml:"match"`
}

// SplitSpec re-partitions one top-level category.
type SplitSpec struct {
	Category string       `yaml:"category"`
	ByAuthor bool         `yaml:"by_author"`
	Rules    *RuleSetSpec `yaml:"rules"`
}

// TransformsSpec lists the post-classification transformations.
type TransformsSpec struct {
	Merge            []MergeSpec   `yaml:"merge"`
	StripAnnotations []StripSpec   `yaml:"strip_annotations"`
	SortByLength     []string      `yaml:"sort_by_length"`
	Promote          []PromoteSpec `yaml:"promote"`
	Flatten          []string      `yaml:"flatten"`
	DisplayOrder     []string      `yaml:"display_order"`
}

// MergeSpec unions From into Into.
type MergeSpec struct {
	Into string `yaml:"into"`
	From string `yaml:"from"`
}

// StripSpec drops annotations of Type under Paths.
type StripSpec struct {
	Type  string   `yaml:"type"`
	Paths []string `yaml:"paths"`
}

// PromoteSpec lifts Path to the top level, before Before.
type PromoteSpec struct {
	Path   string `yaml:"path"`
	Before string `yaml:"before"`
}
