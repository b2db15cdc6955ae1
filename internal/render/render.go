// Package render turns a category tree into a single browsable HTML page:
// a sidebar of top-level categories and one section per category, with
// prayers grouped by author and numbered across the whole section.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

//go:embed templates/*.html
var templatesFS embed.FS

// UnknownAuthor labels prayers without an author.
const UnknownAuthor = "Unknown"

// Options controls the rendered page.
type Options struct {
	Title        string
	Stylesheet   string
	Script       string
	PreviewChars int
	AuthorOrder  []domain.Author
}

// DefaultOptions returns the options of the published site.
func DefaultOptions() Options {
	return Options{
		Title:        "Prayers",
		Stylesheet:   "styles.css",
		Script:       "main.js",
		PreviewChars: 200,
		AuthorOrder:  domain.DefaultAuthorOrder,
	}
}

// Renderer renders trees with parsed templates.
type Renderer struct {
	tmpl *template.Template
	opts Options
}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	defaults := DefaultOptions()
	if opts.Title == "" {
		opts.Title = defaults.Title
	}
	if opts.Stylesheet == "" {
		opts.Stylesheet = defaults.Stylesheet
	}
	if opts.Script == "" {
		opts.Script = defaults.Script
	}
	if opts.PreviewChars <= 0 {
		opts.PreviewChars = defaults.PreviewChars
	}
	if len(opts.AuthorOrder) == 0 {
		opts.AuthorOrder = defaults.AuthorOrder
	}

	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, opts: opts}, nil
}

type page struct {
	Title      string
	Stylesheet string
	Script     string
	Sections   []section
}

type section struct {
	Name     string
	Slug     string
	Active   bool
	Nested   bool
	Children []section
	Authors  []authorGroup
}

type authorGroup struct {
	Author  string
	Prayers []article
}

type article struct {
	ID       string
	Category string
	Author   string
	Number   int
	Preview  string
	Body     []paragraph
}

type paragraph struct {
	Class    string
	Lines    string
	HasLines bool
	Text     string
}

// Render writes the page for t to w.
func (r *Renderer) Render(w io.Writer, t *tree.Tree) error {
	p := page{
		Title:      r.opts.Title,
		Stylesheet: r.opts.Stylesheet,
		Script:     r.opts.Script,
		Sections:   make([]section, len(t.Nodes)),
	}
	for i, n := range t.Nodes {
		p.Sections[i] = r.section(n, "", false)
		p.Sections[i].Active = i == 0
	}
	return r.tmpl.ExecuteTemplate(w, "index", p)
}

// WriteFile renders t to path, creating parent directories.
func (r *Renderer) WriteFile(path string, t *tree.Tree) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, t); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (r *Renderer) section(n tree.Node, parent string, nested bool) section {
	name := strings.TrimSpace(parent + " " + n.Label)
	s := section{Name: n.Label, Slug: Slugify(name), Nested: nested}
	if !n.IsLeaf() {
		for _, child := range n.Children {
			s.Children = append(s.Children, r.section(child, name, true))
		}
		return s
	}
	s.Authors = r.authorGroups(n.Prayers, s.Slug)
	return s
}

// authorGroups groups prayers by author in canonical order, unknown authors
// following in first-seen order. Numbers run across groups from 1; ids keep
// the prayer's position in the bucket.
func (r *Renderer) authorGroups(prayers []domain.Prayer, slug string) []authorGroup {
	type entry struct {
		prayer domain.Prayer
		index  int
	}
	byKey := make(map[string][]entry)
	names := make(map[string]string)
	var seen []string
	for i, p := range prayers {
		author := string(p.Author)
		if author == "" {
			author = UnknownAuthor
		}
		key := domain.Author(author).Key()
		if _, ok := byKey[key]; !ok {
			seen = append(seen, key)
			names[key] = author
		}
		byKey[key] = append(byKey[key], entry{prayer: p, index: i})
	}

	var order []string
	placed := make(map[string]bool)
	for _, a := range r.opts.AuthorOrder {
		key := a.Key()
		if _, ok := byKey[key]; ok && !placed[key] {
			order = append(order, key)
			names[key] = string(a)
			placed[key] = true
		}
	}
	for _, key := range seen {
		if !placed[key] {
			order = append(order, key)
			placed[key] = true
		}
	}

	counter := 0
	groups := make([]authorGroup, 0, len(order))
	for _, key := range order {
		g := authorGroup{Author: names[key]}
		for _, e := range byKey[key] {
			counter++
			g.Prayers = append(g.Prayers, r.article(e.prayer, e.index, slug, g.Author, counter))
		}
		groups = append(groups, g)
	}
	return groups
}

func (r *Renderer) article(p domain.Prayer, index int, slug, author string, number int) article {
	a := article{
		ID:       slug + "-p" + strconv.Itoa(index),
		Category: slug,
		Author:   author,
		Number:   number,
		Preview:  Preview(p.Content, r.opts.PreviewChars),
		Body:     make([]paragraph, len(p.Content)),
	}
	for i, c := range p.Content {
		a.Body[i] = contentParagraph(c)
	}
	return a
}

func contentParagraph(c domain.Content) paragraph {
	p := paragraph{Text: c.Text()}
	switch c.Kind() {
	case domain.KindAnnotation:
		p.Class = "content-" + c.Type()
	case domain.KindLines:
		lines := c.LineNumbers()
		parts := make([]string, len(lines))
		for i, n := range lines {
			parts[i] = strconv.Itoa(n)
		}
		p.Class = "content-lines"
		p.Lines = strings.Join(parts, ",")
		p.HasLines = true
	}
	return p
}
