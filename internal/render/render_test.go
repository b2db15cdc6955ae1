package render_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/classifier"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/render"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Naw‑Rúz", "naw-ruz"},
		{"Riḍván", "ridvan"},
		{"Ḥuqúqu’lláh", "huququ-llah"},
		{"Teaching: Collective", "teaching-collective"},
		{"  Glory and Devotion  ", "glory-and-devotion"},
		{"Ayyám‑i‑Há", "ayyam-i-ha"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, render.Slugify(tt.in))
		})
	}
}

func TestSlugify_FoldsLikeNormalizer(t *testing.T) {
	for _, mark := range []rune{0x0300, 0x0301, 0x0323, 0x036f} {
		word := "a" + string(mark) + "b"
		assert.Equal(t, "ab", render.Slugify(word), "mark %U", mark)
		assert.Equal(t, "ab", classifier.NormalizeText(word), "mark %U", mark)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name    string
		content []domain.Content
		max     int
		want    string
	}{
		{
			name:    "fits",
			content: []domain.Content{domain.Plain("He is God!"), domain.Plain("O Lord.")},
			max:     200,
			want:    "He is God! O Lord.",
		},
		{
			name:    "cut at a word",
			content: []domain.Content{domain.Plain("Glorified art Thou, O Lord my God")},
			max:     15,
			want:    "Glorified art" + render.Ellipsis,
		},
		{
			name:    "second paragraph cut",
			content: []domain.Content{domain.Plain("He is God!"), domain.Plain("Thou seest me")},
			max:     16,
			want:    "He is God! Thou" + render.Ellipsis,
		},
		{
			name:    "blank paragraphs skipped",
			content: []domain.Content{domain.Plain("   "), domain.Annotated("call", "He is God!")},
			max:     200,
			want:    "He is God!",
		},
		{
			name:    "counts runes",
			content: []domain.Content{domain.Plain("Bahá’u’lláh Bahá’u’lláh")},
			max:     11,
			want:    "Bahá’u’lláh" + render.Ellipsis,
		},
		{
			name: "empty",
			max:  200,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render.Preview(tt.content, tt.max))
		})
	}
}

func sampleTree() *tree.Tree {
	return tree.New(
		tree.Leaf("Naw‑Rúz", []domain.Prayer{
			{Author: "‘Abdu’l-Bahá", Content: []domain.Content{domain.Plain("O Thou kind Lord!")}},
			{Author: domain.AuthorBahaullah, Content: []domain.Content{
				domain.Annotated(domain.AnnotationCall, "He is God!"),
				domain.Plain("Praised be Thou, O Lord my God."),
				domain.Lines("Verily, Thou art the Mighty.", 12, 13),
			}},
			{Author: "Shoghi Effendi", Content: []domain.Content{domain.Plain("<Beloved> & friends")}},
		}),
		tree.Branch("Teaching",
			tree.Leaf("Teaching: Individual", []domain.Prayer{
				{Author: domain.AuthorBab, Content: []domain.Content{domain.Plain("Make me a herald.")}},
			}),
		),
	)
}

func renderDoc(t *testing.T, opts render.Options) (*goquery.Document, string) {
	t.Helper()
	r, err := render.New(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, sampleTree()))
	html := buf.String()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc, html
}

func TestRender_Sidebar(t *testing.T) {
	doc, html := renderDoc(t, render.Options{})

	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Equal(t, "Prayers", doc.Find("title").Text())

	links := doc.Find(".category-nav .category-link")
	require.Equal(t, 2, links.Length())
	assert.Equal(t, "naw-ruz", links.Eq(0).AttrOr("data-category", ""))
	assert.True(t, links.Eq(0).HasClass("is-active"))
	assert.False(t, links.Eq(1).HasClass("is-active"))

	sections := doc.Find("main > section.category-section")
	require.Equal(t, 2, sections.Length())
	assert.True(t, sections.Eq(0).HasClass("is-active"))
	assert.Equal(t, "Teaching", sections.Eq(1).Find("h1.category-title").Text())
}

func TestRender_AuthorGroupsAndNumbering(t *testing.T) {
	doc, _ := renderDoc(t, render.Options{})
	section := doc.Find(`section.category-section[data-category="naw-ruz"]`)

	var authors []string
	section.Find(".author-group").Each(func(_ int, s *goquery.Selection) {
		authors = append(authors, s.AttrOr("data-author", ""))
	})
	assert.Equal(t, []string{string(domain.AuthorBahaullah), string(domain.AuthorAbdulBaha), "Shoghi Effendi"}, authors)

	var numbers, ids []string
	section.Find("article.prayer").Each(func(_ int, s *goquery.Selection) {
		numbers = append(numbers, s.AttrOr("data-number", ""))
		ids = append(ids, s.AttrOr("data-prayer-id", ""))
	})
	assert.Equal(t, []string{"1", "2", "3"}, numbers)
	assert.Equal(t, []string{"naw-ruz-p1", "naw-ruz-p0", "naw-ruz-p2"}, ids, "ids keep the bucket position")
}

func TestRender_ContentParagraphs(t *testing.T) {
	doc, html := renderDoc(t, render.Options{})
	body := doc.Find(`article[data-prayer-id="naw-ruz-p1"] .prayer-body`)

	_, hidden := body.Attr("hidden")
	assert.True(t, hidden)

	paras := body.Find("p")
	require.Equal(t, 3, paras.Length())
	assert.True(t, paras.Eq(0).HasClass("content-call"))
	_, hasClass := paras.Eq(1).Attr("class")
	assert.False(t, hasClass)
	assert.True(t, paras.Eq(2).HasClass("content-lines"))
	assert.Equal(t, "12,13", paras.Eq(2).AttrOr("data-lines", ""))

	toggle := doc.Find(`article[data-prayer-id="naw-ruz-p1"] button.prayer-toggle`)
	assert.Equal(t, "false", toggle.AttrOr("aria-expanded", ""))
	assert.Equal(t, "body-naw-ruz-p1", toggle.AttrOr("aria-controls", ""))

	assert.Contains(t, html, "&lt;Beloved&gt; &amp; friends")
}

func TestRender_NestedSections(t *testing.T) {
	doc, _ := renderDoc(t, render.Options{})

	sub := doc.Find(`section.category-section[data-category="teaching"] section.subcategory-section`)
	require.Equal(t, 1, sub.Length())
	assert.Equal(t, "teaching-teaching-individual", sub.AttrOr("data-category", ""))
	assert.Equal(t, "Teaching: Individual", sub.Find("h2.subcategory-title").Text())
	assert.Equal(t, "teaching-teaching-individual-p0", sub.Find("article.prayer").AttrOr("data-prayer-id", ""))
}

func TestRender_Options(t *testing.T) {
	doc, _ := renderDoc(t, render.Options{
		Title:        "Devotions",
		Stylesheet:   "site.css",
		Script:       "app.js",
		PreviewChars: 5,
	})

	assert.Equal(t, "Devotions", doc.Find("h1.app-title").Text())
	assert.Equal(t, "site.css", doc.Find(`link[rel="stylesheet"]`).AttrOr("href", ""))
	assert.Equal(t, "app.js", doc.Find("script").AttrOr("src", ""))

	preview := doc.Find(`article[data-prayer-id="naw-ruz-p0"] .prayer-preview p`).Text()
	assert.Equal(t, "O"+render.Ellipsis, preview)
}

func TestWriteFile(t *testing.T) {
	r, err := render.New(render.DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "site", "index.html")
	require.NoError(t, r.WriteFile(path, sampleTree()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `data-category="naw-ruz"`)
}
