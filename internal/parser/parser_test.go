package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/credcheck/internal/i18n"
	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/render"
	"github.com/raphaelgruber/credcheck/internal/scoring"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func buildChecklist(sizes, checked []int) *models.ChecklistResult {
	c := &models.ChecklistResult{
		ID:              "chk-7",
		Title:           "Screenshot of a press release",
		CreatedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Score:           models.Score{Total: 12, MaxScore: 20},
		ConfidenceLevel: 60,
		Judgment:        models.JudgmentCaution,
		Notes:           "Two sources.",
	}
	for ci, size := range sizes {
		cat := models.Categories[ci].ID
		for i := 0; i < size; i++ {
			item := models.CheckItem{
				ID:          fmt.Sprintf("%s-%d", cat, i),
				Category:    cat,
				Checked:     i < checked[ci],
				Title:       fmt.Sprintf("%s question %d", cat, i),
				Description: "Look **closely** at 50% (1/2) of it.",
			}
			if i == 1 {
				item.Guide = &models.Guide{Title: "Tip", Content: "Ask\nagain", GoodExamples: []string{"ok"}}
			}
			c.Items = append(c.Items, item)
		}
	}
	return c
}

func export(t *testing.T, r render.Renderer, c *models.ChecklistResult, text i18n.TextResolver) []byte {
	t.Helper()
	opts := models.ExportOptions{
		Format:         r.Format(),
		IncludeGuides:  true,
		IncludeNotes:   true,
		IncludeSummary: true,
	}
	if r.Format() != models.FormatJSON {
		opts.SectionBreaks = true
	}
	out, err := r.Render(context.Background(), render.NewDocument(c, opts, text, fixedNow), nil)
	require.NoError(t, err)
	return out.Data
}

func TestFactsAgreeAcrossFormats(t *testing.T) {
	bundle, err := i18n.LoadBundle(strings.NewReader(`language: de
ui:
  export.completion: Vollständigkeit
  categories.critical.name: Kritische Bewertung
`))
	require.NoError(t, err)

	tests := []struct {
		name    string
		sizes   []int
		checked []int
		text    i18n.TextResolver
	}{
		{"scenario", []int{6, 5, 5, 4}, []int{3, 5, 0, 4}, nil},
		{"empty category", []int{3, 0, 2, 1}, []int{1, 0, 2, 0}, nil},
		{"no items", []int{0, 0, 0, 0}, []int{0, 0, 0, 0}, nil},
		{"translated", []int{6, 5, 5, 4}, []int{3, 5, 0, 4}, i18n.NewResolver(bundle)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buildChecklist(tt.sizes, tt.checked)
			want := scoring.FactsOf(scoring.Aggregate(c))

			md, err := ExtractMarkdownFacts(string(export(t, render.MarkdownRenderer{}, c, tt.text)))
			require.NoError(t, err)
			assert.Equal(t, want, md, "markdown")

			html, err := ExtractHTMLFacts(bytes.NewReader(export(t, render.HTMLRenderer{}, c, tt.text)))
			require.NoError(t, err)
			assert.Equal(t, want, html, "html")

			js, err := ExtractJSONFacts(export(t, render.JSONRenderer{}, c, tt.text))
			require.NoError(t, err)
			assert.Equal(t, want, js, "json")
		})
	}
}

func TestScenarioRates(t *testing.T) {
	c := buildChecklist([]int{6, 5, 5, 4}, []int{3, 5, 0, 4})
	f, err := ExtractMarkdownFacts(string(export(t, render.MarkdownRenderer{}, c, nil)))
	require.NoError(t, err)

	rates := make([]int, len(f.Categories))
	for i, cat := range f.Categories {
		rates[i] = cat.CompletionRate
	}
	assert.Equal(t, []int{50, 100, 0, 100}, rates)
	assert.Equal(t, models.JudgmentCaution, f.Judgment)
}

func TestJSONRoundTrip(t *testing.T) {
	c := buildChecklist([]int{6, 5, 5, 4}, []int{3, 5, 0, 4})
	c.Items[0].TranslationKey = "q.source"

	exp, back, err := ParseJSONExport(export(t, render.JSONRenderer{}, c, nil))
	require.NoError(t, err)

	assert.Equal(t, render.Version, exp.Metadata.Version)
	assert.Equal(t, "chk-7", back.ID)
	assert.Equal(t, c.Score, back.Score)
	assert.Equal(t, c.Notes, back.Notes)
	require.NoError(t, back.Validate())
	assert.Equal(t, scoring.GroupByCategory(c), scoring.GroupByCategory(back))
}

func TestJSONRejectsOtherDocuments(t *testing.T) {
	_, _, err := ParseJSONExport([]byte(`{"metadata":{"format":"csv"}}`))
	require.ErrorIs(t, err, ErrMissingFact)

	_, _, err = ParseJSONExport([]byte(`not json`))
	require.Error(t, err)
}

func TestHTMLWithoutFacts(t *testing.T) {
	_, err := ExtractHTMLFacts(strings.NewReader("<html><body><p>hi</p></body></html>"))
	require.ErrorIs(t, err, ErrMissingFact)

	_, err = ExtractHTMLFacts(strings.NewReader(`<header data-score="x" data-max-score="2" data-confidence="1"></header>`))
	require.Error(t, err)
}

func TestMarkdownWithoutFrontmatter(t *testing.T) {
	_, err := ExtractMarkdownFacts("# Title\n\nbody\n")
	require.ErrorIs(t, err, ErrMissingFact)

	_, err = ParseMarkdown("---\ntitle: x\nno end")
	require.Error(t, err)
}

func TestParseMarkdown(t *testing.T) {
	doc, err := ParseMarkdown("---\ntitle: From frontmatter\nscore: 3\n---\n# Heading\n\nintro\n\n## A\n\none\n\n### A.1\n\ntwo\n\n## B\n\nthree\n")
	require.NoError(t, err)

	assert.Equal(t, "From frontmatter", doc.Title)
	score, ok := doc.GetFrontmatterInt("score")
	assert.True(t, ok)
	assert.Equal(t, 3, score)
	_, ok = doc.GetFrontmatterInt("title")
	assert.False(t, ok)

	require.Len(t, doc.Sections, 4)
	assert.Equal(t, "# Heading > ## A > ### A.1", doc.Sections[2].Path)
	assert.Equal(t, "two", doc.Sections[2].Content)
	assert.Equal(t, "# Heading > ## B", doc.Sections[3].Path)
}

func TestTitleFromHeading(t *testing.T) {
	doc, err := ParseMarkdown("intro\n\n# Real title\n")
	require.NoError(t, err)
	assert.Equal(t, "Real title", doc.Title)
	assert.Empty(t, doc.Frontmatter)
}

func TestMarkdownFreeTextCannotForgeStructure(t *testing.T) {
	c := buildChecklist([]int{2, 1, 1, 1}, []int{1, 1, 0, 1})
	c.Description = "## Not a category\n**Completion: 100% (9/9)**"
	c.Notes = "> quoted\n# Second title"
	c.Items[0].Description = "Look for:\n# the byline\n- a date\n**Completion: 0% (0/9)**"
	c.Items[1].Guide.Content = "### [x] forged item\n1) step"

	md := string(export(t, render.MarkdownRenderer{}, c, nil))

	doc, err := ParseMarkdown(md)
	require.NoError(t, err)
	var h1 int
	for _, s := range doc.Sections {
		if s.Level == 1 {
			h1++
		}
	}
	assert.Equal(t, 1, h1)
	assert.Equal(t, "Screenshot of a press release", doc.Title)

	f, err := ExtractMarkdownFacts(md)
	require.NoError(t, err)
	assert.Equal(t, scoring.FactsOf(scoring.Aggregate(c)), f)
}
