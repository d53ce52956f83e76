package i18n

import (
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jaBundle = `
language: ja
ui:
  export.summary: まとめ
items:
  author:
    title: 著者は明記されていますか
    guide:
      good_examples: ["署名記事"]
      bad_examples: []
  empty-title:
    title: ""
`

func item(key string) models.CheckItem {
	return models.CheckItem{
		ID:             "i1",
		Category:       models.CategoryCritical,
		Title:          "Is the author named?",
		Description:    "Look for a byline.",
		TranslationKey: key,
		Guide: &models.Guide{
			Title:        "Why authorship matters",
			Content:      "line one\nline two",
			GoodExamples: []string{"Signed article"},
			BadExamples:  []string{"Anonymous post"},
		},
	}
}

func loadJA(t *testing.T) TextResolver {
	t.Helper()
	b, err := LoadBundle(strings.NewReader(jaBundle))
	require.NoError(t, err)
	return NewResolver(b)
}

func TestNewResolverNilIsCanonical(t *testing.T) {
	r := NewResolver(nil)
	it := item("author")

	assert.Equal(t, "Is the author named?", r.Title(it))
	assert.Equal(t, "Look for a byline.", r.Description(it))
	assert.Equal(t, "Why authorship matters", r.GuideTitle(it))
	assert.Equal(t, []string{"Signed article"}, r.GoodExamples(it))
	assert.Equal(t, "Summary", r.T(KeySummary))
	assert.Equal(t, "en", r.Language())
}

func TestResolverPrefersTranslation(t *testing.T) {
	r := loadJA(t)
	it := item("author")

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"translated title", r.Title(it), "著者は明記されていますか"},
		{"missing description falls back", r.Description(it), "Look for a byline."},
		{"missing guide title falls back", r.GuideTitle(it), "Why authorship matters"},
		{"translated list replaces", r.GoodExamples(it), []string{"署名記事"}},
		{"empty translated list falls back", r.BadExamples(it), []string{"Anonymous post"}},
		{"ui string", r.T(KeySummary), "まとめ"},
		{"missing ui string falls back", r.T(KeyNotes), "Notes"},
		{"unknown key echoes", r.T("no.such.key"), "no.such.key"},
		{"language", r.Language(), "ja"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestResolverNeedsTranslationKey(t *testing.T) {
	r := loadJA(t)
	assert.Equal(t, "Is the author named?", r.Title(item("")))
}

func TestResolverEmptyTranslationIsDefined(t *testing.T) {
	r := loadJA(t)
	assert.Equal(t, "", r.Title(item("empty-title")))
}

func TestCanonicalWithoutGuide(t *testing.T) {
	r := NewResolver(nil)
	it := models.CheckItem{ID: "x", Title: "t"}
	assert.Empty(t, r.GuideTitle(it))
	assert.Empty(t, r.GuideContent(it))
	assert.Nil(t, r.GoodExamples(it))
	assert.Nil(t, r.BadExamples(it))
}

func TestCategoryNamesInCatalog(t *testing.T) {
	r := NewResolver(nil)
	for _, c := range models.Categories {
		assert.Equal(t, c.Name, r.T(c.NameKey))
	}
}

func TestWithLanguage(t *testing.T) {
	r := WithLanguage(NewResolver(nil), "de-AT")
	assert.Equal(t, "de", r.Language())
	assert.Equal(t, "Summary", r.T(KeySummary))
	assert.Equal(t, Canonical{}, WithLanguage(Canonical{}, ""))
}

func TestLoadBundleRequiresLanguage(t *testing.T) {
	_, err := LoadBundle(strings.NewReader("ui: {}\n"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"ja-JP": "ja",
		"zh-CN": "zh",
		"en":    "en",
		"ar-EG": "ar",
		"":      "en",
		"tlh":   "en",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestFormatDate(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)
	assert.Equal(t, "March 14, 2026 09:26", FormatDate(at, "en"))
	assert.Equal(t, "2026年3月14日 09:26", FormatDate(at, "ja"))
	assert.Equal(t, "14.03.2026 09:26", FormatDate(at, "de"))
	assert.Equal(t, "March 14, 2026 09:26", FormatDate(at, "tlh"))
}

func TestDirectionAndNames(t *testing.T) {
	assert.Equal(t, "rtl", Direction("ar"))
	assert.Equal(t, "ltr", Direction("ja"))
	assert.Equal(t, "日本語", LanguageName("ja"))
	assert.Equal(t, "1,234", FormatInt(1234, "en"))
}
