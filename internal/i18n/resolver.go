// Package i18n resolves display text for exports. Translated values win over the
// canonical text carried on each checklist item; without a translator every
// lookup falls through to the canonical text.
package i18n

import (
	"github.com/raphaelgruber/credcheck/internal/models"
)

// TextResolver returns the display text of checklist items and UI strings.
type TextResolver interface {
	Title(item models.CheckItem) string
	Description(item models.CheckItem) string
	GuideTitle(item models.CheckItem) string
	GuideContent(item models.CheckItem) string
	GoodExamples(item models.CheckItem) []string
	BadExamples(item models.CheckItem) []string

	// T resolves a static UI string.
	T(key string) string
	// Language is the BCP 47 tag used for document metadata.
	Language() string
}

// Translator is the black-box translation store. Every accessor reports ok=false
// when it has no value for the key.
type Translator interface {
	Title(key string) (string, bool)
	Description(key string) (string, bool)
	GuideTitle(key string) (string, bool)
	GuideContent(key string) (string, bool)
	GoodExamples(key string) ([]string, bool)
	BadExamples(key string) ([]string, bool)
	Text(key string) (string, bool)
	Language() string
}

// Canonical always returns the item's own text and the built-in English UI strings.
type Canonical struct{}

func (Canonical) Title(item models.CheckItem) string       { return item.Title }
func (Canonical) Description(item models.CheckItem) string { return item.Description }

func (Canonical) GuideTitle(item models.CheckItem) string {
	if item.Guide == nil {
		return ""
	}
	return item.Guide.Title
}

func (Canonical) GuideContent(item models.CheckItem) string {
	if item.Guide == nil {
		return ""
	}
	return item.Guide.Content
}

func (Canonical) GoodExamples(item models.CheckItem) []string {
	if item.Guide == nil {
		return nil
	}
	return item.Guide.GoodExamples
}

func (Canonical) BadExamples(item models.CheckItem) []string {
	if item.Guide == nil {
		return nil
	}
	return item.Guide.BadExamples
}

func (Canonical) T(key string) string { return defaultText(key) }
func (Canonical) Language() string    { return DefaultLanguage }

// NewResolver wraps tr in the priority chain. A nil translator yields Canonical.
func NewResolver(tr Translator) TextResolver {
	if tr == nil {
		return Canonical{}
	}
	return &chain{tr: tr}
}

type chain struct {
	Canonical
	tr Translator
}

func (c *chain) pick(item models.CheckItem, get func(string) (string, bool), fallback string) string {
	if item.TranslationKey == "" {
		return fallback
	}
	if v, ok := get(item.TranslationKey); ok {
		return v
	}
	return fallback
}

// pickList replaces the canonical list only with a present, non-empty translation.
func (c *chain) pickList(item models.CheckItem, get func(string) ([]string, bool), fallback []string) []string {
	if item.TranslationKey == "" {
		return fallback
	}
	if v, ok := get(item.TranslationKey); ok && len(v) > 0 {
		return v
	}
	return fallback
}

func (c *chain) Title(item models.CheckItem) string {
	return c.pick(item, c.tr.Title, c.Canonical.Title(item))
}

func (c *chain) Description(item models.CheckItem) string {
	return c.pick(item, c.tr.Description, c.Canonical.Description(item))
}

func (c *chain) GuideTitle(item models.CheckItem) string {
	return c.pick(item, c.tr.GuideTitle, c.Canonical.GuideTitle(item))
}

func (c *chain) GuideContent(item models.CheckItem) string {
	return c.pick(item, c.tr.GuideContent, c.Canonical.GuideContent(item))
}

func (c *chain) GoodExamples(item models.CheckItem) []string {
	return c.pickList(item, c.tr.GoodExamples, c.Canonical.GoodExamples(item))
}

func (c *chain) BadExamples(item models.CheckItem) []string {
	return c.pickList(item, c.tr.BadExamples, c.Canonical.BadExamples(item))
}

func (c *chain) T(key string) string {
	if v, ok := c.tr.Text(key); ok {
		return v
	}
	return defaultText(key)
}

func (c *chain) Language() string {
	if lang := c.tr.Language(); lang != "" {
		return Normalize(lang)
	}
	return DefaultLanguage
}

// WithLanguage overrides the language reported by r, keeping its text lookups.
func WithLanguage(r TextResolver, lang string) TextResolver {
	if lang == "" {
		return r
	}
	return languageOverride{TextResolver: r, lang: Normalize(lang)}
}

type languageOverride struct {
	TextResolver
	lang string
}

func (l languageOverride) Language() string { return l.lang }
