package i18n

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/message"
)

// DefaultLanguage is used when nothing better is known.
const DefaultLanguage = "en"

// Supported lists the languages the checklist is translated into. English first:
// the matcher falls back to the first entry.
var Supported = []language.Tag{
	language.English,
	language.Japanese,
	language.Chinese,
	language.Korean,
	language.Spanish,
	language.French,
	language.German,
	language.Portuguese,
	language.Italian,
	language.Russian,
	language.Arabic,
	language.Vietnamese,
}

var matcher = language.NewMatcher(Supported)

// Normalize maps any BCP 47 tag to the base language of the closest supported language.
func Normalize(lang string) string {
	tag, _, _ := matcher.Match(language.Make(lang))
	base, _ := tag.Base()
	return base.String()
}

// Direction is "rtl" for right-to-left scripts and "ltr" otherwise.
func Direction(lang string) string {
	if Normalize(lang) == "ar" {
		return "rtl"
	}
	return "ltr"
}

// LanguageName is the language's own name for itself, e.g. "日本語".
func LanguageName(lang string) string {
	tag := language.Make(Normalize(lang))
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return lang
}

var dateLayouts = map[string]string{
	"en": "January 2, 2006 15:04",
	"ja": "2006年1月2日 15:04",
	"zh": "2006年1月2日 15:04",
	"ko": "2006년 1월 2일 15:04",
	"de": "02.01.2006 15:04",
	"ru": "02.01.2006 15:04",
	"fr": "02/01/2006 15:04",
	"es": "02/01/2006 15:04",
	"it": "02/01/2006 15:04",
	"pt": "02/01/2006 15:04",
	"vi": "02/01/2006 15:04",
	"ar": "2006/01/02 15:04",
}

// FormatDate formats t the way readers of lang expect.
func FormatDate(t time.Time, lang string) string {
	layout, ok := dateLayouts[Normalize(lang)]
	if !ok {
		layout = dateLayouts[DefaultLanguage]
	}
	return t.Format(layout)
}

// FormatInt formats n with the grouping separators of lang.
func FormatInt(n int64, lang string) string {
	p := message.NewPrinter(language.Make(Normalize(lang)))
	return p.Sprintf("%d", n)
}
