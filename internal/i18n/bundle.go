package i18n

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Bundle is a Translator backed by a YAML translation file:
//
//	language: ja
//	ui:
//	  export.summary: まとめ
//	items:
//	  source-author:
//	    title: 著者は明記されていますか?
//	    guide:
//	      good_examples: [...]
type Bundle struct {
	Lang  string                 `yaml:"language"`
	UI    map[string]string      `yaml:"ui"`
	Items map[string]bundleEntry `yaml:"items"`
}

type bundleEntry struct {
	Title       *string      `yaml:"title"`
	Description *string      `yaml:"description"`
	Guide       *bundleGuide `yaml:"guide"`
}

type bundleGuide struct {
	Title        *string  `yaml:"title"`
	Content      *string  `yaml:"content"`
	GoodExamples []string `yaml:"good_examples"`
	BadExamples  []string `yaml:"bad_examples"`
}

// LoadBundle decodes a translation bundle.
func LoadBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode translation bundle: %w", err)
	}
	if b.Lang == "" {
		return nil, fmt.Errorf("translation bundle has no language")
	}
	return &b, nil
}

// LoadBundleFile reads a translation bundle from disk.
func LoadBundleFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open translation bundle: %w", err)
	}
	defer f.Close()
	return LoadBundle(f)
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func (b *Bundle) Title(key string) (string, bool)       { return deref(b.Items[key].Title) }
func (b *Bundle) Description(key string) (string, bool) { return deref(b.Items[key].Description) }

func (b *Bundle) GuideTitle(key string) (string, bool) {
	if g := b.Items[key].Guide; g != nil {
		return deref(g.Title)
	}
	return "", false
}

func (b *Bundle) GuideContent(key string) (string, bool) {
	if g := b.Items[key].Guide; g != nil {
		return deref(g.Content)
	}
	return "", false
}

func (b *Bundle) GoodExamples(key string) ([]string, bool) {
	if g := b.Items[key].Guide; g != nil && g.GoodExamples != nil {
		return g.GoodExamples, true
	}
	return nil, false
}

func (b *Bundle) BadExamples(key string) ([]string, bool) {
	if g := b.Items[key].Guide; g != nil && g.BadExamples != nil {
		return g.BadExamples, true
	}
	return nil, false
}

func (b *Bundle) Text(key string) (string, bool) {
	v, ok := b.UI[key]
	return v, ok
}

func (b *Bundle) Language() string { return b.Lang }
