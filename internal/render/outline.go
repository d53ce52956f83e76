package render

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/credcheck/internal/i18n"
	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/scoring"
)

// Field is one labelled value in a metadata or summary block.
type Field struct {
	Key   string
	Label string
	Value string
}

// Guide is the resolved help text of an item.
type Guide struct {
	Heading   string
	Lines     []string
	GoodLabel string
	Good      []string
	BadLabel  string
	Bad       []string
}

// Item is one resolved checklist question.
type Item struct {
	ID          string
	Title       string
	Description string
	Checked     bool
	Status      string
	Guide       *Guide
}

// Section is one category block.
type Section struct {
	ID             string
	Heading        string
	Description    string
	CompletionRate int
	Checked        int
	Total          int
	Completion     string
	PageBreak      bool
	Items          []Item
}

// SummaryBlock closes the document.
type SummaryBlock struct {
	Heading         string
	Fields          []Field
	Judgment        models.Judgment
	JudgmentLabel   string
	JudgmentMessage string
}

// Outline is the structured, language-resolved form of a document. HTML,
// Markdown and PDF are all drawn from it.
type Outline struct {
	Lang        string
	Dir         string
	Title       string
	Description string

	Score           models.Score
	ScorePercentage int
	ConfidenceLevel int
	Judgment        models.Judgment

	MetadataHeading string
	Metadata        []Field

	NotesHeading string
	Notes        string

	Sections    []Section
	Summary     *SummaryBlock
	GeneratedBy string
}

// BuildOutline resolves every user-visible string of doc.
func BuildOutline(doc *Document) *Outline {
	c := doc.Checklist
	tr := doc.Text
	lang := doc.Lang()
	sum := doc.Report.Summary

	o := &Outline{
		Lang:            lang,
		Dir:             i18n.Direction(lang),
		Title:           c.Title,
		Description:     c.Description,
		Score:           sum.Score,
		ScorePercentage: sum.ScorePercentage,
		ConfidenceLevel: sum.ConfidenceLevel,
		Judgment:        sum.Judgment,
		MetadataHeading: tr.T(i18n.KeyMetadata),
		Metadata: []Field{
			{Key: "created", Label: tr.T(i18n.KeyCreated), Value: i18n.FormatDate(c.CreatedAt, lang)},
			{Key: "score", Label: tr.T(i18n.KeyScore), Value: fmt.Sprintf("%s (%d%%)", ratio(sum.Score.Total, sum.Score.MaxScore, lang), sum.ScorePercentage)},
			{Key: "confidence", Label: tr.T(i18n.KeyConfidence), Value: fmt.Sprintf("%d%%", sum.ConfidenceLevel)},
			{Key: "language", Label: tr.T(i18n.KeyLanguage), Value: fmt.Sprintf("%s (%s)", i18n.LanguageName(lang), lang)},
		},
		GeneratedBy: tr.T(i18n.KeyGeneratedBy),
	}

	if doc.Options.IncludeNotes && strings.TrimSpace(c.Notes) != "" {
		o.NotesHeading = tr.T(i18n.KeyNotes)
		o.Notes = c.Notes
	}

	completion := tr.T(i18n.KeyCompletion)
	for i, s := range doc.Report.Sections {
		sec := Section{
			ID:             s.Category.ID,
			Heading:        tr.T(s.Category.NameKey),
			Description:    tr.T(s.Category.DescriptionKey),
			CompletionRate: s.CompletionRate,
			Checked:        len(s.CheckedItems),
			Total:          len(s.Items),
			Completion:     CompletionLine(completion, s.CompletionRate, len(s.CheckedItems), len(s.Items)),
			PageBreak:      doc.Options.SectionBreaks && i > 0,
			Items:          make([]Item, 0, len(s.Items)),
		}
		for _, it := range s.Items {
			sec.Items = append(sec.Items, buildItem(doc, it))
		}
		o.Sections = append(o.Sections, sec)
	}

	if doc.Options.IncludeSummary {
		o.Summary = &SummaryBlock{
			Heading: tr.T(i18n.KeySummary),
			Fields: []Field{
				{Key: "total_score", Label: tr.T(i18n.KeyTotalScore), Value: ratio(sum.Score.Total, sum.Score.MaxScore, lang)},
				{Key: "completion", Label: completion, Value: fmt.Sprintf("%d%%", sum.CompletionRate)},
				{Key: "confidence", Label: tr.T(i18n.KeyConfidence), Value: fmt.Sprintf("%d%%", sum.ConfidenceLevel)},
				{Key: "checked_items", Label: tr.T(i18n.KeyCheckedItems), Value: ratio(sum.CheckedCount, sum.TotalItems, lang)},
				{Key: "judgment", Label: tr.T(i18n.KeyJudgment), Value: tr.T(i18n.JudgmentKey(sum.Judgment))},
			},
			Judgment:        sum.Judgment,
			JudgmentLabel:   tr.T(i18n.JudgmentKey(sum.Judgment)),
			JudgmentMessage: tr.T(i18n.JudgmentMessageKey(sum.Judgment)),
		}
	}
	return o
}

// CompletionLine formats a category's completion as "<label>: 50% (3/6)".
func CompletionLine(label string, rate, checked, total int) string {
	return fmt.Sprintf("%s: %d%% (%d/%d)", label, rate, checked, total)
}

func buildItem(doc *Document, it models.CheckItem) Item {
	tr := doc.Text
	item := Item{
		ID:          it.ID,
		Title:       tr.Title(it),
		Description: tr.Description(it),
		Checked:     it.Checked,
		Status:      tr.T(i18n.KeyUnchecked),
	}
	if it.Checked {
		item.Status = tr.T(i18n.KeyChecked)
	}
	if !doc.Options.IncludeGuides {
		return item
	}

	g := &Guide{
		Heading:   tr.GuideTitle(it),
		Good:      tr.GoodExamples(it),
		Bad:       tr.BadExamples(it),
		GoodLabel: tr.T(i18n.KeyGoodExamples),
		BadLabel:  tr.T(i18n.KeyBadExamples),
	}
	g.Lines = splitLines(tr.GuideContent(it))
	if g.Heading == "" && len(g.Lines) == 0 && len(g.Good) == 0 && len(g.Bad) == 0 {
		return item
	}
	if g.Heading == "" {
		g.Heading = tr.T(i18n.KeyGuide)
	}
	item.Guide = g
	return item
}

// Facts returns the comparable figures carried by the outline.
func (o *Outline) Facts() scoring.Facts {
	f := scoring.Facts{
		Score:           o.Score,
		ConfidenceLevel: o.ConfidenceLevel,
		Judgment:        o.Judgment,
		Categories:      make([]scoring.CategoryFacts, 0, len(o.Sections)),
	}
	for _, s := range o.Sections {
		f.Categories = append(f.Categories, scoring.CategoryFacts{
			ID:             s.ID,
			CompletionRate: s.CompletionRate,
			CheckedCount:   s.Checked,
			TotalCount:     s.Total,
		})
	}
	return f
}

// ratio formats "n/of" with the digit grouping of lang.
func ratio(n, of int, lang string) string {
	return i18n.FormatInt(int64(n), lang) + "/" + i18n.FormatInt(int64(of), lang)
}

// splitLines splits trimmed multi-line text; blank text yields nil.
func splitLines(s string) []string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
