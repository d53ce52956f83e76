// Package render turns one evaluated checklist into export payloads. Every
// format is produced from the same scoring.Report and the same Outline, so the
// formats cannot disagree about scores or rates.
package render

import (
	"context"
	"time"

	"github.com/raphaelgruber/credcheck/internal/i18n"
	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/scoring"
)

// Version is written into structured exports.
const Version = "1.0"

// Document is the read-only input of a renderer.
type Document struct {
	Checklist   *models.ChecklistResult
	Report      scoring.Report
	Options     models.ExportOptions
	Text        i18n.TextResolver
	GeneratedAt time.Time
}

// NewDocument aggregates the checklist once. A nil resolver means canonical text.
func NewDocument(c *models.ChecklistResult, opts models.ExportOptions, text i18n.TextResolver, now time.Time) *Document {
	if text == nil {
		text = i18n.Canonical{}
	}
	return &Document{
		Checklist:   c,
		Report:      scoring.Aggregate(c),
		Options:     opts,
		Text:        i18n.WithLanguage(text, opts.Language),
		GeneratedAt: now,
	}
}

// Lang is the normalized document language.
func (d *Document) Lang() string {
	return d.Text.Language()
}

// Output is a finished payload. Renderers never return partial data.
type Output struct {
	Data []byte
	// Mode is the PDF strategy that produced Data; empty for other formats.
	Mode models.PDFMode
}

// ProgressFunc receives progress reports at stage boundaries.
type ProgressFunc func(models.ExportProgress)

// Renderer produces one export format.
type Renderer interface {
	Format() models.ExportFormat
	Render(ctx context.Context, doc *Document, progress ProgressFunc) (*Output, error)
}

// Standard returns the renderers that need no external collaborators.
func Standard() []Renderer {
	return []Renderer{
		HTMLRenderer{},
		MarkdownRenderer{},
		JSONRenderer{},
		CSVRenderer{},
	}
}
