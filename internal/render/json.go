package render

import (
	"context"
	"encoding/json"
	"time"

	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/scoring"
)

// JSONExport is the document written by the JSON renderer.
type JSONExport struct {
	Metadata   JSONMetadata   `json:"metadata"`
	Checklist  JSONChecklist  `json:"checklist"`
	Categories []JSONCategory `json:"categories"`
	Summary    *JSONSummary   `json:"summary,omitempty"`
}

type JSONMetadata struct {
	ExportedAt time.Time            `json:"exportedAt"`
	Format     models.ExportFormat  `json:"format"`
	Source     JSONSource           `json:"source"`
	Version    string               `json:"version"`
	Options    models.ExportOptions `json:"options"`
}

type JSONSource struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

type JSONScore struct {
	Total      int `json:"total"`
	MaxScore   int `json:"maxScore"`
	Percentage int `json:"percentage"`
}

type JSONChecklist struct {
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	Score           JSONScore       `json:"score"`
	ConfidenceLevel int             `json:"confidenceLevel"`
	Judgment        models.Judgment `json:"judgment"`
	Notes           string          `json:"notes,omitempty"`
}

type JSONItem struct {
	ID             string        `json:"id"`
	Category       string        `json:"category"`
	Checked        bool          `json:"checked"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	TranslationKey string        `json:"translationKey,omitempty"`
	Guide          *models.Guide `json:"guide,omitempty"`
}

type JSONCategory struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	CompletionRate int        `json:"completionRate"`
	CheckedCount   int        `json:"checkedCount"`
	TotalCount     int        `json:"totalCount"`
	Items          []JSONItem `json:"items"`
}

type JSONSummary struct {
	TotalItems      int             `json:"totalItems"`
	CheckedCount    int             `json:"checkedCount"`
	CompletionRate  int             `json:"completionRate"`
	ScorePercentage int             `json:"scorePercentage"`
	ConfidenceLevel int             `json:"confidenceLevel"`
	Judgment        models.Judgment `json:"judgment"`
}

// JSONRenderer writes canonical, language-agnostic JSON.
type JSONRenderer struct{}

func (JSONRenderer) Format() models.ExportFormat { return models.FormatJSON }

func (JSONRenderer) Render(ctx context.Context, doc *Document, progress ProgressFunc) (*Output, error) {
	t := NewTracker(3, progress)
	if err := t.Advance(ctx, StageLayout, "collecting sections"); err != nil {
		return nil, err
	}
	export := NewJSONExport(doc)

	if err := t.Advance(ctx, StageEncode, "encoding json"); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, models.NewExportError(models.CodeGenerationFailure, "encode json", err)
	}

	if err := t.Advance(ctx, StageFinalize, "json ready"); err != nil {
		return nil, err
	}
	t.Done("json export complete")
	return &Output{Data: append(data, '\n')}, nil
}

// NewJSONExport builds the JSON document from canonical text.
func NewJSONExport(doc *Document) JSONExport {
	c := doc.Checklist
	sum := doc.Report.Summary

	export := JSONExport{
		Metadata: JSONMetadata{
			ExportedAt: doc.GeneratedAt.UTC(),
			Format:     models.FormatJSON,
			Source:     JSONSource{ID: c.ID, Title: c.Title},
			Version:    Version,
			Options:    doc.Options,
		},
		Checklist: JSONChecklist{
			Title:       c.Title,
			Description: c.Description,
			CreatedAt:   c.CreatedAt.UTC(),
			Score: JSONScore{
				Total:      sum.Score.Total,
				MaxScore:   sum.Score.MaxScore,
				Percentage: sum.ScorePercentage,
			},
			ConfidenceLevel: sum.ConfidenceLevel,
			Judgment:        sum.Judgment,
		},
		Categories: make([]JSONCategory, 0, len(doc.Report.Sections)),
	}
	if doc.Options.IncludeNotes {
		export.Checklist.Notes = c.Notes
	}

	for _, s := range doc.Report.Sections {
		export.Categories = append(export.Categories, jsonCategory(s, doc.Options.IncludeGuides))
	}

	if doc.Options.IncludeSummary {
		export.Summary = &JSONSummary{
			TotalItems:      sum.TotalItems,
			CheckedCount:    sum.CheckedCount,
			CompletionRate:  sum.CompletionRate,
			ScorePercentage: sum.ScorePercentage,
			ConfidenceLevel: sum.ConfidenceLevel,
			Judgment:        sum.Judgment,
		}
	}
	return export
}

func jsonCategory(s scoring.SectionInfo, guides bool) JSONCategory {
	cat := JSONCategory{
		ID:             s.Category.ID,
		Name:           s.Category.Name,
		CompletionRate: s.CompletionRate,
		CheckedCount:   len(s.CheckedItems),
		TotalCount:     len(s.Items),
		Items:          make([]JSONItem, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		item := JSONItem{
			ID:             it.ID,
			Category:       it.Category,
			Checked:        it.Checked,
			Title:          it.Title,
			Description:    it.Description,
			TranslationKey: it.TranslationKey,
		}
		if guides {
			item.Guide = it.Guide
		}
		cat.Items = append(cat.Items, item)
	}
	return cat
}
