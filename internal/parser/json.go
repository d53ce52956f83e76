package parser

import (
	"encoding/json"
	"fmt"

	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/render"
	"github.com/raphaelgruber/credcheck/internal/scoring"
)

// ParseJSONExport decodes a JSON export and rebuilds the checklist it was
// written from. Items come back grouped in category order.
func ParseJSONExport(data []byte) (*render.JSONExport, *models.ChecklistResult, error) {
	var export render.JSONExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, nil, fmt.Errorf("decode json export: %w", err)
	}
	if export.Metadata.Format != models.FormatJSON {
		return nil, nil, fmt.Errorf("%w: metadata format is %q", ErrMissingFact, export.Metadata.Format)
	}

	src := export.Checklist
	c := &models.ChecklistResult{
		ID:              export.Metadata.Source.ID,
		Title:           src.Title,
		Description:     src.Description,
		CreatedAt:       src.CreatedAt,
		Score:           models.Score{Total: src.Score.Total, MaxScore: src.Score.MaxScore},
		ConfidenceLevel: src.ConfidenceLevel,
		Judgment:        src.Judgment,
		Notes:           src.Notes,
		Items:           []models.CheckItem{},
	}
	for _, cat := range export.Categories {
		for _, it := range cat.Items {
			c.Items = append(c.Items, models.CheckItem{
				ID:             it.ID,
				Category:       it.Category,
				Checked:        it.Checked,
				Title:          it.Title,
				Description:    it.Description,
				Guide:          it.Guide,
				TranslationKey: it.TranslationKey,
			})
		}
	}
	return &export, c, nil
}

// ExtractJSONFacts reads the score figures of a JSON export as written, without
// recomputing them from the items.
func ExtractJSONFacts(data []byte) (scoring.Facts, error) {
	export, _, err := ParseJSONExport(data)
	if err != nil {
		return scoring.Facts{}, err
	}
	f := scoring.Facts{
		Score:           models.Score{Total: export.Checklist.Score.Total, MaxScore: export.Checklist.Score.MaxScore},
		ConfidenceLevel: export.Checklist.ConfidenceLevel,
		Judgment:        export.Checklist.Judgment,
		Categories:      make([]scoring.CategoryFacts, 0, len(export.Categories)),
	}
	for _, cat := range export.Categories {
		f.Categories = append(f.Categories, scoring.CategoryFacts{
			ID:             cat.ID,
			CompletionRate: cat.CompletionRate,
			CheckedCount:   cat.CheckedCount,
			TotalCount:     cat.TotalCount,
		})
	}
	return f, nil
}
