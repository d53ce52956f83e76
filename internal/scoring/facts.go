package scoring

import (
	"fmt"

	"github.com/raphaelgruber/credcheck/internal/models"
)

// CategoryFacts are the comparable per-category figures of an export.
type CategoryFacts struct {
	ID             string
	CompletionRate int
	CheckedCount   int
	TotalCount     int
}

// Facts are the figures every export format must reproduce without drift.
type Facts struct {
	Score           models.Score
	ConfidenceLevel int
	Judgment        models.Judgment
	Categories      []CategoryFacts
}

// FactsOf extracts the comparable figures from a report.
func FactsOf(r Report) Facts {
	f := Facts{
		Score:           r.Summary.Score,
		ConfidenceLevel: r.Summary.ConfidenceLevel,
		Judgment:        r.Summary.Judgment,
		Categories:      make([]CategoryFacts, 0, len(r.Sections)),
	}
	for _, s := range r.Sections {
		f.Categories = append(f.Categories, CategoryFacts{
			ID:             s.Category.ID,
			CompletionRate: s.CompletionRate,
			CheckedCount:   len(s.CheckedItems),
			TotalCount:     len(s.Items),
		})
	}
	return f
}

// Diff lists every figure in got that differs from want. An empty result
// means the export agrees with the direct computation.
func Diff(want, got Facts) []string {
	var diffs []string
	if want.Score != got.Score {
		diffs = append(diffs, fmt.Sprintf("score: want %d/%d, got %d/%d",
			want.Score.Total, want.Score.MaxScore, got.Score.Total, got.Score.MaxScore))
	}
	if want.ConfidenceLevel != got.ConfidenceLevel {
		diffs = append(diffs, fmt.Sprintf("confidence: want %d, got %d", want.ConfidenceLevel, got.ConfidenceLevel))
	}
	if want.Judgment != got.Judgment {
		diffs = append(diffs, fmt.Sprintf("judgment: want %q, got %q", want.Judgment, got.Judgment))
	}
	if len(want.Categories) != len(got.Categories) {
		return append(diffs, fmt.Sprintf("categories: want %d, got %d", len(want.Categories), len(got.Categories)))
	}
	for i, w := range want.Categories {
		if g := got.Categories[i]; w != g {
			diffs = append(diffs, fmt.Sprintf("category %d: want %s %d%% (%d/%d), got %s %d%% (%d/%d)",
				i+1, w.ID, w.CompletionRate, w.CheckedCount, w.TotalCount,
				g.ID, g.CompletionRate, g.CheckedCount, g.TotalCount))
		}
	}
	return diffs
}
