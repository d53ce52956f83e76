// Package scoring derives per-category and overall completion metrics from an
// evaluated checklist. Every function here is pure: the same checklist always
// produces the same numbers, which is what keeps the export formats in agreement.
package scoring

import (
	"math"

	"github.com/raphaelgruber/credcheck/internal/models"
)

// SectionInfo is one category of the checklist with its items partitioned.
type SectionInfo struct {
	Category       models.Category
	Items          []models.CheckItem
	CheckedItems   []models.CheckItem
	UncheckedItems []models.CheckItem
	CompletionRate int
}

// Summary holds the overall figures of a checklist.
type Summary struct {
	TotalItems      int
	CheckedCount    int
	CompletionRate  int
	Score           models.Score
	ScorePercentage int
	ConfidenceLevel int
	Judgment        models.Judgment
}

// Report is everything an exporter needs, computed once per export.
type Report struct {
	Sections []SectionInfo
	Summary  Summary
}

// Rate returns round(part/total*100), or 0 for an empty total.
func Rate(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// GroupByCategory partitions the checklist items by category, in the fixed order
// of models.Categories. A nil checklist yields an empty slice.
func GroupByCategory(c *models.ChecklistResult) []SectionInfo {
	if c == nil {
		return []SectionInfo{}
	}

	sections := make([]SectionInfo, 0, len(models.Categories))
	for _, cat := range models.Categories {
		s := SectionInfo{
			Category:       cat,
			Items:          []models.CheckItem{},
			CheckedItems:   []models.CheckItem{},
			UncheckedItems: []models.CheckItem{},
		}
		for _, item := range c.Items {
			if item.Category != cat.ID {
				continue
			}
			s.Items = append(s.Items, item)
			if item.Checked {
				s.CheckedItems = append(s.CheckedItems, item)
			} else {
				s.UncheckedItems = append(s.UncheckedItems, item)
			}
		}
		s.CompletionRate = Rate(len(s.CheckedItems), len(s.Items))
		sections = append(sections, s)
	}
	return sections
}

// Summarize computes the overall figures from already grouped sections.
func Summarize(c *models.ChecklistResult, sections []SectionInfo) Summary {
	var sum Summary
	for _, s := range sections {
		sum.TotalItems += len(s.Items)
		sum.CheckedCount += len(s.CheckedItems)
	}
	sum.CompletionRate = Rate(sum.CheckedCount, sum.TotalItems)
	if c != nil {
		sum.Score = c.Score
		sum.ScorePercentage = Rate(c.Score.Total, c.Score.MaxScore)
		sum.ConfidenceLevel = c.ConfidenceLevel
		sum.Judgment = c.Judgment
	}
	return sum
}

// Aggregate groups and summarizes in one step.
func Aggregate(c *models.ChecklistResult) Report {
	sections := GroupByCategory(c)
	return Report{
		Sections: sections,
		Summary:  Summarize(c, sections),
	}
}
