package scoring

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChecklist creates len(sizes) categories' worth of items; the first
// checked[i] items of category i are checked.
func buildChecklist(sizes, checked []int) *models.ChecklistResult {
	c := &models.ChecklistResult{
		Title:           "Scenario",
		Score:           models.Score{Total: 12, MaxScore: 20},
		ConfidenceLevel: 60,
		Judgment:        models.JudgmentCaution,
	}
	for ci, size := range sizes {
		cat := models.Categories[ci].ID
		for i := 0; i < size; i++ {
			c.Items = append(c.Items, models.CheckItem{
				ID:       fmt.Sprintf("%s-%d", cat, i),
				Category: cat,
				Checked:  i < checked[ci],
				Title:    fmt.Sprintf("Question %d", i),
			})
		}
	}
	return c
}

func TestGroupByCategoryScenario(t *testing.T) {
	c := buildChecklist([]int{6, 5, 5, 4}, []int{3, 5, 0, 4})

	sections := GroupByCategory(c)
	require.Len(t, sections, 4)

	rates := make([]int, len(sections))
	for i, s := range sections {
		rates[i] = s.CompletionRate
	}
	assert.Equal(t, []int{50, 100, 0, 100}, rates)

	sum := Summarize(c, sections)
	assert.Equal(t, 12, sum.CheckedCount)
	assert.Equal(t, 20, sum.TotalItems)
	assert.Equal(t, 60, sum.CompletionRate)
	assert.Equal(t, 60, sum.ScorePercentage)
}

func TestGroupByCategoryNil(t *testing.T) {
	sections := GroupByCategory(nil)
	assert.NotNil(t, sections)
	assert.Empty(t, sections)
}

func TestGroupByCategoryFixedOrder(t *testing.T) {
	c := &models.ChecklistResult{Items: []models.CheckItem{
		{ID: "z", Category: models.CategoryContext},
		{ID: "a", Category: models.CategoryCritical, Checked: true},
	}}
	sections := GroupByCategory(c)
	require.Len(t, sections, len(models.Categories))
	for i, s := range sections {
		assert.Equal(t, models.Categories[i].ID, s.Category.ID)
	}
	assert.Equal(t, 100, sections[0].CompletionRate)
	assert.Equal(t, 0, sections[1].CompletionRate, "empty category has rate 0")
	assert.Equal(t, 0, sections[3].CompletionRate)
}

func TestGroupByCategoryInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		sizes := make([]int, len(models.Categories))
		checked := make([]int, len(models.Categories))
		for i := range sizes {
			sizes[i] = rng.Intn(9)
			if sizes[i] > 0 {
				checked[i] = rng.Intn(sizes[i] + 1)
			}
		}
		c := buildChecklist(sizes, checked)

		for _, s := range GroupByCategory(c) {
			assert.Equal(t, len(s.Items), len(s.CheckedItems)+len(s.UncheckedItems))
			assert.Equal(t, Rate(len(s.CheckedItems), len(s.Items)), s.CompletionRate)
			if len(s.Items) == 0 {
				assert.Zero(t, s.CompletionRate)
			}
		}
	}
}

func TestGroupByCategoryIsPure(t *testing.T) {
	c := buildChecklist([]int{3, 2, 1, 0}, []int{1, 2, 0, 0})
	assert.Equal(t, Aggregate(c), Aggregate(c))
}

func TestRate(t *testing.T) {
	tests := []struct {
		part, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{5, 5, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rate(tt.part, tt.total), "Rate(%d, %d)", tt.part, tt.total)
	}
}

func TestFactsOf(t *testing.T) {
	c := buildChecklist([]int{6, 5, 5, 4}, []int{3, 5, 0, 4})
	f := FactsOf(Aggregate(c))

	assert.Equal(t, models.JudgmentCaution, f.Judgment)
	assert.Equal(t, 60, f.ConfidenceLevel)
	require.Len(t, f.Categories, 4)
	assert.Equal(t, CategoryFacts{ID: models.CategoryCritical, CompletionRate: 50, CheckedCount: 3, TotalCount: 6}, f.Categories[0])
}

func TestDiff(t *testing.T) {
	c := buildChecklist([]int{6, 5, 5, 4}, []int{3, 5, 0, 4})
	want := FactsOf(Aggregate(c))
	assert.Empty(t, Diff(want, want))

	got := FactsOf(Aggregate(c))
	got.Categories = append([]CategoryFacts(nil), got.Categories...)
	got.Categories[2].CompletionRate = 40
	got.Judgment = models.JudgmentAccept

	diffs := Diff(want, got)
	require.Len(t, diffs, 2)
	assert.Contains(t, diffs[0], "judgment")
	assert.Contains(t, diffs[1], "category 3")

	got.Categories = got.Categories[:3]
	assert.Contains(t, Diff(want, got)[1], "categories: want 4, got 3")
}
