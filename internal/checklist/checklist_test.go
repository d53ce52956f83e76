package checklist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/credcheck/internal/models"
)

const yamlChecklist = `
id: chk-42
title: Flyer about tap water
created_at: 2026-02-10T08:00:00Z
score:
  total: 3
  max_score: 5
confidence_level: 70
judgment: caution
notes: |
  Called the utility.
items:
  - id: src
    category: critical
    checked: true
    title: Is the source named?
    translation_key: q.source
    guide:
      title: Sources
      content: Look for a masthead.
      good_examples: [Named newspaper]
  - id: data
    category: verification
    title: Is there primary data?
`

const jsonChecklist = `{
  "title": "Flyer about tap water",
  "createdAt": "2026-02-10T08:00:00Z",
  "score": {"total": 1, "maxScore": 2},
  "confidenceLevel": 40,
  "judgment": "reject",
  "items": [{"id": "src", "category": "critical", "checked": true, "title": "Is the source named?"}]
}`

func TestDecodeYAML(t *testing.T) {
	c, err := Decode(strings.NewReader(yamlChecklist))
	require.NoError(t, err)

	assert.Equal(t, "chk-42", c.ID)
	assert.Equal(t, time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC), c.CreatedAt.UTC())
	assert.Equal(t, models.Score{Total: 3, MaxScore: 5}, c.Score)
	assert.Equal(t, models.JudgmentCaution, c.Judgment)
	assert.Equal(t, "Called the utility.\n", c.Notes)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "q.source", c.Items[0].TranslationKey)
	require.NotNil(t, c.Items[0].Guide)
	assert.Equal(t, []string{"Named newspaper"}, c.Items[0].Guide.GoodExamples)
	assert.False(t, c.Items[1].Checked)
}

func TestDecodeJSON(t *testing.T) {
	c, err := Decode(strings.NewReader(jsonChecklist))
	require.NoError(t, err)

	assert.Equal(t, models.Score{Total: 1, MaxScore: 2}, c.Score)
	assert.Equal(t, 40, c.ConfidenceLevel)
	assert.Equal(t, models.JudgmentReject, c.Judgment)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "  \n", ErrEmpty},
		{"unknown field", "title: x\nverdict: accept\n", models.ErrInvalidData},
		{"bad judgment", "title: x\njudgment: maybe\n", models.ErrInvalidData},
		{"score above max", "title: x\njudgment: accept\nscore: {total: 3, max_score: 2}\n", models.ErrInvalidData},
		{"unknown category", "title: x\njudgment: accept\nitems: [{id: a, category: vibes}]\n", models.ErrInvalidData},
		{"broken json", `{"title": `, models.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "check.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlChecklist), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Flyer about tap water", c.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
