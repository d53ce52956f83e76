// Package models defines the data structures shared by the credibility checklist and its exporters.
package models

import (
	"fmt"
	"slices"
	"time"
)

// Judgment is the final verdict chosen for an evaluated checklist.
type Judgment string

const (
	JudgmentAccept  Judgment = "accept"
	JudgmentCaution Judgment = "caution"
	JudgmentReject  Judgment = "reject"
	JudgmentPending Judgment = "pending"
)

// Valid reports whether j is one of the known judgments.
func (j Judgment) Valid() bool {
	switch j {
	case JudgmentAccept, JudgmentCaution, JudgmentReject, JudgmentPending:
		return true
	}
	return false
}

// Guide is the optional help content attached to a checklist item.
type Guide struct {
	Title        string   `json:"title" yaml:"title"`
	Content      string   `json:"content" yaml:"content"`
	GoodExamples []string `json:"goodExamples,omitempty" yaml:"good_examples,omitempty"`
	BadExamples  []string `json:"badExamples,omitempty" yaml:"bad_examples,omitempty"`
}

// CheckItem is one rubric question and its checked state.
type CheckItem struct {
	ID             string `json:"id" yaml:"id"`
	Category       string `json:"category" yaml:"category"`
	Checked        bool   `json:"checked" yaml:"checked"`
	Title          string `json:"title" yaml:"title"`
	Description    string `json:"description" yaml:"description"`
	Guide          *Guide `json:"guide,omitempty" yaml:"guide,omitempty"`
	TranslationKey string `json:"translationKey,omitempty" yaml:"translation_key,omitempty"`
}

// Score is the raw score of an evaluation.
type Score struct {
	Total    int `json:"total" yaml:"total"`
	MaxScore int `json:"maxScore" yaml:"max_score"`
}

// ChecklistResult is a fully evaluated checklist as handed over by the evaluation layer.
type ChecklistResult struct {
	ID              string      `json:"id,omitempty" yaml:"id,omitempty"`
	Title           string      `json:"title" yaml:"title"`
	Description     string      `json:"description" yaml:"description"`
	CreatedAt       time.Time   `json:"createdAt" yaml:"created_at"`
	Score           Score       `json:"score" yaml:"score"`
	ConfidenceLevel int         `json:"confidenceLevel" yaml:"confidence_level"`
	Judgment        Judgment    `json:"judgment" yaml:"judgment"`
	Items           []CheckItem `json:"items" yaml:"items"`
	Notes           string      `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Clone returns a deep copy so the copy can be read while the caller keeps mutating the original.
func (c *ChecklistResult) Clone() *ChecklistResult {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = make([]CheckItem, len(c.Items))
	for i, item := range c.Items {
		if item.Guide != nil {
			g := *item.Guide
			g.GoodExamples = slices.Clone(item.Guide.GoodExamples)
			g.BadExamples = slices.Clone(item.Guide.BadExamples)
			item.Guide = &g
		}
		out.Items[i] = item
	}
	return &out
}

// CheckedCount returns the number of checked items.
func (c *ChecklistResult) CheckedCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, item := range c.Items {
		if item.Checked {
			n++
		}
	}
	return n
}

// Validate reports malformed checklists as InvalidData errors.
func (c *ChecklistResult) Validate() error {
	if c == nil {
		return NewExportError(CodeInvalidData, "checklist is missing", nil)
	}
	if c.Score.MaxScore < 0 || c.Score.Total < 0 || c.Score.Total > c.Score.MaxScore {
		return NewExportError(CodeInvalidData,
			fmt.Sprintf("score %d/%d is out of range", c.Score.Total, c.Score.MaxScore), nil)
	}
	if c.ConfidenceLevel < 0 || c.ConfidenceLevel > 100 {
		return NewExportError(CodeInvalidData,
			fmt.Sprintf("confidence level %d is outside 0-100", c.ConfidenceLevel), nil)
	}
	if !c.Judgment.Valid() {
		return NewExportError(CodeInvalidData, fmt.Sprintf("unknown judgment %q", c.Judgment), nil)
	}

	seen := make(map[string]bool, len(c.Items))
	for i, item := range c.Items {
		if item.ID == "" {
			return NewExportError(CodeInvalidData, fmt.Sprintf("item %d has no id", i), nil)
		}
		if seen[item.ID] {
			return NewExportError(CodeInvalidData, fmt.Sprintf("duplicate item id %q", item.ID), nil)
		}
		seen[item.ID] = true
		if _, ok := CategoryByID(item.Category); !ok {
			return NewExportError(CodeInvalidData,
				fmt.Sprintf("item %q references unknown category %q", item.ID, item.Category), nil)
		}
	}
	return nil
}
