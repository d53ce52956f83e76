package i18n

import "github.com/raphaelgruber/credcheck/internal/models"

// UI string keys used by the renderers.
const (
	KeyMetadata        = "export.metadata"
	KeyCreated         = "export.created"
	KeyScore           = "export.score"
	KeyConfidence      = "export.confidence"
	KeyLanguage        = "export.language"
	KeyCompletion      = "export.completion"
	KeyChecked         = "export.checked"
	KeyUnchecked       = "export.unchecked"
	KeyGuide           = "export.guide"
	KeyGoodExamples    = "export.good_examples"
	KeyBadExamples     = "export.bad_examples"
	KeyNotes           = "export.notes"
	KeySummary         = "export.summary"
	KeyTotalScore      = "export.total_score"
	KeyCheckedItems    = "export.checked_items"
	KeyJudgment        = "export.judgment"
	KeyTableOfContents = "export.table_of_contents"
	KeyGeneratedBy     = "export.generated_by"
	KeyPage            = "export.page"
)

// JudgmentKey returns the key of the short judgment label.
func JudgmentKey(j models.Judgment) string { return "judgment." + string(j) }

// JudgmentMessageKey returns the key of the judgment banner sentence.
func JudgmentMessageKey(j models.Judgment) string { return "judgment." + string(j) + ".message" }

var english = map[string]string{
	KeyMetadata:        "Metadata",
	KeyCreated:         "Created",
	KeyScore:           "Score",
	KeyConfidence:      "Confidence",
	KeyLanguage:        "Language",
	KeyCompletion:      "Completion",
	KeyChecked:         "Checked",
	KeyUnchecked:       "Not checked",
	KeyGuide:           "Guide",
	KeyGoodExamples:    "Good examples",
	KeyBadExamples:     "Bad examples",
	KeyNotes:           "Notes",
	KeySummary:         "Summary",
	KeyTotalScore:      "Total score",
	KeyCheckedItems:    "Checked items",
	KeyJudgment:        "Judgment",
	KeyTableOfContents: "Contents",
	KeyGeneratedBy:     "Generated by credcheck",
	KeyPage:            "Page",

	"judgment.accept":          "Accept",
	"judgment.caution":         "Caution",
	"judgment.reject":          "Reject",
	"judgment.pending":         "Pending",
	"judgment.accept.message":  "The information appears reliable.",
	"judgment.caution.message": "Verify the information before relying on it.",
	"judgment.reject.message":  "The information is not reliable.",
	"judgment.pending.message": "The evaluation is not finished yet.",
}

func init() {
	for _, c := range models.Categories {
		english[c.NameKey] = c.Name
		english[c.DescriptionKey] = c.Description
	}
}

// defaultText returns the English string for key, or the key itself when unknown.
func defaultText(key string) string {
	if v, ok := english[key]; ok {
		return v
	}
	return key
}
