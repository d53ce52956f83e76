package models

// Category groups checklist items. The order of Categories is the order every export uses.
type Category struct {
	ID             string
	NameKey        string
	Name           string
	DescriptionKey string
	Description    string
}

// Category identifiers.
const (
	CategoryCritical     = "critical"
	CategoryDetailed     = "detailed"
	CategoryVerification = "verification"
	CategoryContext      = "context"
)

// Categories is the fixed rubric, in display order.
var Categories = []Category{
	{
		ID:             CategoryCritical,
		NameKey:        "categories.critical.name",
		Name:           "Critical Evaluation",
		DescriptionKey: "categories.critical.description",
		Description:    "Source, authorship and date: the checks that decide whether the information can be trusted at all.",
	},
	{
		ID:             CategoryDetailed,
		NameKey:        "categories.detailed.name",
		Name:           "Detailed Analysis",
		DescriptionKey: "categories.detailed.description",
		Description:    "Evidence, logic and internal consistency of the claims.",
	},
	{
		ID:             CategoryVerification,
		NameKey:        "categories.verification.name",
		Name:           "Verification & Sources",
		DescriptionKey: "categories.verification.description",
		Description:    "Cross-checks against independent sources and primary data.",
	},
	{
		ID:             CategoryContext,
		NameKey:        "categories.context.name",
		Name:           "Context & Bias",
		DescriptionKey: "categories.context.description",
		Description:    "Motives, framing and what the information leaves out.",
	},
}

// CategoryByID looks up a category of the rubric.
func CategoryByID(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
