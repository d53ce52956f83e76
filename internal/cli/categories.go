package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/credcheck/internal/i18n"
	"github.com/raphaelgruber/credcheck/internal/models"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the checklist categories",
	Long: `List the rubric categories in the order every export uses, with their
names in the configured language.

Examples:
  credcheck categories
  CREDCHECK_TRANSLATIONS=ja.yaml credcheck categories`,
	Args: cobra.NoArgs,
	RunE: runCategories,
}

func runCategories(cmd *cobra.Command, args []string) error {
	text, err := textResolver()
	if err != nil {
		return err
	}

	fmt.Printf("Categories (%s)\n", i18n.LanguageName(text.Language()))
	fmt.Printf("═══════════════════════════════════════\n")
	for i, c := range models.Categories {
		fmt.Printf("%d. %-14s %s\n", i+1, c.ID, text.T(c.NameKey))
		fmt.Printf("   %s\n", text.T(c.DescriptionKey))
	}
	return nil
}
