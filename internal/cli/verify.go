package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/credcheck/internal/checklist"
	"github.com/raphaelgruber/credcheck/internal/parser"
	"github.com/raphaelgruber/credcheck/internal/scoring"
)

var verifyChecklist string

var verifyCmd = &cobra.Command{
	Use:   "verify <export>",
	Short: "Check an export's figures against its checklist",
	Long: `Read the score, confidence, judgment and per-category completion back
out of an HTML, Markdown or JSON export and compare them with the figures
computed directly from the checklist.

JSON exports can be verified on their own: the checklist is rebuilt from the
exported items. HTML and Markdown exports need --checklist.

Examples:
  credcheck verify report.json
  credcheck verify report.html --checklist check.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyChecklist, "checklist", "c", "", "checklist the export was made from")
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}

	var got scoring.Facts
	var want *scoring.Facts
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		got, err = parser.ExtractJSONFacts(data)
		if err == nil && verifyChecklist == "" {
			_, rebuilt, perr := parser.ParseJSONExport(data)
			if perr != nil {
				return perr
			}
			f := scoring.FactsOf(scoring.Aggregate(rebuilt))
			want = &f
		}
	case ".md", ".markdown":
		got, err = parser.ExtractMarkdownFacts(string(data))
	case ".html", ".htm":
		got, err = parser.ExtractHTMLFacts(bytes.NewReader(data))
	default:
		return fmt.Errorf("cannot verify %s files", ext)
	}
	if err != nil {
		return fmt.Errorf("extract facts: %w", err)
	}

	if want == nil {
		if verifyChecklist == "" {
			return fmt.Errorf("--checklist is required for %s", filepath.Ext(path))
		}
		c, err := checklist.Load(verifyChecklist)
		if err != nil {
			return err
		}
		f := scoring.FactsOf(scoring.Aggregate(c))
		want = &f
	}

	diffs := scoring.Diff(*want, got)
	if len(diffs) == 0 {
		fmt.Printf("✓ %s: score %d/%d, %d categories agree\n",
			path, got.Score.Total, got.Score.MaxScore, len(got.Categories))
		return nil
	}
	for _, d := range diffs {
		fmt.Printf("✗ %s\n", d)
	}
	logger.Warn("export disagrees with checklist", "file", path, "differences", len(diffs))
	return fmt.Errorf("%s: %d figures differ", path, len(diffs))
}
