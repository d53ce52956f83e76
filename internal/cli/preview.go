package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/credcheck/internal/checklist"
	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/parser"
	"github.com/raphaelgruber/credcheck/internal/render"
)

var (
	previewGuides bool
	previewLang   string
	previewRaw    bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <checklist>",
	Short: "Show the Markdown export in the terminal",
	Long: `Render the Markdown export of a checklist and display it with terminal
styling. Nothing is written to disk.

Examples:
  credcheck preview check.yaml
  credcheck preview check.yaml --guides=false
  credcheck preview check.yaml --raw > check.md`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().BoolVar(&previewGuides, "guides", true, "include item guides")
	previewCmd.Flags().StringVar(&previewLang, "lang", "", "document language")
	previewCmd.Flags().BoolVar(&previewRaw, "raw", false, "print the Markdown source instead")
}

func runPreview(cmd *cobra.Command, args []string) error {
	c, err := checklist.Load(args[0])
	if err != nil {
		return err
	}
	text, err := textResolver()
	if err != nil {
		return err
	}

	opts := models.ExportOptions{
		Format:         models.FormatMarkdown,
		IncludeGuides:  previewGuides,
		IncludeNotes:   true,
		IncludeSummary: true,
		Language:       previewLang,
	}
	doc := render.NewDocument(c, opts, text, time.Now())
	out, err := render.MarkdownRenderer{}.Render(cmd.Context(), doc, nil)
	if err != nil {
		return err
	}

	if previewRaw {
		_, err := os.Stdout.Write(out.Data)
		return err
	}

	md, err := parser.ParseMarkdown(string(out.Data))
	if err != nil {
		return err
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w - 4
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	styled, err := renderer.Render(md.Content)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	fmt.Print(styled)
	return nil
}
