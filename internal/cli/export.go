package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/raphaelgruber/credcheck/internal/checklist"
	"github.com/raphaelgruber/credcheck/internal/export"
	"github.com/raphaelgruber/credcheck/internal/models"
)

var (
	exportFormats       []string
	exportOut           string
	exportText          bool
	exportReliable      bool
	exportPixel         bool
	exportGuides        bool
	exportNotes         bool
	exportSummary       bool
	exportSectionBreaks bool
	exportLang          string
	exportWatermark     string
	exportTOC           bool
	exportPriority      int
	exportFallback      bool
	exportPlain         bool
	exportStats         bool
)

var exportCmd = &cobra.Command{
	Use:   "export <checklist>",
	Short: "Export an evaluated checklist",
	Long: `Export an evaluated checklist (YAML or JSON) to one or more formats.

Each format is queued as its own export. Files are written to the output
directory as <title>-<timestamp>.<ext>.

PDF exports need exactly one mode:
  --text           standard Helvetica, Latin text only, smallest files
  --reliable       embedded TrueType font, bookmarks, watermark, contents
  --pixel-perfect  screenshot of the HTML export in a headless browser

Examples:
  credcheck export check.yaml -f html,markdown
  credcheck export check.yaml -f pdf --reliable --toc --watermark DRAFT
  credcheck export check.yaml -f pdf --pixel-perfect --fallback -o out/`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringSliceVarP(&exportFormats, "format", "f", []string{"pdf"}, "formats: pdf, html, markdown, json, csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory")
	exportCmd.Flags().BoolVar(&exportText, "text", false, "text-based PDF")
	exportCmd.Flags().BoolVar(&exportReliable, "reliable", false, "reliable-font PDF")
	exportCmd.Flags().BoolVar(&exportPixel, "pixel-perfect", false, "pixel-perfect PDF")
	exportCmd.Flags().BoolVar(&exportGuides, "guides", true, "include item guides")
	exportCmd.Flags().BoolVar(&exportNotes, "notes", true, "include evaluator notes")
	exportCmd.Flags().BoolVar(&exportSummary, "summary", true, "include the summary")
	exportCmd.Flags().BoolVar(&exportSectionBreaks, "section-breaks", false, "start each category on a new page")
	exportCmd.Flags().StringVar(&exportLang, "lang", "", "document language (default from CREDCHECK_LANG or the translation bundle)")
	exportCmd.Flags().StringVar(&exportWatermark, "watermark", "", "watermark text (reliable-font PDF)")
	exportCmd.Flags().BoolVar(&exportTOC, "toc", false, "table of contents (reliable-font PDF)")
	exportCmd.Flags().IntVar(&exportPriority, "priority", 0, "queue priority, higher runs first")
	exportCmd.Flags().BoolVar(&exportFallback, "fallback", false, "retry a failed pixel-perfect PDF in reliable-font mode")
	exportCmd.Flags().BoolVar(&exportPlain, "plain", false, "plain progress lines even on a terminal")
	exportCmd.Flags().BoolVar(&exportStats, "stats", false, "print export statistics")
}

// exportOutcome is what happened to one requested format.
type exportOutcome struct {
	format   models.ExportFormat
	item     export.QueueItem
	path     string
	fellBack bool
	err      error
}

func runExport(cmd *cobra.Command, args []string) error {
	c, err := checklist.Load(args[0])
	if err != nil {
		return err
	}
	text, err := textResolver()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(exportOut, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	o := newOrchestrator(text)
	defer o.Close()

	// Every request is validated before anything renders.
	var items []export.QueueItem
	for _, f := range exportFormats {
		opts := exportOptions(models.ExportFormat(strings.ToLower(strings.TrimSpace(f))))
		id, err := o.Enqueue(c, opts, exportPriority)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		item, err := o.Item(id)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	outcomes := make([]exportOutcome, len(items))
	var g errgroup.Group
	collectAll := func() {
		for i, it := range items {
			g.Go(func() error {
				outcomes[i] = collect(ctx, o, it)
				return outcomes[i].err
			})
		}
	}

	if !exportPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		cancelAll := func() {
			for _, it := range items {
				_ = o.Cancel(it.ID)
			}
		}
		start := func() {
			o.Start(ctx)
			collectAll()
		}
		if err := runProgressUI(o, items, start, cancelAll); err != nil {
			return err
		}
	} else {
		for _, it := range items {
			unsubscribe, err := o.Subscribe(it.ID, plainProgress(itemLabel(it)))
			if err != nil {
				return err
			}
			defer unsubscribe()
		}
		o.Start(ctx)
		collectAll()
	}

	waitErr := g.Wait()
	for _, out := range outcomes {
		printOutcome(out)
	}
	if exportStats {
		fmt.Println()
		printStatistics()
	}
	return waitErr
}

func exportOptions(format models.ExportFormat) models.ExportOptions {
	opts := models.ExportOptions{
		Format:         format,
		IncludeGuides:  exportGuides,
		IncludeNotes:   exportNotes,
		IncludeSummary: exportSummary,
		SectionBreaks:  exportSectionBreaks && format != models.FormatJSON && format != models.FormatCSV,
		Language:       exportLang,
	}
	if opts.Language == "" && cfg.Translations == "" {
		opts.Language = cfg.Language
	}
	if format == models.FormatPDF {
		opts.TextMode = exportText
		opts.ReliableMode = exportReliable
		opts.PixelPerfectMode = exportPixel
		opts.Watermark = exportWatermark
		opts.TableOfContents = exportTOC
	}
	return opts
}

// collect waits for one export, falls back from pixel-perfect to reliable-font
// when asked to, and writes the file.
func collect(ctx context.Context, o *export.Orchestrator, queued export.QueueItem) exportOutcome {
	out := exportOutcome{format: queued.Options.Format}

	item, err := o.Wait(ctx, queued.ID)
	if err != nil {
		out.err = err
		return out
	}

	if exportFallback && item.Status == models.StatusFailed && item.Options.PixelPerfectMode &&
		!errors.Is(item.Error, models.ErrCancelled) {
		logger.Warn("pixel-perfect export failed, retrying with reliable-font",
			"item_id", item.ID, "error", item.Error)
		opts := item.Options
		opts.PixelPerfectMode, opts.ReliableMode = false, true
		id, err := o.Enqueue(item.Checklist, opts, item.Priority)
		if err != nil {
			out.item, out.err = item, err
			return out
		}
		out.fellBack = true
		if item, err = o.Wait(ctx, id); err != nil {
			out.err = err
			return out
		}
	}
	out.item = item

	if item.Status != models.StatusCompleted {
		out.err = fmt.Errorf("%s export %s: %w", out.format, item.Status, item.Error)
		return out
	}

	out.path = filepath.Join(exportOut, item.Result.Filename)
	if err := os.WriteFile(out.path, item.Result.Data, 0644); err != nil {
		out.err = fmt.Errorf("write %s: %w", out.path, err)
	}
	return out
}

// plainProgress prints one line per stage for non-interactive output.
func plainProgress(label string) func(export.Event) {
	return func(ev export.Event) {
		switch ev.Type {
		case export.EventStarted:
			fmt.Fprintf(os.Stderr, "%s: started\n", label)
		case export.EventProgress:
			fmt.Fprintf(os.Stderr, "%s: %3.0f%% %s\n", label, ev.Progress.Percentage, ev.Progress.Message)
		}
	}
}

func printOutcome(out exportOutcome) {
	label := string(out.format)
	if out.fellBack {
		label += " (fell back to reliable-font)"
	}
	if out.err != nil {
		fmt.Printf("✗ %s: %v\n", label, out.err)
		return
	}
	r := out.item.Result
	fmt.Printf("✓ %s: %s (%s, %s)\n", label, out.path, humanize.Bytes(uint64(r.FileSize)), r.Duration.Round(time.Millisecond))
}

// printStatistics displays the export statistics of this run.
func printStatistics() {
	stats := statistics.Snapshot()
	fmt.Printf("Export Statistics\n")
	fmt.Printf("═══════════════════════════════════════\n")
	fmt.Printf("Exports: %d, success rate %.1f%%\n", stats.TotalExports, stats.SuccessRate)
	fmt.Printf("Time: avg %s\n", stats.AverageGenerationTime.Round(time.Millisecond))
	fmt.Printf("Size: avg %s\n", humanize.Bytes(uint64(stats.AverageFileSize)))
	if stats.LastExportAt != nil {
		fmt.Printf("Last export: %s\n", humanize.Time(*stats.LastExportAt))
	}
	fmt.Printf("Uptime: %s\n", statistics.Uptime().Round(time.Second))

	breakdown := statistics.Breakdown()
	if len(breakdown) > 0 {
		fmt.Printf("\nBy Format:\n")
		for _, f := range models.Formats {
			s, ok := breakdown[f]
			if !ok {
				continue
			}
			fmt.Printf("  %-10s %3d calls, %3d ok, time avg %.1fms, min %dms, max %dms\n",
				f, s.Count, s.Successes, s.AvgTimeMs, s.MinTimeMs, s.MaxTimeMs)
		}
	}
	if len(stats.ExportsByMode) > 0 {
		fmt.Printf("\nBy PDF Mode:\n")
		for _, m := range []models.PDFMode{models.PDFModePixelPerfect, models.PDFModeReliableFont, models.PDFModeTextBased} {
			if n := stats.ExportsByMode[m]; n > 0 {
				fmt.Printf("  %-14s %d\n", m, n)
			}
		}
	}
}
