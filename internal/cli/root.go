// Package cli provides the command-line interface for credcheck.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/credcheck/internal/config"
	"github.com/raphaelgruber/credcheck/internal/export"
	"github.com/raphaelgruber/credcheck/internal/i18n"
	"github.com/raphaelgruber/credcheck/internal/metrics"
	"github.com/raphaelgruber/credcheck/internal/render"
	"github.com/raphaelgruber/credcheck/internal/render/pdf"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and logger
	cfg        config.Config
	logger     = slog.Default()
	closeLog   = func() error { return nil }
	statistics = metrics.NewCollector()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "credcheck",
	Short: "Export credibility checklists",
	Long: `Credcheck turns an evaluated credibility checklist into shareable
documents: PDF, HTML, Markdown, JSON and CSV.

Every format carries the same scores, per-category completion rates and
judgment, and can be verified against the checklist it came from.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		stderrLevel := slog.LevelWarn
		if verbose {
			stderrLevel = cfg.LogLevel
		}
		logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel, stderrLevel)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	},
}

// textResolver loads the configured translation bundle, if any.
func textResolver() (i18n.TextResolver, error) {
	if cfg.Translations == "" {
		return i18n.Canonical{}, nil
	}
	b, err := i18n.LoadBundleFile(cfg.Translations)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	return i18n.NewResolver(b), nil
}

// renderers returns every export format wired to the configured PDF strategies.
func renderers() []render.Renderer {
	pdfCfg := pdf.Config{
		FontPath:        cfg.PDFFontPath,
		BoldFontPath:    cfg.PDFFontBoldPath,
		ViewportWidth:   cfg.PixelViewportWidth,
		Scale:           cfg.PixelScale,
		MaxCanvasHeight: cfg.MaxCanvasHeight,
		JPEGQuality:     cfg.PixelJPEGQuality,
	}
	raster := &pdf.BrowserRasterizer{Bin: cfg.BrowserBin, Logger: logger}
	return append(render.Standard(), pdf.New(pdfCfg, raster, logger))
}

// newOrchestrator builds an export queue from the loaded config.
func newOrchestrator(text i18n.TextResolver) *export.Orchestrator {
	return export.New(export.Config{
		Timeout:     cfg.ExportTimeout,
		MaxFileSize: cfg.MaxFileSize,
		Concurrency: cfg.Concurrency,
	}, renderers(), text, statistics, logger)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at the configured level")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(categoriesCmd)
}
