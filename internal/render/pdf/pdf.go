// Package pdf renders checklists as PDF using one of three strategies:
// a rasterized screenshot of the HTML export (pixel-perfect), an fpdf document
// with an embedded TrueType font (reliable-font), or a minimal hand-written PDF
// with the standard Helvetica font (text-based).
package pdf

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/render"
)

// Config holds the tunables of the PDF strategies.
type Config struct {
	// FontPath and BoldFontPath point at TrueType fonts for reliable-font
	// mode. Empty means the embedded Go fonts.
	FontPath     string
	BoldFontPath string

	ViewportWidth   int
	Scale           float64
	MaxCanvasHeight int
	JPEGQuality     int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ViewportWidth:   1024,
		Scale:           1.5,
		MaxCanvasHeight: 32767,
		JPEGQuality:     85,
	}
}

// Renderer dispatches a PDF export to the strategy selected by the options.
type Renderer struct {
	cfg    Config
	raster Rasterizer
	logger *slog.Logger
}

// New creates a PDF renderer. raster may be nil, in which case pixel-perfect
// exports fail with an unsupported-feature error.
func New(cfg Config, raster Rasterizer, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{cfg: cfg, raster: raster, logger: logger}
}

func (r *Renderer) Format() models.ExportFormat { return models.FormatPDF }

// Render validates the mode flags before any work starts, then runs exactly one strategy.
func (r *Renderer) Render(ctx context.Context, doc *render.Document, progress render.ProgressFunc) (*render.Output, error) {
	mode, err := doc.Options.PDFMode()
	if err != nil {
		return nil, err
	}

	var data []byte
	switch mode {
	case models.PDFModeTextBased:
		data, err = r.renderText(ctx, doc, progress)
	case models.PDFModeReliableFont:
		data, err = r.renderReliable(ctx, doc, progress)
	case models.PDFModePixelPerfect:
		data, err = r.renderPixel(ctx, doc, progress)
	default:
		return nil, models.Errorf(models.CodeUnsupportedFeature, "pdf mode %q", mode)
	}
	if err != nil {
		r.logger.Debug("pdf strategy failed", "mode", mode, "error", err)
		return nil, err
	}
	return &render.Output{Data: data, Mode: mode}, nil
}
