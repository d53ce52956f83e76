package models

import (
	"time"
)

// ExportFormat selects the renderer.
type ExportFormat string

const (
	FormatPDF      ExportFormat = "pdf"
	FormatHTML     ExportFormat = "html"
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
	FormatCSV      ExportFormat = "csv"
)

// Formats lists every supported export format.
var Formats = []ExportFormat{FormatPDF, FormatHTML, FormatJSON, FormatMarkdown, FormatCSV}

// MIMEType returns the content type of files in this format.
func (f ExportFormat) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatHTML:
		return "text/html"
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown"
	case FormatCSV:
		return "text/csv"
	}
	return "application/octet-stream"
}

// Extension returns the file extension without the dot.
func (f ExportFormat) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Valid reports whether f is a known format.
func (f ExportFormat) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// PDFMode is the PDF rendering strategy. The empty value means no PDF strategy.
type PDFMode string

const (
	PDFModePixelPerfect PDFMode = "pixel-perfect"
	PDFModeReliableFont PDFMode = "reliable-font"
	PDFModeTextBased    PDFMode = "text-based"
)

// ExportOptions configures one export request.
type ExportOptions struct {
	Format         ExportFormat `json:"format"`
	IncludeGuides  bool         `json:"includeGuides"`
	IncludeNotes   bool         `json:"includeNotes"`
	IncludeSummary bool         `json:"includeSummary"`
	SectionBreaks  bool         `json:"sectionBreaks"`

	// Exactly one of these must be set when Format is pdf.
	TextMode         bool `json:"textMode,omitempty"`
	ReliableMode     bool `json:"reliableMode,omitempty"`
	PixelPerfectMode bool `json:"pixelPerfectMode,omitempty"`

	// Language overrides the resolver language for document metadata.
	Language string `json:"language,omitempty"`

	// Reliable-font only.
	Watermark       string `json:"watermark,omitempty"`
	TableOfContents bool   `json:"tableOfContents,omitempty"`
}

// PDFMode builds the PDF strategy variant from the three mode flags.
// It is the only place the mutual exclusivity of the flags is decided.
func (o ExportOptions) PDFMode() (PDFMode, error) {
	var modes []PDFMode
	if o.PixelPerfectMode {
		modes = append(modes, PDFModePixelPerfect)
	}
	if o.ReliableMode {
		modes = append(modes, PDFModeReliableFont)
	}
	if o.TextMode {
		modes = append(modes, PDFModeTextBased)
	}

	switch len(modes) {
	case 1:
		return modes[0], nil
	case 0:
		return "", Errorf(CodeInvalidOptions, "pdf export needs one of textMode, reliableMode or pixelPerfectMode").
			WithHint("choose a PDF mode")
	default:
		return "", Errorf(CodeInvalidOptions, "pdf modes %v are mutually exclusive", modes).
			WithHint("choose exactly one PDF mode")
	}
}

func (o ExportOptions) anyPDFFlag() bool {
	return o.TextMode || o.ReliableMode || o.PixelPerfectMode
}

// Validate checks the option combination before an export is queued.
func (o ExportOptions) Validate() error {
	if !o.Format.Valid() {
		return Errorf(CodeInvalidOptions, "unknown export format %q", o.Format)
	}

	if o.Format == FormatPDF {
		mode, err := o.PDFMode()
		if err != nil {
			return err
		}
		if mode != PDFModeReliableFont && (o.Watermark != "" || o.TableOfContents) {
			return Errorf(CodeUnsupportedFeature, "watermark and table of contents need reliable-font mode, not %s", mode)
		}
		return nil
	}

	if o.anyPDFFlag() {
		return Errorf(CodeUnsupportedFeature, "PDF mode flags do not apply to %s exports", o.Format)
	}
	if o.Watermark != "" || o.TableOfContents {
		return Errorf(CodeUnsupportedFeature, "watermark and table of contents are only available for PDF")
	}
	if o.SectionBreaks && (o.Format == FormatJSON || o.Format == FormatCSV) {
		return Errorf(CodeUnsupportedFeature, "section breaks are not supported for %s", o.Format)
	}
	return nil
}

// ExportProgress reports how far one export has come.
type ExportProgress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Stage      string  `json:"stage"`
	Message    string  `json:"message"`
	Percentage float64 `json:"percentage"`
	IsComplete bool    `json:"isComplete"`
}

// ExportResult is the outcome of one export.
type ExportResult struct {
	Success  bool          `json:"success"`
	Format   ExportFormat  `json:"format"`
	Filename string        `json:"filename,omitempty"`
	MIMEType string        `json:"mimeType,omitempty"`
	Data     []byte        `json:"-"`
	FileSize int64         `json:"fileSize"`
	Error    *ExportError  `json:"-"`
	Duration time.Duration `json:"duration"`
	Mode     PDFMode       `json:"mode,omitempty"`
}

// QueueStatus is the lifecycle state of a queued export.
type QueueStatus string

const (
	StatusPending    QueueStatus = "pending"
	StatusProcessing QueueStatus = "processing"
	StatusCompleted  QueueStatus = "completed"
	StatusFailed     QueueStatus = "failed"
	StatusCancelled  QueueStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s QueueStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanTransition reports whether from→to is an allowed lifecycle step.
func CanTransition(from, to QueueStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusCancelled
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	}
	return false
}

// ExportStatistics aggregates finished exports.
type ExportStatistics struct {
	TotalExports          int64                  `json:"totalExports"`
	ExportsByFormat       map[ExportFormat]int64 `json:"exportsByFormat"`
	ExportsByMode         map[PDFMode]int64      `json:"exportsByMode"`
	SuccessRate           float64                `json:"successRate"`
	AverageGenerationTime time.Duration          `json:"averageGenerationTime"`
	AverageFileSize       int64                  `json:"averageFileSize"`
	LastExportAt          *time.Time             `json:"lastExportAt,omitempty"`
}
