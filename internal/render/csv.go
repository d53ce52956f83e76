package render

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"github.com/raphaelgruber/credcheck/internal/models"
)

// CSVHeader is the first record of a CSV export.
var CSVHeader = []string{"id", "title", "description", "checked", "category"}

// CSVRenderer writes one row per item, in section order.
type CSVRenderer struct{}

func (CSVRenderer) Format() models.ExportFormat { return models.FormatCSV }

func (CSVRenderer) Render(ctx context.Context, doc *Document, progress ProgressFunc) (*Output, error) {
	t := NewTracker(2, progress)
	if err := t.Advance(ctx, StageEncode, "writing rows"); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := [][]string{CSVHeader}
	for _, s := range doc.Report.Sections {
		for _, it := range s.Items {
			records = append(records, []string{
				it.ID,
				doc.Text.Title(it),
				doc.Text.Description(it),
				strconv.FormatBool(it.Checked),
				it.Category,
			})
		}
	}
	if err := w.WriteAll(records); err != nil {
		return nil, models.NewExportError(models.CodeGenerationFailure, "write csv", err)
	}

	if err := t.Advance(ctx, StageFinalize, "csv ready"); err != nil {
		return nil, err
	}
	t.Done("csv export complete")
	return &Output{Data: buf.Bytes()}, nil
}
