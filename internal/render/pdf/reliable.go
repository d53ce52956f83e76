package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/raphaelgruber/credcheck/internal/i18n"
	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/render"
)

const bodyFont = "body"

type rgb struct{ r, g, b int }

var judgmentFill = map[models.Judgment]rgb{
	models.JudgmentAccept:  {235, 251, 238},
	models.JudgmentCaution: {255, 249, 219},
	models.JudgmentReject:  {255, 245, 245},
	models.JudgmentPending: {241, 243, 245},
}

// fontBytes returns the regular and bold TrueType data for reliable-font mode.
func (r *Renderer) fontBytes() (regular, bold []byte, err error) {
	regular, bold = goregular.TTF, gobold.TTF
	if r.cfg.FontPath != "" {
		if regular, err = os.ReadFile(r.cfg.FontPath); err != nil {
			return nil, nil, fmt.Errorf("read font: %w", err)
		}
		// A custom regular font without a bold face is used for both.
		bold = regular
	}
	if r.cfg.BoldFontPath != "" {
		if bold, err = os.ReadFile(r.cfg.BoldFontPath); err != nil {
			return nil, nil, fmt.Errorf("read bold font: %w", err)
		}
	}
	return regular, bold, nil
}

func (r *Renderer) renderReliable(ctx context.Context, doc *render.Document, progress render.ProgressFunc) ([]byte, error) {
	t := render.NewTracker(4, progress)
	if err := t.Advance(ctx, render.StageLayout, "loading fonts"); err != nil {
		return nil, err
	}
	regular, bold, err := r.fontBytes()
	if err != nil {
		return nil, models.NewExportError(models.CodeGenerationFailure, "load fonts", err).
			WithHint("check CREDCHECK_PDF_FONT_PATH")
	}
	o := render.BuildOutline(doc)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetCatalogSort(true)
	pdf.AddUTF8FontFromBytes(bodyFont, "", regular)
	pdf.AddUTF8FontFromBytes(bodyFont, "B", bold)
	pdf.SetTitle(o.Title, true)
	pdf.SetCreator("credcheck "+render.Version, true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	if doc.Options.Watermark != "" {
		mark := doc.Options.Watermark
		pdf.SetHeaderFunc(func() { drawWatermark(pdf, mark) })
	}
	pageText := doc.Text.T(i18n.KeyPage)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont(bodyFont, "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s - %s %d/{nb}", o.GeneratedBy, pageText, pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	if err := t.Advance(ctx, render.StagePaginate, "laying out pages"); err != nil {
		return nil, err
	}
	pdf.AddPage()

	var links []int
	if doc.Options.TableOfContents {
		links = writeContents(pdf, o, doc.Text.T(i18n.KeyTableOfContents))
		pdf.AddPage()
	}

	writeHeader(pdf, o)
	for i, s := range o.Sections {
		if err := t.Check(ctx); err != nil {
			return nil, err
		}
		if s.PageBreak {
			pdf.AddPage()
		}
		if links != nil {
			pdf.SetLink(links[i], -1, -1)
			pdf.RegisterAlias(tocAlias(s.ID), strconv.Itoa(pdf.PageNo()))
		}
		pdf.Bookmark(s.Heading, 0, -1)
		writeSection(pdf, s)
	}
	if o.Summary != nil {
		pdf.Bookmark(o.Summary.Heading, 0, -1)
		writeSummary(pdf, o.Summary)
	}

	if err := t.Advance(ctx, render.StageEncode, "encoding pdf"); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, models.NewExportError(models.CodeGenerationFailure, "write pdf", err).
			WithHint("try text-based mode")
	}

	if err := t.Advance(ctx, render.StageFinalize, "pdf ready"); err != nil {
		return nil, err
	}
	t.Done("pdf export complete")
	return buf.Bytes(), nil
}

func tocAlias(id string) string {
	return "{toc:" + id + "}"
}

// writeContents fills the first page with linked section entries. Page
// numbers are aliases resolved when the section is reached.
func writeContents(pdf *fpdf.Fpdf, o *render.Outline, heading string) []int {
	pdf.SetFont(bodyFont, "B", 16)
	pdf.CellFormat(0, 10, heading, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(bodyFont, "", 11)
	links := make([]int, len(o.Sections))
	for i, s := range o.Sections {
		links[i] = pdf.AddLink()
		pdf.CellFormat(150, 8, s.Heading, "", 0, "L", false, links[i], "")
		pdf.CellFormat(0, 8, tocAlias(s.ID), "", 1, "R", false, links[i], "")
	}
	return links
}

func writeHeader(pdf *fpdf.Fpdf, o *render.Outline) {
	pdf.SetFont(bodyFont, "B", 20)
	pdf.MultiCell(0, 9, o.Title, "", "L", false)
	if o.Description != "" {
		pdf.SetFont(bodyFont, "", 10)
		pdf.MultiCell(0, 5, o.Description, "", "L", false)
	}
	pdf.Ln(3)

	heading(pdf, o.MetadataHeading)
	writeFields(pdf, o.Metadata)

	if o.Notes != "" {
		heading(pdf, o.NotesHeading)
		pdf.SetFont(bodyFont, "", 10)
		pdf.MultiCell(0, 5, o.Notes, "", "L", false)
	}
}

func writeSection(pdf *fpdf.Fpdf, s render.Section) {
	heading(pdf, s.Heading)
	if s.Description != "" {
		pdf.SetFont(bodyFont, "", 9)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 4.5, s.Description, "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	// Completion bar.
	x, y := pdf.GetXY()
	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	barWidth := width - left - right
	pdf.SetFillColor(228, 231, 235)
	pdf.Rect(x, y+1, barWidth, 2.5, "F")
	pdf.SetFillColor(59, 130, 246)
	pdf.Rect(x, y+1, barWidth*float64(s.CompletionRate)/100, 2.5, "F")
	pdf.Ln(5)

	pdf.SetFont(bodyFont, "", 10)
	pdf.CellFormat(0, 6, s.Completion, "", 1, "L", false, 0, "")

	for _, it := range s.Items {
		writeItem(pdf, it)
	}
}

func writeItem(pdf *fpdf.Fpdf, it render.Item) {
	mark := "[ ]"
	if it.Checked {
		mark = "[x]"
	}
	pdf.Ln(2)
	pdf.SetFont(bodyFont, "B", 11)
	pdf.MultiCell(0, 5.5, mark+" "+it.Title, "", "L", false)

	left, _, _, _ := pdf.GetMargins()
	pdf.SetLeftMargin(left + 7)
	defer pdf.SetLeftMargin(left)
	pdf.SetX(left + 7)

	pdf.SetFont(bodyFont, "", 8)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 4.5, it.Status, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	if it.Description != "" {
		pdf.SetFont(bodyFont, "", 10)
		pdf.MultiCell(0, 5, it.Description, "", "L", false)
	}

	g := it.Guide
	if g == nil {
		return
	}
	pdf.SetFont(bodyFont, "B", 9)
	pdf.CellFormat(0, 5, g.Heading, "", 1, "L", false, 0, "")
	pdf.SetFont(bodyFont, "", 9)
	for _, line := range g.Lines {
		pdf.MultiCell(0, 4.5, line, "", "L", false)
	}
	writeExamples(pdf, g.GoodLabel, g.Good)
	writeExamples(pdf, g.BadLabel, g.Bad)
}

func writeExamples(pdf *fpdf.Fpdf, label string, examples []string) {
	if len(examples) == 0 {
		return
	}
	pdf.SetFont(bodyFont, "B", 9)
	pdf.CellFormat(0, 5, label, "", 1, "L", false, 0, "")
	pdf.SetFont(bodyFont, "", 9)
	for _, ex := range examples {
		pdf.MultiCell(0, 4.5, "- "+ex, "", "L", false)
	}
}

func writeSummary(pdf *fpdf.Fpdf, sum *render.SummaryBlock) {
	heading(pdf, sum.Heading)
	writeFields(pdf, sum.Fields)

	c, ok := judgmentFill[sum.Judgment]
	if !ok {
		c = judgmentFill[models.JudgmentPending]
	}
	pdf.Ln(2)
	pdf.SetFillColor(c.r, c.g, c.b)
	pdf.SetFont(bodyFont, "B", 11)
	pdf.MultiCell(0, 7, sum.JudgmentLabel+": "+sum.JudgmentMessage, "", "L", true)
}

func writeFields(pdf *fpdf.Fpdf, fields []render.Field) {
	for _, f := range fields {
		pdf.SetFont(bodyFont, "B", 10)
		pdf.CellFormat(45, 6, f.Label, "", 0, "L", false, 0, "")
		pdf.SetFont(bodyFont, "", 10)
		pdf.MultiCell(0, 6, f.Value, "", "L", false)
	}
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.Ln(4)
	pdf.SetFont(bodyFont, "B", 14)
	pdf.MultiCell(0, 7, text, "", "L", false)
	pdf.Ln(1)
}

// drawWatermark writes rotated translucent text across the page.
func drawWatermark(pdf *fpdf.Fpdf, text string) {
	w, h := pdf.GetPageSize()
	x, y := pdf.GetXY()

	pdf.SetFont(bodyFont, "B", 54)
	pdf.SetTextColor(180, 180, 180)
	pdf.SetAlpha(0.25, "Normal")
	pdf.TransformBegin()
	pdf.TransformRotate(45, w/2, h/2)
	tw := pdf.GetStringWidth(text)
	pdf.Text(w/2-tw/2, h/2, text)
	pdf.TransformEnd()
	pdf.SetAlpha(1, "Normal")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x, y)
}
