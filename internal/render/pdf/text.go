package pdf

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/raphaelgruber/credcheck/internal/i18n"
	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/render"
)

// A4 in points.
const (
	pageWidth  = 595.28
	pageHeight = 841.89
	pageMargin = 50.0
	footerY    = 30.0
)

const (
	fontRegular = "F1"
	fontBold    = "F2"
)

type textStyle struct {
	font    string
	size    float64
	indent  float64
	spacing float64 // extra space above the block
}

var (
	styleTitle    = textStyle{fontBold, 18, 0, 0}
	styleHeading  = textStyle{fontBold, 14, 0, 14}
	styleBody     = textStyle{fontRegular, 10, 0, 2}
	styleSmall    = textStyle{fontRegular, 9, 0, 1}
	styleItem     = textStyle{fontBold, 11, 0, 8}
	styleItemBody = textStyle{fontRegular, 10, 16, 1}
	styleGuide    = textStyle{fontBold, 10, 16, 4}
	styleGuideTxt = textStyle{fontRegular, 9, 16, 1}
	styleExample  = textStyle{fontRegular, 9, 28, 0}
)

type textBlock struct {
	style     textStyle
	text      string
	pageBreak bool
}

type placedLine struct {
	font string
	size float64
	x, y float64
	text []byte
}

func (r *Renderer) renderText(ctx context.Context, doc *render.Document, progress render.ProgressFunc) ([]byte, error) {
	t := render.NewTracker(5, progress)
	if err := t.Advance(ctx, render.StageLayout, "laying out text"); err != nil {
		return nil, err
	}
	o := render.BuildOutline(doc)

	if err := t.Advance(ctx, render.StageMeasure, "measuring lines"); err != nil {
		return nil, err
	}
	blocks := textBlocks(o)

	if err := t.Advance(ctx, render.StagePaginate, "paginating"); err != nil {
		return nil, err
	}
	pages := paginate(blocks)

	if err := t.Advance(ctx, render.StageEncode, fmt.Sprintf("encoding %d pages", len(pages))); err != nil {
		return nil, err
	}
	w := &pdfWriter{}
	catalog, pagesObj := w.reserve(), w.reserve()
	f1 := w.add([]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"))
	f2 := w.add([]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>"))
	resources := fmt.Sprintf("<< /Font << /%s %d 0 R /%s %d 0 R >> >>", fontRegular, f1, fontBold, f2)

	kids := make([]string, 0, len(pages))
	for i, lines := range pages {
		if err := t.Check(ctx); err != nil {
			return nil, err
		}
		footer := fmt.Sprintf("%s - %s %d / %d", o.GeneratedBy, pageLabel(doc), i+1, len(pages))
		lines = append(lines, placedLine{font: fontRegular, size: 8, x: pageMargin, y: footerY, text: winAnsi(footer)})

		content, err := w.stream(contentStream(lines))
		if err != nil {
			return nil, models.NewExportError(models.CodeGenerationFailure, "compress page", err)
		}
		page := w.add([]byte(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %.2f %.2f] /Contents %d 0 R /Resources %s >>",
			pagesObj, pageWidth, pageHeight, content, resources)))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	w.set(pagesObj, []byte(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))))
	w.set(catalog, []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R /Lang (%s) >>", pagesObj, escapePDF(winAnsi(o.Lang)))))
	info := w.add([]byte(fmt.Sprintf("<< /Title (%s) /Producer (credcheck %s) /CreationDate (%s) >>",
		escapePDF(winAnsi(o.Title)), render.Version, doc.GeneratedAt.UTC().Format("D:20060102150405Z"))))

	if err := t.Advance(ctx, render.StageFinalize, "writing pdf"); err != nil {
		return nil, err
	}
	data := w.bytes(catalog, info)
	t.Done("pdf export complete")
	return data, nil
}

func pageLabel(doc *render.Document) string {
	return doc.Text.T(i18n.KeyPage)
}

// textBlocks flattens the outline into styled paragraphs.
func textBlocks(o *render.Outline) []textBlock {
	var b []textBlock
	add := func(s textStyle, text string) {
		b = append(b, textBlock{style: s, text: text})
	}

	add(styleTitle, o.Title)
	if o.Description != "" {
		add(styleBody, o.Description)
	}
	add(styleHeading, o.MetadataHeading)
	for _, f := range o.Metadata {
		add(styleBody, f.Label+": "+f.Value)
	}

	if o.Notes != "" {
		add(styleHeading, o.NotesHeading)
		for _, line := range strings.Split(o.Notes, "\n") {
			add(styleBody, line)
		}
	}

	for _, s := range o.Sections {
		b = append(b, textBlock{style: styleHeading, text: s.Heading, pageBreak: s.PageBreak})
		if s.Description != "" {
			add(styleSmall, s.Description)
		}
		add(styleBody, s.Completion)
		for _, it := range s.Items {
			mark := "[ ]"
			if it.Checked {
				mark = "[x]"
			}
			add(styleItem, mark+" "+it.Title)
			add(styleItemBody, it.Status)
			if it.Description != "" {
				add(styleItemBody, it.Description)
			}
			if g := it.Guide; g != nil {
				add(styleGuide, g.Heading)
				for _, line := range g.Lines {
					add(styleGuideTxt, line)
				}
				if len(g.Good) > 0 {
					add(styleGuide, g.GoodLabel)
					for _, ex := range g.Good {
						add(styleExample, "- "+ex)
					}
				}
				if len(g.Bad) > 0 {
					add(styleGuide, g.BadLabel)
					for _, ex := range g.Bad {
						add(styleExample, "- "+ex)
					}
				}
			}
		}
	}

	if sum := o.Summary; sum != nil {
		add(styleHeading, sum.Heading)
		for _, f := range sum.Fields {
			add(styleBody, f.Label+": "+f.Value)
		}
		add(styleItem, sum.JudgmentLabel+": "+sum.JudgmentMessage)
	}
	return b
}

// paginate wraps blocks to the text width and distributes the lines over A4 pages.
func paginate(blocks []textBlock) [][]placedLine {
	top := pageHeight - pageMargin
	bottom := pageMargin + 10

	var pages [][]placedLine
	var current []placedLine
	y := top
	newPage := func() {
		pages = append(pages, current)
		current = nil
		y = top
	}

	for _, blk := range blocks {
		if blk.pageBreak && len(current) > 0 {
			newPage()
		}
		st := blk.style
		leading := st.size * 1.3
		if y < top {
			y -= st.spacing
		}
		width := pageWidth - 2*pageMargin - st.indent
		for _, line := range wrap(winAnsi(blk.text), st.font, st.size, width) {
			if y-leading < bottom {
				newPage()
			}
			y -= leading
			current = append(current, placedLine{font: st.font, size: st.size, x: pageMargin + st.indent, y: y, text: line})
		}
	}
	if len(current) > 0 || len(pages) == 0 {
		pages = append(pages, current)
	}
	return pages
}

// wrap breaks encoded text into lines no wider than width points.
func wrap(text []byte, font string, size, width float64) [][]byte {
	words := bytes.Fields(text)
	if len(words) == 0 {
		return [][]byte{{}}
	}
	space := textWidth([]byte{' '}, font, size)

	var lines [][]byte
	var line []byte
	var lineWidth float64
	for _, word := range words {
		ww := textWidth(word, font, size)
		for ww > width && len(word) > 1 {
			// Hard-break words longer than a full line.
			if len(line) > 0 {
				lines = append(lines, line)
				line, lineWidth = nil, 0
			}
			n := fitPrefix(word, font, size, width)
			lines = append(lines, word[:n])
			word = word[n:]
			ww = textWidth(word, font, size)
		}
		switch {
		case len(line) == 0:
			line, lineWidth = append([]byte{}, word...), ww
		case lineWidth+space+ww <= width:
			line = append(append(line, ' '), word...)
			lineWidth += space + ww
		default:
			lines = append(lines, line)
			line, lineWidth = append([]byte{}, word...), ww
		}
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}
	return lines
}

func fitPrefix(word []byte, font string, size, width float64) int {
	n := 1
	for n < len(word) && textWidth(word[:n+1], font, size) <= width {
		n++
	}
	return n
}

func textWidth(text []byte, font string, size float64) float64 {
	var units int
	for _, c := range text {
		units += glyphWidth(c)
	}
	w := float64(units) * size / 1000
	if font == fontBold {
		w *= 1.08
	}
	return w
}

func contentStream(lines []placedLine) []byte {
	var buf bytes.Buffer
	for _, l := range lines {
		fmt.Fprintf(&buf, "BT /%s %.1f Tf %.2f %.2f Td (%s) Tj ET\n", l.font, l.size, l.x, l.y, escapePDF(l.text))
	}
	return buf.Bytes()
}

// winAnsi encodes s as Windows-1252. Runes outside the code page become '?'.
func winAnsi(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			out = append(out, ' ')
		case r < 0x20:
		case r < 0x80:
			out = append(out, byte(r))
		default:
			if b, ok := charmap.Windows1252.EncodeRune(r); ok {
				out = append(out, b)
			} else {
				out = append(out, '?')
			}
		}
	}
	return out
}

func escapePDF(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch c {
		case '\\', '(', ')':
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// pdfWriter assembles numbered objects, the cross-reference table and the trailer.
type pdfWriter struct {
	objects [][]byte
}

func (w *pdfWriter) reserve() int {
	w.objects = append(w.objects, nil)
	return len(w.objects)
}

func (w *pdfWriter) set(n int, body []byte) {
	w.objects[n-1] = body
}

func (w *pdfWriter) add(body []byte) int {
	w.objects = append(w.objects, body)
	return len(w.objects)
}

// stream adds a Flate-compressed stream object.
func (w *pdfWriter) stream(content []byte) (int, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(content); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	var obj bytes.Buffer
	fmt.Fprintf(&obj, "<< /Length %d /Filter /FlateDecode >>\nstream\n", buf.Len())
	obj.Write(buf.Bytes())
	obj.WriteString("\nendstream")
	return w.add(obj.Bytes()), nil
}

func (w *pdfWriter) bytes(root, info int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n")

	offsets := make([]int, len(w.objects))
	for i, obj := range w.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(obj)
		buf.WriteString("\nendobj\n")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(w.objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(w.objects)+1, root, info, xref)
	return buf.Bytes()
}
