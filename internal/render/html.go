package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/raphaelgruber/credcheck/internal/models"
)

// HTMLRenderer produces a self-contained HTML page with inline styles.
type HTMLRenderer struct{}

func (HTMLRenderer) Format() models.ExportFormat { return models.FormatHTML }

func (HTMLRenderer) Render(ctx context.Context, doc *Document, progress ProgressFunc) (*Output, error) {
	t := NewTracker(3, progress)
	if err := t.Advance(ctx, StageLayout, "resolving text"); err != nil {
		return nil, err
	}
	o := BuildOutline(doc)

	if err := t.Advance(ctx, StageEncode, "writing html"); err != nil {
		return nil, err
	}
	data, err := HTML(o)
	if err != nil {
		return nil, models.NewExportError(models.CodeGenerationFailure, "render html", err)
	}

	if err := t.Advance(ctx, StageFinalize, "html ready"); err != nil {
		return nil, err
	}
	t.Done("html export complete")
	return &Output{Data: data}, nil
}

const stylesheet = `body{font-family:"Helvetica Neue",Arial,"Noto Sans",sans-serif;color:#1f2933;margin:0 auto;max-width:900px;padding:32px;line-height:1.5}
h1{font-size:28px;margin:0 0 8px}
h2{font-size:20px;border-bottom:2px solid #e4e7eb;padding-bottom:4px;margin-top:32px}
h3{font-size:16px;margin:0}
h4{font-size:14px;margin:8px 0 4px}
dl{display:grid;grid-template-columns:max-content auto;gap:4px 16px}
dt{font-weight:bold}
dd{margin:0}
.items{list-style:none;padding:0}
.item{border:1px solid #e4e7eb;border-radius:6px;padding:12px;margin:8px 0}
.item.checked{border-left:4px solid #2f9e44}
.item.unchecked{border-left:4px solid #adb5bd}
.mark{display:inline-block;width:1.4em}
.status{font-size:12px;color:#52606d}
.progress{background:#e4e7eb;border-radius:4px;height:8px;overflow:hidden}
.progress-bar{background:#3b82f6;height:8px}
.guide{background:#f8f9fa;border-radius:4px;padding:8px 12px;margin-top:8px;font-size:13px}
.examples ul{margin:4px 0}
.judgment{border-radius:6px;padding:12px;margin-top:12px}
footer{margin-top:32px;font-size:12px;color:#7b8794;text-align:center}
@media print{.category{break-inside:auto}.item{break-inside:avoid}}`

type judgmentColors struct{ bg, fg, border string }

var judgmentPalette = map[models.Judgment]judgmentColors{
	models.JudgmentAccept:  {"#ebfbee", "#2b8a3e", "#8ce99a"},
	models.JudgmentCaution: {"#fff9db", "#e67700", "#ffe066"},
	models.JudgmentReject:  {"#fff5f5", "#c92a2a", "#ffa8a8"},
	models.JudgmentPending: {"#f1f3f5", "#495057", "#ced4da"},
}

// HTML serializes an outline. The output is deterministic for a given outline.
func HTML(o *Outline) ([]byte, error) {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	page := el("html", "lang", o.Lang, "dir", o.Dir)
	root.AppendChild(page)
	page.AppendChild(htmlHead(o))

	body := el("body")
	page.AppendChild(body)
	body.AppendChild(htmlHeader(o))

	if o.Notes != "" {
		notes := el("section", "class", "notes")
		notes.AppendChild(textEl("h2", o.NotesHeading))
		notes.AppendChild(linesEl("p", splitLines(o.Notes)))
		body.AppendChild(notes)
	}

	main := el("main")
	for _, s := range o.Sections {
		main.AppendChild(htmlSection(s))
	}
	body.AppendChild(main)

	if o.Summary != nil {
		body.AppendChild(htmlSummary(o.Summary))
	}
	body.AppendChild(textEl("footer", o.GeneratedBy))

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func htmlHead(o *Outline) *html.Node {
	head := el("head")
	head.AppendChild(el("meta", "charset", "utf-8"))
	head.AppendChild(el("meta", "name", "viewport", "content", "width=device-width, initial-scale=1"))
	head.AppendChild(el("meta", "name", "generator", "content", "credcheck "+Version))
	head.AppendChild(textEl("title", o.Title))
	head.AppendChild(textEl("style", stylesheet))
	return head
}

func htmlHeader(o *Outline) *html.Node {
	header := el("header", "class", "report-header",
		"data-score", strconv.Itoa(o.Score.Total),
		"data-max-score", strconv.Itoa(o.Score.MaxScore),
		"data-confidence", strconv.Itoa(o.ConfidenceLevel),
		"data-judgment", string(o.Judgment),
	)
	header.AppendChild(textEl("h1", o.Title))
	if o.Description != "" {
		header.AppendChild(textEl("p", o.Description, "class", "description"))
	}

	meta := el("section", "class", "metadata")
	meta.AppendChild(textEl("h2", o.MetadataHeading))
	meta.AppendChild(fieldList(o.Metadata))
	header.AppendChild(meta)
	return header
}

func htmlSection(s Section) *html.Node {
	attrs := []string{
		"class", "category",
		"id", "category-" + s.ID,
		"data-category", s.ID,
		"data-rate", strconv.Itoa(s.CompletionRate),
		"data-checked", strconv.Itoa(s.Checked),
		"data-total", strconv.Itoa(s.Total),
	}
	if s.PageBreak {
		attrs = append(attrs, "style", "page-break-before:always;break-before:page")
	}
	sec := el("section", attrs...)
	sec.AppendChild(textEl("h2", s.Heading))
	if s.Description != "" {
		sec.AppendChild(textEl("p", s.Description, "class", "category-description"))
	}

	bar := el("div", "class", "progress")
	bar.AppendChild(el("div", "class", "progress-bar", "style", fmt.Sprintf("width:%d%%", s.CompletionRate)))
	sec.AppendChild(bar)
	sec.AppendChild(textEl("p", s.Completion, "class", "completion"))

	list := el("ul", "class", "items")
	for _, it := range s.Items {
		list.AppendChild(htmlItem(it))
	}
	sec.AppendChild(list)
	return sec
}

func htmlItem(it Item) *html.Node {
	class, mark := "item unchecked", "☐"
	if it.Checked {
		class, mark = "item checked", "✓"
	}
	li := el("li", "class", class, "data-item", it.ID, "data-checked", strconv.FormatBool(it.Checked))

	h := el("h3")
	h.AppendChild(textEl("span", mark, "class", "mark"))
	h.AppendChild(text(it.Title))
	li.AppendChild(h)
	li.AppendChild(textEl("span", it.Status, "class", "status"))
	if it.Description != "" {
		li.AppendChild(textEl("p", it.Description))
	}

	if g := it.Guide; g != nil {
		guide := el("div", "class", "guide")
		guide.AppendChild(textEl("h4", g.Heading))
		if len(g.Lines) > 0 {
			guide.AppendChild(linesEl("p", g.Lines))
		}
		if len(g.Good) > 0 {
			guide.AppendChild(examples("examples good", g.GoodLabel, g.Good))
		}
		if len(g.Bad) > 0 {
			guide.AppendChild(examples("examples bad", g.BadLabel, g.Bad))
		}
		li.AppendChild(guide)
	}
	return li
}

func htmlSummary(s *SummaryBlock) *html.Node {
	sec := el("section", "class", "summary")
	sec.AppendChild(textEl("h2", s.Heading))
	sec.AppendChild(fieldList(s.Fields))

	c := judgmentPalette[s.Judgment]
	banner := el("div",
		"class", "judgment judgment-"+string(s.Judgment),
		"data-judgment", string(s.Judgment),
		"style", fmt.Sprintf("background:%s;color:%s;border:1px solid %s", c.bg, c.fg, c.border),
	)
	banner.AppendChild(textEl("strong", s.JudgmentLabel))
	banner.AppendChild(text(" "))
	banner.AppendChild(textEl("span", s.JudgmentMessage))
	sec.AppendChild(banner)
	return sec
}

func fieldList(fields []Field) *html.Node {
	dl := el("dl")
	for _, f := range fields {
		dl.AppendChild(textEl("dt", f.Label))
		dl.AppendChild(textEl("dd", f.Value, "data-field", f.Key))
	}
	return dl
}

func examples(class, label string, items []string) *html.Node {
	div := el("div", "class", class)
	div.AppendChild(textEl("strong", label))
	ul := el("ul")
	for _, ex := range items {
		ul.AppendChild(textEl("li", ex))
	}
	div.AppendChild(ul)
	return div
}

// linesEl keeps line breaks of multi-line text as <br> elements.
func linesEl(tag string, lines []string) *html.Node {
	n := el(tag)
	for i, line := range lines {
		if i > 0 {
			n.AppendChild(el("br"))
		}
		n.AppendChild(text(line))
	}
	return n
}

// el builds an element from alternating attribute keys and values.
func el(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func textEl(tag, s string, attrs ...string) *html.Node {
	n := el(tag, attrs...)
	n.AppendChild(text(s))
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
