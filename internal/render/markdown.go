package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/credcheck/internal/models"
)

// MarkdownRenderer produces a Markdown document with YAML frontmatter.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Format() models.ExportFormat { return models.FormatMarkdown }

func (MarkdownRenderer) Render(ctx context.Context, doc *Document, progress ProgressFunc) (*Output, error) {
	t := NewTracker(3, progress)
	if err := t.Advance(ctx, StageLayout, "resolving text"); err != nil {
		return nil, err
	}
	o := BuildOutline(doc)

	if err := t.Advance(ctx, StageEncode, "writing markdown"); err != nil {
		return nil, err
	}
	data, err := Markdown(o, doc.Checklist)
	if err != nil {
		return nil, models.NewExportError(models.CodeGenerationFailure, "render markdown", err)
	}

	if err := t.Advance(ctx, StageFinalize, "markdown ready"); err != nil {
		return nil, err
	}
	t.Done("markdown export complete")
	return &Output{Data: data}, nil
}

// Frontmatter is the machine-readable header of a Markdown export.
type Frontmatter struct {
	Title      string   `yaml:"title"`
	Created    string   `yaml:"created"`
	Language   string   `yaml:"language"`
	Score      int      `yaml:"score"`
	MaxScore   int      `yaml:"max_score"`
	Confidence int      `yaml:"confidence"`
	Judgment   string   `yaml:"judgment"`
	Categories []string `yaml:"categories"`
}

// Markdown serializes an outline.
func Markdown(o *Outline, c *models.ChecklistResult) ([]byte, error) {
	fm := Frontmatter{
		Title:      o.Title,
		Created:    c.CreatedAt.UTC().Format(time.RFC3339),
		Language:   o.Lang,
		Score:      o.Score.Total,
		MaxScore:   o.Score.MaxScore,
		Confidence: o.ConfidenceLevel,
		Judgment:   string(o.Judgment),
		Categories: make([]string, 0, len(o.Sections)),
	}
	for _, s := range o.Sections {
		fm.Categories = append(fm.Categories, s.ID)
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	var w mdWriter
	w.buf.WriteString("---\n")
	w.buf.Write(header)
	w.buf.WriteString("---\n")

	w.block("# " + inline(o.Title))
	if o.Description != "" {
		w.block(paragraph(splitLines(o.Description)))
	}

	w.block("## " + inline(o.MetadataHeading))
	w.block(fieldBullets(o.Metadata))

	if o.Notes != "" {
		w.block("## " + inline(o.NotesHeading))
		w.block(paragraph(splitLines(o.Notes)))
	}

	for _, s := range o.Sections {
		if s.PageBreak {
			w.block("---")
		}
		w.block("## " + inline(s.Heading))
		if s.Description != "" {
			w.block(paragraph(splitLines(s.Description)))
		}
		w.block("**" + s.Completion + "**")
		for _, it := range s.Items {
			writeMarkdownItem(&w, it)
		}
	}

	if sum := o.Summary; sum != nil {
		w.block("## " + inline(sum.Heading))
		w.block(fieldBullets(sum.Fields))
		w.block(fmt.Sprintf("> **%s:** %s", sum.JudgmentLabel, sum.JudgmentMessage))
	}

	w.block("_" + o.GeneratedBy + "_")
	return w.buf.Bytes(), nil
}

func writeMarkdownItem(w *mdWriter, it Item) {
	box := "[ ]"
	if it.Checked {
		box = "[x]"
	}
	w.block(fmt.Sprintf("### %s %s", box, inline(it.Title)))
	w.block("_" + it.Status + "_")
	if it.Description != "" {
		w.block(paragraph(splitLines(it.Description)))
	}

	g := it.Guide
	if g == nil {
		return
	}
	w.block("#### " + inline(g.Heading))
	if len(g.Lines) > 0 {
		w.block(paragraph(g.Lines))
	}
	if len(g.Good) > 0 {
		w.block("**" + g.GoodLabel + ":**\n\n" + bullets(g.Good))
	}
	if len(g.Bad) > 0 {
		w.block("**" + g.BadLabel + ":**\n\n" + bullets(g.Bad))
	}
}

// mdWriter separates blocks with exactly one blank line.
type mdWriter struct {
	buf bytes.Buffer
}

func (w *mdWriter) block(s string) {
	w.buf.WriteByte('\n')
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func fieldBullets(fields []Field) string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("- **%s:** %s", f.Label, inline(f.Value)))
	}
	return strings.Join(lines, "\n")
}

func bullets(items []string) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+inline(it))
	}
	return strings.Join(lines, "\n")
}

// inline collapses text onto one line so it cannot break the block structure.
func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// orderedMarker matches the start of an ordered list item.
var orderedMarker = regexp.MustCompile(`^(\d{1,9})([.)])`)

// paragraph joins free text lines with hard breaks so they stay one paragraph.
// Leading indentation is dropped and a leading block marker is escaped, so no
// line can open a heading, list, quote, fence, table or rule of its own.
func paragraph(lines []string) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimLeft(l, " \t")
		if l == "" {
			continue
		}
		if m := orderedMarker.FindStringSubmatch(l); m != nil {
			l = m[1] + `\` + l[len(m[1]):]
		} else if strings.ContainsRune("#-+*>=_|~`<", rune(l[0])) {
			l = `\` + l
		}
		out = append(out, l)
	}
	return strings.Join(out, "  \n")
}
