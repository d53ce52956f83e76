// Package parser reads exported documents back into comparable facts.
package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/scoring"
)

// MarkdownDoc represents a parsed Markdown document.
type MarkdownDoc struct {
	// Frontmatter metadata (from YAML)
	Frontmatter map[string]any

	// Title extracted from frontmatter or first h1
	Title string

	// Main content (after frontmatter)
	Content string

	// Structured content by heading
	Sections []Section
}

// Section represents a heading and its content.
type Section struct {
	Level   int    // 1-6 for h1-h6
	Heading string // The heading text
	Path    string // Full path like "## Critical > ### [x] Author named?"
	Content string // Content under this heading
	Start   int    // Line number where section starts
	End     int    // Line number where section ends
}

var (
	h1Regex      = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	// completionRegex matches the bold "<label>: 50% (3/6)" line of a category.
	completionRegex = regexp.MustCompile(`(?m)^\*\*[^*\n]*?(\d+)% \((\d+)/(\d+)\)\*\*$`)
)

// ParseMarkdown parses a Markdown document into structured form.
func ParseMarkdown(content string) (*MarkdownDoc, error) {
	doc := &MarkdownDoc{
		Frontmatter: make(map[string]any),
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	remaining := content
	if strings.HasPrefix(content, "---\n") {
		endIdx := strings.Index(content[4:], "\n---")
		if endIdx < 0 {
			return nil, fmt.Errorf("unterminated frontmatter")
		}
		frontmatterYAML := content[4 : 4+endIdx]
		remaining = strings.TrimPrefix(content[4+endIdx+4:], "\n")

		if err := yaml.Unmarshal([]byte(frontmatterYAML), &doc.Frontmatter); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
	}

	doc.Content = remaining
	doc.Title = extractTitle(doc.Frontmatter, remaining)
	doc.Sections = parseSections(remaining)

	return doc, nil
}

// extractTitle gets title from frontmatter or first h1.
func extractTitle(fm map[string]any, content string) string {
	if title, ok := fm["title"].(string); ok && title != "" {
		return title
	}
	if match := h1Regex.FindStringSubmatch(content); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// parseSections extracts sections from Markdown content.
func parseSections(content string) []Section {
	var sections []Section

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	var currentPath []string
	var currentLevels []int

	var currentSection *Section
	var contentBuilder strings.Builder

	flushSection := func(endLine int) {
		if currentSection != nil {
			currentSection.Content = strings.TrimSpace(contentBuilder.String())
			currentSection.End = endLine
			sections = append(sections, *currentSection)
			contentBuilder.Reset()
		}
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if match := headingRegex.FindStringSubmatch(line); len(match) > 0 {
			flushSection(lineNum - 1)

			level := len(match[1])
			heading := strings.TrimSpace(match[2])

			for len(currentLevels) > 0 && currentLevels[len(currentLevels)-1] >= level {
				currentPath = currentPath[:len(currentPath)-1]
				currentLevels = currentLevels[:len(currentLevels)-1]
			}
			currentPath = append(currentPath, match[1]+" "+heading)
			currentLevels = append(currentLevels, level)

			currentSection = &Section{
				Level:   level,
				Heading: heading,
				Path:    strings.Join(currentPath, " > "),
				Start:   lineNum,
			}
		} else if currentSection != nil {
			contentBuilder.WriteString(line)
			contentBuilder.WriteString("\n")
		}
	}

	flushSection(lineNum)

	return sections
}

// GetFrontmatterString extracts a string from frontmatter.
func (d *MarkdownDoc) GetFrontmatterString(key string) string {
	if v, ok := d.Frontmatter[key].(string); ok {
		return v
	}
	return ""
}

// GetFrontmatterInt extracts an integer from frontmatter.
func (d *MarkdownDoc) GetFrontmatterInt(key string) (int, bool) {
	v, ok := d.Frontmatter[key].(int)
	return v, ok
}

// GetFrontmatterStringSlice extracts a string slice from frontmatter.
func (d *MarkdownDoc) GetFrontmatterStringSlice(key string) []string {
	switch v := d.Frontmatter[key].(type) {
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	case []string:
		return v
	}
	return nil
}

// ExtractMarkdownFacts reads the score figures from a Markdown export. Overall
// figures come from the frontmatter; category figures come from the completion
// line under each category heading, matched to the frontmatter category order.
func ExtractMarkdownFacts(content string) (scoring.Facts, error) {
	doc, err := ParseMarkdown(content)
	if err != nil {
		return scoring.Facts{}, err
	}

	var f scoring.Facts
	var ok bool
	if f.Score.Total, ok = doc.GetFrontmatterInt("score"); !ok {
		return scoring.Facts{}, fmt.Errorf("%w: frontmatter has no score", ErrMissingFact)
	}
	if f.Score.MaxScore, ok = doc.GetFrontmatterInt("max_score"); !ok {
		return scoring.Facts{}, fmt.Errorf("%w: frontmatter has no max_score", ErrMissingFact)
	}
	if f.ConfidenceLevel, ok = doc.GetFrontmatterInt("confidence"); !ok {
		return scoring.Facts{}, fmt.Errorf("%w: frontmatter has no confidence", ErrMissingFact)
	}
	f.Judgment = models.Judgment(doc.GetFrontmatterString("judgment"))

	ids := doc.GetFrontmatterStringSlice("categories")
	var lines [][]string
	for _, s := range doc.Sections {
		if s.Level != 2 {
			continue
		}
		if m := completionRegex.FindStringSubmatch(s.Content); m != nil {
			lines = append(lines, m[1:])
		}
	}
	if len(lines) != len(ids) {
		return scoring.Facts{}, fmt.Errorf("%w: %d categories in frontmatter, %d completion lines",
			ErrMissingFact, len(ids), len(lines))
	}

	f.Categories = make([]scoring.CategoryFacts, 0, len(ids))
	for i, id := range ids {
		rate, _ := strconv.Atoi(lines[i][0])
		checked, _ := strconv.Atoi(lines[i][1])
		total, _ := strconv.Atoi(lines[i][2])
		f.Categories = append(f.Categories, scoring.CategoryFacts{
			ID:             id,
			CompletionRate: rate,
			CheckedCount:   checked,
			TotalCount:     total,
		})
	}
	return f, nil
}
