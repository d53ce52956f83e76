package parser

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"

	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/scoring"
)

// ErrMissingFact is returned when an export lacks a figure the extractors need.
var ErrMissingFact = errors.New("export is missing a fact")

// ExtractHTMLFacts reads the score figures from the data attributes of an HTML
// export: the element carrying data-score holds the overall figures and every
// element carrying data-category holds one category.
func ExtractHTMLFacts(r io.Reader) (scoring.Facts, error) {
	root, err := html.Parse(r)
	if err != nil {
		return scoring.Facts{}, fmt.Errorf("parse html: %w", err)
	}

	var f scoring.Facts
	var header *html.Node
	var walkErr error
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode || walkErr != nil {
			return
		}
		if _, ok := attr(n, "data-score"); ok && header == nil {
			header = n
		}
		id, ok := attr(n, "data-category")
		if !ok {
			return
		}
		cf := scoring.CategoryFacts{ID: id}
		if cf.CompletionRate, walkErr = intAttr(n, "data-rate"); walkErr != nil {
			return
		}
		if cf.CheckedCount, walkErr = intAttr(n, "data-checked"); walkErr != nil {
			return
		}
		if cf.TotalCount, walkErr = intAttr(n, "data-total"); walkErr != nil {
			return
		}
		f.Categories = append(f.Categories, cf)
	})
	if walkErr != nil {
		return scoring.Facts{}, walkErr
	}
	if header == nil {
		return scoring.Facts{}, fmt.Errorf("%w: no element carries data-score", ErrMissingFact)
	}

	if f.Score.Total, err = intAttr(header, "data-score"); err != nil {
		return scoring.Facts{}, err
	}
	if f.Score.MaxScore, err = intAttr(header, "data-max-score"); err != nil {
		return scoring.Facts{}, err
	}
	if f.ConfidenceLevel, err = intAttr(header, "data-confidence"); err != nil {
		return scoring.Facts{}, err
	}
	judgment, _ := attr(header, "data-judgment")
	f.Judgment = models.Judgment(judgment)
	if f.Categories == nil {
		f.Categories = []scoring.CategoryFacts{}
	}
	return f, nil
}

// walk visits n and its descendants in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func intAttr(n *html.Node, key string) (int, error) {
	v, ok := attr(n, key)
	if !ok {
		return 0, fmt.Errorf("%w: <%s> has no %s", ErrMissingFact, n.Data, key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", key, v, err)
	}
	return i, nil
}
