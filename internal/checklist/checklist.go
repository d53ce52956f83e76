// Package checklist loads evaluated checklists from disk.
package checklist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/credcheck/internal/models"
)

// ErrEmpty is returned for an input without a document.
var ErrEmpty = errors.New("checklist file is empty")

// Load reads and validates the checklist at path.
func Load(path string) (*models.ChecklistResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checklist: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode reads one checklist. Input starting with '{' is decoded with the
// camelCase JSON field names; anything else is YAML with snake_case keys.
// Unknown fields are rejected in both.
func Decode(r io.Reader) (*models.ChecklistResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read checklist: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmpty
	}

	var c models.ChecklistResult
	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, models.NewExportError(models.CodeInvalidData, "decode json checklist", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(trimmed))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, models.NewExportError(models.CodeInvalidData, "decode yaml checklist", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
