package models

import (
	"strings"
	"time"
)

// Slugify turns a title into a lowercase, dash-separated file name fragment.
// Spaces and underscores become dashes; anything outside [a-z0-9-] is dropped.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// ExportFilename builds "<slug>-<timestamp>.<ext>". Titles without any usable
// characters fall back to "checklist".
func ExportFilename(title string, format ExportFormat, at time.Time) string {
	slug := strings.Trim(Slugify(title), "-")
	if slug == "" {
		slug = "checklist"
	}
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	return slug + "-" + at.UTC().Format("20060102-150405") + "." + format.Extension()
}
