// Package codec serialises notes and labels to the backup and document
// formats and parses JSON backups back into entities.
package codec

import (
	"fmt"
	"time"

	"github.com/starford/smartnotes/internal/models"
)

// ExportVersion is written into every JSON backup.
const ExportVersion = "1.0.0"

const isoMillis = "2006-01-02T15:04:05.000Z"

// Format is an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat maps s to a Format. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("codec: unknown format %q", s)
}

// Extension returns the file extension, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ContentType returns the MIME type offered for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/json"
	}
}

// Filename returns the suggested download name for an export made at now.
// JSON exports are named backups; Markdown and CSV are named exports.
func Filename(f Format, now time.Time) string {
	prefix := "smart-notes-export-"
	if f == FormatJSON {
		prefix = "smart-notes-backup-"
	}
	return prefix + now.Format(time.DateOnly) + "." + f.Extension()
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// WithLocation sets the time zone used to render human-readable dates.
func WithLocation(loc *time.Location) Option {
	return func(c *Codec) {
		c.loc = loc
	}
}

// Codec renders exports. The zero value is not usable; call New.
type Codec struct {
	now func() time.Time
	loc *time.Location
}

// New creates a Codec using the local clock and time zone.
func New(opts ...Option) *Codec {
	c := &Codec{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Export renders notes and labels in format f.
func (c *Codec) Export(f Format, notes []models.Note, labels []models.Label) (string, error) {
	switch f {
	case FormatJSON:
		return c.ExportToJSON(notes, labels)
	case FormatMarkdown:
		return c.ExportToMarkdown(notes, labels), nil
	case FormatCSV:
		return c.ExportToCSV(notes, labels), nil
	}
	return "", fmt.Errorf("codec: unknown format %q", f)
}

func isoTime(ms int64) string {
	return models.Time(ms).UTC().Format(isoMillis)
}

// labelNames resolves ids to names in id order, skipping unknown ids.
func labelNames(ids []string, byID map[string]string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

func labelIndex(labels []models.Label) map[string]string {
	m := make(map[string]string, len(labels))
	for _, l := range labels {
		m[l.ID] = l.Name
	}
	return m
}
