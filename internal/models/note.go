// Package models defines the domain types for Smart Notes.
package models

import (
	"regexp"
	"time"
)

// DefaultTitle is used when a note is created without an explicit title.
const DefaultTitle = "Untitled Note"

// Note is a rich-text note. Content is opaque marked-up text.
// Timestamps are Unix epoch milliseconds.
type Note struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	LabelIDs  []string `json:"labelIds"`
}

// HasLabel reports whether the note references labelID.
func (n Note) HasLabel(labelID string) bool {
	for _, id := range n.LabelIDs {
		if id == labelID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with n.
func (n Note) Clone() Note {
	out := n
	out.LabelIDs = append([]string{}, n.LabelIDs...)
	return out
}

// Label is a named, coloured tag that notes reference by id.
type Label struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt int64  `json:"createdAt"`
}

// DefaultColors is the palette offered for new labels.
var DefaultColors = []string{
	"#ef4444", // red-500
	"#f97316", // orange-500
	"#eab308", // yellow-500
	"#22c55e", // green-500
	"#06b6d4", // cyan-500
	"#3b82f6", // blue-500
	"#8b5cf6", // violet-500
	"#ec4899", // pink-500
}

// HexColor matches a CSS-style #rrggbb colour.
var HexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Millis converts t to Unix epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Time converts Unix epoch milliseconds to a time.Time.
func Time(ms int64) time.Time {
	return time.UnixMilli(ms)
}
