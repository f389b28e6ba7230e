package codec

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/starford/smartnotes/internal/markup"
	"github.com/starford/smartnotes/internal/models"
)

// ExportToJSON renders a two-space indented backup document.
func (c *Codec) ExportToJSON(notes []models.Note, labels []models.Label) (string, error) {
	out := make([]models.Note, len(notes))
	for i, n := range notes {
		if n.LabelIDs == nil {
			n.LabelIDs = []string{}
		}
		out[i] = n
	}
	if labels == nil {
		labels = []models.Label{}
	}
	data := models.ExportData{
		Notes:      out,
		Labels:     labels,
		ExportedAt: c.now().UTC().Format(isoMillis),
		Version:    ExportVersion,
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("codec: export json: %w", err)
	}
	return string(b), nil
}

// ExportToMarkdown renders a readable document, newest note first.
func (c *Codec) ExportToMarkdown(notes []models.Note, labels []models.Label) string {
	names := labelIndex(labels)
	sorted := slices.Clone(notes)
	slices.SortStableFunc(sorted, func(a, b models.Note) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})

	var sb strings.Builder
	sb.WriteString("# Smart Notes Export\n\n")
	sb.WriteString("Exported on: " + c.date(c.now()) + "\n\n")

	for i, n := range sorted {
		title := n.Title
		if title == "" {
			title = "Untitled Note " + strconv.Itoa(i+1)
		}
		sb.WriteString("## " + title + "\n\n")

		if ln := labelNames(n.LabelIDs, names); len(ln) > 0 {
			sb.WriteString("**Labels:** " + strings.Join(ln, ", ") + "\n\n")
		}

		sb.WriteString("**Created:** " + c.date(models.Time(n.CreatedAt)) + "\n")
		sb.WriteString("**Modified:** " + c.date(models.Time(n.UpdatedAt)) + "\n\n")

		content := markup.ToMarkdown(n.Content)
		if content == "" {
			content = "*(No content)*"
		}
		sb.WriteString(content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

func (c *Codec) date(t time.Time) string {
	return t.In(c.loc).Format("1/2/2006")
}

// ExportToCSV renders one row per note in collection order. Text fields are
// always quoted; the word count is not.
func (c *Codec) ExportToCSV(notes []models.Note, labels []models.Label) string {
	names := labelIndex(labels)
	rows := make([]string, 0, len(notes)+1)
	rows = append(rows, "Title,Content,Labels,Created,Modified,Word Count")

	for _, n := range notes {
		title := n.Title
		if title == "" {
			title = "Untitled"
		}
		row := []string{
			quote(title),
			quote(markup.StripTags(n.Content)),
			quote(strings.Join(labelNames(n.LabelIDs, names), "; ")),
			quote(isoTime(n.CreatedAt)),
			quote(isoTime(n.UpdatedAt)),
			strconv.Itoa(markup.WordCount(n.Content)),
		}
		rows = append(rows, strings.Join(row, ","))
	}
	return strings.Join(rows, "\n")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
