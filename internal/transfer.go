package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/smartnotes/internal/codec"
	"github.com/starford/smartnotes/internal/store"
)

// ImportSummary reports the outcome of an import.
type ImportSummary struct {
	NotesReceived  int
	LabelsReceived int
	store.ImportResult
}

// Export writes a backup of the stored notes and labels in the given format.
func Export(ctx context.Context, format string, w io.Writer, opts ...Option) error {
	f, err := codec.ParseFormat(format)
	if err != nil {
		return err
	}
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.open(ctx, true)
	if err != nil {
		return err
	}
	defer c.close()

	notes, labels := c.store.Snapshot()
	out, err := c.codec.Export(f, notes, labels)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	c.logger.Info("Export written",
		slog.String("format", string(f)),
		slog.Int("notes", len(notes)),
		slog.Int("labels", len(labels)))
	return nil
}

// Import reads a JSON backup from r and applies it with the given mode.
func Import(ctx context.Context, mode string, r io.Reader, opts ...Option) (ImportSummary, error) {
	m, err := store.ParseImportMode(mode)
	if err != nil {
		return ImportSummary{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("import: read: %w", err)
	}
	app, err := newApplication(opts)
	if err != nil {
		return ImportSummary{}, err
	}
	c, err := app.open(ctx, true)
	if err != nil {
		return ImportSummary{}, err
	}
	defer c.close()

	imp, err := c.codec.ImportFromJSON(string(data))
	if err != nil {
		return ImportSummary{}, err
	}
	res := c.store.Import(imp.Notes, imp.Labels, m)
	c.logger.Info("Import applied",
		slog.String("mode", string(m)),
		slog.Int("notes_received", imp.NotesReceived),
		slog.Int("notes_added", res.NotesAdded),
		slog.Int("labels_received", imp.LabelsReceived),
		slog.Int("labels_added", res.LabelsAdded))

	return ImportSummary{
		NotesReceived:  imp.NotesReceived,
		LabelsReceived: imp.LabelsReceived,
		ImportResult:   res,
	}, nil
}
