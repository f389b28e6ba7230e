package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/buger/jsonparser"

	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/models"
)

var (
	errInvalidNotes  = errors.New("invalid notes data")
	errInvalidLabels = errors.New("invalid labels data")
)

// Imported holds the entities that survived validation.
type Imported struct {
	Notes  []models.Note  `json:"notes"`
	Labels []models.Label `json:"labels"`

	// NotesReceived and LabelsReceived count array elements before validation.
	NotesReceived  int `json:"-"`
	LabelsReceived int `json:"-"`
}

// ImportFromJSON parses a backup document. Every error wraps
// apperr.ErrInvalidImport. Entities whose fields have the wrong primitive
// type are dropped without error; non-string entries of labelIds are dropped
// from the note. When an object repeats a key the first occurrence is used.
// The result is never applied anywhere.
func (c *Codec) ImportFromJSON(text string) (Imported, error) {
	data := []byte(text)
	if !json.Valid(data) {
		var v any
		err := json.Unmarshal(data, &v)
		return Imported{}, fmt.Errorf("%w: %w", apperr.ErrInvalidImport, err)
	}

	out := Imported{Notes: []models.Note{}, Labels: []models.Label{}}

	notes, err := arrayField(data, "notes")
	if err != nil {
		return Imported{}, fmt.Errorf("%w: %w", apperr.ErrInvalidImport, errInvalidNotes)
	}
	labels, err := arrayField(data, "labels")
	if err != nil {
		return Imported{}, fmt.Errorf("%w: %w", apperr.ErrInvalidImport, errInvalidLabels)
	}

	_, err = jsonparser.ArrayEach(notes, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
		out.NotesReceived++
		if dt != jsonparser.Object {
			return
		}
		if n, ok := decodeNote(value); ok {
			out.Notes = append(out.Notes, n)
		}
	})
	if err != nil {
		return Imported{}, fmt.Errorf("%w: %w", apperr.ErrInvalidImport, err)
	}

	_, err = jsonparser.ArrayEach(labels, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
		out.LabelsReceived++
		if dt != jsonparser.Object {
			return
		}
		if l, ok := decodeLabel(value); ok {
			out.Labels = append(out.Labels, l)
		}
	})
	if err != nil {
		return Imported{}, fmt.Errorf("%w: %w", apperr.ErrInvalidImport, err)
	}
	return out, nil
}

// arrayField returns the raw array stored under key of the top-level object.
func arrayField(data []byte, key string) ([]byte, error) {
	if _, dt, _, err := jsonparser.Get(data); err != nil || dt != jsonparser.Object {
		return nil, errors.New("not an object")
	}
	v, dt, _, err := jsonparser.Get(data, key)
	if err != nil {
		return nil, err
	}
	if dt != jsonparser.Array {
		return nil, fmt.Errorf("%s is %s", key, dt)
	}
	return v, nil
}

func decodeNote(obj []byte) (models.Note, bool) {
	id, ok1 := stringField(obj, "id")
	title, ok2 := stringField(obj, "title")
	content, ok3 := stringField(obj, "content")
	created, ok4 := numberField(obj, "createdAt")
	updated, ok5 := numberField(obj, "updatedAt")
	labelIDs, ok6 := stringArrayField(obj, "labelIds")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return models.Note{}, false
	}
	return models.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: created,
		UpdatedAt: updated,
		LabelIDs:  labelIDs,
	}, true
}

func decodeLabel(obj []byte) (models.Label, bool) {
	id, ok1 := stringField(obj, "id")
	name, ok2 := stringField(obj, "name")
	color, ok3 := stringField(obj, "color")
	created, ok4 := numberField(obj, "createdAt")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return models.Label{}, false
	}
	return models.Label{ID: id, Name: name, Color: color, CreatedAt: created}, true
}

func stringField(obj []byte, key string) (string, bool) {
	v, dt, _, err := jsonparser.Get(obj, key)
	if err != nil || dt != jsonparser.String {
		return "", false
	}
	s, err := jsonparser.ParseString(v)
	if err != nil {
		return "", false
	}
	return s, true
}

func numberField(obj []byte, key string) (int64, bool) {
	v, dt, _, err := jsonparser.Get(obj, key)
	if err != nil || dt != jsonparser.Number {
		return 0, false
	}
	f, err := jsonparser.ParseFloat(v)
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func stringArrayField(obj []byte, key string) ([]string, bool) {
	v, dt, _, err := jsonparser.Get(obj, key)
	if err != nil || dt != jsonparser.Array {
		return nil, false
	}
	out := []string{}
	_, err = jsonparser.ArrayEach(v, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
		if dt != jsonparser.String {
			return
		}
		if s, err := jsonparser.ParseString(value); err == nil {
			out = append(out, s)
		}
	})
	if err != nil {
		return nil, false
	}
	return out, true
}
