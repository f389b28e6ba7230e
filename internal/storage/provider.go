// Package storage defines the key-value persistence boundary used by the
// repositories and its file-system and SQLite implementations.
package storage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/starford/smartnotes/internal/apperr"
)

// Namespaces persisted independently so a reset of one never corrupts another.
const (
	KeyNotes       = "notes"
	KeyLabels      = "labels"
	KeyPreferences = "preferences"
)

// Provider is the interface for named key-value persistence.
type Provider interface {
	// Load returns the serialized state stored under key, or an error
	// wrapping apperr.ErrNotFound when nothing was saved yet.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the state stored under key.
	Save(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists every stored key.
	Keys(ctx context.Context) ([]string, error)
}

var keyRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// ValidateKey rejects keys that could escape a namespace (path separators,
// uppercase, leading dots).
func ValidateKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("storage: %w: %q", apperr.ErrInvalidKey, key)
	}
	return nil
}
