package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidImport = errors.New("failed to import data")
	ErrInvalidKey    = errors.New("invalid storage key")
)
