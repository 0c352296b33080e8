package store

import "errors"

var (
	ErrNotFound      = errors.New("wine not found")
	ErrDuplicateWine = errors.New("duplicate wine")
	ErrInvalidPatch  = errors.New("invalid wine patch")
	ErrMissingID     = errors.New("wine id is required")
)
