package storage

import "errors"

// Archive errors. Both archives are append-only.
var (
	// ErrNotFound is returned when no snapshot or series point matches.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a snapshot time or a (series, timestamp)
	// pair is already archived.
	ErrDuplicateKey = errors.New("duplicate key: archive is append-only")

	// ErrInvalidInput is returned when a record fails validation before insert.
	ErrInvalidInput = errors.New("invalid input")
)
