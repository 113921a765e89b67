// Package domain defines core domain models and errors for law tracking.
package domain

import (
	"errors"
)

// Law-record error definitions.
var (
	// ErrRecordExists indicates an insert hit an already-present textId.
	// Sync passes treat this as a skip, never as a failure.
	ErrRecordExists = errors.New("law record already exists")

	// ErrRecordNotFound indicates no record exists for the given textId.
	ErrRecordNotFound = errors.New("law record not found")
)
