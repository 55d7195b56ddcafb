package repo

import "errors"

var (
	// ErrNotFound is returned when no record matches the query.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the e-mail is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)
