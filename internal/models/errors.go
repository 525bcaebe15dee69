package models

import "errors"

var (
	// ErrNotFound is returned by stores when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned by the user store when the unique email constraint rejects an insert.
	ErrDuplicateEmail = errors.New("email already exists")
)
