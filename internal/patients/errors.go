package patients

import "errors"

var (
	// ErrNotFound indicates no patient profile exists for the user.
	ErrNotFound = errors.New("patient profile not found")
	// ErrInvalidInput indicates a malformed profile update.
	ErrInvalidInput = errors.New("invalid input")
)
