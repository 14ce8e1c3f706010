package documents

import "errors"

var (
	// ErrNotFound indicates the document does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a rejected upload or malformed request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates the document's status does not permit the
	// requested operation.
	ErrConflict = errors.New("operation conflicts with document status")
)
