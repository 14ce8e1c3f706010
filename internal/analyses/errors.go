package analyses

import "errors"

var (
	// ErrNotFound indicates no analysis exists for the document.
	ErrNotFound = errors.New("analysis not found")
	// ErrDuplicate indicates an analysis already exists for the document.
	ErrDuplicate = errors.New("analysis already exists for document")
	// ErrNotReady indicates the document has not finished processing.
	ErrNotReady = errors.New("analysis not ready")
)
