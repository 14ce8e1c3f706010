package shares

import "errors"

var (
	// ErrNotFound indicates the share token does not exist.
	ErrNotFound = errors.New("share not found")
	// ErrExpired indicates the share token is past its expiry.
	ErrExpired = errors.New("share link expired")
)
