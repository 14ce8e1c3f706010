package shares

import "time"

// TokenTTL is how long a share link stays valid.
const TokenTTL = 7 * 24 * time.Hour

// Share is a time-limited read grant on one document's results.
type Share struct {
	Token      string    `json:"-"`
	DocumentID string    `json:"documentId"`
	UserID     string    `json:"-"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Expired reports whether the share is past its expiry.
func (s Share) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
