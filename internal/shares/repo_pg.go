package shares

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements SharesRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a share token.
func (r *PGRepo) Create(ctx context.Context, s Share) error {
	const query = `
INSERT INTO share_tokens (token, document_id, user_id, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, s.Token, s.DocumentID, s.UserID, s.ExpiresAt, s.CreatedAt)
	return err
}

// GetByToken fetches a share by its token.
func (r *PGRepo) GetByToken(ctx context.Context, token string) (Share, error) {
	const query = `
SELECT token, document_id, user_id, expires_at, created_at
FROM share_tokens
WHERE token = $1
LIMIT 1`
	var s Share
	err := r.DB.QueryRowContext(ctx, query, token).Scan(
		&s.Token,
		&s.DocumentID,
		&s.UserID,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Share{}, ErrNotFound
		}
		return Share{}, err
	}
	return s, nil
}

var _ SharesRepo = (*PGRepo)(nil)
