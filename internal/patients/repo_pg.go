package patients

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements PatientsRepo using Postgres. The profile lives in a
// JSONB column so optional fields evolve without schema churn.
type PGRepo struct {
	DB *sql.DB
}

// GetByUser fetches the user's patient profile.
func (r *PGRepo) GetByUser(ctx context.Context, userId string) (Patient, error) {
	const query = `
SELECT id, user_id, profile, created_at, updated_at
FROM patients
WHERE user_id = $1
LIMIT 1`
	var p Patient
	var profile []byte
	err := r.DB.QueryRowContext(ctx, query, userId).Scan(
		&p.ID,
		&p.UserID,
		&profile,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Patient{}, ErrNotFound
		}
		return Patient{}, err
	}
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &p.Profile); err != nil {
			return Patient{}, err
		}
	}
	return p, nil
}

// Upsert inserts or replaces the user's patient profile.
func (r *PGRepo) Upsert(ctx context.Context, p Patient) error {
	const query = `
INSERT INTO patients (id, user_id, profile, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
  profile = EXCLUDED.profile,
  updated_at = EXCLUDED.updated_at`
	profile, err := json.Marshal(p.Profile)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, p.ID, p.UserID, profile, p.CreatedAt, p.UpdatedAt)
	return err
}

var _ PatientsRepo = (*PGRepo)(nil)
