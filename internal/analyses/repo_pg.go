package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements AnalysesRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts the analysis. The unique constraint on document_id
// enforces one analysis per document.
func (r *PGRepo) Create(ctx context.Context, a Analysis) error {
	const query = `
INSERT INTO analyses (
    id,
    document_id,
    user_id,
    ocr_text,
    health_score,
    clinical_context,
    result,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	payload, err := json.Marshal(a.Result)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		a.ID,
		a.DocumentID,
		a.UserID,
		a.OCRText,
		a.HealthScore,
		a.ClinicalContext,
		payload,
		a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByDocument fetches the analysis for a document owned by the user.
func (r *PGRepo) GetByDocument(ctx context.Context, userId, documentID string) (Analysis, error) {
	const query = `
SELECT id, document_id, user_id, ocr_text, health_score, clinical_context, result, created_at
FROM analyses
WHERE user_id = $1 AND document_id = $2
LIMIT 1`
	return r.get(ctx, query, userId, documentID)
}

// GetByDocumentID fetches the analysis regardless of owner.
func (r *PGRepo) GetByDocumentID(ctx context.Context, documentID string) (Analysis, error) {
	const query = `
SELECT id, document_id, user_id, ocr_text, health_score, clinical_context, result, created_at
FROM analyses
WHERE document_id = $1
LIMIT 1`
	return r.get(ctx, query, documentID)
}

func (r *PGRepo) get(ctx context.Context, query string, args ...any) (Analysis, error) {
	var a Analysis
	var payload []byte
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&a.ID,
		&a.DocumentID,
		&a.UserID,
		&a.OCRText,
		&a.HealthScore,
		&a.ClinicalContext,
		&payload,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &a.Result); err != nil {
			return Analysis{}, err
		}
	}
	return a, nil
}

// DeleteByDocument removes the analysis for a document, if any.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	const query = `DELETE FROM analyses WHERE document_id = $1`
	_, err := r.DB.ExecContext(ctx, query, documentID)
	return err
}

var _ AnalysesRepo = (*PGRepo)(nil)
