package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, patient_id, original_name, mime_type, size_bytes, storage_provider, storage_key, status, error, stage_eta_seconds, created_at, updated_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    patient_id,
    original_name,
    mime_type,
    size_bytes,
    storage_provider,
    storage_key,
    status,
    error,
    stage_eta_seconds,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, $10, $11, $12)`

	storageProvider := doc.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}
	var patientID sql.NullString
	if doc.PatientID != "" {
		patientID = sql.NullString{String: doc.PatientID, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		patientID,
		doc.OriginalName,
		doc.MimeType,
		doc.SizeBytes,
		storageProvider,
		doc.StorageKey,
		doc.Status,
		doc.StageETASeconds,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID fetches a document by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userId, documentID string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userId, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// History lists the user's documents newest-first, applying the search,
// status and date filters, and returns the page plus the total count.
func (r *PGRepo) History(ctx context.Context, userId string, filter HistoryFilter) ([]Document, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userId}

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		where = append(where, fmt.Sprintf("original_name ILIKE $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM documents WHERE " + clause
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`
SELECT %s
FROM documents
WHERE %s
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d`, documentColumns, clause, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, doc)
	}
	return out, total, rows.Err()
}

// AdvanceStatus applies the transition only when the row is still in
// the from status. RowsAffected tells us whether we won the race.
func (r *PGRepo) AdvanceStatus(ctx context.Context, documentID string, from, to Status, etaSeconds int) (bool, error) {
	const query = `
UPDATE documents
SET status = $1, stage_eta_seconds = $2, error = NULL, updated_at = $3
WHERE id = $4 AND status = $5`
	res, err := r.DB.ExecContext(ctx, query, to, etaSeconds, time.Now().UTC(), documentID, from)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkFailed fails the document unless it already reached a terminal
// status.
func (r *PGRepo) MarkFailed(ctx context.Context, documentID, errMsg string) (bool, error) {
	const query = `
UPDATE documents
SET status = 'failed', error = $1, stage_eta_seconds = 0, updated_at = $2
WHERE id = $3 AND status NOT IN ('done', 'failed')`
	res, err := r.DB.ExecContext(ctx, query, errMsg, time.Now().UTC(), documentID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ResetForRetry moves a failed document back to uploaded.
func (r *PGRepo) ResetForRetry(ctx context.Context, userId, documentID string, etaSeconds int) (bool, error) {
	const query = `
UPDATE documents
SET status = 'uploaded', error = NULL, stage_eta_seconds = $1, updated_at = $2
WHERE user_id = $3 AND id = $4 AND status = 'failed'`
	res, err := r.DB.ExecContext(ctx, query, etaSeconds, time.Now().UTC(), userId, documentID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var patientID sql.NullString
	var errMsg sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&patientID,
		&doc.OriginalName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.StorageProvider,
		&doc.StorageKey,
		&doc.Status,
		&errMsg,
		&doc.StageETASeconds,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	if patientID.Valid {
		doc.PatientID = patientID.String
	}
	if errMsg.Valid {
		doc.Error = errMsg.String
	}
	return doc, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

var _ DocumentsRepo = (*PGRepo)(nil)
