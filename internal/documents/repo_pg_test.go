package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoAdvanceStatusReportsRaceLoss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusOCR, 3, sqlmock.AnyArg(), "doc-1", StatusUploaded).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.AdvanceStatus(context.Background(), "doc-1", StatusUploaded, StatusOCR, 3)
	if err != nil || !ok {
		t.Fatalf("expected applied transition, ok=%v err=%v", ok, err)
	}

	// No row matches the expected status: the caller lost the race.
	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusNLP, 5, sqlmock.AnyArg(), "doc-1", StatusOCR).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.AdvanceStatus(context.Background(), "doc-1", StatusOCR, StatusNLP, 5)
	if err != nil || ok {
		t.Fatalf("expected lost transition, ok=%v err=%v", ok, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkFailedGuardsTerminal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE documents").
		WithArgs("Cancelled by user", sqlmock.AnyArg(), "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkFailed(context.Background(), "doc-1", "Cancelled by user")
	if err != nil || ok {
		t.Fatalf("expected terminal document untouched, ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("user-1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByID(context.Background(), "user-1", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoHistoryCountsAndPages(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", "%report%", StatusDone).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "patient_id", "original_name", "mime_type", "size_bytes",
		"storage_provider", "storage_key", "status", "error", "stage_eta_seconds",
		"created_at", "updated_at",
	}).AddRow("doc-1", "user-1", nil, "report.pdf", "application/pdf", int64(100),
		"local", "key", StatusDone, nil, 0, now, now)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("user-1", "%report%", StatusDone, 2, 2).
		WillReturnRows(rows)

	docs, total, err := repo.History(context.Background(), "user-1", HistoryFilter{
		Search: "report",
		Status: StatusDone,
		Page:   2,
		Limit:  2,
	})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 3 || len(docs) != 1 {
		t.Fatalf("unexpected result: total=%d len=%d", total, len(docs))
	}
	if docs[0].OriginalName != "report.pdf" || docs[0].Status != StatusDone {
		t.Fatalf("unexpected document: %+v", docs[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
