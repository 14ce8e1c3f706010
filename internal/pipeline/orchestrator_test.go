package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"healthspectrum-backend/internal/analyses"
	"healthspectrum-backend/internal/documents"
	"healthspectrum-backend/internal/extractor"
)

type stubStore struct{}

func (stubStore) Save(ctx context.Context, userId string, fileName string, r io.Reader) (string, int64, string, error) {
	return "key/" + fileName, 1, "application/pdf", nil
}

func (stubStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("%PDF-1.4")), nil
}

type failingExtractor struct{}

func (failingExtractor) Name() string { return "failing" }
func (failingExtractor) Extract(ctx context.Context, in extractor.Input) (extractor.Output, error) {
	return extractor.Output{}, errors.New("provider unavailable")
}

func tinyDelays() []time.Duration {
	return []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond}
}

func newTestOrchestrator(delays []time.Duration, ext extractor.Extractor) (*Orchestrator, *documents.MemoryRepo, *analyses.MemoryRepo) {
	docs := documents.NewMemoryRepo()
	an := analyses.NewMemoryRepo()
	if ext == nil {
		ext = extractor.Mock{}
	}
	return NewOrchestrator(docs, an, stubStore{}, ext, delays), docs, an
}

func seedUploaded(t *testing.T, docs *documents.MemoryRepo, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := docs.Create(context.Background(), documents.Document{
		ID:           id,
		UserID:       "user-1",
		OriginalName: id + ".pdf",
		MimeType:     "application/pdf",
		StorageKey:   "key/" + id,
		Status:       documents.StatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
}

func waitStatus(t *testing.T, docs *documents.MemoryRepo, id string, want documents.Status) documents.Document {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		doc, err := docs.GetByID(context.Background(), "user-1", id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if doc.Status == want {
			return doc
		}
		time.Sleep(time.Millisecond)
	}
	doc, _ := docs.GetByID(context.Background(), "user-1", id)
	t.Fatalf("document %s never reached %s, last status %s", id, want, doc.Status)
	return documents.Document{}
}

func TestRunWalksAllStagesAndStoresAnalysis(t *testing.T) {
	o, docs, an := newTestOrchestrator(tinyDelays(), nil)
	seedUploaded(t, docs, "doc-1")

	if err := o.Run(context.Background(), "user-1", "doc-1"); err != nil {
		t.Fatalf("run: %v", err)
	}

	doc := waitStatus(t, docs, "doc-1", documents.StatusDone)
	if doc.StageETASeconds != 0 {
		t.Fatalf("expected zero ETA at done, got %d", doc.StageETASeconds)
	}

	a, err := an.GetByDocument(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("expected analysis for done document: %v", err)
	}
	if a.HealthScore < 60 || a.HealthScore > 90 {
		t.Fatalf("health score out of range: %d", a.HealthScore)
	}
	if a.OCRText == "" || len(a.Result.Entities) == 0 {
		t.Fatalf("expected populated analysis, got %+v", a)
	}
}

func TestExtractionFailureMarksFailed(t *testing.T) {
	o, docs, an := newTestOrchestrator(tinyDelays(), failingExtractor{})
	seedUploaded(t, docs, "doc-1")

	if err := o.Run(context.Background(), "user-1", "doc-1"); err == nil {
		t.Fatal("expected run to surface extraction error")
	}

	doc := waitStatus(t, docs, "doc-1", documents.StatusFailed)
	if !strings.Contains(doc.Error, "extraction failed") {
		t.Fatalf("unexpected error message: %q", doc.Error)
	}
	if _, err := an.GetByDocument(context.Background(), "user-1", "doc-1"); !errors.Is(err, analyses.ErrNotFound) {
		t.Fatalf("failed document must not expose an analysis, err=%v", err)
	}
}

func TestCancelMidRun(t *testing.T) {
	delays := []time.Duration{time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond}
	o, docs, an := newTestOrchestrator(delays, nil)
	seedUploaded(t, docs, "doc-1")

	o.Start("user-1", "doc-1")
	waitStatus(t, docs, "doc-1", documents.StatusOCR)

	if err := o.Cancel(context.Background(), "user-1", "doc-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	doc := waitStatus(t, docs, "doc-1", documents.StatusFailed)
	if doc.Error != CancelledByUser {
		t.Fatalf("expected %q, got %q", CancelledByUser, doc.Error)
	}

	// The run must not resurrect the document.
	time.Sleep(20 * time.Millisecond)
	doc, _ = docs.GetByID(context.Background(), "user-1", "doc-1")
	if doc.Status != documents.StatusFailed {
		t.Fatalf("cancelled document advanced to %s", doc.Status)
	}
	if _, err := an.GetByDocument(context.Background(), "user-1", "doc-1"); !errors.Is(err, analyses.ErrNotFound) {
		t.Fatalf("cancelled document must not expose an analysis, err=%v", err)
	}
}

func TestCancelAfterDoneIsNoOp(t *testing.T) {
	o, docs, _ := newTestOrchestrator(tinyDelays(), nil)
	seedUploaded(t, docs, "doc-1")

	if err := o.Run(context.Background(), "user-1", "doc-1"); err != nil {
		t.Fatalf("run: %v", err)
	}
	waitStatus(t, docs, "doc-1", documents.StatusDone)

	if err := o.Cancel(context.Background(), "user-1", "doc-1"); err != nil {
		t.Fatalf("cancel after done: %v", err)
	}
	doc, _ := docs.GetByID(context.Background(), "user-1", "doc-1")
	if doc.Status != documents.StatusDone {
		t.Fatalf("done document mutated to %s", doc.Status)
	}
}

func TestCancelUnknownDocument(t *testing.T) {
	o, _, _ := newTestOrchestrator(tinyDelays(), nil)
	err := o.Cancel(context.Background(), "user-1", "missing")
	if !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRetryRestartsFailedRun(t *testing.T) {
	o, docs, an := newTestOrchestrator(tinyDelays(), nil)
	seedUploaded(t, docs, "doc-1")

	if ok, err := docs.MarkFailed(context.Background(), "doc-1", "boom"); err != nil || !ok {
		t.Fatalf("mark failed: ok=%v err=%v", ok, err)
	}

	if err := o.Retry(context.Background(), "user-1", "doc-1"); err != nil {
		t.Fatalf("retry: %v", err)
	}

	doc := waitStatus(t, docs, "doc-1", documents.StatusDone)
	if doc.Error != "" {
		t.Fatalf("expected cleared error after retry, got %q", doc.Error)
	}
	if _, err := an.GetByDocument(context.Background(), "user-1", "doc-1"); err != nil {
		t.Fatalf("expected analysis after retried run: %v", err)
	}
}

func TestRetryRequiresFailedStatus(t *testing.T) {
	o, docs, _ := newTestOrchestrator(tinyDelays(), nil)
	seedUploaded(t, docs, "doc-1")

	err := o.Retry(context.Background(), "user-1", "doc-1")
	if !errors.Is(err, documents.ErrConflict) {
		t.Fatalf("expected ErrConflict for non-failed document, got %v", err)
	}
}

func TestStageETASecondsRoundsUp(t *testing.T) {
	o, _, _ := newTestOrchestrator([]time.Duration{1500 * time.Millisecond, 3 * time.Second, 5 * time.Second, 2 * time.Second}, nil)

	if got := o.StageETASeconds(documents.StatusUploaded); got != 2 {
		t.Fatalf("expected ceil(1.5s)=2, got %d", got)
	}
	if got := o.StageETASeconds(documents.StatusSummary); got != 2 {
		t.Fatalf("expected 2 for summary, got %d", got)
	}
	if got := o.StageETASeconds(documents.StatusDone); got != 0 {
		t.Fatalf("expected 0 for terminal status, got %d", got)
	}
	if got := o.StageETASeconds(documents.StatusFailed); got != 0 {
		t.Fatalf("expected 0 for failed, got %d", got)
	}
}
