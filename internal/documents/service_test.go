package documents

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeStore struct {
	saved int
	fail  bool
}

func (s *fakeStore) Save(ctx context.Context, userId string, fileName string, r io.Reader) (string, int64, string, error) {
	if s.fail {
		return "", 0, "", io.ErrUnexpectedEOF
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	s.saved++
	return "key/" + fileName, int64(len(data)), "application/pdf", nil
}

func (s *fakeStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("%PDF-1.4")), nil
}

type fakePipeline struct {
	started []string
}

func (p *fakePipeline) Start(userId, documentID string) { p.started = append(p.started, documentID) }
func (p *fakePipeline) Cancel(ctx context.Context, userId, documentID string) error { return nil }
func (p *fakePipeline) Retry(ctx context.Context, userId, documentID string) error  { return nil }
func (p *fakePipeline) StageETASeconds(s Status) int                                { return 1 }

func pdfFile(name string) UploadFile {
	return UploadFile{
		Name:     name,
		MimeType: "application/pdf",
		Size:     128,
		Reader:   bytes.NewReader([]byte("%PDF-1.4 body")),
	}
}

func TestUploadStartsPipelinePerFile(t *testing.T) {
	store := &fakeStore{}
	pl := &fakePipeline{}
	svc := &Service{Store: store, Repo: NewMemoryRepo(), Pipeline: pl}

	docs, err := svc.Upload(context.Background(), "user-1", "", []UploadFile{pdfFile("a.pdf"), pdfFile("b.pdf")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	for _, doc := range docs {
		if doc.Status != StatusUploaded {
			t.Fatalf("expected uploaded status, got %s", doc.Status)
		}
		if doc.StageETASeconds != 1 {
			t.Fatalf("expected initial ETA from pipeline, got %d", doc.StageETASeconds)
		}
	}
	if len(pl.started) != 2 {
		t.Fatalf("expected 2 pipeline starts, got %d", len(pl.started))
	}
}

func TestUploadRejectsBatchBeforeStoringAnything(t *testing.T) {
	store := &fakeStore{}
	svc := &Service{Store: store, Repo: NewMemoryRepo(), Pipeline: &fakePipeline{}}

	files := []UploadFile{
		pdfFile("good.pdf"),
		{Name: "bad.exe", MimeType: "application/octet-stream", Size: 10, Reader: bytes.NewReader([]byte("x"))},
	}
	if _, err := svc.Upload(context.Background(), "user-1", "", files); err == nil {
		t.Fatal("expected validation error")
	}
	if store.saved != 0 {
		t.Fatalf("expected no files stored on rejected batch, got %d", store.saved)
	}
}

func TestUploadRejectsOversizeAndOvercount(t *testing.T) {
	svc := &Service{Store: &fakeStore{}, Repo: NewMemoryRepo(), Pipeline: &fakePipeline{}}

	big := pdfFile("big.pdf")
	big.Size = MaxUploadSize + 1
	if _, err := svc.Upload(context.Background(), "user-1", "", []UploadFile{big}); err == nil {
		t.Fatal("expected oversize rejection")
	}

	var many []UploadFile
	for i := 0; i <= MaxUploadFiles; i++ {
		many = append(many, pdfFile("f.pdf"))
	}
	if _, err := svc.Upload(context.Background(), "user-1", "", many); err == nil {
		t.Fatal("expected overcount rejection")
	}
}

func TestUploadNormalizesJPG(t *testing.T) {
	svc := &Service{Store: &fakeStore{}, Repo: NewMemoryRepo(), Pipeline: &fakePipeline{}}

	f := UploadFile{Name: "scan.jpg", MimeType: "image/jpg", Size: 10, Reader: bytes.NewReader([]byte("xx"))}
	if _, err := svc.Upload(context.Background(), "user-1", "", []UploadFile{f}); err != nil {
		t.Fatalf("expected image/jpg to be accepted as jpeg: %v", err)
	}
}

func TestHistoryPagination(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Store: &fakeStore{}, Repo: repo, Pipeline: &fakePipeline{}}

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		doc := Document{
			ID:           string(rune('a' + i)),
			UserID:       "user-1",
			OriginalName: "doc.pdf",
			Status:       StatusDone,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(context.Background(), doc); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	docs, page, err := svc.History(context.Background(), "user-1", HistoryFilter{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if page.Total != 5 || page.Pages != 3 || page.Page != 2 {
		t.Fatalf("unexpected pagination: %+v", page)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents on page 2, got %d", len(docs))
	}

	if _, _, err := svc.History(context.Background(), "user-1", HistoryFilter{Status: "bogus"}); err == nil {
		t.Fatal("expected invalid status filter to be rejected")
	}
}
