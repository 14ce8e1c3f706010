package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"healthspectrum-backend/internal/shared/metrics"
	"healthspectrum-backend/internal/shared/storage/object"
	"healthspectrum-backend/internal/shared/telemetry"
)

const (
	// MaxUploadSize is the per-file limit.
	MaxUploadSize = 10 << 20 // 10MB
	// MaxUploadFiles is the per-request batch limit.
	MaxUploadFiles = 10
)

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
}

// Pipeline drives a document through the processing stages.
type Pipeline interface {
	// Start launches a processing run for an uploaded document.
	Start(userId, documentID string)
	// Cancel stops a run; terminal documents are left untouched.
	Cancel(ctx context.Context, userId, documentID string) error
	// Retry restarts a failed document from the beginning.
	Retry(ctx context.Context, userId, documentID string) error
	// StageETASeconds estimates the seconds until the status after s.
	StageETASeconds(s Status) int
}

// Dispatcher hands documents to an out-of-process worker. When set it
// replaces in-process Pipeline.Start for new uploads.
type Dispatcher interface {
	Enqueue(ctx context.Context, userId, documentID string) error
}

// UploadFile is one file in an upload batch.
type UploadFile struct {
	Name     string
	MimeType string
	Size     int64
	Reader   io.Reader
}

// Service contains business logic for documents.
type Service struct {
	Store      object.ObjectStore
	Repo       DocumentsRepo
	Pipeline   Pipeline
	Dispatcher Dispatcher
	// Provider names the backing object store ("local" or "s3").
	Provider string
}

// Upload validates the whole batch first, then stores each file,
// records it and kicks off processing. A single bad file rejects the
// entire batch before anything is written.
func (s *Service) Upload(ctx context.Context, userId, patientID string, files []UploadFile) ([]Document, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", ErrInvalidInput)
	}
	if len(files) > MaxUploadFiles {
		return nil, fmt.Errorf("%w: too many files (max %d)", ErrInvalidInput, MaxUploadFiles)
	}
	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
		}
		if _, ok := allowedMimeTypes[normalizeMime(f.MimeType)]; !ok {
			return nil, fmt.Errorf("%w: unsupported file type %q (PDF, PNG and JPEG only)", ErrInvalidInput, f.MimeType)
		}
		if f.Size > MaxUploadSize {
			return nil, fmt.Errorf("%w: %s exceeds the 10MB limit", ErrInvalidInput, f.Name)
		}
	}

	eta := 0
	if s.Pipeline != nil {
		eta = s.Pipeline.StageETASeconds(StatusUploaded)
	}

	out := make([]Document, 0, len(files))
	for _, f := range files {
		storageKey, size, mimeType, err := s.Store.Save(ctx, userId, f.Name, io.LimitReader(f.Reader, MaxUploadSize+1))
		if err != nil {
			return nil, err
		}
		if size > MaxUploadSize {
			return nil, fmt.Errorf("%w: %s exceeds the 10MB limit", ErrInvalidInput, f.Name)
		}
		if mimeType == "" {
			mimeType = normalizeMime(f.MimeType)
		}

		provider := s.Provider
		if provider == "" {
			provider = "local"
		}

		now := time.Now().UTC()
		doc := Document{
			ID:              uuid.NewString(),
			UserID:          userId,
			PatientID:       patientID,
			OriginalName:    f.Name,
			MimeType:        mimeType,
			SizeBytes:       size,
			StorageProvider: provider,
			StorageKey:      storageKey,
			Status:          StatusUploaded,
			StageETASeconds: eta,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.Repo.Create(ctx, doc); err != nil {
			return nil, err
		}
		metrics.IncDocumentsUploaded()
		telemetry.Info("document.uploaded", map[string]any{
			"document_id": doc.ID,
			"user_id":     userId,
			"size_bytes":  size,
			"mime_type":   mimeType,
		})

		if s.Dispatcher != nil {
			if err := s.Dispatcher.Enqueue(ctx, userId, doc.ID); err != nil {
				// Queue hiccups should not strand the document.
				telemetry.Error("document.enqueue_failed", map[string]any{
					"document_id": doc.ID,
					"err":         err.Error(),
				})
				s.Pipeline.Start(userId, doc.ID)
			}
		} else if s.Pipeline != nil {
			s.Pipeline.Start(userId, doc.ID)
		}
		out = append(out, doc)
	}
	return out, nil
}

// Status returns the document's current processing state.
func (s *Service) Status(ctx context.Context, userId, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userId, documentID)
}

// History lists the user's documents with filters and pagination.
func (s *Service) History(ctx context.Context, userId string, filter HistoryFilter) ([]Document, Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, Pagination{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	docs, total, err := s.Repo.History(ctx, userId, filter)
	if err != nil {
		return nil, Pagination{}, err
	}
	page, limit := normalizePage(filter.Page, filter.Limit)
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return docs, Pagination{Page: page, Limit: limit, Total: total, Pages: pages}, nil
}

// Cancel stops processing of a document.
func (s *Service) Cancel(ctx context.Context, userId, documentID string) error {
	if s.Pipeline == nil {
		return ErrConflict
	}
	return s.Pipeline.Cancel(ctx, userId, documentID)
}

// Retry restarts a failed document.
func (s *Service) Retry(ctx context.Context, userId, documentID string) error {
	if s.Pipeline == nil {
		return ErrConflict
	}
	return s.Pipeline.Retry(ctx, userId, documentID)
}

func normalizeMime(raw string) string {
	mime := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if mime == "image/jpg" {
		mime = "image/jpeg"
	}
	return mime
}
