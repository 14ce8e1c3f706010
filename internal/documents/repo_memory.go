package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory DocumentsRepo for dev and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]Document)}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

// GetByID fetches a document owned by the user.
func (r *MemoryRepo) GetByID(ctx context.Context, userId, documentID string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userId {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// History lists the user's documents newest-first with filters and
// pagination, returning the page and the total match count.
func (r *MemoryRepo) History(ctx context.Context, userId string, filter HistoryFilter) ([]Document, int, error) {
	r.mu.RLock()
	var matched []Document
	for _, doc := range r.docs {
		if doc.UserID != userId {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(doc.OriginalName), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.From != nil && doc.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && doc.CreatedAt.After(*filter.To) {
			continue
		}
		matched = append(matched, doc)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	page, limit := normalizePage(filter.Page, filter.Limit)
	start := (page - 1) * limit
	if start >= total {
		return []Document{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// AdvanceStatus applies the transition only when the current status
// still matches from.
func (r *MemoryRepo) AdvanceStatus(ctx context.Context, documentID string, from, to Status, etaSeconds int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.Status != from {
		return false, nil
	}
	doc.Status = to
	doc.StageETASeconds = etaSeconds
	doc.Error = ""
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return true, nil
}

// MarkFailed fails the document unless it is already terminal.
func (r *MemoryRepo) MarkFailed(ctx context.Context, documentID, errMsg string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.Status.IsTerminal() {
		return false, nil
	}
	doc.Status = StatusFailed
	doc.Error = errMsg
	doc.StageETASeconds = 0
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return true, nil
}

// ResetForRetry moves a failed document back to uploaded.
func (r *MemoryRepo) ResetForRetry(ctx context.Context, userId, documentID string, etaSeconds int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userId || doc.Status != StatusFailed {
		return false, nil
	}
	doc.Status = StatusUploaded
	doc.Error = ""
	doc.StageETASeconds = etaSeconds
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return true, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
