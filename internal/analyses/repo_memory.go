package analyses

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory AnalysesRepo for dev and tests.
type MemoryRepo struct {
	mu         sync.RWMutex
	byDocument map[string]Analysis
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byDocument: make(map[string]Analysis)}
}

// Create stores an analysis, enforcing one per document.
func (r *MemoryRepo) Create(ctx context.Context, a Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byDocument[a.DocumentID]; exists {
		return ErrDuplicate
	}
	r.byDocument[a.DocumentID] = a
	return nil
}

// GetByDocument fetches the analysis for a document owned by the user.
func (r *MemoryRepo) GetByDocument(ctx context.Context, userId, documentID string) (Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byDocument[documentID]
	if !ok || a.UserID != userId {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

// GetByDocumentID fetches the analysis regardless of owner.
func (r *MemoryRepo) GetByDocumentID(ctx context.Context, documentID string) (Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byDocument[documentID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

// DeleteByDocument removes the analysis for a document, if any.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byDocument, documentID)
	return nil
}

var _ AnalysesRepo = (*MemoryRepo)(nil)
