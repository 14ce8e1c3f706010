package shares

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory SharesRepo for dev and tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	byToken map[string]Share
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byToken: make(map[string]Share)}
}

// Create stores a share token.
func (r *MemoryRepo) Create(ctx context.Context, s Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[s.Token] = s
	return nil
}

// GetByToken fetches a share by its token.
func (r *MemoryRepo) GetByToken(ctx context.Context, token string) (Share, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byToken[token]
	if !ok {
		return Share{}, ErrNotFound
	}
	return s, nil
}

var _ SharesRepo = (*MemoryRepo)(nil)
