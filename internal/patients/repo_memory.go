package patients

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory PatientsRepo for dev and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	byUser map[string]Patient
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byUser: make(map[string]Patient)}
}

// GetByUser fetches the user's patient profile.
func (r *MemoryRepo) GetByUser(ctx context.Context, userId string) (Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byUser[userId]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

// Upsert inserts or replaces the user's patient profile.
func (r *MemoryRepo) Upsert(ctx context.Context, p Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byUser[p.UserID]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	}
	r.byUser[p.UserID] = p
	return nil
}

var _ PatientsRepo = (*MemoryRepo)(nil)
