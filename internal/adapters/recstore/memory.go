package recstore

import (
	"context"
	"sync"

	"github.com/okian/kaliber/internal/domain/model"
)

// MemoryStore implements Store in process. It backs local development (fed
// through the recommendation intake endpoint) and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]model.Recommendation
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory recommendation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]model.Recommendation)}
}

// Put registers a recommendation. Returns ErrDuplicate if the id is taken.
func (s *MemoryStore) Put(ctx context.Context, rec model.Recommendation) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recs[rec.ID]; ok {
		return ErrDuplicate
	}
	s.recs[rec.ID] = rec
	return nil
}

// Get returns the recommendation with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[id]
	if !ok {
		return model.Recommendation{}, ErrNotFound
	}
	return rec, nil
}

// PatchStatus updates the status fields of a recommendation.
func (s *MemoryStore) PatchStatus(ctx context.Context, id string, patch StatusPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = patch.Status
	if patch.AcceptedAt != nil {
		at := *patch.AcceptedAt
		rec.AcceptedAt = &at
	}
	if patch.AcceptedBy != "" {
		rec.AcceptedBy = patch.AcceptedBy
	}
	s.recs[id] = rec
	return nil
}

// Count returns the number of stored recommendations.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}
