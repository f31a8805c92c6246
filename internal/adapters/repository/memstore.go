package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/pkg/metrics"
)

// Default in-memory store sizing.
const defaultCapacityHint = 1024

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithCapacityHint pre-sizes the internal index for an expected event count.
func WithCapacityHint(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.capacityHint = n
		}
	}
}

// MemoryStore implements Store with mutex-guarded in-process maps. It backs
// tests and the default local-dev configuration.
type MemoryStore struct {
	mu           sync.RWMutex
	capacityHint int

	byID    map[string]model.FeedbackEvent
	byRec   map[string]string // recommendation id -> most recent event id
	ordered []string          // event ids in insertion order
}

// NewMemoryStore creates an empty in-memory feedback store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{capacityHint: defaultCapacityHint}
	for _, opt := range opts {
		opt(s)
	}
	s.byID = make(map[string]model.FeedbackEvent, s.capacityHint)
	s.byRec = make(map[string]string, s.capacityHint)
	s.ordered = make([]string, 0, s.capacityHint)
	return s
}

// Insert persists a new feedback event.
func (s *MemoryStore) Insert(ctx context.Context, e model.FeedbackEvent) error {
	defer observe("insert")()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[e.ID]; ok {
		return ErrDuplicateID
	}
	s.byID[e.ID] = e
	s.byRec[e.RecommendationID] = e.ID
	s.ordered = append(s.ordered, e.ID)
	return nil
}

// Get returns the event with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.FeedbackEvent, error) {
	defer observe("get")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return model.FeedbackEvent{}, ErrNotFound
	}
	return e, nil
}

// GetByRecommendation returns the most recent event for a recommendation.
func (s *MemoryStore) GetByRecommendation(ctx context.Context, recommendationID string) (model.FeedbackEvent, error) {
	defer observe("get_by_recommendation")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRec[recommendationID]
	if !ok {
		return model.FeedbackEvent{}, ErrNotFound
	}
	return s.byID[id], nil
}

// ListByEntity returns up to limit events for an entity, most recent first.
func (s *MemoryStore) ListByEntity(ctx context.Context, entityID string, limit int) ([]model.FeedbackEvent, error) {
	defer observe("list_by_entity")()

	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	out := make([]model.FeedbackEvent, 0, limit)
	for _, id := range s.ordered {
		if e := s.byID[id]; e.TargetEntityID == entityID {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FeedbackAt.After(out[j].FeedbackAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByWindow returns events whose FeedbackAt falls in [start, end].
func (s *MemoryStore) ListByWindow(ctx context.Context, start, end time.Time) ([]model.FeedbackEvent, error) {
	defer observe("list_by_window")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.FeedbackEvent
	for _, id := range s.ordered {
		e := s.byID[id]
		if e.FeedbackAt.Before(start) || e.FeedbackAt.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ListPendingBefore returns unmeasured events executed at or before cutoff.
func (s *MemoryStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]model.FeedbackEvent, error) {
	defer observe("list_pending")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.FeedbackEvent
	for _, id := range s.ordered {
		e := s.byID[id]
		if e.OutcomeType.IsMeasured() || e.ExecutedAt == nil {
			continue
		}
		if e.ExecutedAt.After(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ApplyOutcome overwrites the outcome fields of an event.
func (s *MemoryStore) ApplyOutcome(ctx context.Context, id string, o model.Outcome) (model.FeedbackEvent, error) {
	defer observe("apply_outcome")()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return model.FeedbackEvent{}, ErrNotFound
	}
	e.ApplyOutcome(o)
	s.byID[id] = e
	return e, nil
}

// MarkUsedForTraining flags up to limit of the oldest untrained events.
func (s *MemoryStore) MarkUsedForTraining(ctx context.Context, limit int) (int, error) {
	defer observe("mark_training")()

	if limit <= 0 {
		return 0, ErrInvalidLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for _, id := range s.ordered {
		if marked >= limit {
			break
		}
		e := s.byID[id]
		if e.UsedForTraining {
			continue
		}
		e.UsedForTraining = true
		s.byID[id] = e
		marked++
	}
	return marked, nil
}

// CountUntrained returns the number of events not yet used for training.
func (s *MemoryStore) CountUntrained(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.byID {
		if !e.UsedForTraining {
			n++
		}
	}
	return n, nil
}

// Count returns the total number of stored events.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// observe times a store operation and records its latency.
func observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.RecordStoreLatency(op, float64(time.Since(start).Milliseconds()))
	}
}
