// Package repository defines durable storage for feedback events and its
// errors. Two implementations exist: a mutex-guarded in-memory store and a
// SQLite-backed store.
package repository

import (
	"context"
	"time"

	"github.com/okian/kaliber/internal/domain/model"
)

// Store provides read/write access to recorded feedback events. Events are
// created once, have their outcome applied at most conceptually once, and
// are never deleted.
type Store interface {
	// Insert persists a new feedback event. Returns ErrDuplicateID when the
	// id is already present.
	Insert(ctx context.Context, e model.FeedbackEvent) error

	// Get returns the event with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.FeedbackEvent, error)

	// GetByRecommendation returns the most recent event recorded against a
	// recommendation, or ErrNotFound.
	GetByRecommendation(ctx context.Context, recommendationID string) (model.FeedbackEvent, error)

	// ListByEntity returns up to limit events for a target entity, most
	// recent feedback first.
	ListByEntity(ctx context.Context, entityID string, limit int) ([]model.FeedbackEvent, error)

	// ListByWindow returns events whose FeedbackAt falls in [start, end].
	ListByWindow(ctx context.Context, start, end time.Time) ([]model.FeedbackEvent, error)

	// ListPendingBefore returns events still pending measurement whose
	// ExecutedAt is set and not after cutoff.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]model.FeedbackEvent, error)

	// ApplyOutcome overwrites the outcome fields of an event and returns the
	// updated record, or ErrNotFound.
	ApplyOutcome(ctx context.Context, id string, o model.Outcome) (model.FeedbackEvent, error)

	// MarkUsedForTraining flags up to limit of the oldest untrained events
	// and reports how many were marked.
	MarkUsedForTraining(ctx context.Context, limit int) (int, error)

	// CountUntrained returns the number of events not yet used for training.
	CountUntrained(ctx context.Context) (int, error)

	// Count returns the total number of stored events.
	Count(ctx context.Context) int
}
