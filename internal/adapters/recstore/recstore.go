// Package recstore defines the client contract for the recommendation store.
// Recommendations are generated elsewhere; this service only reads them and
// patches their status in response to operator feedback.
package recstore

import (
	"context"
	"errors"
	"time"

	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/internal/domain/types"
)

// Sentinel kinds for recommendation store errors.
var (
	ErrNotFound  = errors.New("recommendation not found")
	ErrDuplicate = errors.New("recommendation id already exists")
)

// StatusPatch carries the fields written when a recommendation's status
// changes. AcceptedAt/AcceptedBy are only set on a transition to accepted.
type StatusPatch struct {
	Status     types.RecommendationStatus
	AcceptedAt *time.Time
	AcceptedBy string
}

// Store provides intake, read, and status-patch access to recommendations.
type Store interface {
	// Put registers a recommendation, or ErrDuplicate if the id is taken.
	Put(ctx context.Context, rec model.Recommendation) error

	// Get returns the recommendation with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.Recommendation, error)

	// PatchStatus updates the status of a recommendation, or ErrNotFound.
	PatchStatus(ctx context.Context, id string, patch StatusPatch) error
}
