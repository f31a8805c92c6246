// Package metricsource defines the client contract for the entity metric
// provider: the system that knows each target entity's current engagement
// and market-pressure readings.
package metricsource

import (
	"context"
	"errors"

	"github.com/okian/kaliber/internal/domain/model"
)

// ErrNoData marks an entity the provider has no reading for. Callers treat
// this as a degraded (null baseline) condition, not a failure.
var ErrNoData = errors.New("no metric data for entity")

// Provider returns the current metric sample for a target entity.
type Provider interface {
	// Current returns the entity's latest metric sample, or ErrNoData.
	Current(ctx context.Context, entityID string) (model.MetricSample, error)
}
