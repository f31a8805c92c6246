package service

import (
	"time"

	"github.com/okian/kaliber/internal/adapters/metricsource"
	"github.com/okian/kaliber/internal/adapters/recstore"
	"github.com/okian/kaliber/internal/adapters/repository"
	"github.com/okian/kaliber/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the feedback event store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRecommendationStore sets the recommendation store client.
func WithRecommendationStore(recs recstore.Store) Option {
	return func(s *Service) {
		if recs != nil {
			s.recs = recs
		}
	}
}

// WithMetricProvider sets the entity metric provider client.
func WithMetricProvider(p metricsource.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.metricsrc = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaturationWindow sets the minimum age of an executed, unmeasured event
// before the batch scanner auto-measures it.
func WithMaturationWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maturationWindow = d
		}
	}
}

// WithMaxWindow caps the span of a learning metrics query. Requests for
// longer windows fail with ErrInvalidWindow.
func WithMaxWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxWindow = d
		}
	}
}

// WithBatchWorkerCount sets the number of workers used by the maturation
// scanner.
func WithBatchWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchWorkers = n
		}
	}
}

// WithEntityFeedbackLimit sets the default page size of entity feedback
// listings.
func WithEntityFeedbackLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.entityFeedbackLimit = n
		}
	}
}

// WithStrictOutcome arms the one-way pending-to-measured guard: a second
// measurement on an already measured event fails with ErrAlreadyMeasured
// instead of overwriting it.
func WithStrictOutcome(strict bool) Option {
	return func(s *Service) {
		s.strictOutcome = strict
	}
}

// WithTrainingThreshold sets the untrained-event count that marks the model
// ready for retraining.
func WithTrainingThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trainingThreshold = n
		}
	}
}
