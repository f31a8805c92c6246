// Package batch provides a bounded worker pool for request-scoped fan-out,
// used by the maturation scanner. A per-item failure never stops the rest of
// the batch.
package batch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/pkg/logger"
)

// Default pool configuration constants.
const (
	defaultWorkerCount = 4
	defaultPoolName    = "batch"
)

// ItemResult reports what a ProcessFunc did with one item.
type ItemResult int

// Per-item outcomes.
const (
	// ItemSkipped means the item was intentionally left untouched.
	ItemSkipped ItemResult = iota
	// ItemProcessed means the item was mutated successfully.
	ItemProcessed
)

// ProcessFunc handles one feedback event. Returning an error counts the item
// as failed; the pool logs it and moves on.
type ProcessFunc func(ctx context.Context, e model.FeedbackEvent) (ItemResult, error)

// Result aggregates a completed batch run.
type Result struct {
	Processed int
	Skipped   int
	Errors    int
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkerCount sets the number of concurrent workers.
func WithWorkerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithName sets the pool name used for logging.
func WithName(name string) Option {
	return func(p *Pool) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pool fans a slice of feedback events out to a fixed set of workers.
type Pool struct {
	workers int
	name    string
	logger  logger.Logger
}

// New constructs a Pool with default configuration.
func New(opts ...Option) *Pool {
	p := &Pool{
		workers: defaultWorkerCount,
		name:    defaultPoolName,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	return p
}

// Process runs fn over every event and blocks until the batch completes.
// Items are independent: a failure is counted and logged, never propagated.
// Context cancellation stops feeding new items; in-flight items finish.
func (p *Pool) Process(ctx context.Context, events []model.FeedbackEvent, fn ProcessFunc) Result {
	if len(events) == 0 {
		return Result{}
	}

	feed := make(chan model.FeedbackEvent, len(events))
	for _, e := range events {
		feed <- e
	}
	close(feed)

	var processed, skipped, failed atomic.Int64
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(events) {
		workers = len(events)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range feed {
				select {
				case <-ctx.Done():
					return
				default:
				}

				res, err := fn(ctx, e)
				if err != nil {
					failed.Add(1)
					p.logger.Warn(ctx, "batch item failed",
						logger.String("pool", p.name),
						logger.String("feedback_id", e.ID),
						logger.Error(err),
					)
					continue
				}
				if res == ItemProcessed {
					processed.Add(1)
				} else {
					skipped.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	return Result{
		Processed: int(processed.Load()),
		Skipped:   int(skipped.Load()),
		Errors:    int(failed.Load()),
	}
}
