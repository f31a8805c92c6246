package metricsource

import (
	"context"
	"sync"

	"github.com/okian/kaliber/internal/domain/model"
)

// MemoryProvider implements Provider over an in-process map. It backs local
// development and tests; production deployments substitute a client for the
// real metric system.
type MemoryProvider struct {
	mu      sync.RWMutex
	samples map[string]model.MetricSample
}

// NewMemoryProvider creates an empty in-memory metric provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{samples: make(map[string]model.MetricSample)}
}

// Set stores the current sample for an entity.
func (p *MemoryProvider) Set(entityID string, sample model.MetricSample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples[entityID] = sample
}

// Delete removes an entity's sample, making it unknown to the provider.
func (p *MemoryProvider) Delete(entityID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.samples, entityID)
}

// Current returns the entity's latest metric sample.
func (p *MemoryProvider) Current(ctx context.Context, entityID string) (model.MetricSample, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sample, ok := p.samples[entityID]
	if !ok {
		return model.MetricSample{}, ErrNoData
	}
	return sample, nil
}
