package llm

import (
	"context"

	"Mnemo/internal/models"
	"Mnemo/pkg/circuitbreaker"
)

// Resilient wraps an LLM with a circuit breaker so a flapping upstream fails
// fast instead of burning every stage's timeout budget. A tripped breaker
// surfaces as ErrCircuitOpen, which stages treat as a transient upstream
// failure.
type Resilient struct {
	inner   LLM
	breaker circuitbreaker.CircuitBreaker
}

// WithBreaker wraps inner with cb.
func WithBreaker(inner LLM, cb circuitbreaker.CircuitBreaker) *Resilient {
	return &Resilient{inner: inner, breaker: cb}
}

// Model returns the backing model identifier.
func (r *Resilient) Model() string {
	return r.inner.Model()
}

// GenerateContent runs the call through the breaker.
func (r *Resilient) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		return r.inner.GenerateContent(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.GenerateContentResponse), nil
}
