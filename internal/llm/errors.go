package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/meguminnnnnnnnn/go-openai"
	"google.golang.org/genai"

	"Mnemo/pkg/circuitbreaker"
)

// Upstream model failures are surfaced as distinguishable conditions so each
// pipeline stage can apply its documented soft-fail policy.
var (
	// ErrRateLimited marks an upstream 429 or quota exhaustion.
	ErrRateLimited = errors.New("upstream model rate limited")
	// ErrTimeout marks an upstream call that exceeded its deadline.
	ErrTimeout = errors.New("upstream model timeout")
)

// classifyErr maps provider-specific failures onto the shared sentinels.
// Unrecognized errors pass through unchanged.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var gerr genai.APIError
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	var aerr *openai.APIError
	if errors.As(err, &aerr) && aerr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	return err
}

// IsTransient reports whether err is a retryable upstream condition: rate
// limit, timeout, or an open circuit breaker.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, circuitbreaker.ErrCircuitOpen)
}
