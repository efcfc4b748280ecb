package ratelimiter

// RateLimiter is the interface for admission control on the chat endpoint.
type RateLimiter interface {
	// Allow returns true if the request is admitted, false if it should be rejected.
	Allow() bool
}
