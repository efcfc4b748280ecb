// Package store holds the persistent memory backends: a vector store for
// free-text passages and a graph store for structured facts.
package store

import (
	"context"

	"Mnemo/internal/models"
)

// VectorStore persists and retrieves free-text memory chunks by semantic
// similarity. Chunks are immutable; writes only append.
type VectorStore interface {
	// SearchChunks returns up to topK chunks of the user nearest to vector,
	// ordered by descending similarity score.
	SearchChunks(ctx context.Context, userID string, vector []float32, topK int) ([]models.MemoryChunk, error)
	// AddChunk appends a new chunk with its embedding.
	AddChunk(ctx context.Context, chunk *models.MemoryChunk, vector []float32) error
}

// GraphStore persists and retrieves structured facts. Facts are append-only:
// a changed value supersedes the old fact instead of overwriting it.
type GraphStore interface {
	// QueryFacts returns the current (non-superseded) facts of the user
	// matching the bounded query, newest first.
	QueryFacts(ctx context.Context, userID string, q *models.GraphQuery) ([]*models.MemoryFact, error)
	// UpsertFact writes fact atomically. When a current fact with the same
	// (subject, predicate) exists: an identical object is a no-op, a different
	// object marks the old fact superseded and links it to the new one.
	UpsertFact(ctx context.Context, fact *models.MemoryFact) error
}
