package models

import "time"

// MemoryChunk is a vector-resident passage. Chunks are immutable once
// written; new knowledge is always a new chunk, never an in-place update.
type MemoryChunk struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Score     float32   `json:"score,omitempty"` // similarity score of the retrieval that surfaced it
	CreatedAt time.Time `json:"created_at"`
}
