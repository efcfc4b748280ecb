// Package writer performs the asynchronous memory update after a turn has
// already been answered. Tasks travel through an explicit queue; the serving
// path only enqueues and never waits for the commit.
package writer

import (
	"context"
	"time"
)

// Task is one pending memory update, carrying everything the commit needs so
// the worker never has to reach back into the serving path.
type Task struct {
	TurnID         string    `json:"turn_id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Message        string    `json:"message"`
	Response       string    `json:"response"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// Queue hands tasks to the memory writer. Enqueue must return quickly; a
// full or unreachable queue is the caller's signal to drop the update, not
// to block the turn.
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	Close() error
}
