package writer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"Mnemo/internal/embedding"
	"Mnemo/internal/llm"
	"Mnemo/internal/memory/extractor"
	"Mnemo/internal/memory/store"
	"Mnemo/internal/models"
	"Mnemo/pkg/logger"
)

// Writer commits one task's memory: it extracts facts and a salient passage
// from the exchange, upserts the facts into the graph store and appends the
// passage to the vector store. A lost update is logged, never surfaced to the
// user who already received the response.
type Writer struct {
	extractor extractor.Extractor
	vectors   store.VectorStore
	graph     store.GraphStore
	embedder  embedding.Embedding
	log       *logger.Logger
	timeout   time.Duration
	backoff   time.Duration
}

// NewWriter builds a memory writer. timeout bounds one full commit attempt.
func NewWriter(ex extractor.Extractor, vectors store.VectorStore, graph store.GraphStore, embedder embedding.Embedding, log *logger.Logger, timeout, backoff time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Writer{
		extractor: ex,
		vectors:   vectors,
		graph:     graph,
		embedder:  embedder,
		log:       log,
		timeout:   timeout,
		backoff:   backoff,
	}
}

// Process commits one task with a single best-effort retry on transient
// failure. It always returns nil to the queue; failures only log.
func (w *Writer) Process(ctx context.Context, task *Task) error {
	log := w.log.WithStage("memory_writer").WithTurn(task.ConversationID, task.TurnID)

	if err := w.commit(ctx, task); err != nil {
		if !llm.IsTransient(err) {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "memory_commit"}).Warn("memory update dropped")
			return nil
		}
		select {
		case <-ctx.Done():
			log.Warn("memory update dropped: shutting down")
			return nil
		case <-time.After(w.backoff):
		}
		if err := w.commit(ctx, task); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "memory_commit"}).Warn("memory update dropped after retry")
		}
	}
	return nil
}

func (w *Writer) commit(ctx context.Context, task *Task) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	extraction, err := w.extractor.Extract(ctx, task.UserID, task.Message, task.Response)
	if err != nil {
		return err
	}

	var firstErr error
	for i := range extraction.Facts {
		fact := extraction.Facts[i]
		if err := w.graph.UpsertFact(ctx, &fact); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if extraction.Passage != "" {
		vector, err := w.embedder.Embed(ctx, extraction.Passage)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			chunk := &models.MemoryChunk{
				ID:        uuid.NewString(),
				UserID:    task.UserID,
				Text:      extraction.Passage,
				CreatedAt: time.Now().UTC(),
			}
			if err := w.vectors.AddChunk(ctx, chunk, vector); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
