package writer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"Mnemo/internal/llm"
	"Mnemo/internal/memory/extractor"
	"Mnemo/internal/models"
	"Mnemo/pkg/logger"
)

type fakeExtractor struct {
	extraction *extractor.Extraction
	errs       []error
	calls      int
}

func (f *fakeExtractor) Extract(_ context.Context, _, _, _ string) (*extractor.Extraction, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.extraction, nil
}

type fakeVectorStore struct {
	added []models.MemoryChunk
	err   error
}

func (f *fakeVectorStore) SearchChunks(_ context.Context, _ string, _ []float32, _ int) ([]models.MemoryChunk, error) {
	return nil, nil
}

func (f *fakeVectorStore) AddChunk(_ context.Context, chunk *models.MemoryChunk, _ []float32) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, *chunk)
	return nil
}

type fakeGraphStore struct {
	upserted []models.MemoryFact
	err      error
}

func (f *fakeGraphStore) QueryFacts(_ context.Context, _ string, _ *models.GraphQuery) ([]*models.MemoryFact, error) {
	return nil, nil
}

func (f *fakeGraphStore) UpsertFact(_ context.Context, fact *models.MemoryFact) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, *fact)
	return nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func testTask() *Task {
	return &Task{
		TurnID:         "t1",
		ConversationID: "c1",
		UserID:         "u1",
		Message:        "I moved to Berlin",
		Response:       "Noted!",
	}
}

func newTestWriter(ex extractor.Extractor, vectors *fakeVectorStore, graph *fakeGraphStore) *Writer {
	return NewWriter(ex, vectors, graph, fakeEmbedder{}, logger.New("test", "", ""), time.Second, time.Millisecond)
}

func TestProcessCommitsFactsAndPassage(t *testing.T) {
	ex := &fakeExtractor{extraction: &extractor.Extraction{
		Facts: []models.MemoryFact{
			{UserID: "u1", Subject: "user", Predicate: "lives_in", Object: "Berlin"},
		},
		Passage: "moved to Berlin in 2026",
	}}
	vectors := &fakeVectorStore{}
	graph := &fakeGraphStore{}

	if err := newTestWriter(ex, vectors, graph).Process(context.Background(), testTask()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(graph.upserted) != 1 || graph.upserted[0].Object != "Berlin" {
		t.Errorf("upserted facts = %+v", graph.upserted)
	}
	if len(vectors.added) != 1 || vectors.added[0].Text != "moved to Berlin in 2026" {
		t.Errorf("added chunks = %+v", vectors.added)
	}
	if vectors.added[0].ID == "" {
		t.Error("chunk should get an ID assigned")
	}
}

func TestProcessRetriesTransientFailureOnce(t *testing.T) {
	ex := &fakeExtractor{
		extraction: &extractor.Extraction{Passage: "something"},
		errs:       []error{fmt.Errorf("wrapped: %w", llm.ErrRateLimited)},
	}
	vectors := &fakeVectorStore{}

	if err := newTestWriter(ex, vectors, &fakeGraphStore{}).Process(context.Background(), testTask()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if ex.calls != 2 {
		t.Errorf("extractor calls = %d, want 2", ex.calls)
	}
	if len(vectors.added) != 1 {
		t.Error("the retry should have committed the passage")
	}
}

func TestProcessPermanentFailureDropsSilently(t *testing.T) {
	ex := &fakeExtractor{errs: []error{errors.New("malformed output")}}

	if err := newTestWriter(ex, &fakeVectorStore{}, &fakeGraphStore{}).Process(context.Background(), testTask()); err != nil {
		t.Fatalf("Process must absorb failures, got: %v", err)
	}
	if ex.calls != 1 {
		t.Errorf("extractor calls = %d, want 1 (no retry on permanent failure)", ex.calls)
	}
}

func TestProcessEmptyExtractionWritesNothing(t *testing.T) {
	ex := &fakeExtractor{extraction: &extractor.Extraction{}}
	vectors := &fakeVectorStore{}
	graph := &fakeGraphStore{}

	if err := newTestWriter(ex, vectors, graph).Process(context.Background(), testTask()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(vectors.added) != 0 || len(graph.upserted) != 0 {
		t.Error("an empty extraction must not touch the stores")
	}
}

func TestInProcessQueueDrainsTasks(t *testing.T) {
	ex := &fakeExtractor{extraction: &extractor.Extraction{Passage: "p"}}
	vectors := &fakeVectorStore{}
	w := newTestWriter(ex, vectors, &fakeGraphStore{})

	q := NewInProcessQueue(w, 8, 1, logger.New("test", "", ""))
	for i := 0; i < 4; i++ {
		if err := q.Enqueue(context.Background(), testTask()); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(vectors.added) != 4 {
		t.Errorf("committed chunks = %d, want 4", len(vectors.added))
	}
}

func TestInProcessQueueRejectsWhenFull(t *testing.T) {
	ex := &fakeExtractor{extraction: &extractor.Extraction{}}
	w := newTestWriter(ex, &fakeVectorStore{}, &fakeGraphStore{})

	q := &InProcessQueue{
		tasks:  make(chan *Task, 1),
		writer: w,
		log:    logger.New("test", "", ""),
		done:   make(chan struct{}),
	}
	// No workers running: the single buffer slot fills and stays full.
	if err := q.Enqueue(context.Background(), testTask()); err != nil {
		t.Fatalf("first enqueue should succeed: %v", err)
	}
	if err := q.Enqueue(context.Background(), testTask()); err == nil {
		t.Fatal("second enqueue should fail on a full queue")
	}
}
