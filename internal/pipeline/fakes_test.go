package pipeline

import (
	"context"
	"errors"

	"Mnemo/internal/models"
)

// scripted reply of the fake model; the last one repeats.
type reply struct {
	text string
	err  error
}

type fakeLLM struct {
	replies []reply
	calls   []*models.GenerateContentRequest
}

func (f *fakeLLM) Model() string { return "fake-model" }

func (f *fakeLLM) GenerateContent(_ context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	f.calls = append(f.calls, req)
	if len(f.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return &models.GenerateContentResponse{
		Content: []models.Content{{
			Role:  models.SpeakerModel,
			Parts: []*models.Part{{Text: r.text}},
		}},
		ModelVersion: "fake-model",
	}, nil
}

type fakeVectorStore struct {
	chunks []models.MemoryChunk
	err    error
	added  []models.MemoryChunk
}

func (f *fakeVectorStore) SearchChunks(_ context.Context, _ string, _ []float32, topK int) ([]models.MemoryChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.chunks) > topK {
		return f.chunks[:topK], nil
	}
	return f.chunks, nil
}

func (f *fakeVectorStore) AddChunk(_ context.Context, chunk *models.MemoryChunk, _ []float32) error {
	f.added = append(f.added, *chunk)
	return nil
}

type fakeGraphStore struct {
	facts    []*models.MemoryFact
	err      error
	upserted []models.MemoryFact
}

func (f *fakeGraphStore) QueryFacts(_ context.Context, _ string, _ *models.GraphQuery) ([]*models.MemoryFact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.facts, nil
}

func (f *fakeGraphStore) UpsertFact(_ context.Context, fact *models.MemoryFact) error {
	f.upserted = append(f.upserted, *fact)
	return nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for range texts {
		v, err := f.Embed(ctx, "")
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type fakeCache struct {
	entries map[string]string
	sets    int
}

func (f *fakeCache) key(userID, message string) string { return userID + ":" + message }

func (f *fakeCache) Get(_ context.Context, userID, message string) (string, bool) {
	v, ok := f.entries[f.key(userID, message)]
	return v, ok
}

func (f *fakeCache) Set(_ context.Context, userID, message, response string) {
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	f.entries[f.key(userID, message)] = response
	f.sets++
}

type fakeHistory struct {
	turns   []models.StoredTurn
	loadErr error
	saved   []models.StoredTurn
}

func (f *fakeHistory) RecentTurns(_ context.Context, _ string, n int) ([]models.StoredTurn, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if len(f.turns) > n {
		return f.turns[len(f.turns)-n:], nil
	}
	return f.turns, nil
}

func (f *fakeHistory) SaveTurn(_ context.Context, st *models.StoredTurn) error {
	f.saved = append(f.saved, *st)
	return nil
}
