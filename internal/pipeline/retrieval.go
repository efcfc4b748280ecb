package pipeline

import (
	"context"
	"sync"
	"time"

	"Mnemo/internal/embedding"
	"Mnemo/internal/memory/store"
	"Mnemo/internal/models"
)

// Retriever runs the hybrid retrieval stage: vector and graph lookups execute
// concurrently, each under its own timeout. A failed source reports an error
// string instead of failing the turn; an empty result with no error means
// "nothing relevant".
type Retriever struct {
	vectors      store.VectorStore
	graph        store.GraphStore
	embedder     embedding.Embedding
	topK         int
	storeTimeout time.Duration
}

// NewRetriever builds the stage.
func NewRetriever(vectors store.VectorStore, graph store.GraphStore, embedder embedding.Embedding, topK int, storeTimeout time.Duration) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Retriever{
		vectors:      vectors,
		graph:        graph,
		embedder:     embedder,
		topK:         topK,
		storeTimeout: storeTimeout,
	}
}

// Retrieve executes the plan for the user. Both branches always run to
// completion or timeout; the result is never nil.
func (r *Retriever) Retrieve(ctx context.Context, userID string, plan *models.RetrievalPlan) *models.RetrievalResults {
	results := &models.RetrievalResults{}

	var wg sync.WaitGroup
	if !plan.SkipVector && len(plan.SearchTerms) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chunks, err := r.searchVector(ctx, userID, plan.SearchTerms)
			if err != nil {
				results.VectorErr = err.Error()
				return
			}
			results.Vector = chunks
		}()
	}
	if !plan.SkipGraph && plan.GraphQuery != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			facts, err := r.searchGraph(ctx, userID, plan.GraphQuery)
			if err != nil {
				results.GraphErr = err.Error()
				return
			}
			results.Graph = facts
		}()
	}
	wg.Wait()

	return results
}

// searchVector embeds each search term, queries the vector store per term and
// merges the hits: deduplicated by chunk ID keeping the best score, ordered
// deterministically, bounded by topK.
func (r *Retriever) searchVector(ctx context.Context, userID string, terms []string) ([]models.MemoryChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	seen := make(map[string]int)
	var merged []models.MemoryChunk
	for _, term := range terms {
		vector, err := r.embedder.Embed(ctx, term)
		if err != nil {
			return nil, err
		}
		chunks, err := r.vectors.SearchChunks(ctx, userID, vector, r.topK)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			if idx, ok := seen[chunk.ID]; ok {
				if chunk.Score > merged[idx].Score {
					merged[idx] = chunk
				}
				continue
			}
			seen[chunk.ID] = len(merged)
			merged = append(merged, chunk)
		}
	}

	store.SortChunks(merged)
	if len(merged) > r.topK {
		merged = merged[:r.topK]
	}
	return merged, nil
}

func (r *Retriever) searchGraph(ctx context.Context, userID string, q *models.GraphQuery) ([]*models.MemoryFact, error) {
	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	return r.graph.QueryFacts(ctx, userID, q)
}
