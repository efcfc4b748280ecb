package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"Mnemo/internal/database/milvus"
	"Mnemo/internal/models"
)

// Milvus collection field names. They must match the schema in the config.
const (
	fieldID        = "id"
	fieldUserID    = "user_id"
	fieldText      = "text"
	fieldCreatedAt = "created_at"
)

// MilvusStore implements VectorStore on a Milvus collection.
type MilvusStore struct {
	db *milvus.Client
}

// NewMilvusStore wraps an injected Milvus client.
func NewMilvusStore(db *milvus.Client) *MilvusStore {
	return &MilvusStore{db: db}
}

// SearchChunks runs a similarity search restricted to the user's partition of
// the collection. Results come back ordered by descending score; equal scores
// are broken by recency so repeated queries stay deterministic.
func (s *MilvusStore) SearchChunks(ctx context.Context, userID string, vector []float32, topK int) ([]models.MemoryChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	expr := fmt.Sprintf("%s == \"%s\"", fieldUserID, escapeExpr(userID))
	outputFields := []string{fieldID, fieldUserID, fieldText, fieldCreatedAt}

	results, err := s.db.Search(ctx, topK, vector, expr, outputFields)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	var chunks []models.MemoryChunk
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			chunk := models.MemoryChunk{UserID: userID}
			if i < len(result.Scores) {
				chunk.Score = result.Scores[i]
			}
			for _, col := range result.Fields {
				switch col.Name() {
				case fieldID:
					if v, err := col.GetAsString(i); err == nil {
						chunk.ID = v
					}
				case fieldText:
					if v, err := col.GetAsString(i); err == nil {
						chunk.Text = v
					}
				case fieldCreatedAt:
					if v, err := col.GetAsInt64(i); err == nil {
						chunk.CreatedAt = time.Unix(v, 0).UTC()
					}
				}
			}
			chunks = append(chunks, chunk)
		}
	}

	SortChunks(chunks)
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks, nil
}

// AddChunk appends a chunk row with its embedding.
func (s *MilvusStore) AddChunk(ctx context.Context, chunk *models.MemoryChunk, vector []float32) error {
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC()
	}

	dim := len(vector)
	columns := []entity.Column{
		entity.NewColumnVarChar(fieldID, []string{chunk.ID}),
		entity.NewColumnVarChar(fieldUserID, []string{chunk.UserID}),
		entity.NewColumnVarChar(fieldText, []string{chunk.Text}),
		entity.NewColumnInt64(fieldCreatedAt, []int64{chunk.CreatedAt.Unix()}),
		entity.NewColumnFloatVector(s.db.Config.Schema.VectorField, dim, [][]float32{vector}),
	}

	if err := s.db.InsertColumns(ctx, columns...); err != nil {
		return fmt.Errorf("failed to add chunk: %w", err)
	}
	// Writer volume is low; flushing per insert keeps new memories searchable
	// without a background flush schedule.
	if err := s.db.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush after adding chunk: %w", err)
	}
	return nil
}

// SortChunks orders chunks by descending score, breaking ties by most recent
// CreatedAt and then by ID.
func SortChunks(chunks []models.MemoryChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		if !chunks[i].CreatedAt.Equal(chunks[j].CreatedAt) {
			return chunks[i].CreatedAt.After(chunks[j].CreatedAt)
		}
		return chunks[i].ID < chunks[j].ID
	})
}

func escapeExpr(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, "\"", "\\\"")
}
