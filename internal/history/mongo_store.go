// Package history persists completed turns and serves the recent-history
// window used in prompt building. Attachment payloads are archived to object
// storage; Mongo only keeps the reference.
package history

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"Mnemo/internal/models"
)

// MongoStore keeps completed turns in a MongoDB collection.
type MongoStore struct {
	coll     *mongo.Collection
	archiver *Archiver // optional
}

// NewMongoStore wraps an injected Mongo client. archiver may be nil; inline
// attachment payloads are then stored in the document as-is.
func NewMongoStore(client *mongo.Client, database, collection string, archiver *Archiver) *MongoStore {
	return &MongoStore{
		coll:     client.Database(database).Collection(collection),
		archiver: archiver,
	}
}

// SaveTurn persists one completed exchange. Attachment payloads are moved to
// object storage first so the document stays small; if archiving fails the
// payload is dropped from the record rather than failing the save.
func (s *MongoStore) SaveTurn(ctx context.Context, st *models.StoredTurn) error {
	if s.archiver != nil {
		for i := range st.Turn.Attachments {
			att := &st.Turn.Attachments[i]
			if len(att.Data) == 0 {
				continue
			}
			key, err := s.archiver.Archive(ctx, st.Turn.ID, att)
			if err == nil {
				att.ObjectKey = key
			}
			att.Data = nil
		}
	}

	if _, err := s.coll.InsertOne(ctx, st); err != nil {
		return fmt.Errorf("failed to persist turn: %w", err)
	}
	return nil
}

// RecentTurns returns the last n turns of the conversation in chronological
// order, oldest first, ready for prompt assembly.
func (s *MongoStore) RecentTurns(ctx context.Context, conversationID string, n int) ([]models.StoredTurn, error) {
	if n <= 0 {
		return nil, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(n))
	cursor, err := s.coll.Find(ctx, bson.M{"turn.conversation_id": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer cursor.Close(ctx)

	var turns []models.StoredTurn
	if err := cursor.All(ctx, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	// Find returned newest first; the prompt wants oldest first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
