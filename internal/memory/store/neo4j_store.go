package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"Mnemo/internal/database/neo4j"
	"Mnemo/internal/models"
)

// Neo4jStore implements GraphStore on a Neo4j database. Facts are :Fact nodes;
// an override links the new node to the old one with a :SUPERSEDES relation.
type Neo4jStore struct {
	db *neo4j.Client
}

// NewNeo4jStore wraps an injected Neo4j client.
func NewNeo4jStore(db *neo4j.Client) *Neo4jStore {
	return &Neo4jStore{db: db}
}

const queryFactsCypher = `
MATCH (f:Fact {user_id: $user_id, subject: $subject})
WHERE f.superseded_by IS NULL AND ($predicate = "" OR f.predicate = $predicate)
RETURN f.id AS id, f.subject AS subject, f.predicate AS predicate,
       f.object AS object, f.confidence AS confidence, f.valid_from AS valid_from
ORDER BY f.valid_from DESC, f.id
LIMIT $limit`

// QueryFacts returns the current facts of the user matching q, newest first.
// The query is bounded by q.Limit; a missing predicate matches any predicate.
func (s *Neo4jStore) QueryFacts(ctx context.Context, userID string, q *models.GraphQuery) ([]*models.MemoryFact, error) {
	if q == nil || q.Subject == "" {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}

	result, err := s.db.ExecuteRead(ctx, func(tx driver.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, queryFactsCypher, map[string]interface{}{
			"user_id":   userID,
			"subject":   q.Subject,
			"predicate": q.Predicate,
			"limit":     limit,
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		facts := make([]*models.MemoryFact, 0, len(records))
		for _, record := range records {
			fact := &models.MemoryFact{UserID: userID, Source: models.SourceGraph}
			if v, ok := record.Get("id"); ok {
				fact.ID, _ = v.(string)
			}
			if v, ok := record.Get("subject"); ok {
				fact.Subject, _ = v.(string)
			}
			if v, ok := record.Get("predicate"); ok {
				fact.Predicate, _ = v.(string)
			}
			if v, ok := record.Get("object"); ok {
				fact.Object, _ = v.(string)
			}
			if v, ok := record.Get("confidence"); ok {
				fact.Confidence, _ = v.(float64)
			}
			if v, ok := record.Get("valid_from"); ok {
				if epoch, ok := v.(int64); ok {
					fact.ValidFrom = time.Unix(epoch, 0).UTC()
				}
			}
			facts = append(facts, fact)
		}
		return facts, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	return result.([]*models.MemoryFact), nil
}

const upsertFactCypher = `
OPTIONAL MATCH (old:Fact {user_id: $user_id, subject: $subject, predicate: $predicate})
WHERE old.superseded_by IS NULL
WITH old ORDER BY old.valid_from DESC LIMIT 1
WITH old
WHERE old IS NULL OR old.object <> $object
CREATE (new:Fact {id: $id, user_id: $user_id, subject: $subject, predicate: $predicate,
                  object: $object, confidence: $confidence, source: $source, valid_from: $valid_from})
WITH old, new
FOREACH (o IN CASE WHEN old IS NULL THEN [] ELSE [old] END |
  SET o.superseded_by = new.id, o.valid_until = $valid_from
  CREATE (new)-[:SUPERSEDES]->(o)
)
RETURN new.id AS id`

// UpsertFact writes fact in a single write transaction. An existing current
// fact with the same (subject, predicate) and an identical object makes the
// write a no-op; a different object marks the old node superseded and links
// the new node to it. Nothing is ever deleted.
func (s *Neo4jStore) UpsertFact(ctx context.Context, fact *models.MemoryFact) error {
	if fact.ID == "" {
		fact.ID = uuid.NewString()
	}
	if fact.ValidFrom.IsZero() {
		fact.ValidFrom = time.Now().UTC()
	}
	source := fact.Source
	if source == "" {
		source = models.SourceGraph
	}

	_, err := s.db.ExecuteWrite(ctx, func(tx driver.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, upsertFactCypher, map[string]interface{}{
			"id":         fact.ID,
			"user_id":    fact.UserID,
			"subject":    fact.Subject,
			"predicate":  fact.Predicate,
			"object":     fact.Object,
			"confidence": fact.Confidence,
			"source":     source,
			"valid_from": fact.ValidFrom.Unix(),
		})
		if err != nil {
			return nil, err
		}
		// Zero rows means the object was unchanged and nothing was written.
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert fact: %w", err)
	}
	return nil
}
