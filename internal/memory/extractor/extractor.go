// Package extractor distills a finished conversation turn into durable
// memory: structured facts for the graph store and a salient passage for the
// vector store.
package extractor

import (
	"context"

	"Mnemo/internal/models"
)

// Extraction is the durable memory distilled from one turn. Either part may
// be empty when the turn carried nothing worth remembering.
type Extraction struct {
	Facts   []models.MemoryFact `json:"facts"`
	Passage string              `json:"passage"`
}

// Extractor turns a completed exchange into an Extraction.
type Extractor interface {
	Extract(ctx context.Context, userID, message, response string) (*Extraction, error)
}
