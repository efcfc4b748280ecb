package models

import "time"

// Fact sources, used as provenance and as the conflict tie-breaker.
const (
	SourceGraph  = "graph"
	SourceVector = "vector"
)

// MemoryFact is a structured graph-resident statement about a subject.
// Facts are append-only: an override writes a new fact and links the old one
// through SupersededBy, it never deletes.
type MemoryFact struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Subject     string     `json:"subject"`
	Predicate   string     `json:"predicate"`
	Object      string     `json:"object"`
	Confidence  float64    `json:"confidence,omitempty"`
	Source      string     `json:"source"`
	ValidFrom   time.Time  `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	SupersededBy string    `json:"superseded_by,omitempty"`
}

// Key returns the uniqueness key of a fact. Upserts and reconciliation
// deduplicate on it.
func (f *MemoryFact) Key() string {
	return f.Subject + "|" + f.Predicate
}

// Current reports whether the fact has not been superseded.
func (f *MemoryFact) Current() bool {
	return f.SupersededBy == ""
}
