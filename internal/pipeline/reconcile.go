package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"Mnemo/internal/models"
)

// Reconcile folds the raw retrieval results into the per-turn context.
//
// Facts deduplicate on (subject, predicate): the later ValidFrom wins, and on
// equal timestamps graph provenance wins. When the current turn carries an
// override, every fact touching the override target is marked superseded so
// the prompt never argues with the user about their own correction; the
// durable supersede happens later in the memory writer.
func Reconcile(results *models.RetrievalResults, check *models.TemporalCheck, message string) *models.RetrievalContext {
	rc := &models.RetrievalContext{}

	byKey := make(map[string]int)
	for _, fact := range results.Graph {
		if fact == nil {
			continue
		}
		key := fact.Key()
		if idx, ok := byKey[key]; ok {
			if supersedes(fact, &rc.Facts[idx].Fact) {
				rc.Facts[idx].Fact = *fact
			}
			continue
		}
		byKey[key] = len(rc.Facts)
		rc.Facts = append(rc.Facts, models.ContextFact{Fact: *fact})
	}

	// Deterministic order: newest first, key as tie-breaker.
	sort.SliceStable(rc.Facts, func(i, j int) bool {
		fi, fj := rc.Facts[i].Fact, rc.Facts[j].Fact
		if !fi.ValidFrom.Equal(fj.ValidFrom) {
			return fi.ValidFrom.After(fj.ValidFrom)
		}
		return fi.Key() < fj.Key()
	})

	target := ""
	if check != nil && check.IsOverride {
		rc.OverrideAssertion = message
		target = strings.ToLower(strings.TrimSpace(check.TargetNodeLabel))
	}

	for i := range rc.Facts {
		fact := &rc.Facts[i]
		fact.Provenance = models.Provenance{
			Store: models.SourceGraph,
			Query: fact.Fact.Subject,
			Rank:  i,
		}
		if target != "" && factMatchesTarget(&fact.Fact, target) {
			fact.Superseded = true
		}
	}

	if target != "" {
		groundConflictSummary(check, rc.Facts)
	}

	for i, chunk := range results.Vector {
		rc.Chunks = append(rc.Chunks, models.ContextChunk{
			Chunk: chunk,
			Provenance: models.Provenance{
				Store: models.SourceVector,
				Rank:  i,
				Score: chunk.Score,
			},
		})
	}

	return rc
}

// supersedes reports whether a should replace b for the same key.
func supersedes(a, b *models.MemoryFact) bool {
	if !a.ValidFrom.Equal(b.ValidFrom) {
		return a.ValidFrom.After(b.ValidFrom)
	}
	return a.Source == models.SourceGraph && b.Source != models.SourceGraph
}

// groundConflictSummary rewrites the override's conflict summary from the
// stored facts that actually matched the target, replacing whatever earlier
// belief the classifier guessed at. A first-time assertion has nothing on
// record to conflict with, so the summary is cleared.
func groundConflictSummary(check *models.TemporalCheck, facts []models.ContextFact) {
	var prior []string
	for _, f := range facts {
		if f.Superseded {
			prior = append(prior, fmt.Sprintf("%s %s %s", f.Fact.Subject, f.Fact.Predicate, f.Fact.Object))
		}
	}
	if len(prior) == 0 {
		check.ConflictSummary = ""
		return
	}
	check.ConflictSummary = "previously remembered: " + strings.Join(prior, "; ")
}

// factMatchesTarget checks whether a fact is about the overridden attribute.
// Predicate matching is loose on purpose: the label comes from a model and
// rarely spells the predicate exactly.
func factMatchesTarget(fact *models.MemoryFact, target string) bool {
	predicate := strings.ToLower(fact.Predicate)
	if predicate != "" && (strings.Contains(predicate, target) || strings.Contains(target, predicate)) {
		return true
	}
	return strings.ToLower(fact.Subject) == target
}

// summarize builds the trace entry for the reconciliation stage.
func summarize(rc *models.RetrievalContext) *models.ReconciliationStep {
	step := &models.ReconciliationStep{
		Facts:  len(rc.Facts),
		Chunks: len(rc.Chunks),
	}
	for _, f := range rc.Facts {
		if f.Superseded {
			step.SupersededKeys = append(step.SupersededKeys, f.Fact.Key())
		}
	}
	return step
}
