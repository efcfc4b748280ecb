package models

// TemporalCheck is the result of the override classification stage.
type TemporalCheck struct {
	// IsOverride is true when the message asserts a change that supersedes
	// stored memory.
	IsOverride bool `json:"is_override"`
	// ConflictSummary describes the prior contradicting fact, when one exists.
	ConflictSummary string `json:"conflict_summary,omitempty"`
	// TargetNodeLabel names the entity/attribute being overridden. Populated
	// on every override, including first-time assertions.
	TargetNodeLabel string `json:"target_node_label,omitempty"`
	ModelUsed       string `json:"model_used,omitempty"`
}

// GraphQuery is a bounded structured query against the graph store. The
// planner never emits raw query-language text; cost ceilings live here.
type GraphQuery struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate,omitempty"` // empty matches any predicate
	Limit     int    `json:"limit"`
}

// RetrievalPlan decides which retrieval modes run and with what inputs.
type RetrievalPlan struct {
	SearchTerms []string    `json:"search_terms"`
	GraphQuery  *GraphQuery `json:"graph_query,omitempty"`
	SkipVector  bool        `json:"skip_vector,omitempty"`
	SkipGraph   bool        `json:"skip_graph,omitempty"`
	ModelUsed   string      `json:"model_used,omitempty"`
}

// RetrievalResults carries the typed output of both stores. An empty slice
// with an empty error string means "nothing relevant"; a non-empty error
// string means that source was unreachable.
type RetrievalResults struct {
	Vector    []MemoryChunk `json:"vector"`
	Graph     []*MemoryFact `json:"graph"`
	VectorErr string        `json:"vector_error,omitempty"`
	GraphErr  string        `json:"graph_error,omitempty"`
}

// Provenance records which store and query produced a retrieved item.
type Provenance struct {
	Store string  `json:"store"`
	Query string  `json:"query"`
	Rank  int     `json:"rank"`
	Score float32 `json:"score,omitempty"`
}

// ContextFact is a fact admitted into the per-turn retrieval context.
type ContextFact struct {
	Fact       MemoryFact `json:"fact"`
	Provenance Provenance `json:"provenance"`
	// Superseded marks facts invalidated by the current turn's override.
	// They are excluded from the prompt; persistence happens later in the
	// memory writer.
	Superseded bool `json:"superseded,omitempty"`
}

// ContextChunk is a free-text passage admitted into the retrieval context.
type ContextChunk struct {
	Chunk      MemoryChunk `json:"chunk"`
	Provenance Provenance  `json:"provenance"`
}

// RetrievalContext is the ephemeral, reconciled, per-turn memory context.
// It is owned by the reconciliation stage and discarded after synthesis.
type RetrievalContext struct {
	Facts  []ContextFact  `json:"facts"`
	Chunks []ContextChunk `json:"chunks"`
	// OverrideAssertion carries the current turn's superseding statement when
	// an override was detected.
	OverrideAssertion string `json:"override_assertion,omitempty"`
}

// PromptFacts returns the facts eligible for prompt building, i.e. those not
// superseded by the current turn.
func (rc *RetrievalContext) PromptFacts() []ContextFact {
	out := make([]ContextFact, 0, len(rc.Facts))
	for _, f := range rc.Facts {
		if !f.Superseded {
			out = append(out, f)
		}
	}
	return out
}

// ReconciliationStep summarizes the reconciliation stage for the trace.
type ReconciliationStep struct {
	Facts          int      `json:"facts"`
	Chunks         int      `json:"chunks"`
	SupersededKeys []string `json:"superseded_keys,omitempty"`
}

// SynthesisResult is the output of the synthesis stage.
type SynthesisResult struct {
	Content   string              `json:"content"`
	Grounding []GroundingCitation `json:"grounding,omitempty"`
	// Prompt is the full assembled prompt, kept for audit.
	Prompt    string `json:"prompt"`
	ModelUsed string `json:"model_used,omitempty"`
	// Degraded is true when the content is the apology fallback after
	// exhausted retries.
	Degraded bool `json:"degraded,omitempty"`
}

// GroundingCitation attributes part of a response to an external source.
// It is response metadata, never persisted as memory.
type GroundingCitation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// StepLog is the ordered per-stage trace of one turn. Each stage has its own
// concrete result type; a nil field means the stage was skipped or produced
// no data. Fields are written once, in stage order, during the turn.
type StepLog struct {
	TemporalCheck  *TemporalCheck      `json:"temporal_check,omitempty"`
	Plan           *RetrievalPlan      `json:"plan,omitempty"`
	Retrieval      *RetrievalResults   `json:"retrieval,omitempty"`
	Reconciliation *ReconciliationStep `json:"reconciliation,omitempty"`
	Synthesis      *SynthesisResult    `json:"synthesis,omitempty"`
	CacheHit       bool                `json:"cache_hit,omitempty"`
}

// Encode flattens the typed trace into the fixed wire keys consumed by
// clients: step0_temporal_check through step5_response. Absent stages are
// omitted rather than emitted empty.
func (s *StepLog) Encode() map[string]interface{} {
	out := make(map[string]interface{})
	if s == nil {
		return out
	}
	if s.CacheHit {
		out["cache_hit"] = true
	}
	if s.TemporalCheck != nil {
		out["step0_temporal_check"] = s.TemporalCheck
	}
	if s.Plan != nil {
		out["step1_planner"] = s.Plan
	}
	if s.Retrieval != nil {
		retrieval := map[string]interface{}{
			"vector": s.Retrieval.Vector,
			"graph":  s.Retrieval.Graph,
		}
		if s.Retrieval.VectorErr != "" {
			retrieval["vector_error"] = s.Retrieval.VectorErr
		}
		if s.Retrieval.GraphErr != "" {
			retrieval["graph_error"] = s.Retrieval.GraphErr
		}
		out["step2_retrieval"] = retrieval
	}
	if s.Reconciliation != nil {
		out["step3_reconciliation"] = s.Reconciliation
	}
	if s.Synthesis != nil {
		out["step4_synthesis"] = map[string]interface{}{
			"model_used": s.Synthesis.ModelUsed,
			"degraded":   s.Synthesis.Degraded,
		}
		out["step5_response"] = map[string]interface{}{
			"prompt": s.Synthesis.Prompt,
		}
	}
	return out
}
