package pipeline

import (
	"context"
	"fmt"
	"strings"

	"Mnemo/internal/llm"
	"Mnemo/internal/models"
	"Mnemo/pkg/jsonutil"
)

const plannerPrompt = `You plan memory retrieval for a personal assistant. Two
stores are available: a vector store of free-text memories searched by
semantic similarity, and a graph store of structured facts about the user
queried by subject and optional predicate.

Decide what to retrieve for the message below. Skip a store only when it
clearly cannot help (e.g. pure small talk).

Respond with JSON only, in this exact shape:
{"search_terms": ["..."], "graph_query": {"subject": "user", "predicate": ""}, "skip_vector": false, "skip_graph": false}

"search_terms": at most %d short phrases for the vector store.
"graph_query": the fact lookup, or null when skip_graph is true. An empty
predicate matches all facts of the subject.
%s
User message:
%s`

// Planner produces the retrieval plan for a turn.
type Planner struct {
	model           llm.LLM
	maxSearchTerms  int
	maxGraphResults int
}

// NewPlanner builds the stage. The ceilings are enforced on the model output,
// never trusted from it.
func NewPlanner(model llm.LLM, maxSearchTerms, maxGraphResults int) *Planner {
	if maxSearchTerms <= 0 {
		maxSearchTerms = 3
	}
	if maxGraphResults <= 0 {
		maxGraphResults = 25
	}
	return &Planner{model: model, maxSearchTerms: maxSearchTerms, maxGraphResults: maxGraphResults}
}

// Plan asks the model for a retrieval plan and clamps it to the configured
// ceilings. On failure the caller falls back to FallbackPlan.
func (p *Planner) Plan(ctx context.Context, message string, check *models.TemporalCheck) (*models.RetrievalPlan, error) {
	var overrideHint string
	if check != nil && check.IsOverride {
		overrideHint = fmt.Sprintf("The message overrides an earlier memory about %q; make sure the graph query covers it.\n", check.TargetNodeLabel)
	}

	req := models.TextRequest(fmt.Sprintf(plannerPrompt, p.maxSearchTerms, overrideHint, message))
	req.ResponseJSON = true

	resp, err := p.model.GenerateContent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("planning failed: %w", err)
	}

	var plan models.RetrievalPlan
	if err := jsonutil.UnmarshalObject(resp.Text(), &plan); err != nil {
		return nil, fmt.Errorf("malformed plan output: %w", err)
	}

	p.clamp(&plan)
	plan.ModelUsed = p.model.Model()
	return &plan, nil
}

// FallbackPlan is the degraded plan used when planning fails: a vector search
// on the raw message only. Without a trustworthy plan there is no fact lookup
// to issue, so the graph branch is skipped.
func (p *Planner) FallbackPlan(message string) *models.RetrievalPlan {
	plan := &models.RetrievalPlan{
		SearchTerms: []string{message},
	}
	p.clamp(plan)
	return plan
}

func (p *Planner) clamp(plan *models.RetrievalPlan) {
	terms := make([]string, 0, len(plan.SearchTerms))
	for _, t := range plan.SearchTerms {
		t = strings.TrimSpace(t)
		if t != "" {
			terms = append(terms, t)
		}
		if len(terms) == p.maxSearchTerms {
			break
		}
	}
	plan.SearchTerms = terms
	if len(plan.SearchTerms) == 0 {
		plan.SkipVector = true
	}

	if plan.GraphQuery != nil {
		plan.GraphQuery.Subject = strings.TrimSpace(plan.GraphQuery.Subject)
		if plan.GraphQuery.Subject == "" {
			plan.GraphQuery = nil
		} else if plan.GraphQuery.Limit <= 0 || plan.GraphQuery.Limit > p.maxGraphResults {
			plan.GraphQuery.Limit = p.maxGraphResults
		}
	}
	if plan.GraphQuery == nil {
		plan.SkipGraph = true
	}
}
