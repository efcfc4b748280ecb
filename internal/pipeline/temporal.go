// Package pipeline runs one conversation turn through the memory
// orchestration stages: override detection, retrieval planning, hybrid
// retrieval, reconciliation and synthesis. Each stage has an explicit
// soft-fail policy so one degraded dependency never kills the turn.
package pipeline

import (
	"context"
	"fmt"

	"Mnemo/internal/llm"
	"Mnemo/internal/models"
	"Mnemo/pkg/jsonutil"
)

const temporalPrompt = `You classify whether a user message asserts a change that
overrides something previously remembered about them.

An override is a statement of new current truth: a changed preference,
attribute, relationship or decision ("actually my favorite color is green now",
"I moved to Berlin", "call me Sam from now on"). A question, small talk, or a
statement that adds new information without contradicting anything is NOT an
override.

Respond with JSON only, in this exact shape:
{"is_override": false, "conflict_summary": "", "target_node_label": ""}

"conflict_summary": one sentence describing the earlier belief being replaced, or "".
"target_node_label": the entity or attribute being changed (e.g. "favorite_color"), set on every override.

User message:
%s`

// TemporalChecker runs the override classification on a generative model.
type TemporalChecker struct {
	model llm.LLM
}

// NewTemporalChecker builds the stage on the given model.
func NewTemporalChecker(model llm.LLM) *TemporalChecker {
	return &TemporalChecker{model: model}
}

// Check classifies message. The returned ConflictSummary is the model's guess
// at the belief being replaced; Reconcile later re-grounds it in the facts
// actually on record. On a model or parse failure the caller treats the turn
// as a plain non-override; the returned error is for the trace only.
func (t *TemporalChecker) Check(ctx context.Context, message string) (*models.TemporalCheck, error) {
	req := models.TextRequest(fmt.Sprintf(temporalPrompt, message))
	req.ResponseJSON = true

	resp, err := t.model.GenerateContent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("temporal check failed: %w", err)
	}

	var check models.TemporalCheck
	if err := jsonutil.UnmarshalObject(resp.Text(), &check); err != nil {
		return nil, fmt.Errorf("malformed temporal check output: %w", err)
	}
	check.ModelUsed = t.model.Model()
	return &check, nil
}
