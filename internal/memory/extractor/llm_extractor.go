package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Mnemo/internal/llm"
	"Mnemo/internal/models"
	"Mnemo/pkg/jsonutil"
)

const extractPrompt = `You distill a conversation exchange into long-term memory.
Extract two things from the exchange below:
1. "facts": durable statements about the user as subject/predicate/object triples,
   with a confidence between 0 and 1. Only include stable, user-specific facts
   (preferences, attributes, relationships, decisions). Skip small talk.
2. "passage": one short free-text passage worth remembering verbatim, or "" if none.

Respond with JSON only, in this exact shape:
{"facts": [{"subject": "...", "predicate": "...", "object": "...", "confidence": 0.9}], "passage": "..."}

User message:
%s

Assistant response:
%s`

// LLMExtractor implements Extractor with a generative model in JSON mode.
type LLMExtractor struct {
	model llm.LLM
}

// NewLLMExtractor builds an extractor on the given model.
func NewLLMExtractor(model llm.LLM) *LLMExtractor {
	return &LLMExtractor{model: model}
}

type extractPayload struct {
	Facts []struct {
		Subject    string  `json:"subject"`
		Predicate  string  `json:"predicate"`
		Object     string  `json:"object"`
		Confidence float64 `json:"confidence"`
	} `json:"facts"`
	Passage string `json:"passage"`
}

// Extract asks the model for facts and a salient passage. Malformed model
// output is an error; the caller decides whether the turn's memory is lost.
func (e *LLMExtractor) Extract(ctx context.Context, userID, message, response string) (*Extraction, error) {
	req := models.TextRequest(fmt.Sprintf(extractPrompt, message, response))
	req.ResponseJSON = true

	resp, err := e.model.GenerateContent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	var payload extractPayload
	if err := jsonutil.UnmarshalObject(resp.Text(), &payload); err != nil {
		return nil, fmt.Errorf("malformed extraction output: %w", err)
	}

	now := time.Now().UTC()
	out := &Extraction{Passage: strings.TrimSpace(payload.Passage)}
	for _, f := range payload.Facts {
		subject := strings.TrimSpace(f.Subject)
		predicate := strings.TrimSpace(f.Predicate)
		object := strings.TrimSpace(f.Object)
		if subject == "" || predicate == "" || object == "" {
			continue
		}
		out.Facts = append(out.Facts, models.MemoryFact{
			UserID:     userID,
			Subject:    subject,
			Predicate:  predicate,
			Object:     object,
			Confidence: f.Confidence,
			Source:     models.SourceGraph,
			ValidFrom:  now,
		})
	}
	return out, nil
}
