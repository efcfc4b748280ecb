package extractor

import (
	"context"
	"errors"
	"testing"

	"Mnemo/internal/models"
)

type fakeLLM struct {
	text string
	err  error
	req  *models.GenerateContentRequest
}

func (f *fakeLLM) Model() string { return "fake" }

func (f *fakeLLM) GenerateContent(_ context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.GenerateContentResponse{
		Content: []models.Content{{Role: models.SpeakerModel, Parts: []*models.Part{{Text: f.text}}}},
	}, nil
}

func TestExtractParsesFactsAndPassage(t *testing.T) {
	model := &fakeLLM{text: `{
		"facts": [
			{"subject": "user", "predicate": "lives_in", "object": "Berlin", "confidence": 0.95},
			{"subject": "", "predicate": "ignored", "object": "x", "confidence": 0.5}
		],
		"passage": "  moved to Berlin for a new job  "
	}`}
	ex := NewLLMExtractor(model)

	got, err := ex.Extract(context.Background(), "u1", "I moved to Berlin", "Noted!")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(got.Facts) != 1 {
		t.Fatalf("got %d facts, want 1 (incomplete triples are dropped)", len(got.Facts))
	}
	f := got.Facts[0]
	if f.UserID != "u1" || f.Object != "Berlin" || f.Source != models.SourceGraph {
		t.Errorf("fact = %+v", f)
	}
	if f.ValidFrom.IsZero() {
		t.Error("ValidFrom should be stamped")
	}
	if got.Passage != "moved to Berlin for a new job" {
		t.Errorf("passage = %q", got.Passage)
	}
	if !model.req.ResponseJSON {
		t.Error("extraction should request JSON mode")
	}
}

func TestExtractModelFailure(t *testing.T) {
	ex := NewLLMExtractor(&fakeLLM{err: errors.New("down")})
	if _, err := ex.Extract(context.Background(), "u1", "m", "r"); err == nil {
		t.Fatal("expected error")
	}
}

func TestExtractMalformedOutput(t *testing.T) {
	ex := NewLLMExtractor(&fakeLLM{text: "no json here"})
	if _, err := ex.Extract(context.Background(), "u1", "m", "r"); err == nil {
		t.Fatal("expected error on malformed output")
	}
}
