package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"Mnemo/internal/llm"
	"Mnemo/internal/models"
)

func testTurn(message string) *models.Turn {
	return &models.Turn{
		ID:             "t1",
		ConversationID: "c1",
		UserID:         "u1",
		Message:        message,
	}
}

func TestSynthesizeIncludesMemoryAndHistory(t *testing.T) {
	model := &fakeLLM{replies: []reply{{text: "You live in Berlin."}}}
	s := NewSynthesizer(model, 6000, 1, time.Millisecond, false)

	rc := &models.RetrievalContext{
		Facts:  []models.ContextFact{{Fact: models.MemoryFact{Subject: "user", Predicate: "lives_in", Object: "Berlin"}}},
		Chunks: []models.ContextChunk{{Chunk: models.MemoryChunk{Text: "moved last spring"}}},
	}
	history := []models.StoredTurn{{
		Turn:     models.Turn{Message: "hello"},
		Response: "hi there",
	}}

	result, err := s.Synthesize(context.Background(), testTurn("where do I live?"), rc, history)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if result.Content != "You live in Berlin." {
		t.Errorf("content = %q", result.Content)
	}
	for _, want := range []string{"user lives_in Berlin", "moved last spring", "user: hello", "assistant: hi there", "where do I live?"} {
		if !strings.Contains(result.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSynthesizeCharBudgetDropsLowestRanked(t *testing.T) {
	model := &fakeLLM{replies: []reply{{text: "ok"}}}
	s := NewSynthesizer(model, 60, 0, time.Millisecond, false)

	rc := &models.RetrievalContext{
		Facts: []models.ContextFact{{Fact: models.MemoryFact{Subject: "user", Predicate: "lives_in", Object: "Berlin"}}},
	}
	for i := 0; i < 10; i++ {
		rc.Chunks = append(rc.Chunks, models.ContextChunk{
			Chunk: models.MemoryChunk{Text: fmt.Sprintf("chunk number %02d with some padding text", i)},
		})
	}

	result, err := s.Synthesize(context.Background(), testTurn("hi"), rc, nil)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if !strings.Contains(result.Prompt, "user lives_in Berlin") {
		t.Error("facts must survive the budget before chunks")
	}
	if strings.Contains(result.Prompt, "chunk number 09") {
		t.Error("lowest-ranked chunks should be dropped first")
	}
}

func TestSynthesizeOverrideAssertionInPrompt(t *testing.T) {
	model := &fakeLLM{replies: []reply{{text: "Green it is."}}}
	s := NewSynthesizer(model, 6000, 0, time.Millisecond, false)

	rc := &models.RetrievalContext{OverrideAssertion: "my favorite color is green now"}
	result, err := s.Synthesize(context.Background(), testTurn("my favorite color is green now"), rc, nil)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if !strings.Contains(result.Prompt, "my favorite color is green now") {
		t.Error("prompt missing the override assertion")
	}
	if !strings.Contains(result.Prompt, "current truth") {
		t.Error("prompt missing the override instruction")
	}
}

func TestSynthesizeRetriesTransientThenSucceeds(t *testing.T) {
	model := &fakeLLM{replies: []reply{
		{err: fmt.Errorf("wrapped: %w", llm.ErrRateLimited)},
		{text: "recovered"},
	}}
	s := NewSynthesizer(model, 6000, 1, time.Millisecond, false)

	result, err := s.Synthesize(context.Background(), testTurn("hi"), &models.RetrievalContext{}, nil)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if result.Degraded {
		t.Error("expected recovery on retry, got degraded result")
	}
	if result.Content != "recovered" {
		t.Errorf("content = %q", result.Content)
	}
	if len(model.calls) != 2 {
		t.Errorf("model calls = %d, want 2", len(model.calls))
	}
}

func TestSynthesizeDegradedAfterExhaustedRetries(t *testing.T) {
	model := &fakeLLM{replies: []reply{
		{err: fmt.Errorf("wrapped: %w", llm.ErrTimeout)},
	}}
	s := NewSynthesizer(model, 6000, 1, time.Millisecond, false)

	result, err := s.Synthesize(context.Background(), testTurn("hi"), &models.RetrievalContext{}, nil)
	if err == nil {
		t.Error("expected the last failure to be reported")
	}
	if !result.Degraded {
		t.Fatal("expected a degraded result")
	}
	if result.Content != DegradedResponse {
		t.Errorf("content = %q, want the apology", result.Content)
	}
	if len(model.calls) != 2 {
		t.Errorf("model calls = %d, want 2", len(model.calls))
	}
}

func TestSynthesizeNoRetryOnPermanentFailure(t *testing.T) {
	model := &fakeLLM{replies: []reply{{err: errors.New("invalid request")}}}
	s := NewSynthesizer(model, 6000, 3, time.Millisecond, false)

	result, _ := s.Synthesize(context.Background(), testTurn("hi"), &models.RetrievalContext{}, nil)
	if !result.Degraded {
		t.Fatal("expected a degraded result")
	}
	if len(model.calls) != 1 {
		t.Errorf("model calls = %d, want 1 (no retry on permanent failure)", len(model.calls))
	}
}

func TestSynthesizeAttachmentsAndGrounding(t *testing.T) {
	model := &fakeLLM{replies: []reply{{text: "nice picture"}}}
	s := NewSynthesizer(model, 6000, 0, time.Millisecond, true)

	turn := testTurn("what's in this photo?")
	turn.Attachments = []models.Attachment{{Name: "a.png", MIMEType: "image/png", Data: []byte{1, 2, 3}}}

	if _, err := s.Synthesize(context.Background(), turn, &models.RetrievalContext{}, nil); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	req := model.calls[0]
	if !req.WebGrounding {
		t.Error("expected WebGrounding on the request")
	}
	var hasBlob bool
	for _, p := range req.Content[0].Parts {
		if p.InlineData != nil {
			hasBlob = true
		}
	}
	if !hasBlob {
		t.Error("expected the attachment as an inline part")
	}
}
