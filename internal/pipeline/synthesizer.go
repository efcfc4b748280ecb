package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Mnemo/internal/llm"
	"Mnemo/internal/models"
)

// DegradedResponse is returned when synthesis fails after its bounded retry.
// The turn still succeeds from the caller's point of view.
const DegradedResponse = "I'm sorry, I'm having trouble answering right now. Please try again in a moment."

const synthesisPreamble = `You are a helpful assistant with long-term memory of the user.
Answer the user's message naturally. Use the remembered context below when it
is relevant; never mention the memory system itself.`

// Synthesizer runs the final response generation.
type Synthesizer struct {
	model      llm.LLM
	charBudget int
	retries    int
	backoff    time.Duration
	grounding  bool
}

// NewSynthesizer builds the stage. charBudget bounds the remembered-context
// portion of the prompt; retries is the number of additional attempts after
// the first on transient failure.
func NewSynthesizer(model llm.LLM, charBudget, retries int, backoff time.Duration, grounding bool) *Synthesizer {
	if charBudget <= 0 {
		charBudget = 6000
	}
	if retries < 0 {
		retries = 0
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Synthesizer{
		model:      model,
		charBudget: charBudget,
		retries:    retries,
		backoff:    backoff,
		grounding:  grounding,
	}
}

// Synthesize generates the response. The result is never nil: after the
// bounded retry is exhausted it carries the degraded apology with Degraded
// set, and the returned error describes the last failure for the trace.
func (s *Synthesizer) Synthesize(ctx context.Context, turn *models.Turn, rc *models.RetrievalContext, history []models.StoredTurn) (*models.SynthesisResult, error) {
	prompt := s.buildPrompt(turn, rc, history)
	req := s.buildRequest(prompt, turn.Attachments)

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				return s.degraded(prompt), lastErr
			case <-time.After(s.backoff):
			}
		}

		resp, err := s.model.GenerateContent(ctx, req)
		if err != nil {
			lastErr = err
			if llm.IsTransient(err) {
				continue
			}
			break
		}
		return &models.SynthesisResult{
			Content:   resp.Text(),
			Grounding: resp.Grounding,
			Prompt:    prompt,
			ModelUsed: s.model.Model(),
		}, nil
	}
	return s.degraded(prompt), lastErr
}

func (s *Synthesizer) degraded(prompt string) *models.SynthesisResult {
	return &models.SynthesisResult{
		Content:   DegradedResponse,
		Prompt:    prompt,
		ModelUsed: s.model.Model(),
		Degraded:  true,
	}
}

// buildPrompt assembles the final prompt. The remembered context honors the
// character budget: facts are admitted before chunks and both in rank order,
// so when the budget runs out the lowest-ranked chunks drop first.
func (s *Synthesizer) buildPrompt(turn *models.Turn, rc *models.RetrievalContext, history []models.StoredTurn) string {
	var b strings.Builder
	b.WriteString(synthesisPreamble)
	b.WriteString("\n\n")
	b.WriteString(s.buildMemoryBlock(rc))

	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, st := range history {
			fmt.Fprintf(&b, "user: %s\nassistant: %s\n", st.Turn.Message, st.Response)
		}
		b.WriteString("\n")
	}

	b.WriteString("User message:\n")
	b.WriteString(turn.Message)
	return b.String()
}

func (s *Synthesizer) buildMemoryBlock(rc *models.RetrievalContext) string {
	budget := s.charBudget
	var facts, chunks []string

	for _, f := range rc.PromptFacts() {
		line := fmt.Sprintf("- %s %s %s\n", f.Fact.Subject, f.Fact.Predicate, f.Fact.Object)
		if len(line) > budget {
			break
		}
		budget -= len(line)
		facts = append(facts, line)
	}
	for _, c := range rc.Chunks {
		line := fmt.Sprintf("- %s\n", c.Chunk.Text)
		if len(line) > budget {
			break
		}
		budget -= len(line)
		chunks = append(chunks, line)
	}

	var b strings.Builder
	if len(facts) > 0 {
		b.WriteString("Known facts about the user:\n")
		for _, line := range facts {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	if len(chunks) > 0 {
		b.WriteString("Relevant memories:\n")
		for _, line := range chunks {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	if rc.OverrideAssertion != "" {
		fmt.Fprintf(&b, "The user has just corrected their remembered information: %q. Treat this as the current truth and disregard anything above that contradicts it.\n\n", rc.OverrideAssertion)
	}
	return b.String()
}

func (s *Synthesizer) buildRequest(prompt string, attachments []models.Attachment) *models.GenerateContentRequest {
	parts := []*models.Part{{Text: prompt}}
	for _, att := range attachments {
		if len(att.Data) == 0 {
			continue
		}
		parts = append(parts, &models.Part{
			InlineData: &models.Blob{MIMEType: att.MIMEType, Data: att.Data},
		})
	}
	return &models.GenerateContentRequest{
		Content:      []models.Content{{Role: models.SpeakerUser, Parts: parts}},
		WebGrounding: s.grounding,
	}
}
