package llm

import (
	"context"
	"time"

	"google.golang.org/genai"

	"Mnemo/internal/models"
)

// Gemini is an LLM client backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client for the given model.
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: model}, nil
}

// Model returns the backing model identifier.
func (g *Gemini) Model() string {
	return g.model
}

// GenerateContent sends the request to the Gemini API. JSON mode and live
// grounding via the Google Search tool are configured per call.
func (g *Gemini) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	config := &genai.GenerateContentConfig{}
	if req.ResponseJSON {
		config.ResponseMIMEType = "application/json"
	}
	if req.WebGrounding {
		config.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, toGenaiContents(req.Content), config)
	if err != nil {
		return nil, classifyErr(err)
	}
	return fromGenaiResponse(resp), nil
}

// toGenaiContents converts internal Content into Gemini contents.
func toGenaiContents(content []models.Content) []*genai.Content {
	var out []*genai.Content
	for _, c := range content {
		role := genai.RoleUser
		if c.Role == models.SpeakerModel || c.Role == models.SpeakerAssistant {
			role = genai.RoleModel
		}
		var parts []*genai.Part
		for _, p := range c.Parts {
			if p.Text != "" {
				parts = append(parts, genai.NewPartFromText(p.Text))
			} else if p.InlineData != nil {
				parts = append(parts, genai.NewPartFromBytes(p.InlineData.Data, p.InlineData.MIMEType))
			}
		}
		out = append(out, genai.NewContentFromParts(parts, genai.Role(role)))
	}
	return out
}

// fromGenaiResponse converts a Gemini response into the internal form,
// lifting grounding chunks into citations.
func fromGenaiResponse(resp *genai.GenerateContentResponse) *models.GenerateContentResponse {
	if resp == nil {
		return nil
	}
	out := &models.GenerateContentResponse{CreateTime: time.Now()}
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			out.Content = append(out.Content, fromGenaiContent(cand.Content))
		}
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			title := chunk.Web.Title
			if title == "" {
				title = chunk.Web.URI
			}
			out.Grounding = append(out.Grounding, models.GroundingCitation{
				Title: title,
				URL:   chunk.Web.URI,
			})
		}
	}
	return out
}

func fromGenaiContent(content *genai.Content) models.Content {
	var parts []*models.Part
	for _, p := range content.Parts {
		if p.Text != "" {
			parts = append(parts, &models.Part{Text: p.Text})
		}
	}
	return models.Content{
		Parts: parts,
		Role:  models.SpeakerRole(content.Role),
	}
}
