package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"Mnemo/internal/models"
)

// OpenAI is an LLM client backed by the OpenAI chat completion API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI client for the given model.
func NewOpenAI(model, apiKey string) (*OpenAI, error) {
	config := openai.DefaultConfig(apiKey)
	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Model returns the backing model identifier.
func (o *OpenAI) Model() string {
	return o.model
}

// GenerateContent sends the request to the OpenAI API. Live web grounding is
// not available on this provider; the request flag is ignored and no
// citations are returned.
func (o *OpenAI) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	openaiReq := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages(req.Content),
	}
	if req.ResponseJSON {
		openaiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, classifyErr(err)
	}

	out := &models.GenerateContentResponse{
		CreateTime:   time.Now(),
		ModelVersion: resp.Model,
	}
	for _, choice := range resp.Choices {
		out.Content = append(out.Content, models.Content{
			Role:  models.SpeakerRole(choice.Message.Role),
			Parts: []*models.Part{{Text: choice.Message.Content}},
		})
	}
	return out, nil
}

// toOpenAIMessages converts internal Content into chat messages. Inline image
// data becomes an image-URL part; other binary payloads are dropped.
func toOpenAIMessages(content []models.Content) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	for _, c := range content {
		role := string(c.Role)
		if role == "" || role == string(models.SpeakerModel) {
			role = openai.ChatMessageRoleAssistant
		}

		var text string
		var multi []openai.ChatMessagePart
		for _, p := range c.Parts {
			if p.Text != "" {
				text += p.Text
			}
			if p.InlineData != nil && isImageMIME(p.InlineData.MIMEType) {
				multi = append(multi, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: fmt.Sprintf("data:%s;base64,%s",
							p.InlineData.MIMEType,
							base64.StdEncoding.EncodeToString(p.InlineData.Data)),
					},
				})
			}
		}

		msg := openai.ChatCompletionMessage{Role: role}
		if len(multi) > 0 {
			if text != "" {
				multi = append([]openai.ChatMessagePart{{
					Type: openai.ChatMessagePartTypeText,
					Text: text,
				}}, multi...)
			}
			msg.MultiContent = multi
		} else {
			msg.Content = text
		}
		messages = append(messages, msg)
	}
	return messages
}

func isImageMIME(mime string) bool {
	return len(mime) > 6 && mime[:6] == "image/"
}
