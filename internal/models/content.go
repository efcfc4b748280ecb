package models

import "time"

// SpeakerRole identifies the producer of a message.
type SpeakerRole string

const (
	SpeakerUser      SpeakerRole = "user"
	SpeakerAssistant SpeakerRole = "assistant"
	SpeakerModel     SpeakerRole = "model"
)

// Blob is inline binary data with its MIME type.
type Blob struct {
	MIMEType string `json:"mimeType,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// Part is one piece of a message: text or inline binary data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Content is a single message composed of one or more parts.
type Content struct {
	Parts []*Part     `json:"parts,omitempty"`
	Role  SpeakerRole `json:"role,omitempty"`
}

// GenerateContentRequest is the provider-independent request to a generative
// backend.
type GenerateContentRequest struct {
	Content []Content `json:"content,omitempty"`
	// ResponseJSON asks the model for a strict JSON object response.
	ResponseJSON bool `json:"responseJSON,omitempty"`
	// WebGrounding enables live external grounding when the provider
	// supports it; citations come back on the response.
	WebGrounding bool `json:"webGrounding,omitempty"`
}

// GenerateContentResponse is the provider-independent response of a
// generative backend.
type GenerateContentResponse struct {
	Content      []Content           `json:"content,omitempty"`
	Grounding    []GroundingCitation `json:"grounding,omitempty"`
	CreateTime   time.Time           `json:"createTime,omitempty"`
	ModelVersion string              `json:"modelVersion,omitempty"`
}

// Text concatenates the text parts of the first response candidate.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	var out string
	for _, p := range r.Content[0].Parts {
		out += p.Text
	}
	return out
}

// TextRequest builds a single-part user request from a prompt string.
func TextRequest(prompt string) *GenerateContentRequest {
	return &GenerateContentRequest{
		Content: []Content{
			{
				Role:  SpeakerUser,
				Parts: []*Part{{Text: prompt}},
			},
		},
	}
}
