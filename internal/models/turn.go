package models

import "time"

// Attachment is a binary payload sent alongside a user message.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data,omitempty"`
	// ObjectKey is set once the payload has been archived to object storage.
	ObjectKey string `json:"object_key,omitempty"`
}

// Turn is one request/response exchange. It is immutable once the pipeline
// starts processing it.
type Turn struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	UserID         string       `json:"user_id"`
	Message        string       `json:"message"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// TurnResult is what the pipeline returns to the serving layer.
type TurnResult struct {
	Response  string              `json:"response"`
	Steps     *StepLog            `json:"-"`
	Grounding []GroundingCitation `json:"grounding,omitempty"`
	CacheHit  bool                `json:"cache_hit,omitempty"`
}

// StoredTurn is the persisted form of a completed exchange: the request, the
// response, and the per-stage trace, kept for later inspection.
type StoredTurn struct {
	Turn      Turn                   `bson:"turn" json:"turn"`
	Response  string                 `bson:"response" json:"response"`
	StepLogs  map[string]interface{} `bson:"step_logs,omitempty" json:"step_logs,omitempty"`
	Grounding []GroundingCitation    `bson:"grounding,omitempty" json:"grounding,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}
