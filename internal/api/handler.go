// Package api exposes the chat service over HTTP. Request validation is the
// only hard failure on the chat endpoint; everything past it soft-fails
// inside the pipeline.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"Mnemo/internal/models"
	"Mnemo/internal/pipeline"
	"Mnemo/pkg/logger"
)

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	UserID         string              `json:"user_id" binding:"required"`
	ConversationID string              `json:"conversation_id"`
	Message        string              `json:"message" binding:"required"`
	Attachments    []AttachmentPayload `json:"attachments"`
}

// AttachmentPayload carries one base64-decoded binary alongside the message.
type AttachmentPayload struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"` // base64 on the wire
}

// ChatResponse is the body returned by the chat endpoint.
type ChatResponse struct {
	Response  string                     `json:"response"`
	StepLogs  map[string]interface{}     `json:"step_logs"`
	Grounding []models.GroundingCitation `json:"grounding,omitempty"`
	CacheHit  bool                       `json:"cache_hit,omitempty"`
}

// TrendingSource lists the most frequently asked messages, most popular
// first. The hot cache provides it when one is configured.
type TrendingSource interface {
	Trending(ctx context.Context, n int) ([]string, error)
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	orchestrator *pipeline.Orchestrator
	log          *logger.Logger
	health       map[string]func(ctx *gin.Context) error
	trending     TrendingSource
}

// NewHandler builds the handler set. health maps a dependency name to its
// check; the map may be empty.
func NewHandler(orchestrator *pipeline.Orchestrator, log *logger.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		log:          log,
		health:       make(map[string]func(ctx *gin.Context) error),
	}
}

// RegisterHealthCheck adds a named dependency check to GET /healthz.
func (h *Handler) RegisterHealthCheck(name string, check func(ctx *gin.Context) error) {
	h.health[name] = check
}

// RegisterTrendingSource enables GET /api/v1/trending.
func (h *Handler) RegisterTrendingSource(src TrendingSource) {
	h.trending = src
}

// Chat handles POST /api/v1/chat.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and message are required"})
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = req.UserID
	}

	turn := &models.Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		UserID:         req.UserID,
		Message:        req.Message,
		CreatedAt:      time.Now().UTC(),
	}
	for _, att := range req.Attachments {
		turn.Attachments = append(turn.Attachments, models.Attachment{
			Name:     att.Name,
			MIMEType: att.MIMEType,
			Data:     att.Data,
		})
	}

	result := h.orchestrator.RunTurn(c.Request.Context(), turn)

	c.JSON(http.StatusOK, ChatResponse{
		Response:  result.Response,
		StepLogs:  result.Steps.Encode(),
		Grounding: result.Grounding,
		CacheHit:  result.CacheHit,
	})
}

// Trending handles GET /api/v1/trending. It returns 404 when no trending
// source is configured (e.g. the deployment runs on the local cache).
func (h *Handler) Trending(c *gin.Context) {
	if h.trending == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trending is not available"})
		return
	}

	n := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		n = parsed
	}

	messages, err := h.trending.Trending(c.Request.Context(), n)
	if err != nil {
		h.log.WithStage("trending").WithError(models.ErrorInfo{Message: err.Error(), Type: "cache"}).Warn("trending read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read trending messages"})
		return
	}
	if messages == nil {
		messages = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"trending": messages})
}

// Healthz handles GET /healthz. All registered checks run; any failure turns
// the status to 503 with the failing dependencies named.
func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.health))
	for name, check := range h.health {
		if err := check(c); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = err.Error()
		} else {
			deps[name] = "ok"
		}
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "dependencies": deps})
}
