package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"Mnemo/internal/models"
	"Mnemo/internal/pipeline"
	"Mnemo/pkg/logger"
)

type stubLLM struct {
	replies []string
	calls   int
}

func (s *stubLLM) Model() string { return "stub" }

func (s *stubLLM) GenerateContent(_ context.Context, _ *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	text := s.replies[len(s.replies)-1]
	if s.calls < len(s.replies) {
		text = s.replies[s.calls]
	}
	s.calls++
	return &models.GenerateContentResponse{
		Content: []models.Content{{Role: models.SpeakerModel, Parts: []*models.Part{{Text: text}}}},
	}, nil
}

type stubVectorStore struct{}

func (stubVectorStore) SearchChunks(context.Context, string, []float32, int) ([]models.MemoryChunk, error) {
	return nil, nil
}
func (stubVectorStore) AddChunk(context.Context, *models.MemoryChunk, []float32) error { return nil }

type stubGraphStore struct{}

func (stubGraphStore) QueryFacts(context.Context, string, *models.GraphQuery) ([]*models.MemoryFact, error) {
	return nil, nil
}
func (stubGraphStore) UpsertFact(context.Context, *models.MemoryFact) error { return nil }

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{0.1}, nil }
func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	model := &stubLLM{replies: []string{
		`{"is_override": false}`,
		`{"search_terms": ["x"], "graph_query": null, "skip_graph": true}`,
		"the answer",
	}}
	log := logger.New("test", "", "")
	orchestrator := pipeline.NewOrchestrator(
		pipeline.NewTemporalChecker(model),
		pipeline.NewPlanner(model, 3, 25),
		pipeline.NewRetriever(stubVectorStore{}, stubGraphStore{}, stubEmbedder{}, 5, time.Second),
		pipeline.NewSynthesizer(model, 6000, 0, time.Millisecond, false),
		nil, nil, nil, log, time.Second, 5,
	)
	handler := NewHandler(orchestrator, log)

	router := gin.New()
	router.GET("/healthz", handler.Healthz)
	router.POST("/api/v1/chat", handler.Chat)
	return router
}

func TestChatRejectsMissingFields(t *testing.T) {
	router := newTestRouter()

	for _, body := range []string{
		`{}`,
		`{"user_id": "u1"}`,
		`{"message": "hi"}`,
		`not json`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestChatReturnsResponseAndStepLogs(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"user_id": "u1", "message": "hi"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Response != "the answer" {
		t.Errorf("response = %q", resp.Response)
	}
	for _, key := range []string{"step0_temporal_check", "step1_planner", "step2_retrieval", "step3_reconciliation", "step4_synthesis", "step5_response"} {
		if _, ok := resp.StepLogs[key]; !ok {
			t.Errorf("step_logs missing %q", key)
		}
	}
}

type stubTrending struct {
	messages []string
	gotN     int
	err      error
}

func (s *stubTrending) Trending(_ context.Context, n int) ([]string, error) {
	s.gotN = n
	return s.messages, s.err
}

func TestTrendingEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.New("test", "", "")
	handler := NewHandler(nil, log)
	source := &stubTrending{messages: []string{"what's my name?", "where do I live?"}}
	handler.RegisterTrendingSource(source)

	router := gin.New()
	router.GET("/api/v1/trending", handler.Trending)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/trending?limit=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if source.gotN != 2 {
		t.Errorf("limit passed through = %d, want 2", source.gotN)
	}
	var resp struct {
		Trending []string `json:"trending"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Trending) != 2 || resp.Trending[0] != "what's my name?" {
		t.Errorf("trending = %v", resp.Trending)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/trending?limit=zero", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d, want 400", w.Code)
	}
}

func TestTrendingWithoutSource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.New("test", "", "")
	handler := NewHandler(nil, log)

	router := gin.New()
	router.GET("/api/v1/trending", handler.Trending)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/trending", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when no source is configured", w.Code)
	}
}

type denyLimiter struct{}

func (denyLimiter) Allow() bool { return false }

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(denyLimiter{}))
	router.POST("/api/v1/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestHealthzReportsDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.New("test", "", "")
	handler := NewHandler(nil, log)
	handler.RegisterHealthCheck("ok_dep", func(_ *gin.Context) error { return nil })

	router := gin.New()
	router.GET("/healthz", handler.Healthz)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok_dep") {
		t.Errorf("body missing dependency status: %s", w.Body.String())
	}
}
