package pipeline

import (
	"context"
	"time"

	"Mnemo/internal/memory/writer"
	"Mnemo/internal/models"
	"Mnemo/pkg/logger"
)

// ResponseCache is the hot cache consulted before the pipeline runs. A miss
// is (value="", ok=false); cache failures are treated as misses by the
// implementation, never surfaced here.
type ResponseCache interface {
	Get(ctx context.Context, userID, message string) (string, bool)
	Set(ctx context.Context, userID, message, response string)
}

// HistoryStore persists completed turns and serves the recent-history window
// for prompt building.
type HistoryStore interface {
	RecentTurns(ctx context.Context, conversationID string, n int) ([]models.StoredTurn, error)
	SaveTurn(ctx context.Context, st *models.StoredTurn) error
}

// Orchestrator wires the stages into the turn flow. Stage soft-fail policies
// live here: the only hard failure a caller ever sees is request validation,
// which happens before RunTurn.
type Orchestrator struct {
	temporal     *TemporalChecker
	planner      *Planner
	retriever    *Retriever
	synthesizer  *Synthesizer
	queue        writer.Queue
	cache        ResponseCache
	history      HistoryStore
	log          *logger.Logger
	modelTimeout time.Duration
	historyTurns int
}

// NewOrchestrator assembles the pipeline. cache and history may be nil when
// the deployment runs without them.
func NewOrchestrator(
	temporal *TemporalChecker,
	planner *Planner,
	retriever *Retriever,
	synthesizer *Synthesizer,
	queue writer.Queue,
	cache ResponseCache,
	history HistoryStore,
	log *logger.Logger,
	modelTimeout time.Duration,
	historyTurns int,
) *Orchestrator {
	if modelTimeout <= 0 {
		modelTimeout = 20 * time.Second
	}
	if historyTurns <= 0 {
		historyTurns = 5
	}
	return &Orchestrator{
		temporal:     temporal,
		planner:      planner,
		retriever:    retriever,
		synthesizer:  synthesizer,
		queue:        queue,
		cache:        cache,
		history:      history,
		log:          log,
		modelTimeout: modelTimeout,
		historyTurns: historyTurns,
	}
}

// RunTurn executes one turn end to end and always returns a result: degraded
// dependencies shrink the context or the answer, they never fail the turn.
func (o *Orchestrator) RunTurn(ctx context.Context, turn *models.Turn) *models.TurnResult {
	log := o.log.WithTurn(turn.ConversationID, turn.ID)
	steps := &models.StepLog{}

	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, turn.UserID, turn.Message); ok {
			log.WithStage("cache").Info("hot cache hit")
			steps.CacheHit = true
			return &models.TurnResult{Response: cached, Steps: steps, CacheHit: true}
		}
	}

	check := o.runTemporal(ctx, turn, log)
	steps.TemporalCheck = check

	plan := o.runPlanner(ctx, turn, check, log)
	steps.Plan = plan

	results := o.retriever.Retrieve(ctx, turn.UserID, plan)
	steps.Retrieval = results
	if results.VectorErr != "" {
		log.WithStage("retrieval").WithError(models.ErrorInfo{Message: results.VectorErr, Type: "vector_store"}).Warn("vector retrieval degraded")
	}
	if results.GraphErr != "" {
		log.WithStage("retrieval").WithError(models.ErrorInfo{Message: results.GraphErr, Type: "graph_store"}).Warn("graph retrieval degraded")
	}

	rc := Reconcile(results, check, turn.Message)
	steps.Reconciliation = summarize(rc)

	history := o.loadHistory(ctx, turn, log)

	synthCtx, cancel := context.WithTimeout(ctx, o.modelTimeout)
	synthesis, err := o.synthesizer.Synthesize(synthCtx, turn, rc, history)
	cancel()
	if err != nil {
		log.WithStage("synthesis").WithError(models.ErrorInfo{Message: err.Error(), Type: "synthesis"}).Warn("synthesis degraded")
	}
	steps.Synthesis = synthesis

	result := &models.TurnResult{
		Response:  synthesis.Content,
		Steps:     steps,
		Grounding: synthesis.Grounding,
	}

	o.finish(ctx, turn, result, log)
	return result
}

// runTemporal applies the stage's soft-fail policy: any failure means the
// turn proceeds as a plain non-override.
func (o *Orchestrator) runTemporal(ctx context.Context, turn *models.Turn, log *logger.Logger) *models.TemporalCheck {
	ctx, cancel := context.WithTimeout(ctx, o.modelTimeout)
	defer cancel()

	check, err := o.temporal.Check(ctx, turn.Message)
	if err != nil {
		log.WithStage("temporal_check").WithError(models.ErrorInfo{Message: err.Error(), Type: "temporal_check"}).Warn("treating turn as non-override")
		return &models.TemporalCheck{}
	}
	return check
}

// runPlanner applies the stage's soft-fail policy: any failure means the
// fallback plan.
func (o *Orchestrator) runPlanner(ctx context.Context, turn *models.Turn, check *models.TemporalCheck, log *logger.Logger) *models.RetrievalPlan {
	ctx, cancel := context.WithTimeout(ctx, o.modelTimeout)
	defer cancel()

	plan, err := o.planner.Plan(ctx, turn.Message, check)
	if err != nil {
		log.WithStage("planner").WithError(models.ErrorInfo{Message: err.Error(), Type: "planner"}).Warn("falling back to default plan")
		return o.planner.FallbackPlan(turn.Message)
	}
	return plan
}

func (o *Orchestrator) loadHistory(ctx context.Context, turn *models.Turn, log *logger.Logger) []models.StoredTurn {
	if o.history == nil {
		return nil
	}
	history, err := o.history.RecentTurns(ctx, turn.ConversationID, o.historyTurns)
	if err != nil {
		log.WithStage("history").WithError(models.ErrorInfo{Message: err.Error(), Type: "history"}).Warn("proceeding without conversation history")
		return nil
	}
	return history
}

// finish runs the post-response work: persist the turn, warm the cache, and
// enqueue the asynchronous memory update. Everything here is best-effort; a
// degraded answer is neither cached nor remembered.
func (o *Orchestrator) finish(ctx context.Context, turn *models.Turn, result *models.TurnResult, log *logger.Logger) {
	if o.history != nil {
		st := &models.StoredTurn{
			Turn:      *turn,
			Response:  result.Response,
			StepLogs:  result.Steps.Encode(),
			Grounding: result.Grounding,
			CreatedAt: time.Now().UTC(),
		}
		if err := o.history.SaveTurn(ctx, st); err != nil {
			log.WithStage("history").WithError(models.ErrorInfo{Message: err.Error(), Type: "history"}).Warn("failed to persist turn")
		}
	}

	if result.Steps.Synthesis != nil && result.Steps.Synthesis.Degraded {
		return
	}

	if o.cache != nil {
		o.cache.Set(ctx, turn.UserID, turn.Message, result.Response)
	}

	// The memory update is fire-and-forget. A cancelled request context means
	// the client is gone and the exchange never completed from its point of
	// view; nothing is enqueued then.
	if o.queue == nil || ctx.Err() != nil {
		return
	}
	task := &writer.Task{
		TurnID:         turn.ID,
		ConversationID: turn.ConversationID,
		UserID:         turn.UserID,
		Message:        turn.Message,
		Response:       result.Response,
		EnqueuedAt:     time.Now().UTC(),
	}
	if err := o.queue.Enqueue(ctx, task); err != nil {
		log.WithStage("memory_enqueue").WithError(models.ErrorInfo{Message: err.Error(), Type: "memory_enqueue"}).Warn("memory update dropped")
	}
}
