package main

import (
	"Mnemo/internal/api"
	"Mnemo/internal/cache"
	"Mnemo/internal/config"
	"Mnemo/internal/database/kafka"
	"Mnemo/internal/database/milvus"
	"Mnemo/internal/database/minio"
	"Mnemo/internal/database/mongo"
	"Mnemo/internal/database/neo4j"
	"Mnemo/internal/database/redis"
	"Mnemo/internal/embedding"
	"Mnemo/internal/history"
	"Mnemo/internal/llm"
	"Mnemo/internal/memory/extractor"
	"Mnemo/internal/memory/store"
	"Mnemo/internal/memory/writer"
	"Mnemo/internal/pipeline"
	"Mnemo/pkg/circuitbreaker"
	"Mnemo/pkg/logger"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("chat_service", "", "")

	ctx := context.Background()

	// Initialize required database clients
	milvusClient, err := milvus.NewClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer milvusClient.Close()
	if err := milvusClient.EnsureCollection(ctx); err != nil {
		appLogger.Fatal(err.Error())
	}

	neo4jClient, err := neo4j.NewClient(ctx, &cfg.Databases.Neo4j)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer neo4jClient.Close(ctx)

	// Initialize model clients
	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	if cfg.Middleware.CircuitBreaker.Enabled {
		cb := circuitbreaker.New(
			cfg.Middleware.CircuitBreaker.FailureThreshold,
			cfg.Middleware.CircuitBreaker.SuccessThreshold,
			cfg.Middleware.CircuitBreaker.TimeoutDuration(),
		)
		llmClient = llm.WithBreaker(llmClient, cb)
	}

	embedder, err := embedding.NewEmbedder(cfg.Embedding)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Initialize stores and pipeline stages
	vecStore := store.NewMilvusStore(milvusClient)
	graphStore := store.NewNeo4jStore(neo4jClient)

	temporal := pipeline.NewTemporalChecker(llmClient)
	planner := pipeline.NewPlanner(llmClient, cfg.Pipeline.MaxSearchTerms, cfg.Pipeline.MaxGraphResults)
	retriever := pipeline.NewRetriever(vecStore, graphStore, embedder, cfg.Pipeline.VectorTopK, cfg.Pipeline.StoreTimeoutDuration())
	synthesizer := pipeline.NewSynthesizer(llmClient, cfg.Pipeline.ContextCharBudget, cfg.Pipeline.SynthesisRetries, cfg.Pipeline.RetryBackoffDuration(), cfg.Pipeline.EnableGrounding)

	healthChecks := map[string]func(c *gin.Context) error{
		"milvus": func(c *gin.Context) error { return milvusClient.HealthCheck(c.Request.Context()) },
		"neo4j":  func(c *gin.Context) error { return neo4jClient.HealthCheck(c.Request.Context()) },
	}

	// Optional hot cache
	var responseCache pipeline.ResponseCache
	var trendingSource api.TrendingSource
	if cfg.Databases.Redis.Address != "" {
		redisClient, err := redis.NewClient(ctx, &cfg.Databases.Redis)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer redisClient.Close()
		redisCache := cache.NewRedisCache(redisClient, cfg.Databases.Redis.TTLDuration(), appLogger)
		responseCache = redisCache
		trendingSource = redisCache
		healthChecks["redis"] = func(c *gin.Context) error {
			return redis.HealthCheck(c.Request.Context(), redisClient)
		}
	} else {
		responseCache = cache.NewLocalCache(cfg.Databases.Redis.TTLDuration())
	}

	// Optional history persistence
	var historyStore pipeline.HistoryStore
	if cfg.Databases.MongoDB.Address != "" {
		mongoClient, err := mongo.NewClient(ctx, &cfg.Databases.MongoDB)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer mongoClient.Disconnect(ctx)

		var archiver *history.Archiver
		if cfg.Databases.MinIO.Endpoint != "" {
			minioClient, err := minio.NewClient(ctx, &cfg.Databases.MinIO)
			if err != nil {
				appLogger.Fatal(err.Error())
			}
			archiver = history.NewArchiver(minioClient, cfg.Databases.MinIO.Bucket)
			healthChecks["minio"] = func(c *gin.Context) error {
				return minio.HealthCheck(c.Request.Context(), minioClient)
			}
		}
		historyStore = history.NewMongoStore(mongoClient, cfg.Databases.MongoDB.Database, cfg.Databases.MongoDB.Collection, archiver)
		healthChecks["mongodb"] = func(c *gin.Context) error {
			return mongo.HealthCheck(c.Request.Context(), mongoClient)
		}
	}

	// Memory update queue: Kafka when brokers are configured (the standalone
	// memory_writer drains the topic), otherwise an in-process worker pool
	// running the writer in this binary.
	var memQueue writer.Queue
	if len(cfg.Databases.Kafka.Brokers) > 0 {
		kafkaClient, err := kafka.NewClient(&cfg.Databases.Kafka)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		memQueue = writer.NewKafkaQueue(kafkaClient)
		healthChecks["kafka"] = func(c *gin.Context) error {
			return kafkaClient.HealthCheck(c.Request.Context())
		}
	} else {
		memWriter := writer.NewWriter(
			extractor.NewLLMExtractor(llmClient),
			vecStore, graphStore, embedder, appLogger,
			cfg.Pipeline.ModelTimeoutDuration()+cfg.Pipeline.StoreTimeoutDuration(),
			cfg.Pipeline.RetryBackoffDuration(),
		)
		memQueue = writer.NewInProcessQueue(memWriter, 64, 2, appLogger)
	}
	defer memQueue.Close()

	orchestrator := pipeline.NewOrchestrator(
		temporal, planner, retriever, synthesizer,
		memQueue, responseCache, historyStore, appLogger,
		cfg.Pipeline.ModelTimeoutDuration(), cfg.Pipeline.HistoryTurns,
	)

	handler := api.NewHandler(orchestrator, appLogger)
	for name, check := range healthChecks {
		handler.RegisterHealthCheck(name, check)
	}
	if trendingSource != nil {
		handler.RegisterTrendingSource(trendingSource)
	}

	router := api.NewRouter(cfg, handler)
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		appLogger.Info("Chat service listening on " + cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err.Error())
		}
	}()

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown: " + err.Error())
	}
	appLogger.Info("Chat service stopped")
}
