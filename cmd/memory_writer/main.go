package main

import (
	"Mnemo/internal/config"
	"Mnemo/internal/database/kafka"
	"Mnemo/internal/database/milvus"
	"Mnemo/internal/database/neo4j"
	"Mnemo/internal/embedding"
	"Mnemo/internal/llm"
	"Mnemo/internal/memory/extractor"
	"Mnemo/internal/memory/store"
	"Mnemo/internal/memory/writer"
	"Mnemo/pkg/logger"
	"context"
	"log"
	"os/signal"
	"syscall"

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
	appLogger := logger.New("memory_writer", "", "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database clients
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

	kafkaClient, err := kafka.NewClient(&cfg.Databases.Kafka)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer kafkaClient.Close()

	// Initialize model clients
	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	embedder, err := embedding.NewEmbedder(cfg.Embedding)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Initialize the writer and drain the memory topic
	memWriter := writer.NewWriter(
		extractor.NewLLMExtractor(llmClient),
		store.NewMilvusStore(milvusClient),
		store.NewNeo4jStore(neo4jClient),
		embedder, appLogger,
		cfg.Pipeline.ModelTimeoutDuration()+cfg.Pipeline.StoreTimeoutDuration(),
		cfg.Pipeline.RetryBackoffDuration(),
	)
	consumer := writer.NewConsumer(kafkaClient, memWriter, appLogger)

	appLogger.Info("Memory writer started")
	consumer.Run(ctx)
	appLogger.Info("Memory writer stopped")
}
