package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`        // application name
	Version     string `yaml:"version"`     // application version
	Environment string `yaml:"environment"` // "development" or "production"
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// ServerConfig configures the HTTP serving layer.
type ServerConfig struct {
	Address string `yaml:"address"` // listen address, e.g. ":8080"
}

// GeminiConfig holds credentials and model selection for Google GenAI.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OpenAIConfig holds credentials and model selection for the OpenAI API.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OllamaConfig holds connection settings for a local Ollama instance.
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"` // defaults to http://localhost:11434
	Model   string `yaml:"model"`
}

// LLMConfig selects and configures the generative backend.
type LLMConfig struct {
	Provider string       `yaml:"provider"` // "gemini" or "openai"
	Gemini   GeminiConfig `yaml:"gemini"`
	OpenAI   OpenAIConfig `yaml:"openai"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider string       `yaml:"provider"` // "gemini" or "ollama"
	Gemini   GeminiConfig `yaml:"gemini"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// PipelineConfig holds the tunable budgets and timeouts of the turn pipeline.
type PipelineConfig struct {
	VectorTopK        int    `yaml:"vectorTopK"`        // max vector hits per turn
	MaxSearchTerms    int    `yaml:"maxSearchTerms"`    // ceiling on planner search phrases
	MaxGraphResults   int    `yaml:"maxGraphResults"`   // ceiling on graph query results
	ContextCharBudget int    `yaml:"contextCharBudget"` // prompt memory-context size bound
	HistoryTurns      int    `yaml:"historyTurns"`      // recent turns included in the prompt
	ModelTimeout      string `yaml:"modelTimeout"`      // per generative call, e.g. "20s"
	StoreTimeout      string `yaml:"storeTimeout"`      // per store query, e.g. "5s"
	SynthesisRetries  int    `yaml:"synthesisRetries"`  // bounded retries after the first attempt
	RetryBackoff      string `yaml:"retryBackoff"`      // e.g. "500ms"
	EnableGrounding   bool   `yaml:"enableGrounding"`   // live web grounding on synthesis
}

// ModelTimeoutDuration parses ModelTimeout, defaulting to 20s.
func (p PipelineConfig) ModelTimeoutDuration() time.Duration {
	return parseDuration(p.ModelTimeout, 20*time.Second)
}

// StoreTimeoutDuration parses StoreTimeout, defaulting to 5s.
func (p PipelineConfig) StoreTimeoutDuration() time.Duration {
	return parseDuration(p.StoreTimeout, 5*time.Second)
}

// RetryBackoffDuration parses RetryBackoff, defaulting to 500ms.
func (p PipelineConfig) RetryBackoffDuration() time.Duration {
	return parseDuration(p.RetryBackoff, 500*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// FieldConfig defines one field of the Milvus memory collection.
type FieldConfig struct {
	Name         string `yaml:"name"`
	DataType     string `yaml:"dataType"` // "Int64", "VarChar", "FloatVector"
	IsPrimaryKey bool   `yaml:"isPrimaryKey"`
	IsAutoID     bool   `yaml:"isAutoID"`
	Dim          int    `yaml:"dim,omitempty"`       // vector dimension
	MaxLength    int    `yaml:"maxLength,omitempty"` // VarChar max length
}

// IndexConfig defines the vector index of the Milvus memory collection.
type IndexConfig struct {
	FieldName  string                 `yaml:"fieldName"`
	IndexType  string                 `yaml:"indexType"`  // "IVF_FLAT", "HNSW", "AUTOINDEX"
	MetricType string                 `yaml:"metricType"` // "COSINE", "L2", "IP"
	Params     map[string]interface{} `yaml:"params"`
}

// SchemaConfig defines the Milvus memory collection schema.
type SchemaConfig struct {
	CollectionName string        `yaml:"collectionName"`
	Description    string        `yaml:"description"`
	VectorField    string        `yaml:"vectorField"`
	Fields         []FieldConfig `yaml:"fields"`
	Index          IndexConfig   `yaml:"index"`
}

// MilvusConfig configures the vector store connection and schema.
type MilvusConfig struct {
	Address string       `yaml:"address"`
	Schema  SchemaConfig `yaml:"schema"`
}

// Neo4jConfig configures the graph store connection.
type Neo4jConfig struct {
	Uri      string `yaml:"uri"` // e.g. "bolt://localhost:7687"
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RedisConfig configures the hot response cache.
type RedisConfig struct {
	Address  string `yaml:"address"` // e.g. "localhost:6379"
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"` // cached response lifetime, e.g. "1h"
}

// TTLDuration parses TTL, defaulting to one hour.
func (r RedisConfig) TTLDuration() time.Duration {
	return parseDuration(r.TTL, time.Hour)
}

// KafkaConfig configures the memory update task queue.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`   // memory update topic
	GroupID string   `yaml:"groupID"` // consumer group of the memory writer
}

// MongoConfig configures conversation history persistence.
type MongoConfig struct {
	Address    string `yaml:"address"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"` // turn collection name
}

// MinIOConfig configures attachment payload storage.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// DatabaseConfigs groups all infrastructure connections.
type DatabaseConfigs struct {
	Milvus  MilvusConfig `yaml:"milvus"`
	Neo4j   Neo4jConfig  `yaml:"neo4j"`
	Redis   RedisConfig  `yaml:"redis"`
	Kafka   KafkaConfig  `yaml:"kafka"`
	MongoDB MongoConfig  `yaml:"mongodb"`
	MinIO   MinIOConfig  `yaml:"minio"`
}

// RateLimiterConfig configures the token bucket on the chat endpoint.
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // tokens per second
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig configures the breaker guarding the generative backend.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // e.g. "30s"
}

// TimeoutDuration parses Timeout, defaulting to 30s.
func (c CircuitBreakerConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// MiddlewareConfig groups resilience middleware settings.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logger     LoggerConfig     `yaml:"logger"`
	LLM        LLMConfig        `yaml:"llm"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Pipeline.VectorTopK <= 0 {
		c.Pipeline.VectorTopK = 5
	}
	if c.Pipeline.MaxSearchTerms <= 0 {
		c.Pipeline.MaxSearchTerms = 3
	}
	if c.Pipeline.MaxGraphResults <= 0 {
		c.Pipeline.MaxGraphResults = 25
	}
	if c.Pipeline.ContextCharBudget <= 0 {
		c.Pipeline.ContextCharBudget = 6000
	}
	if c.Pipeline.HistoryTurns <= 0 {
		c.Pipeline.HistoryTurns = 5
	}
	if c.Pipeline.SynthesisRetries <= 0 {
		c.Pipeline.SynthesisRetries = 1
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
}
