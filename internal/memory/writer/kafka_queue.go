package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"Mnemo/internal/database/kafka"
	"Mnemo/internal/models"
	"Mnemo/pkg/logger"
)

// KafkaQueue publishes memory tasks to the configured Kafka topic. Messages
// are keyed by user so one user's updates stay ordered within a partition.
type KafkaQueue struct {
	client *kafka.Client
}

// NewKafkaQueue wraps an injected Kafka client.
func NewKafkaQueue(client *kafka.Client) *KafkaQueue {
	return &KafkaQueue{client: client}
}

// Enqueue publishes the task.
func (q *KafkaQueue) Enqueue(ctx context.Context, task *Task) error {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal memory task: %w", err)
	}
	err = q.client.Writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(task.UserID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish memory task: %w", err)
	}
	return nil
}

// Close releases the underlying Kafka client.
func (q *KafkaQueue) Close() error {
	return q.client.Close()
}

// Consumer pulls memory tasks from Kafka and hands them to the writer.
type Consumer struct {
	client *kafka.Client
	writer *Writer
	log    *logger.Logger
}

// NewConsumer builds a consumer draining the memory topic into w.
func NewConsumer(client *kafka.Client, w *Writer, log *logger.Logger) *Consumer {
	return &Consumer{client: client, writer: w, log: log}
}

// Run reads tasks until ctx is cancelled. A malformed message is logged and
// skipped; the writer absorbs its own commit failures.
func (c *Consumer) Run(ctx context.Context) {
	log := c.log.WithStage("memory_consumer")
	for {
		msg, err := c.client.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_read"}).Warn("failed to read memory task")
			continue
		}

		var task Task
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_decode"}).Warn("skipping malformed memory task")
			continue
		}
		c.writer.Process(ctx, &task)
	}
}
