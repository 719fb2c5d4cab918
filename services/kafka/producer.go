package kafka

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"eduplatform/logger"
)

// Producer publishes lifecycle events. Publishing is best-effort: a nil
// or unconfigured producer silently drops messages.
type Producer struct {
	mu     sync.Mutex
	writer *kafka.Writer
}

// NewProducer builds a producer from a comma-separated broker list.
// An empty list disables events.
func NewProducer(brokers string) *Producer {
	var validBrokers []string
	for _, b := range strings.Split(brokers, ",") {
		if b := strings.TrimSpace(b); b != "" {
			validBrokers = append(validBrokers, b)
		}
	}

	if len(validBrokers) == 0 {
		logger.Info("Kafka is disabled (no brokers configured)")
		return &Producer{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(validBrokers...),
		Balancer:     &kafka.LeastBytes{},
		Async:        false,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
	}

	logger.Info("Kafka producer initialized. Brokers=%v", validBrokers)
	return &Producer{writer: writer}
}

// Publish marshals value to JSON and publishes it to topic with key,
// retrying with exponential backoff (3 attempts).
func (p *Producer) Publish(topic, key string, value interface{}) error {
	p.mu.Lock()
	writer := p.writer
	p.mu.Unlock()

	if writer == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logger.Error("Error marshaling Kafka message: %v", err)
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := writer.WriteMessages(ctx, msg)
		cancel()

		if err == nil {
			return nil
		}

		lastErr = err
		logger.Warn("Kafka publish attempt %d failed: %v", attempt+1, err)

		if attempt < 2 {
			backoffTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			time.Sleep(backoffTime)
		}
	}

	return lastErr
}

// Enabled reports whether a writer is configured.
func (p *Producer) Enabled() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer != nil
}

// Close gracefully closes the underlying writer.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
