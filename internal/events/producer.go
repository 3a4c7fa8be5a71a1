package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicAdminEvents = "admin_events"
	TopicOrderEvents = "order_events"
)

// Producer publishes domain events. Callers treat publishing as
// fire-and-forget: failures are logged at the call site, never returned
// to the client.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topics []string) (*Producer, error) {
	if len(brokers) == 0 || brokers[0] == "" {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}

	if err := ensureTopics(brokers[0], topics); err != nil {
		return nil, err
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
	return &Producer{writer: w}, nil
}

func ensureTopics(broker string, topics []string) error {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return fmt.Errorf("kafka: dial %s: %w", broker, err)
	}
	defer conn.Close()

	cfgs := make([]kafka.TopicConfig, 0, len(topics))
	for _, t := range topics {
		cfgs = append(cfgs, kafka.TopicConfig{Topic: t, NumPartitions: 1, ReplicationFactor: 1})
	}
	if err := conn.CreateTopics(cfgs...); err != nil {
		return fmt.Errorf("kafka: create topics: %w", err)
	}
	return nil
}

func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
