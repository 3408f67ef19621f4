package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"

	"setup_scanner/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Kafka публикует структурированный Alert для внешних потребителей.
// Ключ сообщения — символ, чтобы алерты одной пары шли в одну партицию.
type Kafka struct {
	w     messageWriter
	topic string
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: brokers are required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Kafka{w: w, topic: cfg.Topic}, nil
}

func newKafkaWithWriter(w messageWriter, topic string) *Kafka {
	return &Kafka{w: w, topic: topic}
}

func (k *Kafka) Publish(ctx context.Context, a models.Alert) error {
	v, err := sonic.Marshal(a)
	if err != nil {
		return fmt.Errorf("kafka: marshal alert: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(a.Symbol),
		Value: v,
		Time:  a.GeneratedAt,
		Headers: []kafka.Header{
			{Key: "setup", Value: []byte(a.Setup.Label)},
			{Key: "cycle", Value: []byte(a.CycleID)},
		},
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish %s: %w", k.topic, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	if k == nil || k.w == nil {
		return nil
	}
	return k.w.Close()
}
