package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// Kafka publishes envelopes to a single topic keyed by order id, so every event of an
// order lands on the same partition in order.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
	nowFunc  func() time.Time
}

// NewKafkaProducer builds a sync producer tuned for durability.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.WriteTimeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

func NewKafka(producer sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic, nowFunc: time.Now}
}

func (k *Kafka) Publish(ctx context.Context, audience Audience, event string, payload any) error {
	env, body, err := Encode(audience, event, payload, k.nowFunc())
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte(event)},
			{Key: []byte("audience"), Value: []byte(audience)},
		},
		Timestamp: env.PublishedAt,
	}
	if env.Key != "" {
		msg.Key = sarama.StringEncoder(env.Key)
	}
	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka notify %s: %w", event, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
