package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// amqpChannel is the part of *amqp.Channel the notifier needs.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQ publishes envelopes to a topic exchange with routing key "<audience>.<event>",
// so subscribers can bind e.g. "operators.#" or "*.order-status-update".
type RabbitMQ struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	nowFunc  func() time.Time
}

// DialRabbitMQ connects, declares the exchange and returns a ready notifier.
func DialRabbitMQ(url, exchange string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	r := NewRabbitMQ(ch, exchange)
	r.conn = conn
	return r, nil
}

// NewRabbitMQ wraps an already opened channel.
func NewRabbitMQ(ch amqpChannel, exchange string) *RabbitMQ {
	return &RabbitMQ{ch: ch, exchange: exchange, nowFunc: time.Now}
}

// RoutingKey builds "<audience>.<event>".
func RoutingKey(audience Audience, event string) string {
	return string(audience) + "." + event
}

func (r *RabbitMQ) Publish(ctx context.Context, audience Audience, event string, payload any) error {
	env, body, err := Encode(audience, event, payload, r.nowFunc())
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch == nil {
		return errors.New("rabbitmq: publish channel is not open")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = r.ch.PublishWithContext(ctx, r.exchange, RoutingKey(audience, event), false, false, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		CorrelationId: env.Key,
		Timestamp:     env.PublishedAt,
		Type:          event,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq notify %s: %w", event, err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	if r.ch != nil {
		errs = append(errs, r.ch.Close())
		r.ch = nil
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
		r.conn = nil
	}
	return errors.Join(errs...)
}
