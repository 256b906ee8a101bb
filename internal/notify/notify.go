// Package notify defines the publish/subscribe sink order events are sent to, plus
// transport-backed implementations (SQS, RabbitMQ, Kafka).
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Audience selects who receives an event.
type Audience string

const (
	AudienceEveryone  Audience = "everyone"
	AudienceOperators Audience = "operators"
)

// Event names.
const (
	EventNewOrder          = "new-order"
	EventOrderStatusUpdate = "order-status-update"
)

// Publisher delivers an event to an audience. Delivery is best-effort: callers log
// failures and never roll back on them.
type Publisher interface {
	Publish(ctx context.Context, audience Audience, event string, payload any) error
}

// Keyed is implemented by payloads that carry a partition/routing key (the order id).
type Keyed interface {
	NotificationKey() string
}

// Envelope is the wire shape shared by every transport.
type Envelope struct {
	Event       string          `json:"event"`
	Audience    Audience        `json:"audience"`
	Key         string          `json:"key,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
}

// Encode wraps payload into an Envelope and returns it with its JSON encoding.
func Encode(audience Audience, event string, payload any, now time.Time) (Envelope, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		Event:       event,
		Audience:    audience,
		Payload:     raw,
		PublishedAt: now.UTC(),
	}
	if k, ok := payload.(Keyed); ok {
		env.Key = k.NotificationKey()
	}
	body, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return env, body, nil
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, audience Audience, event string, payload any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, audience, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Audience, string, any) error { return nil }
