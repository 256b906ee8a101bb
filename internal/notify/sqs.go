package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/imrishuroy/restaurant-orderflow/internal/aws"
)

// SQS publishes envelopes to a queue; the worker consumes them to build order history.
type SQS struct {
	publisher *aws.Publisher
	nowFunc   func() time.Time
}

func NewSQS(publisher *aws.Publisher) *SQS {
	return &SQS{publisher: publisher, nowFunc: time.Now}
}

func (s *SQS) Publish(ctx context.Context, audience Audience, event string, payload any) error {
	env, body, err := Encode(audience, event, payload, s.nowFunc())
	if err != nil {
		return err
	}
	attrs := map[string]string{
		"event":    env.Event,
		"audience": string(env.Audience),
		"order_id": env.Key,
	}
	if _, err := s.publisher.SendMessage(ctx, string(body), attrs); err != nil {
		return fmt.Errorf("sqs notify %s: %w", event, err)
	}
	return nil
}
