package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/restaurant-orderflow/internal/history"
	"github.com/imrishuroy/restaurant-orderflow/internal/notify"
)

// Appender records history entries exactly once per message id.
type Appender interface {
	Append(ctx context.Context, e history.Entry) (bool, error)
}

// Processor turns queued order notifications into history entries.
type Processor struct {
	history Appender
	log     *slog.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(h Appender, log *slog.Logger) *Processor {
	return &Processor{history: h, log: log.With("component", "worker")}
}

// Handle processes an SQS batch. Failed records are reported individually so only they
// are redelivered; after too many receives SQS moves them to the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	p.log.Debug("received batch", "records", len(ev.Records))

	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("process message failed", "message_id", rec.MessageId, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var env notify.Envelope
	if err := json.Unmarshal([]byte(rec.Body), &env); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	entry, err := history.FromEnvelope(env, rec.MessageId)
	if err != nil {
		return err
	}

	recorded, err := p.history.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if !recorded {
		// redelivery of a message we already stored
		p.log.Info("duplicate message", "message_id", rec.MessageId, "order_id", entry.OrderID)
		return nil
	}

	p.log.Info("recorded order event",
		"order_id", entry.OrderID,
		"event", entry.Event,
		"status", entry.Status,
		"message_id", rec.MessageId,
	)
	return nil
}
