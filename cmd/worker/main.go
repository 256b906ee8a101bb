package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/restaurant-orderflow/internal/aws"
	"github.com/imrishuroy/restaurant-orderflow/internal/config"
	"github.com/imrishuroy/restaurant-orderflow/internal/history"
	"github.com/imrishuroy/restaurant-orderflow/internal/idempotency"
	"github.com/imrishuroy/restaurant-orderflow/internal/logging"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logging.New("error", "json").Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	clients, err := aws.NewAWSClients(context.Background(), aws.Settings{
		Region:           cfg.AWSRegion,
		EndpointOverride: cfg.AWSEndpointOverride,
	})
	if err != nil {
		log.Error("failed to init aws clients", "error", err)
		os.Exit(1)
	}

	markers := idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	p := NewProcessor(history.NewStore(clients.DynamoDB, cfg.HistoryTable, markers), log)

	// RUN_LOCAL feeds a single message from LOCAL_SQS_BODY through the processor.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"event":"order-status-update","audience":"everyone","key":"local-order-1","payload":{"orderId":"local-order-1","status":"preparing","orderNumber":"ORD1"}}`
		}
		resp, _ := p.Handle(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if len(resp.BatchItemFailures) > 0 {
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}
