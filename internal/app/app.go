// Package app wires configuration into the stores, notifiers and services shared by the
// API, the worker and ordersctl.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/imrishuroy/restaurant-orderflow/internal/aws"
	"github.com/imrishuroy/restaurant-orderflow/internal/config"
	"github.com/imrishuroy/restaurant-orderflow/internal/history"
	"github.com/imrishuroy/restaurant-orderflow/internal/idempotency"
	"github.com/imrishuroy/restaurant-orderflow/internal/menu"
	"github.com/imrishuroy/restaurant-orderflow/internal/metrics"
	"github.com/imrishuroy/restaurant-orderflow/internal/notify"
	"github.com/imrishuroy/restaurant-orderflow/internal/orders"
	"github.com/imrishuroy/restaurant-orderflow/internal/postgres"
)

// App holds the constructed services.
type App struct {
	Orders      *orders.Service
	Menu        *menu.Service
	History     *history.Store
	Idempotency *idempotency.Store

	closers []func() error
}

// Build constructs every component selected by cfg.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	clients, err := aws.NewAWSClients(ctx, aws.Settings{
		Region:           cfg.AWSRegion,
		EndpointOverride: cfg.AWSEndpointOverride,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init aws clients: %w", err)
	}
	return BuildWithClients(ctx, cfg, clients, log)
}

// BuildWithClients is Build with caller-supplied AWS clients.
func BuildWithClients(ctx context.Context, cfg *config.Config, clients *aws.AWSClients, log *slog.Logger) (*App, error) {
	a := &App{}

	var (
		orderRepo orders.Repository
		menuRepo  menu.Repository
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := postgres.Migrate(ctx, pool); err != nil {
			a.Close()
			return nil, err
		}
		orderRepo = postgres.NewOrdersRepository(pool)
		menuRepo = postgres.NewMenuRepository(pool)
	default:
		orderRepo = orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
		menuRepo = menu.NewStore(clients.DynamoDB, cfg.MenuTable)
	}

	notifier, err := a.notifiers(cfg, clients, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	var opts []orders.Option
	if cfg.MetricsEnabled {
		opts = append(opts, orders.WithMetrics(metrics.NewCloudWatch(clients.CloudWatch, cfg.MetricsNamespace, log)))
	}

	a.Menu = menu.NewService(menuRepo, log)
	a.Orders = orders.NewService(orderRepo, a.Menu, notifier, log, opts...)
	a.Idempotency = idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	a.History = history.NewStore(clients.DynamoDB, cfg.HistoryTable, a.Idempotency)
	return a, nil
}

func (a *App) notifiers(cfg *config.Config, clients *aws.AWSClients, log *slog.Logger) (notify.Publisher, error) {
	var multi notify.Multi

	if cfg.NotifierEnabled(config.NotifierSQS) {
		if cfg.NotificationsQueueURL == "" {
			log.Warn("sqs notifier enabled without notifications_queue_url, skipping")
		} else {
			multi = append(multi, notify.NewSQS(aws.NewPublisher(clients.SQS, cfg.NotificationsQueueURL)))
		}
	}
	if cfg.NotifierEnabled(config.NotifierRabbitMQ) {
		r, err := notify.DialRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, r.Close)
		multi = append(multi, r)
	}
	if cfg.NotifierEnabled(config.NotifierKafka) {
		producer, err := notify.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		k := notify.NewKafka(producer, cfg.KafkaTopic)
		a.closers = append(a.closers, k.Close)
		multi = append(multi, k)
	}

	if len(multi) == 0 {
		return notify.Nop{}, nil
	}
	return multi, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
