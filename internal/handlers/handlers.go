// Package handlers exposes the order and menu services over gin.
package handlers

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/restaurant-orderflow/internal/history"
	"github.com/imrishuroy/restaurant-orderflow/internal/idempotency"
	"github.com/imrishuroy/restaurant-orderflow/internal/logging"
	"github.com/imrishuroy/restaurant-orderflow/internal/menu"
	"github.com/imrishuroy/restaurant-orderflow/internal/orders"
	"github.com/imrishuroy/restaurant-orderflow/internal/validation"
)

// OrderService is the order lifecycle manager as seen by the API.
type OrderService interface {
	Create(ctx context.Context, in orders.CreateInput) (*orders.Order, error)
	TransitionStatus(ctx context.Context, orderID string, status orders.Status) (*orders.Order, error)
	Cancel(ctx context.Context, orderID, customerID string) (*orders.Order, error)
	Get(ctx context.Context, orderID string, viewer orders.Viewer) (*orders.Order, error)
	ListForCustomer(ctx context.Context, customerID string) ([]orders.Order, error)
	List(ctx context.Context, f orders.ListFilter) ([]orders.Order, error)
	Analytics(ctx context.Context, r orders.DateRange) (orders.Analytics, error)
}

// MenuService is the catalog as seen by the API.
type MenuService interface {
	Get(ctx context.Context, id string) (*menu.Item, error)
	List(ctx context.Context, f menu.Filter) ([]menu.Item, error)
	Create(ctx context.Context, in menu.Input) (*menu.Item, error)
	Update(ctx context.Context, id string, in menu.Input) (*menu.Item, error)
	Delete(ctx context.Context, id string) error
}

// HistoryReader reads an order's status timeline.
type HistoryReader interface {
	ListByOrder(ctx context.Context, orderID string) ([]history.Entry, error)
}

// IdempotencyStore claims and completes client idempotency keys.
type IdempotencyStore interface {
	CreateIfNotExists(ctx context.Context, key, fingerprint, orderID string) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.IdempotencyRecord, error)
	TakeOver(ctx context.Context, key string) (*idempotency.IdempotencyRecord, error)
	MarkDone(ctx context.Context, key, orderID, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// HandlerConfig groups dependencies for the API handlers. History and Idempotency are
// optional.
type HandlerConfig struct {
	Orders      OrderService
	Menu        MenuService
	History     HistoryReader
	Idempotency IdempotencyStore
	Validator   *validatorv10.Validate
	Log         *slog.Logger
}

// RegisterRoutes registers the order and menu routes.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	RegisterOrdersRoutes(r, cfg)
	RegisterMenuRoutes(r, cfg)
}

func (cfg HandlerConfig) withDefaults(component string) HandlerConfig {
	if cfg.Validator == nil {
		cfg.Validator = validation.New()
	}
	if cfg.Log == nil {
		cfg.Log = logging.Discard()
	}
	cfg.Log = cfg.Log.With("component", component)
	return cfg
}
