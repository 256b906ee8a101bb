package orders

import (
	"context"
	"time"

	"github.com/imrishuroy/restaurant-orderflow/internal/menu"
)

// Repository persists orders. Implementations return (nil, nil) for absent records.
type Repository interface {
	FindByID(ctx context.Context, orderID string) (*Order, error)
	Insert(ctx context.Context, order Order) error
	// UpdateStatus overwrites the status; (nil, nil) if the order does not exist.
	UpdateStatus(ctx context.Context, orderID string, status Status, at time.Time) (*Order, error)
	// CompareAndSetStatus returns ErrStatusMismatch when the stored status is not expected.
	CompareAndSetStatus(ctx context.Context, orderID string, expected, next Status, at time.Time) (*Order, error)
	FindMany(ctx context.Context, f ListFilter) ([]Order, error)
}

// Catalog resolves menu items at order time. (nil, nil) means the item does not exist.
type Catalog interface {
	FindByID(ctx context.Context, id string) (*menu.Item, error)
}

// Recorder receives business counters. Failures are the recorder's own concern.
type Recorder interface {
	OrderCreated(ctx context.Context, total float64)
	StatusChanged(ctx context.Context, status string)
}

type nopRecorder struct{}

func (nopRecorder) OrderCreated(context.Context, float64)  {}
func (nopRecorder) StatusChanged(context.Context, string) {}
