package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/restaurant-orderflow/internal/menu"
	"github.com/imrishuroy/restaurant-orderflow/internal/notify"
)

// Service is the order lifecycle manager. It owns the authoritative status of every
// order and announces changes through the notifier.
type Service struct {
	repo     Repository
	catalog  Catalog
	notifier notify.Publisher
	metrics  Recorder
	log      *slog.Logger

	numbers *NumberGenerator
	nowFunc func() time.Time
	newID   func() string
}

// maxNumberAttempts bounds how often Create draws a new order number after a collision.
const maxNumberAttempts = 5

type Option func(*Service)

// WithMetrics attaches a business counter recorder.
func WithMetrics(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.nowFunc = now }
}

// WithIDs overrides the order id generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(repo Repository, catalog Catalog, notifier notify.Publisher, log *slog.Logger, opts ...Option) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Service{
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		metrics:  nopRecorder{},
		log:      log.With("component", "order_service"),
		numbers:  &NumberGenerator{},
		nowFunc:  time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create prices the requested items against the catalog, persists a new placed order
// and announces it to operators.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if in.CustomerID == "" {
		return nil, &ValidationError{Field: "customer_id", Msg: "is required"}
	}
	if len(in.Items) == 0 {
		return nil, &ValidationError{Field: "items", Msg: "order must contain at least one item"}
	}
	for i, req := range in.Items {
		if req.MenuItemID == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].menu_item_id", i), Msg: "is required"}
		}
		if req.Quantity <= 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Msg: "must be at least 1"}
		}
	}

	seen := make(map[string]*menu.Item, len(in.Items))
	lines := make([]LineItem, 0, len(in.Items))
	total := decimal.Zero
	estimated := 0

	for _, req := range in.Items {
		it, ok := seen[req.MenuItemID]
		if !ok {
			var err error
			it, err = s.catalog.FindByID(ctx, req.MenuItemID)
			if err != nil {
				return nil, fmt.Errorf("lookup menu item %s: %w", req.MenuItemID, err)
			}
			seen[req.MenuItemID] = it
		}
		if it == nil {
			return nil, &NotFoundError{Entity: "menu item", ID: req.MenuItemID}
		}
		if !it.Available {
			return nil, &UnavailableError{ItemID: it.ItemID, Name: it.Name}
		}

		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(req.Quantity))))
		if it.PreparationTime > estimated {
			estimated = it.PreparationTime
		}
		lines = append(lines, LineItem{
			MenuItemID:      it.ItemID,
			Name:            it.Name,
			Category:        it.Category,
			Quantity:        req.Quantity,
			Price:           it.Price,
			PreparationTime: it.PreparationTime,
		})
	}

	orderID := in.OrderID
	if orderID == "" {
		orderID = s.newID()
	}
	now := s.nowFunc().UTC()
	order := Order{
		OrderID:       orderID,
		OrderNumber:   s.numbers.Next(now),
		CustomerID:    in.CustomerID,
		Items:         lines,
		TotalAmount:   total.Round(2).InexactFloat64(),
		EstimatedTime: estimated,
		Status:        StatusPlaced,
		Notes:         in.Notes,
		TableID:       in.TableID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for attempt := 1; ; attempt++ {
		err := s.repo.Insert(ctx, order)
		if err == nil {
			break
		}
		if errors.Is(err, ErrNumberTaken) && attempt < maxNumberAttempts {
			// another instance issued the same number
			s.log.Warn("order number taken, retrying", "order_number", order.OrderNumber, "attempt", attempt)
			order.OrderNumber = s.numbers.Next(s.nowFunc().UTC())
			continue
		}
		s.log.Error("insert order failed", "customer_id", in.CustomerID, "error", err)
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.log.Info("order created",
		"order_id", order.OrderID,
		"order_number", order.OrderNumber,
		"total_amount", order.TotalAmount,
		"items", len(order.Items),
	)

	s.publish(ctx, notify.AudienceOperators, notify.EventNewOrder, order.Clone())
	s.metrics.OrderCreated(ctx, order.TotalAmount)

	out := order.Clone()
	return &out, nil
}

// TransitionStatus sets any valid status on an existing order. There is no transition
// graph: concurrent operators race and the last write wins.
func (s *Service) TransitionStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Msg: fmt.Sprintf("invalid status %q", status)}
	}

	o, err := s.repo.UpdateStatus(ctx, orderID, status, s.nowFunc().UTC())
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if o == nil {
		return nil, &NotFoundError{Entity: "order", ID: orderID}
	}
	s.log.Info("order status updated", "order_id", orderID, "status", status)

	s.announceStatus(ctx, *o)
	return o, nil
}

// Cancel lets the owning customer withdraw an order that is still placed.
func (s *Service) Cancel(ctx context.Context, orderID, customerID string) (*Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, &NotFoundError{Entity: "order", ID: orderID}
	}
	if o.CustomerID != customerID {
		return nil, &ForbiddenError{Msg: "order belongs to another customer"}
	}
	if o.Status != StatusPlaced {
		return nil, &InvalidStateError{OrderID: orderID, Status: o.Status, Op: "cancel"}
	}

	updated, err := s.repo.CompareAndSetStatus(ctx, orderID, StatusPlaced, StatusCancelled, s.nowFunc().UTC())
	if errors.Is(err, ErrStatusMismatch) {
		// An operator moved the order between the read and the write.
		current, gerr := s.repo.FindByID(ctx, orderID)
		if gerr != nil {
			return nil, fmt.Errorf("get order: %w", gerr)
		}
		if current == nil {
			return nil, &NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, &InvalidStateError{OrderID: orderID, Status: current.Status, Op: "cancel"}
	}
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	s.log.Info("order cancelled", "order_id", orderID, "customer_id", customerID)

	s.announceStatus(ctx, *updated)
	return updated, nil
}

// Get returns an order the viewer is allowed to read.
func (s *Service) Get(ctx context.Context, orderID string, viewer Viewer) (*Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, &NotFoundError{Entity: "order", ID: orderID}
	}
	if !viewer.Operator && o.CustomerID != viewer.UserID {
		return nil, &ForbiddenError{Msg: "order belongs to another customer"}
	}
	return o, nil
}

// ListForCustomer returns the customer's orders, newest first.
func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]Order, error) {
	if customerID == "" {
		return nil, &ValidationError{Field: "customer_id", Msg: "is required"}
	}
	return s.List(ctx, ListFilter{CustomerID: customerID})
}

// List returns all orders matching f, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, &ValidationError{Field: "status", Msg: fmt.Sprintf("invalid status %q", f.Status)}
	}
	out, err := s.repo.FindMany(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	SortNewestFirst(out)
	return out, nil
}

// Analytics summarizes the orders created within r.
func (s *Service) Analytics(ctx context.Context, r DateRange) (Analytics, error) {
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return Analytics{}, &ValidationError{Field: "endDate", Msg: "must not be before startDate"}
	}
	list, err := s.repo.FindMany(ctx, ListFilter{Range: r})
	if err != nil {
		return Analytics{}, fmt.Errorf("analytics: %w", err)
	}
	return Summarize(list), nil
}

func (s *Service) announceStatus(ctx context.Context, o Order) {
	s.publish(ctx, notify.AudienceEveryone, notify.EventOrderStatusUpdate, StatusUpdate{
		OrderID:     o.OrderID,
		Status:      o.Status,
		OrderNumber: o.OrderNumber,
	})
	s.metrics.StatusChanged(ctx, string(o.Status))
}

// publish is best effort: the state change is already durable.
func (s *Service) publish(ctx context.Context, audience notify.Audience, event string, payload any) {
	if err := s.notifier.Publish(ctx, audience, event, payload); err != nil {
		s.log.Warn("notification failed",
			"event", event,
			"audience", string(audience),
			"error", err,
		)
	}
}

// SortNewestFirst orders by creation time descending, then by order number.
func SortNewestFirst(list []Order) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].OrderNumber > list[j].OrderNumber
	})
}
