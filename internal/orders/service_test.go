package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/imrishuroy/restaurant-orderflow/internal/aws/awstest"
	"github.com/imrishuroy/restaurant-orderflow/internal/menu"
	"github.com/imrishuroy/restaurant-orderflow/internal/notify"
	"github.com/imrishuroy/restaurant-orderflow/internal/notify/notifytest"
)

type fakeCatalog struct {
	items   map[string]menu.Item
	lookups int
	err     error
}

func (c *fakeCatalog) FindByID(ctx context.Context, id string) (*menu.Item, error) {
	c.lookups++
	if c.err != nil {
		return nil, c.err
	}
	it, ok := c.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

type fakeMetrics struct {
	created  []float64
	statuses []string
}

func (m *fakeMetrics) OrderCreated(ctx context.Context, total float64) {
	m.created = append(m.created, total)
}

func (m *fakeMetrics) StatusChanged(ctx context.Context, status string) {
	m.statuses = append(m.statuses, status)
}

type harness struct {
	svc      *Service
	db       *awstest.DynamoDB
	catalog  *fakeCatalog
	notifier *notifytest.Recorder
	metrics  *fakeMetrics
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		db: awstest.NewDynamoDB().AddTable("orders", "order_id"),
		catalog: &fakeCatalog{items: map[string]menu.Item{
			"biryani": {ItemID: "biryani", Name: "Chicken Biryani", Category: "Main Course", Price: 250, Available: true, PreparationTime: 25},
			"naan":    {ItemID: "naan", Name: "Butter Naan", Category: "Breads", Price: 150, Available: true, PreparationTime: 10},
			"kulfi":   {ItemID: "kulfi", Name: "Kulfi", Category: "Desserts", Price: 80, Available: false, PreparationTime: 5},
		}},
		notifier: &notifytest.Recorder{},
		metrics:  &fakeMetrics{},
		now:      time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	n := 0
	h.svc = NewService(
		NewStore(h.db, "orders"),
		h.catalog,
		h.notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithMetrics(h.metrics),
		WithClock(func() time.Time { return h.now }),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("order-%d", n)
		}),
	)
	return h
}

func (h *harness) place(t *testing.T, customer string) *Order {
	t.Helper()
	o, err := h.svc.Create(context.Background(), CreateInput{
		CustomerID: customer,
		Items:      []ItemRequest{{MenuItemID: "biryani", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return o
}

func TestCreate_PriceCapturedAtCreation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	o, err := h.svc.Create(ctx, CreateInput{
		CustomerID: "cust-1",
		Items: []ItemRequest{
			{MenuItemID: "biryani", Quantity: 1},
			{MenuItemID: "naan", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	biryani := h.catalog.items["biryani"]
	biryani.Price = 400
	biryani.PreparationTime = 60
	h.catalog.items["biryani"] = biryani

	stored, err := h.svc.Get(ctx, o.OrderID, Viewer{UserID: "cust-1"})
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if stored.TotalAmount != 550 || stored.EstimatedTime != 25 {
		t.Fatalf("stored order changed with the catalog: total=%v estimate=%d", stored.TotalAmount, stored.EstimatedTime)
	}
	if stored.Items[0].Price != 250 || stored.Items[1].Price != 150 {
		t.Fatalf("line prices changed with the catalog: %+v", stored.Items)
	}

	next, err := h.svc.Create(ctx, CreateInput{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{MenuItemID: "biryani", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if next.TotalAmount != 400 {
		t.Fatalf("new orders should use the new price, got %v", next.TotalAmount)
	}
}

func TestCreate_OrderNumbersUniqueAcrossInstances(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// a second service over the same table, same clock, own number generator
	other := NewService(
		NewStore(h.db, "orders"),
		h.catalog,
		h.notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return h.now }),
		WithIDs(func() string { return "other-1" }),
	)

	first := h.place(t, "cust-1")
	second, err := other.Create(ctx, CreateInput{
		CustomerID: "cust-2",
		Items:      []ItemRequest{{MenuItemID: "naan", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if first.OrderNumber == second.OrderNumber {
		t.Fatalf("duplicate order number %s", first.OrderNumber)
	}

	all, err := h.svc.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
	if all[0].OrderNumber == all[1].OrderNumber {
		t.Fatalf("duplicate order number persisted: %s", all[0].OrderNumber)
	}
}

func TestCreate_GivesUpAfterRepeatedNumberCollisions(t *testing.T) {
	h := newHarness(t)
	repo := &takenRepo{Repository: NewStore(h.db, "orders")}
	svc := NewService(repo, h.catalog, h.notifier, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Create(context.Background(), CreateInput{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{MenuItemID: "naan", Quantity: 1}},
	})
	if !errors.Is(err, ErrNumberTaken) {
		t.Fatalf("expected ErrNumberTaken, got %v", err)
	}
	if repo.inserts != maxNumberAttempts {
		t.Fatalf("expected %d attempts, got %d", maxNumberAttempts, repo.inserts)
	}
	if len(h.notifier.Events()) != 0 {
		t.Fatal("no event for an order that was never stored")
	}
}

// takenRepo reports every order number as taken.
type takenRepo struct {
	Repository
	inserts int
}

func (r *takenRepo) Insert(ctx context.Context, o Order) error {
	r.inserts++
	return fmt.Errorf("order number %s: %w", o.OrderNumber, ErrNumberTaken)
}

func TestCreate_ComputesTotalAndEstimate(t *testing.T) {
	h := newHarness(t)

	o, err := h.svc.Create(context.Background(), CreateInput{
		CustomerID: "cust-1",
		Items: []ItemRequest{
			{MenuItemID: "biryani", Quantity: 1},
			{MenuItemID: "naan", Quantity: 2},
		},
		Notes:   "less spicy",
		TableID: "T4",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if o.TotalAmount != 550 {
		t.Fatalf("expected total 550, got %v", o.TotalAmount)
	}
	if o.EstimatedTime != 25 {
		t.Fatalf("expected estimated time 25, got %d", o.EstimatedTime)
	}
	if o.Status != StatusPlaced {
		t.Fatalf("expected placed, got %s", o.Status)
	}
	if o.OrderNumber == "" || o.OrderID != "order-1" {
		t.Fatalf("unexpected identifiers: id=%s number=%s", o.OrderID, o.OrderNumber)
	}
	if len(o.Items) != 2 || o.Items[1].Price != 150 || o.Items[1].Name != "Butter Naan" {
		t.Fatalf("unexpected line items: %+v", o.Items)
	}

	stored, err := h.svc.Get(context.Background(), o.OrderID, Viewer{UserID: "cust-1"})
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if stored.TotalAmount != 550 || stored.Notes != "less spicy" || stored.TableID != "T4" {
		t.Fatalf("stored order mismatch: %+v", stored)
	}

	events := h.notifier.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Audience != notify.AudienceOperators || events[0].Event != notify.EventNewOrder {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if p, ok := events[0].Payload.(Order); !ok || p.OrderID != o.OrderID {
		t.Fatalf("unexpected payload: %#v", events[0].Payload)
	}
	if len(h.metrics.created) != 1 || h.metrics.created[0] != 550 {
		t.Fatalf("unexpected metrics: %+v", h.metrics.created)
	}
}

func TestCreate_CallerCopyIsDetached(t *testing.T) {
	h := newHarness(t)
	o := h.place(t, "cust-1")

	o.Items[0].Quantity = 99
	o.Status = StatusCompleted

	stored, err := h.svc.Get(context.Background(), o.OrderID, Viewer{Operator: true})
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if stored.Items[0].Quantity != 1 || stored.Status != StatusPlaced {
		t.Fatalf("stored order was mutated through the returned copy: %+v", stored)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		in   CreateInput
	}{
		{"no items", CreateInput{CustomerID: "c"}},
		{"zero quantity", CreateInput{CustomerID: "c", Items: []ItemRequest{{MenuItemID: "biryani", Quantity: 0}}}},
		{"negative quantity", CreateInput{CustomerID: "c", Items: []ItemRequest{{MenuItemID: "naan", Quantity: 1}, {MenuItemID: "biryani", Quantity: -2}}}},
		{"no customer", CreateInput{Items: []ItemRequest{{MenuItemID: "biryani", Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.svc.Create(context.Background(), tc.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if h.db.CountWith("orders", "customer_id") != 0 {
				t.Fatal("no order should be stored")
			}
			if len(h.notifier.Events()) != 0 {
				t.Fatal("no event should be published")
			}
		})
	}
}

func TestCreate_UnknownItem(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), CreateInput{
		CustomerID: "c",
		Items:      []ItemRequest{{MenuItemID: "biryani", Quantity: 1}, {MenuItemID: "ghost", Quantity: 1}},
	})
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "ghost" {
		t.Fatalf("expected NotFoundError for ghost, got %v", err)
	}
	if h.db.CountWith("orders", "customer_id") != 0 {
		t.Fatal("no order should be stored")
	}
}

func TestCreate_UnavailableItem(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), CreateInput{
		CustomerID: "c",
		Items:      []ItemRequest{{MenuItemID: "kulfi", Quantity: 1}},
	})
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if ue.Name != "Kulfi" {
		t.Fatalf("error should name the item, got %q", ue.Name)
	}
}

func TestCreate_CatalogLookupOncePerDistinctItem(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), CreateInput{
		CustomerID: "c",
		Items: []ItemRequest{
			{MenuItemID: "naan", Quantity: 1},
			{MenuItemID: "naan", Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if h.catalog.lookups != 1 {
		t.Fatalf("expected 1 catalog lookup, got %d", h.catalog.lookups)
	}
}

func TestCreate_CatalogFailureIsWrapped(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("catalog down")
	h.catalog.err = boom

	_, err := h.svc.Create(context.Background(), CreateInput{
		CustomerID: "c",
		Items:      []ItemRequest{{MenuItemID: "naan", Quantity: 1}},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped catalog error, got %v", err)
	}
}

func TestCreate_OrderNumbersAreUnique(t *testing.T) {
	h := newHarness(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		o := h.place(t, "c")
		if seen[o.OrderNumber] {
			t.Fatalf("duplicate order number %s", o.OrderNumber)
		}
		seen[o.OrderNumber] = true
	}
}

func TestCreate_NotificationFailureDoesNotFail(t *testing.T) {
	h := newHarness(t)
	h.notifier.Err = errors.New("broker down")

	o := h.place(t, "c")
	if h.db.Item("orders", o.OrderID) == nil {
		t.Fatal("order must be persisted despite notification failure")
	}
}

func TestTransitionStatus(t *testing.T) {
	h := newHarness(t)
	o := h.place(t, "cust-1")
	h.now = h.now.Add(5 * time.Minute)

	got, err := h.svc.TransitionStatus(context.Background(), o.OrderID, StatusPreparing)
	if err != nil {
		t.Fatalf("TransitionStatus error: %v", err)
	}
	if got.Status != StatusPreparing {
		t.Fatalf("expected preparing, got %s", got.Status)
	}
	if !got.UpdatedAt.Equal(h.now) || !got.CreatedAt.Equal(o.CreatedAt) {
		t.Fatalf("timestamps wrong: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}

	events := h.notifier.Events()
	last := events[len(events)-1]
	if last.Audience != notify.AudienceEveryone || last.Event != notify.EventOrderStatusUpdate {
		t.Fatalf("unexpected event: %+v", last)
	}
	want := StatusUpdate{OrderID: o.OrderID, Status: StatusPreparing, OrderNumber: o.OrderNumber}
	if last.Payload != want {
		t.Fatalf("payload = %#v, want %#v", last.Payload, want)
	}
	if len(h.metrics.statuses) != 1 || h.metrics.statuses[0] != "preparing" {
		t.Fatalf("unexpected metrics: %+v", h.metrics.statuses)
	}
}

func TestTransitionStatus_NoTransitionGraph(t *testing.T) {
	h := newHarness(t)
	o := h.place(t, "c")
	ctx := context.Background()

	for _, s := range []Status{StatusCompleted, StatusPlaced, StatusCancelled, StatusReady} {
		got, err := h.svc.TransitionStatus(ctx, o.OrderID, s)
		if err != nil {
			t.Fatalf("TransitionStatus(%s) error: %v", s, err)
		}
		if got.Status != s {
			t.Fatalf("expected %s, got %s", s, got.Status)
		}
	}
}

func TestTransitionStatus_Errors(t *testing.T) {
	h := newHarness(t)
	o := h.place(t, "c")
	ctx := context.Background()

	_, err := h.svc.TransitionStatus(ctx, o.OrderID, Status("served"))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = h.svc.TransitionStatus(ctx, "missing", StatusReady)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if h.db.Item("orders", "missing") != nil {
		t.Fatal("status update must not create orders")
	}
	if n := len(h.notifier.Events()); n != 1 {
		t.Fatalf("failed transitions must not notify, got %d events", n)
	}
}

func TestCancel(t *testing.T) {
	h := newHarness(t)
	o := h.place(t, "cust-1")

	got, err := h.svc.Cancel(context.Background(), o.OrderID, "cust-1")
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	events := h.notifier.Events()
	last := events[len(events)-1]
	if last.Event != notify.EventOrderStatusUpdate || last.Audience != notify.AudienceEveryone {
		t.Fatalf("unexpected event: %+v", last)
	}
	if p := last.Payload.(StatusUpdate); p.Status != StatusCancelled || p.OrderNumber != o.OrderNumber {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestCancel_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Cancel(ctx, "missing", "cust-1")
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
	})

	t.Run("forbidden before state", func(t *testing.T) {
		h := newHarness(t)
		o := h.place(t, "cust-1")
		if _, err := h.svc.TransitionStatus(ctx, o.OrderID, StatusReady); err != nil {
			t.Fatalf("TransitionStatus error: %v", err)
		}
		_, err := h.svc.Cancel(ctx, o.OrderID, "cust-2")
		var fe *ForbiddenError
		if !errors.As(err, &fe) {
			t.Fatalf("expected ForbiddenError, got %v", err)
		}
	})

	t.Run("invalid state", func(t *testing.T) {
		h := newHarness(t)
		o := h.place(t, "cust-1")
		if _, err := h.svc.TransitionStatus(ctx, o.OrderID, StatusPreparing); err != nil {
			t.Fatalf("TransitionStatus error: %v", err)
		}
		_, err := h.svc.Cancel(ctx, o.OrderID, "cust-1")
		var ie *InvalidStateError
		if !errors.As(err, &ie) || ie.Status != StatusPreparing {
			t.Fatalf("expected InvalidStateError(preparing), got %v", err)
		}
		stored, _ := h.svc.Get(ctx, o.OrderID, Viewer{Operator: true})
		if stored.Status != StatusPreparing {
			t.Fatalf("status must be unchanged, got %s", stored.Status)
		}
	})

	t.Run("already cancelled", func(t *testing.T) {
		h := newHarness(t)
		o := h.place(t, "cust-1")
		if _, err := h.svc.Cancel(ctx, o.OrderID, "cust-1"); err != nil {
			t.Fatalf("first Cancel error: %v", err)
		}
		_, err := h.svc.Cancel(ctx, o.OrderID, "cust-1")
		var ie *InvalidStateError
		if !errors.As(err, &ie) {
			t.Fatalf("expected InvalidStateError, got %v", err)
		}
	})
}

// racingRepo moves the order out of placed between Cancel's read and its write.
type racingRepo struct {
	Repository
	store *Store
}

func (r *racingRepo) CompareAndSetStatus(ctx context.Context, id string, expected, next Status, at time.Time) (*Order, error) {
	if _, err := r.store.UpdateStatus(ctx, id, StatusPreparing, at); err != nil {
		return nil, err
	}
	return r.store.CompareAndSetStatus(ctx, id, expected, next, at)
}

func TestCancel_LosesRaceToOperator(t *testing.T) {
	h := newHarness(t)
	o := h.place(t, "cust-1")

	store := NewStore(h.db, "orders")
	svc := NewService(&racingRepo{Repository: store, store: store}, h.catalog, h.notifier, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Cancel(context.Background(), o.OrderID, "cust-1")
	var ie *InvalidStateError
	if !errors.As(err, &ie) || ie.Status != StatusPreparing {
		t.Fatalf("expected InvalidStateError(preparing), got %v", err)
	}
}

func TestGet_Visibility(t *testing.T) {
	h := newHarness(t)
	o := h.place(t, "cust-1")
	ctx := context.Background()

	if _, err := h.svc.Get(ctx, o.OrderID, Viewer{UserID: "cust-1"}); err != nil {
		t.Fatalf("owner Get error: %v", err)
	}
	if _, err := h.svc.Get(ctx, o.OrderID, Viewer{UserID: "ops", Operator: true}); err != nil {
		t.Fatalf("operator Get error: %v", err)
	}
	_, err := h.svc.Get(ctx, o.OrderID, Viewer{UserID: "cust-2"})
	var fe *ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestListForCustomer_NewestFirst(t *testing.T) {
	h := newHarness(t)
	first := h.place(t, "cust-1")
	h.now = h.now.Add(time.Minute)
	h.place(t, "cust-2")
	h.now = h.now.Add(time.Minute)
	second := h.place(t, "cust-1")

	list, err := h.svc.ListForCustomer(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("ListForCustomer error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(list))
	}
	if list[0].OrderID != second.OrderID || list[1].OrderID != first.OrderID {
		t.Fatalf("unexpected order: %s, %s", list[0].OrderID, list[1].OrderID)
	}
}

func TestList_FiltersByStatusAndRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	day := h.now

	a := h.place(t, "c1")
	h.now = day.Add(48 * time.Hour)
	b := h.place(t, "c2")
	if _, err := h.svc.TransitionStatus(ctx, b.OrderID, StatusReady); err != nil {
		t.Fatalf("TransitionStatus error: %v", err)
	}

	ready, err := h.svc.List(ctx, ListFilter{Status: StatusReady})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(ready) != 1 || ready[0].OrderID != b.OrderID {
		t.Fatalf("unexpected ready list: %+v", ready)
	}

	early, err := h.svc.List(ctx, ListFilter{Range: DateRange{To: day.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(early) != 1 || early[0].OrderID != a.OrderID {
		t.Fatalf("unexpected ranged list: %+v", early)
	}

	if _, err := h.svc.List(ctx, ListFilter{Status: "bogus"}); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}

func TestAnalytics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// 250, 550, 250 (cancelled), 150 (completed)
	h.place(t, "c1")
	big, err := h.svc.Create(ctx, CreateInput{CustomerID: "c1", Items: []ItemRequest{{MenuItemID: "biryani", Quantity: 1}, {MenuItemID: "naan", Quantity: 2}}})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	c := h.place(t, "c2")
	if _, err := h.svc.Cancel(ctx, c.OrderID, "c2"); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	d, err := h.svc.Create(ctx, CreateInput{CustomerID: "c3", Items: []ItemRequest{{MenuItemID: "naan", Quantity: 1}}})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := h.svc.TransitionStatus(ctx, d.OrderID, StatusCompleted); err != nil {
		t.Fatalf("TransitionStatus error: %v", err)
	}
	if _, err := h.svc.TransitionStatus(ctx, big.OrderID, StatusPreparing); err != nil {
		t.Fatalf("TransitionStatus error: %v", err)
	}

	a, err := h.svc.Analytics(ctx, DateRange{})
	if err != nil {
		t.Fatalf("Analytics error: %v", err)
	}
	if a.TotalOrders != 4 || a.TotalRevenue != 1200 {
		t.Fatalf("unexpected totals: %+v", a)
	}
	if a.CompletedOrders != 1 || a.CompletedRevenue != 150 {
		t.Fatalf("unexpected completed: %+v", a)
	}
	if a.CancelledOrders != 1 || a.CancelledRevenue != 250 {
		t.Fatalf("unexpected cancelled: %+v", a)
	}
	if a.ActiveOrders != 2 || a.ActiveRevenue != 800 {
		t.Fatalf("unexpected active: %+v", a)
	}
	if a.AverageOrderValue != 300 || a.CompletionRate != 25 {
		t.Fatalf("unexpected ratios: avg=%v rate=%v", a.AverageOrderValue, a.CompletionRate)
	}

	empty, err := h.svc.Analytics(ctx, DateRange{From: h.now.Add(24 * time.Hour)})
	if err != nil {
		t.Fatalf("Analytics error: %v", err)
	}
	if empty != (Analytics{}) {
		t.Fatalf("expected zero analytics for empty range, got %+v", empty)
	}

	if _, err := h.svc.Analytics(ctx, DateRange{From: h.now, To: h.now.Add(-time.Hour)}); err == nil {
		t.Fatal("expected validation error for inverted range")
	}
}
