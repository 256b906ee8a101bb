package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestService() *Service {
	_, store := newTestStore()
	svc := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.nowFunc = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
	return svc
}

func TestService_CreateAppliesDefaults(t *testing.T) {
	svc := newTestService()

	it, err := svc.Create(context.Background(), Input{Name: "Samosa", Price: 60, Category: "Snacks"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if it.ItemID != "item-1" {
		t.Fatalf("unexpected id %s", it.ItemID)
	}
	if !it.Available {
		t.Fatal("new items should default to available")
	}
	if it.PreparationTime != DefaultPreparationTime {
		t.Fatalf("expected default prep time %d, got %d", DefaultPreparationTime, it.PreparationTime)
	}
}

func TestService_UpdateAndDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	it, err := svc.Create(ctx, Input{Name: "Samosa", Price: 60, Category: "Snacks", PreparationTime: 5})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	unavailable := false
	updated, err := svc.Update(ctx, it.ItemID, Input{Name: "Samosa (2 pcs)", Price: 70, Category: "Snacks", Available: &unavailable, PreparationTime: 6})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Available || updated.Price != 70 || updated.PreparationTime != 6 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if !updated.CreatedAt.Equal(it.CreatedAt) {
		t.Fatal("created_at must not change on update")
	}

	if _, err := svc.Update(ctx, "missing", Input{Name: "x", Price: 1, Category: "y"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, it.ItemID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := svc.Get(ctx, it.ItemID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, it.ItemID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestService_Seed(t *testing.T) {
	svc := newTestService()

	created, err := svc.Seed(context.Background())
	if err != nil {
		t.Fatalf("Seed error: %v", err)
	}
	if len(created) != len(DefaultMenu()) {
		t.Fatalf("expected %d items, got %d", len(DefaultMenu()), len(created))
	}
	items, err := svc.List(context.Background(), Filter{Category: "Beverages"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 beverages, got %d", len(items))
	}
}
