package menu

import (
	"context"
	"testing"
	"time"

	"github.com/imrishuroy/restaurant-orderflow/internal/aws/awstest"
)

func newTestStore() (*awstest.DynamoDB, *Store) {
	mock := awstest.NewDynamoDB().AddTable("menu", "menu_item_id")
	return mock, NewStore(mock, "menu")
}

func TestStore_InsertGetReplaceDelete(t *testing.T) {
	mock, store := newTestStore()
	ctx := context.Background()
	now := time.Now().UTC().Round(time.Second)

	it := Item{ItemID: "m1", Name: "Masala Chai", Price: 30, Category: "Beverages", Available: true, PreparationTime: 5, CreatedAt: now, UpdatedAt: now}
	if err := store.Insert(ctx, it); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if err := store.Insert(ctx, it); err == nil {
		t.Fatal("expected duplicate insert to fail")
	}

	got, err := store.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil || got.Name != "Masala Chai" || got.PreparationTime != 5 || !got.Available {
		t.Fatalf("unexpected item: %+v", got)
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing item, got (%+v, %v)", missing, err)
	}

	it.Available = false
	found, err := store.Replace(ctx, it)
	if err != nil || !found {
		t.Fatalf("Replace: found=%v err=%v", found, err)
	}
	got, _ = store.Get(ctx, "m1")
	if got.Available {
		t.Fatal("expected item to be unavailable after replace")
	}

	found, err = store.Replace(ctx, Item{ItemID: "ghost", Name: "x"})
	if err != nil || found {
		t.Fatalf("Replace of missing item: found=%v err=%v", found, err)
	}
	if mock.Item("menu", "ghost") != nil {
		t.Fatal("replace must not create missing items")
	}

	found, err = store.Delete(ctx, "m1")
	if err != nil || !found {
		t.Fatalf("Delete: found=%v err=%v", found, err)
	}
	found, err = store.Delete(ctx, "m1")
	if err != nil || found {
		t.Fatalf("second Delete: found=%v err=%v", found, err)
	}
}

func TestStore_ListFiltersAndPaginates(t *testing.T) {
	mock, store := newTestStore()
	mock.PageSize = 2
	ctx := context.Background()

	items := []Item{
		{ItemID: "a", Name: "Mango Lassi", Category: "Beverages", Available: true},
		{ItemID: "b", Name: "Masala Chai", Category: "Beverages", Available: false},
		{ItemID: "c", Name: "Samosa", Category: "Snacks", Available: true},
		{ItemID: "d", Name: "Gulab Jamun", Category: "Desserts", Available: true},
		{ItemID: "e", Name: "Chai Latte", Category: "Beverages", Available: true},
	}
	for _, it := range items {
		if err := store.Insert(ctx, it); err != nil {
			t.Fatalf("Insert %s: %v", it.ItemID, err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"e", "a", "b", "d", "c"}},
		{"category", Filter{Category: "Beverages"}, []string{"e", "a", "b"}},
		{"available beverages", Filter{Category: "Beverages", AvailableOnly: true}, []string{"e", "a"}},
		{"available", Filter{AvailableOnly: true}, []string{"e", "a", "d", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d items, got %d (%+v)", len(tt.want), len(got), got)
			}
			for i, id := range tt.want {
				if got[i].ItemID != id {
					t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ItemID)
				}
			}
		})
	}
	if mock.ScanCalls < 3 {
		t.Fatalf("expected paginated scans, got %d calls", mock.ScanCalls)
	}
}
