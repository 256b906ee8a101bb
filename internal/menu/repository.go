package menu

import "context"

// Repository is the catalog persistence contract. Get returns (nil, nil) when absent;
// Replace and Delete report whether the item existed.
type Repository interface {
	Get(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context, f Filter) ([]Item, error)
	Insert(ctx context.Context, item Item) error
	Replace(ctx context.Context, item Item) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}
