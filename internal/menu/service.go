package menu

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service manages the catalog on top of a Repository.
type Service struct {
	repo    Repository
	log     *slog.Logger
	nowFunc func() time.Time
	newID   func() string
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		log:     log.With("component", "menu_service"),
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}
}

// FindByID resolves a catalog entry; it satisfies the order manager's catalog lookup.
func (s *Service) FindByID(ctx context.Context, id string) (*Item, error) {
	return s.repo.Get(ctx, id)
}

// Get returns ErrNotFound when the id does not resolve.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, ErrNotFound
	}
	return it, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]Item, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Create(ctx context.Context, in Input) (*Item, error) {
	now := s.nowFunc().UTC()
	it := Item{
		ItemID:    s.newID(),
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&it, in)

	if err := s.repo.Insert(ctx, it); err != nil {
		s.log.Error("create menu item failed", "name", in.Name, "error", err)
		return nil, err
	}
	s.log.Info("menu item created", "menu_item_id", it.ItemID, "name", it.Name)
	return &it, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Item, error) {
	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(it, in)
	it.UpdatedAt = s.nowFunc().UTC()

	found, err := s.repo.Replace(ctx, *it)
	if err != nil {
		return nil, fmt.Errorf("update menu item %s: %w", id, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	s.log.Info("menu item updated", "menu_item_id", id, "available", it.Available)
	return it, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete menu item %s: %w", id, err)
	}
	if !found {
		return ErrNotFound
	}
	s.log.Info("menu item deleted", "menu_item_id", id)
	return nil
}

func apply(it *Item, in Input) {
	it.Name = in.Name
	it.Description = in.Description
	it.Price = in.Price
	it.Category = in.Category
	it.Image = in.Image
	if in.Available != nil {
		it.Available = *in.Available
	}
	it.PreparationTime = in.PreparationTime
	if it.PreparationTime <= 0 {
		it.PreparationTime = DefaultPreparationTime
	}
}
