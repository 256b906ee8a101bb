package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/imrishuroy/restaurant-orderflow/internal/menu"
)

const menuColumns = `menu_item_id, name, description, price, category, image, available,
    preparation_time, created_at, updated_at`

// MenuRepository implements menu.Repository.
type MenuRepository struct {
	db DB
}

func NewMenuRepository(db DB) *MenuRepository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) Get(ctx context.Context, id string) (*menu.Item, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE menu_item_id = $1`
	it, err := scanMenuItem(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return it, nil
}

func (r *MenuRepository) List(ctx context.Context, f menu.Filter) ([]menu.Item, error) {
	query, args := buildMenuList(f)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var out []menu.Item
	for rows.Next() {
		it, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func buildMenuList(f menu.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.AvailableOnly {
		where = append(where, "available")
	}

	query := `SELECT ` + menuColumns + ` FROM menu_items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY category, name`
	return query, args
}

func (r *MenuRepository) Insert(ctx context.Context, it menu.Item) error {
	query := `
        INSERT INTO menu_items (` + menuColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := r.db.Exec(ctx, query,
		it.ItemID,
		it.Name,
		it.Description,
		it.Price,
		it.Category,
		it.Image,
		it.Available,
		it.PreparationTime,
		it.CreatedAt,
		it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

func (r *MenuRepository) Replace(ctx context.Context, it menu.Item) (bool, error) {
	query := `
        UPDATE menu_items SET
            name = $2, description = $3, price = $4, category = $5, image = $6,
            available = $7, preparation_time = $8, updated_at = $9
        WHERE menu_item_id = $1
    `
	tag, err := r.db.Exec(ctx, query,
		it.ItemID,
		it.Name,
		it.Description,
		it.Price,
		it.Category,
		it.Image,
		it.Available,
		it.PreparationTime,
		it.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update menu item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MenuRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE menu_item_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete menu item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanMenuItem(row pgx.Row) (*menu.Item, error) {
	var it menu.Item
	err := row.Scan(
		&it.ItemID,
		&it.Name,
		&it.Description,
		&it.Price,
		&it.Category,
		&it.Image,
		&it.Available,
		&it.PreparationTime,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return &it, nil
}
