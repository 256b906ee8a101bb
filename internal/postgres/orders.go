package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/imrishuroy/restaurant-orderflow/internal/orders"
)

const orderColumns = `order_id, order_number, customer_id, items, total_amount, estimated_time,
    status, notes, table_id, created_at, updated_at`

// uniqueViolation is the SQLSTATE of a UNIQUE constraint failure.
const uniqueViolation = "23505"

// OrdersRepository implements orders.Repository.
type OrdersRepository struct {
	db DB
}

func NewOrdersRepository(db DB) *OrdersRepository {
	return &OrdersRepository{db: db}
}

func (r *OrdersRepository) Insert(ctx context.Context, o orders.Order) error {
	query := `
        INSERT INTO orders (` + orderColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err := r.db.Exec(ctx, query,
		o.OrderID,
		o.OrderNumber,
		o.CustomerID,
		o.Items,
		o.TotalAmount,
		o.EstimatedTime,
		string(o.Status),
		o.Notes,
		o.TableID,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "order_number") {
				return fmt.Errorf("order number %s: %w", o.OrderNumber, orders.ErrNumberTaken)
			}
			return fmt.Errorf("order %s: %w", o.OrderID, orders.ErrOrderExists)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrdersRepository) FindByID(ctx context.Context, orderID string) (*orders.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	o, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *OrdersRepository) UpdateStatus(ctx context.Context, orderID string, status orders.Status, at time.Time) (*orders.Order, error) {
	query := `
        UPDATE orders SET status = $2, updated_at = $3
        WHERE order_id = $1
        RETURNING ` + orderColumns
	o, err := scanOrder(r.db.QueryRow(ctx, query, orderID, string(status), at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return o, nil
}

func (r *OrdersRepository) CompareAndSetStatus(ctx context.Context, orderID string, expected, next orders.Status, at time.Time) (*orders.Order, error) {
	query := `
        UPDATE orders SET status = $2, updated_at = $3
        WHERE order_id = $1 AND status = $4
        RETURNING ` + orderColumns
	o, err := scanOrder(r.db.QueryRow(ctx, query, orderID, string(next), at, string(expected)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrStatusMismatch
	}
	if err != nil {
		return nil, fmt.Errorf("compare and set order status: %w", err)
	}
	return o, nil
}

func (r *OrdersRepository) FindMany(ctx context.Context, f orders.ListFilter) ([]orders.Order, error) {
	query, args := buildFindMany(f)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

// buildFindMany renders the filtered select. Both range ends are inclusive.
func buildFindMany(f orders.ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CustomerID != "" {
		add("customer_id = $%d", f.CustomerID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if !f.Range.From.IsZero() {
		add("created_at >= $%d", f.Range.From)
	}
	if !f.Range.To.IsZero() {
		add("created_at <= $%d", f.Range.To)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, order_number DESC`
	return query, args
}

func scanOrder(row pgx.Row) (*orders.Order, error) {
	var (
		o      orders.Order
		status string
	)
	err := row.Scan(
		&o.OrderID,
		&o.OrderNumber,
		&o.CustomerID,
		&o.Items,
		&o.TotalAmount,
		&o.EstimatedTime,
		&status,
		&o.Notes,
		&o.TableID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = orders.Status(status)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}
