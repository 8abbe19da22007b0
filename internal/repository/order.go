package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-ecommerce-cli/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateItem(ctx context.Context, item *model.OrderItem) error
	UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (bool, error)
	// Cancel flips a non-cancelled order to cancelled and reports whether it did.
	Cancel(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	SumTotals(ctx context.Context, status model.OrderStatus) (decimal.Decimal, error)
}

type pgOrderRepo struct{ db DBTX }

func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO orders (user_id, status, total_price, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id, created_at, updated_at`,
		order.UserID, string(order.Status), order.TotalPrice,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) CreateItem(ctx context.Context, item *model.OrderItem) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase, sale_at_purchase, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id, created_at`,
		item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase, item.SaleAtPurchase,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	_, err := r.db.Exec(ctx,
		`UPDATE orders SET total_price = $2, updated_at = NOW() WHERE id = $1`, id, total,
	)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (bool, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status),
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgOrderRepo) Cancel(ctx context.Context, id int64) (bool, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE orders SET status = 'cancelled', updated_at = NOW() WHERE id = $1 AND status <> 'cancelled'`, id,
	)
	if err != nil {
		return false, fmt.Errorf("cancel order: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

const orderSelect = `SELECT o.id, o.user_id, o.status, o.total_price, o.created_at, o.updated_at,
	       COALESCE((SELECT SUM(oi.quantity) FROM order_items oi WHERE oi.order_id = o.id), 0)
	FROM orders o`

func scanOrder(row pgx.Row, o *model.Order) error {
	var status string
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt, &o.ItemsCount); err != nil {
		return err
	}
	o.Status = model.OrderStatus(status)
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	order := &model.Order{}
	if err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id), order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT oi.id, oi.product_id, p.name, oi.quantity, oi.price_at_purchase, oi.sale_at_purchase, oi.created_at
		 FROM order_items oi JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = $1 ORDER BY oi.id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.PriceAtPurchase, &item.SaleAtPurchase, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	return r.list(ctx, orderSelect+` WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id DESC`, userID)
}

func (r *pgOrderRepo) List(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, orderSelect+` ORDER BY o.created_at DESC, o.id DESC`)
}

func (r *pgOrderRepo) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *pgOrderRepo) SumTotals(ctx context.Context, status model.OrderStatus) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_price), 0) FROM orders WHERE status = $1`, string(status),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum order totals: %w", err)
	}
	return total, nil
}
