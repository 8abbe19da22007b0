package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-ecommerce-cli/internal/model"
)

type CartRepository interface {
	Create(ctx context.Context, userID int64) (*model.Cart, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Cart, error)
	// ListItems returns the line items in insertion order with Product loaded.
	ListItems(ctx context.Context, cartID int64) ([]model.CartItem, error)
	GetItem(ctx context.Context, cartID, productID int64) (*model.CartItem, error)
	// AddItem inserts a line item or accumulates onto the existing one.
	AddItem(ctx context.Context, item *model.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error
	DeleteItem(ctx context.Context, cartID, productID int64) (bool, error)
	Clear(ctx context.Context, cartID int64) error
}

type pgCartRepo struct{ db DBTX }

func (r *pgCartRepo) Create(ctx context.Context, userID int64) (*model.Cart, error) {
	cart := &model.Cart{UserID: userID}
	err := r.db.QueryRow(ctx,
		`INSERT INTO carts (user_id, created_at, updated_at) VALUES ($1, NOW(), NOW()) RETURNING id, created_at, updated_at`,
		userID,
	).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) GetByUserID(ctx context.Context, userID int64) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) ListItems(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at,
		        p.id, p.user_id, p.name, p.category, p.price, p.stock, p.sale, p.description,
		        p.is_active, p.created_at, p.updated_at
		 FROM cart_items ci JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = $1 ORDER BY ci.id`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		item := model.CartItem{Product: &model.Product{}}
		p := item.Product
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt,
			&p.ID, &p.UserID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Sale, &p.Description,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	return items, nil
}

func (r *pgCartRepo) GetItem(ctx context.Context, cartID, productID int64) (*model.CartItem, error) {
	item := &model.CartItem{}
	err := r.db.QueryRow(ctx,
		`SELECT id, cart_id, product_id, quantity, created_at FROM cart_items
		 WHERE cart_id = $1 AND product_id = $2`, cartID, productID,
	).Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return item, nil
}

func (r *pgCartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
			  VALUES ($1, $2, $3, NOW(), NOW())
			  ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + $3, updated_at = NOW()
			  RETURNING id, quantity, created_at`
	err := r.db.QueryRow(ctx, query, item.CartID, item.ProductID, item.Quantity).
		Scan(&item.ID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE cart_items SET quantity = $3, updated_at = NOW() WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, cartID, productID int64) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgCartRepo) Clear(ctx context.Context, cartID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
