package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-ecommerce-cli/internal/model"
)

// ProductFilter narrows List. Zero values match everything; inactive
// products are excluded unless IncludeInactive is set.
type ProductFilter struct {
	OwnerID         int64
	Search          string
	Category        string
	IncludeInactive bool
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	SetActive(ctx context.Context, id int64, active bool) error
	// AdjustStock adds delta to stock. It reports false, changing nothing,
	// when the product is missing or the result would be negative.
	AdjustStock(ctx context.Context, id int64, delta int) (bool, error)
}

type pgProductRepo struct{ db DBTX }

const productColumns = `id, user_id, name, category, price, stock, sale, description, is_active, created_at, updated_at`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Sale,
		&p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	query := `INSERT INTO products (user_id, name, category, price, stock, sale, description, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		product.UserID, product.Name, product.Category, product.Price, product.Stock,
		product.Sale, product.Description, product.IsActive,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *pgProductRepo) GetForUpdate(ctx context.Context, id int64) (*model.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgProductRepo) getOne(ctx context.Context, query string, id int64) (*model.Product, error) {
	p := &model.Product{}
	if err := scanProduct(r.db.QueryRow(ctx, query, id), p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeInactive {
		conditions = append(conditions, "is_active")
	}
	if f.OwnerID != 0 {
		conditions = append(conditions, "user_id = "+arg(f.OwnerID))
	}
	if f.Category != "" {
		conditions = append(conditions, "category ILIKE "+arg(escapeLike(f.Category)))
	}
	if f.Search != "" {
		p := arg("%" + escapeLike(f.Search) + "%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", p, p))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, category=$3, price=$4, stock=$5, sale=$6, description=$7, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		product.ID, product.Name, product.Category, product.Price, product.Stock,
		product.Sale, product.Description,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.Exec(ctx,
		`UPDATE products SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active,
	)
	if err != nil {
		return fmt.Errorf("set product active: %w", err)
	}
	return nil
}

func (r *pgProductRepo) AdjustStock(ctx context.Context, id int64, delta int) (bool, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1 AND stock + $2 >= 0`,
		id, delta,
	)
	if err != nil {
		return false, fmt.Errorf("adjust stock: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
