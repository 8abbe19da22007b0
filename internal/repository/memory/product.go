package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/repository"
)

type productRepo struct{ s *Store }

func (r *productRepo) Create(_ context.Context, product *model.Product) error {
	defer r.s.lock()()
	t := r.s.data
	now := time.Now()
	product.ID = t.nextID()
	product.CreatedAt, product.UpdatedAt = now, now
	t.products[product.ID] = *product
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id int64) (*model.Product, error) {
	defer r.s.lock()()
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetForUpdate needs no row lock: transactions already hold the store lock.
func (r *productRepo) GetForUpdate(ctx context.Context, id int64) (*model.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]model.Product, error) {
	defer r.s.lock()()
	search := strings.ToLower(f.Search)

	var out []model.Product
	for _, p := range r.s.data.products {
		if !f.IncludeInactive && !p.IsActive {
			continue
		}
		if f.OwnerID != 0 && p.UserID != f.OwnerID {
			continue
		}
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *productRepo) Update(_ context.Context, product *model.Product) error {
	defer r.s.lock()()
	t := r.s.data
	cur, ok := t.products[product.ID]
	if !ok {
		return nil
	}
	cur.Name = product.Name
	cur.Category = product.Category
	cur.Price = product.Price
	cur.Stock = product.Stock
	cur.Sale = product.Sale
	cur.Description = product.Description
	cur.UpdatedAt = time.Now()
	product.UpdatedAt = cur.UpdatedAt
	t.products[product.ID] = cur
	return nil
}

func (r *productRepo) SetActive(_ context.Context, id int64, active bool) error {
	defer r.s.lock()()
	t := r.s.data
	if p, ok := t.products[id]; ok {
		p.IsActive = active
		p.UpdatedAt = time.Now()
		t.products[id] = p
	}
	return nil
}

func (r *productRepo) AdjustStock(_ context.Context, id int64, delta int) (bool, error) {
	defer r.s.lock()()
	t := r.s.data
	p, ok := t.products[id]
	if !ok || p.Stock+delta < 0 {
		return false, nil
	}
	p.Stock += delta
	p.UpdatedAt = time.Now()
	t.products[id] = p
	return true, nil
}
