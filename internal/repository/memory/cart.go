package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/flicky/go-ecommerce-cli/internal/model"
)

type cartRepo struct{ s *Store }

func (r *cartRepo) Create(_ context.Context, userID int64) (*model.Cart, error) {
	defer r.s.lock()()
	t := r.s.data
	if _, ok := t.users[userID]; !ok {
		return nil, fmt.Errorf("create cart: user %d does not exist", userID)
	}
	for _, c := range t.carts {
		if c.UserID == userID {
			return nil, fmt.Errorf("create cart: user %d already has a cart", userID)
		}
	}
	now := time.Now()
	cart := model.Cart{ID: t.nextID(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	t.carts[cart.ID] = cart
	return &cart, nil
}

func (r *cartRepo) GetByUserID(_ context.Context, userID int64) (*model.Cart, error) {
	defer r.s.lock()()
	for _, c := range r.s.data.carts {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *cartRepo) ListItems(_ context.Context, cartID int64) ([]model.CartItem, error) {
	defer r.s.lock()()
	t := r.s.data

	var items []model.CartItem
	for _, item := range t.cartItems {
		if item.CartID != cartID {
			continue
		}
		p := t.products[item.ProductID]
		item.Product = &p
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *cartRepo) GetItem(_ context.Context, cartID, productID int64) (*model.CartItem, error) {
	defer r.s.lock()()
	if item, ok := r.s.data.findItem(cartID, productID); ok {
		return &item, nil
	}
	return nil, nil
}

func (r *cartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	defer r.s.lock()()
	t := r.s.data
	if _, ok := t.products[item.ProductID]; !ok {
		return fmt.Errorf("add cart item: product %d does not exist", item.ProductID)
	}
	if existing, ok := t.findItem(item.CartID, item.ProductID); ok {
		existing.Quantity += item.Quantity
		t.cartItems[existing.ID] = existing
		item.ID, item.Quantity, item.CreatedAt = existing.ID, existing.Quantity, existing.CreatedAt
		return nil
	}
	item.ID = t.nextID()
	item.CreatedAt = time.Now()
	stored := *item
	stored.Product = nil
	t.cartItems[item.ID] = stored
	return nil
}

func (r *cartRepo) UpdateItemQuantity(_ context.Context, cartID, productID int64, quantity int) error {
	defer r.s.lock()()
	t := r.s.data
	if item, ok := t.findItem(cartID, productID); ok {
		item.Quantity = quantity
		t.cartItems[item.ID] = item
	}
	return nil
}

func (r *cartRepo) DeleteItem(_ context.Context, cartID, productID int64) (bool, error) {
	defer r.s.lock()()
	t := r.s.data
	item, ok := t.findItem(cartID, productID)
	if !ok {
		return false, nil
	}
	delete(t.cartItems, item.ID)
	return true, nil
}

func (r *cartRepo) Clear(_ context.Context, cartID int64) error {
	defer r.s.lock()()
	t := r.s.data
	for id, item := range t.cartItems {
		if item.CartID == cartID {
			delete(t.cartItems, id)
		}
	}
	return nil
}

func (t *tables) findItem(cartID, productID int64) (model.CartItem, bool) {
	for _, item := range t.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			return item, true
		}
	}
	return model.CartItem{}, false
}
