package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/flicky/go-ecommerce-cli/internal/model"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	defer r.s.lock()()
	t := r.s.data
	for _, u := range t.users {
		if u.Username == user.Username {
			return fmt.Errorf("create user: %w", ErrDuplicateUsername)
		}
	}
	now := time.Now()
	user.ID = t.nextID()
	user.CreatedAt, user.UpdatedAt = now, now
	t.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	defer r.s.lock()()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

// Delete removes the user and cascades to products, cart and orders.
func (r *userRepo) Delete(_ context.Context, id int64) (bool, error) {
	defer r.s.lock()()
	t := r.s.data
	if _, ok := t.users[id]; !ok {
		return false, nil
	}
	delete(t.users, id)

	for pid, p := range t.products {
		if p.UserID == id {
			t.deleteProduct(pid)
		}
	}
	for cid, c := range t.carts {
		if c.UserID == id {
			delete(t.carts, cid)
			for iid, item := range t.cartItems {
				if item.CartID == cid {
					delete(t.cartItems, iid)
				}
			}
		}
	}
	for oid, o := range t.orders {
		if o.UserID == id {
			t.deleteOrder(oid)
		}
	}
	return true, nil
}

func (t *tables) deleteProduct(id int64) {
	delete(t.products, id)
	for iid, item := range t.cartItems {
		if item.ProductID == id {
			delete(t.cartItems, iid)
		}
	}
	for iid, item := range t.orderItems {
		if item.ProductID == id {
			delete(t.orderItems, iid)
		}
	}
}

func (t *tables) deleteOrder(id int64) {
	delete(t.orders, id)
	for iid, item := range t.orderItems {
		if item.OrderID == id {
			delete(t.orderItems, iid)
		}
	}
}
