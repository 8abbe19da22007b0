// Package memory is an in-process repository.Store. Transactions take an
// exclusive lock and restore a snapshot of every table on failure.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/repository"
)

var ErrDuplicateUsername = repository.ErrDuplicateUsername

type tables struct {
	users      map[int64]model.User
	products   map[int64]model.Product
	carts      map[int64]model.Cart
	cartItems  map[int64]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64]model.OrderItem
	seq        int64
}

func newTables() *tables {
	return &tables{
		users:      make(map[int64]model.User),
		products:   make(map[int64]model.Product),
		carts:      make(map[int64]model.Cart),
		cartItems:  make(map[int64]model.CartItem),
		orders:     make(map[int64]model.Order),
		orderItems: make(map[int64]model.OrderItem),
	}
}

// Rows are stored by value and never hold pointers, so cloning the maps is a full copy.
func (t *tables) clone() *tables {
	return &tables{
		users:      maps.Clone(t.users),
		products:   maps.Clone(t.products),
		carts:      maps.Clone(t.carts),
		cartItems:  maps.Clone(t.cartItems),
		orders:     maps.Clone(t.orders),
		orderItems: maps.Clone(t.orderItems),
		seq:        t.seq,
	}
}

func (t *tables) nextID() int64 {
	t.seq++
	return t.seq
}

type Store struct {
	mu   *sync.Mutex
	data *tables
	inTx bool
}

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, data: newTables()}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Users() repository.UserRepository       { return &userRepo{s} }
func (s *Store) Products() repository.ProductRepository { return &productRepo{s} }
func (s *Store) Carts() repository.CartRepository       { return &cartRepo{s} }
func (s *Store) Orders() repository.OrderRepository     { return &orderRepo{s} }

func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&Store{mu: s.mu, data: s.data, inTx: true}); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// lock serialises single statements issued outside a transaction.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
