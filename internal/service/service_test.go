package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/go-ecommerce-cli/internal/cache"
	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/events"
	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/repository"
	"github.com/flicky/go-ecommerce-cli/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// faultStore wraps a Store to simulate races and write failures that the
// memory driver cannot produce on its own.
type faultStore struct {
	repository.Store
	hideUsers bool
	failCarts error
}

func (s faultStore) Users() repository.UserRepository {
	if s.hideUsers {
		return blindUsers{s.Store.Users()}
	}
	return s.Store.Users()
}

func (s faultStore) Carts() repository.CartRepository {
	if s.failCarts != nil {
		return failingCarts{CartRepository: s.Store.Carts(), err: s.failCarts}
	}
	return s.Store.Carts()
}

func (s faultStore) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(faultStore{Store: tx, hideUsers: s.hideUsers, failCarts: s.failCarts})
	})
}

// blindUsers misses every username lookup, as if another session inserted
// the row after the check.
type blindUsers struct {
	repository.UserRepository
}

func (blindUsers) GetByUsername(context.Context, string) (*model.User, error) {
	return nil, nil
}

type failingCarts struct {
	repository.CartRepository
	err error
}

func (c failingCarts) Create(context.Context, int64) (*model.Cart, error) {
	return nil, c.err
}

type testEnv struct {
	store    *memory.Store
	events   *recordingPublisher
	cache    *cache.ProductCache
	auth     *AuthService
	products *ProductService
	carts    *CartService
	orders   *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithCache(t, cache.NewProductCache(nil, 0, zap.NewNop()))
}

func newTestEnvWithCache(t *testing.T, pc *cache.ProductCache) *testEnv {
	t.Helper()
	log := zap.NewNop()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	return &testEnv{
		store:  store,
		events: pub,
		cache:  pc,
		auth: NewAuthService(store, pc, pub, log, AuthOptions{
			Secret: "test-secret", TTL: time.Hour, HashCost: bcrypt.MinCost,
		}),
		products: NewProductService(store, pc, log),
		carts:    NewCartService(store, log),
		orders:   NewOrderService(store, pc, pub, log),
	}
}

// register creates a user and logs them in.
func (e *testEnv) register(t *testing.T, username string) *Session {
	t.Helper()
	ctx := context.Background()
	_, err := e.auth.Register(ctx, dto.RegisterRequest{
		Username: username, Password: "secret", FirstName: "test", LastName: "user",
	})
	require.NoError(t, err)
	sess, err := e.auth.Login(ctx, dto.LoginRequest{Username: username, Password: "secret"})
	require.NoError(t, err)
	return sess
}

// product creates a product owned by ownerID and returns its id.
func (e *testEnv) product(t *testing.T, ownerID int64, name string, price int64, stock int) int64 {
	t.Helper()
	ctx := context.Background()
	_, err := e.products.Create(ctx, ownerID, dto.CreateProductRequest{
		Name: name, Category: "misc", Price: decimal.NewFromInt(price), Stock: stock,
	})
	require.NoError(t, err)
	list, err := e.products.ListByOwner(ctx, ownerID)
	require.NoError(t, err)
	for _, p := range list {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("product %q not listed", name)
	return 0
}

func (e *testEnv) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := e.store.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}
