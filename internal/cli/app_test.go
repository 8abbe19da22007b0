package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/go-ecommerce-cli/internal/cache"
	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/events"
	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/repository/memory"
	"github.com/flicky/go-ecommerce-cli/internal/service"
)

type fixture struct {
	store *memory.Store
	svc   Services
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()
	log := zap.NewNop()
	store := memory.NewStore()
	pc := cache.NewProductCache(nil, 0, log)
	return &fixture{
		store: store,
		svc: Services{
			Auth: service.NewAuthService(store, pc, events.Nop{}, log, service.AuthOptions{
				Secret: "cli-test", TTL: ttl, HashCost: bcrypt.MinCost,
			}),
			Products: service.NewProductService(store, pc, log),
			Carts:    service.NewCartService(store, log),
			Orders:   service.NewOrderService(store, pc, events.Nop{}, log),
		},
	}
}

// run feeds the script to a fresh App and returns everything it printed.
func (f *fixture) run(t *testing.T, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := New(f.svc, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out, zap.NewNop())
	require.NoError(t, app.Run(context.Background()))
	return out.String()
}

func (f *fixture) user(t *testing.T, username string) int64 {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Auth.Register(ctx, dto.RegisterRequest{
		Username: username, Password: "secret", FirstName: username, LastName: "Tester",
	})
	require.NoError(t, err)
	u, err := f.store.Users().GetByUsername(ctx, username)
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) product(t *testing.T, ownerID int64, name string, price int64, stock int) int64 {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Products.Create(ctx, ownerID, dto.CreateProductRequest{
		Name: name, Category: "tools", Price: decimal.NewFromInt(price), Stock: stock,
	})
	require.NoError(t, err)
	products, err := f.svc.Products.ListByOwner(ctx, ownerID)
	require.NoError(t, err)
	for _, p := range products {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("product %q not found", name)
	return 0
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func TestApp_OrderAndCancel(t *testing.T) {
	f := newFixture(t, time.Hour)
	bob := f.user(t, "bob")
	widget := f.product(t, bob, "Widget", 1000, 5)

	out := f.run(t,
		"1", "alice", "secret", "alice", "smith",
		"2", "alice", "secret",
		"3", fmt.Sprint(widget), "3",
		"4", "0",
		"6",
		"0",
		"0",
	)
	assert.Contains(t, out, "registration successful")
	assert.Contains(t, out, "Welcome, Alice Smith")
	assert.Contains(t, out, "added Widget to cart")
	assert.Contains(t, out, "Total: 3000.00")
	assert.Contains(t, out, "Logged out")
	assert.Contains(t, out, "Goodbye!")
	assert.Equal(t, 2, f.stock(t, widget))

	alice, err := f.store.Users().GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	orders, err := f.svc.Orders.ListByUser(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	orderID := orders[0].ID
	assert.Contains(t, out, fmt.Sprintf("order %d created", orderID))

	summary, err := f.svc.Carts.Summary(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.Items)

	out = f.run(t,
		"2", "alice", "secret",
		"7", "2", fmt.Sprint(orderID),
		"0",
		"0",
		"0",
	)
	assert.Contains(t, out, fmt.Sprintf("order %d cancelled", orderID))
	assert.Equal(t, 5, f.stock(t, widget))

	details, err := f.svc.Orders.Details(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, details.Status)
}

func TestApp_OtherUsersOrderIsHidden(t *testing.T) {
	f := newFixture(t, time.Hour)
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	widget := f.product(t, bob, "Widget", 10, 5)

	ctx := context.Background()
	_, err := f.svc.Carts.Add(ctx, carol, widget, 1)
	require.NoError(t, err)
	carolOrder, _, err := f.svc.Orders.Create(ctx, carol)
	require.NoError(t, err)
	_, err = f.svc.Carts.Add(ctx, bob, widget, 1)
	require.NoError(t, err)
	_, _, err = f.svc.Orders.Create(ctx, bob)
	require.NoError(t, err)

	out := f.run(t,
		"2", "bob", "secret",
		"7", "2", fmt.Sprint(carolOrder),
		"0", "0", "0",
	)
	assert.Contains(t, out, fmt.Sprintf("Error: order %d not found", carolOrder))

	details, err := f.svc.Orders.Details(ctx, carolOrder)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, details.Status)
}

func TestApp_ManageProducts(t *testing.T) {
	f := newFixture(t, time.Hour)
	bob := f.user(t, "bob")
	widget := f.product(t, bob, "Widget", 10, 5)

	out := f.run(t,
		"2", "bob", "secret",
		"9",
		"2", fmt.Sprint(widget), "Gizmo", "", "12.50", "", "",
		"4", fmt.Sprint(widget), "-7",
		"4", fmt.Sprint(widget), "3",
		"0",
		"0", "0",
	)
	assert.Contains(t, out, "product updated")
	assert.Contains(t, out, "Error: not enough stock")
	assert.Contains(t, out, "stock updated")

	p, err := f.svc.Products.Get(context.Background(), widget)
	require.NoError(t, err)
	assert.Equal(t, "Gizmo", p.Name)
	assert.Equal(t, "tools", p.Category)
	assert.True(t, decimal.RequireFromString("12.50").Equal(p.Price))
	assert.Equal(t, 8, p.Stock)
}

func TestApp_AddProductAndSearch(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.user(t, "bob")

	out := f.run(t,
		"2", "bob", "secret",
		"8", "Kettle", "kitchen", "abc",
		"8", "Kettle", "kitchen", "30", "2", "Boils water",
		"2", "1", "WATER",
		"2", "2", "kitchen",
		"0", "0",
	)
	assert.Contains(t, out, `Error: "abc" is not a valid amount`)
	assert.Contains(t, out, "product created with id")
	assert.Equal(t, 2, strings.Count(out, "Kettle"), "both searches list the product")
}

func TestApp_InvalidInputKeepsRunning(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.user(t, "bob")

	out := f.run(t,
		"9",
		"2", "bob", "wrong",
		"2", "bob", "secret",
		"3", "abc",
		"42",
		"6",
		"0", "0",
	)
	assert.Contains(t, out, `Unknown option "9"`)
	assert.Contains(t, out, "Error: wrong password")
	assert.Contains(t, out, `Error: "abc" is not a valid id`)
	assert.Contains(t, out, `Unknown option "42"`)
	assert.Contains(t, out, "Error: cart is empty")
	assert.Contains(t, out, "Goodbye!")
}

func TestApp_EOFEndsCleanly(t *testing.T) {
	f := newFixture(t, time.Hour)
	var out bytes.Buffer
	app := New(f.svc, strings.NewReader("1\nal"), &out, zap.NewNop())
	assert.NoError(t, app.Run(context.Background()))
}

func TestApp_ExpiredSessionReturnsHome(t *testing.T) {
	f := newFixture(t, -time.Minute)
	f.user(t, "bob")

	out := f.run(t, "2", "bob", "secret", "0")
	assert.Contains(t, out, "session expired")
	assert.NotContains(t, out, "Welcome")
	assert.Contains(t, out, "Goodbye!")
}

func TestApp_DeleteAccount(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.user(t, "bob")

	out := f.run(t,
		"2", "bob", "secret",
		"11", "no",
		"11", "yes",
		"2", "bob", "secret",
		"0",
	)
	assert.Contains(t, out, "Cancelled")
	assert.Contains(t, out, "account deleted")
	assert.Contains(t, out, `Error: user "bob" not found`)
}

func TestApp_Reports(t *testing.T) {
	f := newFixture(t, time.Hour)
	bob := f.user(t, "bob")
	widget := f.product(t, bob, "Widget", 40, 5)
	ctx := context.Background()
	_, err := f.svc.Carts.Add(ctx, bob, widget, 2)
	require.NoError(t, err)
	orderID, _, err := f.svc.Orders.Create(ctx, bob)
	require.NoError(t, err)
	_, err = f.svc.Orders.UpdateStatus(ctx, orderID, "completed")
	require.NoError(t, err)

	out := f.run(t, "2", "bob", "secret", "10", "0", "0")
	assert.Contains(t, out, "All orders")
	assert.Contains(t, out, "80.00")
	assert.Contains(t, out, "completed")
}
