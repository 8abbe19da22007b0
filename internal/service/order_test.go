package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/events"
	"github.com/flicky/go-ecommerce-cli/internal/model"
)

func TestOrderService_AliceBuysBobsWidget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	widget := env.product(t, bob.UserID, "Widget", 1000, 5)

	_, err := env.carts.Add(ctx, alice.UserID, widget, 3)
	require.NoError(t, err)

	orderID, msg, err := env.orders.Create(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Contains(t, msg, "created")

	details, err := env.orders.Details(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.True(t, decimal.NewFromInt(3000).Equal(details.TotalPrice), details.TotalPrice.String())
	assert.Equal(t, model.OrderStatusPending, details.Status)
	assert.Equal(t, 3, details.ItemsCount)
	assert.Equal(t, "Test User", details.User)
	assert.Equal(t, 2, env.stock(t, widget))

	summary, err := env.carts.Summary(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Empty(t, summary.Items)

	_, err = env.orders.Cancel(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 5, env.stock(t, widget))

	details, err = env.orders.Details(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, details.Status)

	assert.Equal(t, []string{
		events.UserRegistered, events.UserRegistered, events.OrderCreated, events.OrderCancelled,
	}, env.events.types())
}

func TestOrderService_Create_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	_, _, err := env.orders.Create(context.Background(), alice.UserID)
	assert.ErrorIs(t, err, ErrValidation)

	orders, err := env.orders.ListByUser(context.Background(), alice.UserID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_Create_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.orders.Create(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_Create_IsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	widget := env.product(t, bob.UserID, "Widget", 10, 5)
	gadget := env.product(t, bob.UserID, "Gadget", 20, 5)

	_, err := env.carts.Add(ctx, alice.UserID, widget, 2)
	require.NoError(t, err)
	_, err = env.carts.Add(ctx, alice.UserID, gadget, 4)
	require.NoError(t, err)

	// Stock drops after the item went into the cart.
	_, err = env.products.AdjustStock(ctx, gadget, -3)
	require.NoError(t, err)

	_, _, err = env.orders.Create(ctx, alice.UserID)
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "Gadget")

	assert.Equal(t, 5, env.stock(t, widget))
	assert.Equal(t, 2, env.stock(t, gadget))
	all, err := env.orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	items, err := env.carts.Items(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Len(t, items, 2, "cart is kept when the order fails")
	assert.NotContains(t, env.events.types(), events.OrderCreated)
}

func TestOrderService_TotalUsesPurchaseSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	id := env.product(t, bob.UserID, "Widget", 200, 5)

	p, err := env.store.Products().GetByID(ctx, id)
	require.NoError(t, err)
	p.Sale = 10
	require.NoError(t, env.store.Products().Update(ctx, p))

	_, err = env.carts.Add(ctx, alice.UserID, id, 2)
	require.NoError(t, err)
	orderID, _, err := env.orders.Create(ctx, alice.UserID)
	require.NoError(t, err)

	price := decimal.NewFromInt(999)
	_, err = env.products.Update(ctx, id, bob.UserID, dto.ProductChanges{Price: &price})
	require.NoError(t, err)

	details, err := env.orders.Details(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, details.Items, 1)
	item := details.Items[0]
	assert.True(t, decimal.NewFromInt(200).Equal(item.PriceAtPurchase))
	assert.Equal(t, 10, item.Sale)
	assert.True(t, decimal.NewFromInt(360).Equal(item.Total), item.Total.String())
	assert.True(t, decimal.NewFromInt(360).Equal(details.TotalPrice))
}

func TestOrderService_Cancel_Twice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	id := env.product(t, bob.UserID, "Widget", 10, 5)
	_, err := env.carts.Add(ctx, alice.UserID, id, 2)
	require.NoError(t, err)
	orderID, _, err := env.orders.Create(ctx, alice.UserID)
	require.NoError(t, err)

	_, err = env.orders.Cancel(ctx, orderID)
	require.NoError(t, err)
	_, err = env.orders.Cancel(ctx, orderID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 5, env.stock(t, id), "stock is restored once")

	_, err = env.orders.Cancel(ctx, orderID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	id := env.product(t, bob.UserID, "Widget", 10, 5)
	_, err := env.carts.Add(ctx, alice.UserID, id, 1)
	require.NoError(t, err)
	orderID, _, err := env.orders.Create(ctx, alice.UserID)
	require.NoError(t, err)

	_, err = env.orders.UpdateStatus(ctx, orderID, "shipped")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.orders.UpdateStatus(ctx, orderID+100, "completed")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.orders.UpdateStatus(ctx, orderID, "Completed")
	require.NoError(t, err)
	// Any allowed status may follow any other.
	_, err = env.orders.UpdateStatus(ctx, orderID, "pending")
	require.NoError(t, err)

	details, err := env.orders.Details(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, details.Status)
	assert.Equal(t, 4, env.stock(t, id))
}

func TestOrderService_DetailsUnknown(t *testing.T) {
	env := newTestEnv(t)
	details, err := env.orders.Details(context.Background(), 7)
	assert.NoError(t, err)
	assert.Nil(t, details)
}

func TestOrderService_ListsAndRevenue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	carol := env.register(t, "carol")
	bob := env.register(t, "bob")
	id := env.product(t, bob.UserID, "Widget", 100, 10)

	var ids []int64
	for _, u := range []*Session{alice, alice, carol} {
		_, err := env.carts.Add(ctx, u.UserID, id, 1)
		require.NoError(t, err)
		orderID, _, err := env.orders.Create(ctx, u.UserID)
		require.NoError(t, err)
		ids = append(ids, orderID)
	}

	mine, err := env.orders.ListByUser(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, ids[1], mine[0].ID, "newest first")

	all, err := env.orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = env.orders.UpdateStatus(ctx, ids[0], "completed")
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(ctx, ids[2], "completed")
	require.NoError(t, err)

	revenue, err := env.orders.Revenue(ctx, "")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(revenue), revenue.String())

	pending, err := env.orders.Revenue(ctx, model.OrderStatusPending)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(pending))

	_, err = env.orders.Revenue(ctx, "refunded")
	assert.ErrorIs(t, err, ErrValidation)
}
