package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/repository"
)

func seed(t *testing.T, s *Store) (*model.User, *model.Product) {
	t.Helper()
	ctx := context.Background()
	user := &model.User{Username: "bob", Password: "h"}
	require.NoError(t, s.Users().Create(ctx, user))
	p := &model.Product{UserID: user.ID, Name: "Widget", Category: "tools", Price: decimal.NewFromInt(1000), Stock: 5, IsActive: true}
	require.NoError(t, s.Products().Create(ctx, p))
	return user, p
}

func TestStore_WithTxRestoresOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, p := seed(t, s)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Products().AdjustStock(ctx, p.ID, -5)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.Users().Create(ctx, &model.User{Username: "ghost"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	row, err := s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, row.Stock)

	ghost, err := s.Users().GetByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestStore_NestedTxJoins(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx repository.Store) error {
		return tx.WithTx(ctx, func(inner repository.Store) error {
			return inner.Users().Create(ctx, &model.User{Username: "nested"})
		})
	})
	require.NoError(t, err)

	u, err := s.Users().GetByUsername(ctx, "nested")
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestUserRepo_DuplicateUsername(t *testing.T) {
	s := NewStore()
	seed(t, s)
	err := s.Users().Create(context.Background(), &model.User{Username: "bob"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestUserRepo_DeleteCascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user, p := seed(t, s)

	cart, err := s.Carts().Create(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, s.Carts().AddItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: 1}))
	order := &model.Order{UserID: user.ID, Status: model.OrderStatusPending}
	require.NoError(t, s.Orders().Create(ctx, order))

	ok, err := s.Users().Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	gone, _ := s.Products().GetByID(ctx, p.ID)
	assert.Nil(t, gone)
	c, _ := s.Carts().GetByUserID(ctx, user.ID)
	assert.Nil(t, c)
	o, _ := s.Orders().GetByID(ctx, order.ID)
	assert.Nil(t, o)
}

func TestProductRepo_ListFilters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user, widget := seed(t, s)
	require.NoError(t, s.Products().Create(ctx, &model.Product{
		UserID: user.ID, Name: "Anvil", Category: "Tools", Description: "heavy widget base",
		Price: decimal.NewFromInt(5), IsActive: true,
	}))

	all, err := s.Products().List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anvil", all[0].Name)

	found, err := s.Products().List(ctx, repository.ProductFilter{Search: "WIDGET"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	byCategory, err := s.Products().List(ctx, repository.ProductFilter{Category: "TOOLS"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	require.NoError(t, s.Products().SetActive(ctx, widget.ID, false))
	active, err := s.Products().List(ctx, repository.ProductFilter{OwnerID: user.ID})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Anvil", active[0].Name)
}

func TestCartRepo_AddAccumulates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user, p := seed(t, s)
	cart, err := s.Carts().Create(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, s.Carts().AddItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: 2}))
	item := &model.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: 1}
	require.NoError(t, s.Carts().AddItem(ctx, item))
	assert.Equal(t, 3, item.Quantity)

	items, err := s.Carts().ListItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Widget", items[0].Product.Name)
}

func TestOrderRepo_CancelGuard(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user, _ := seed(t, s)
	order := &model.Order{UserID: user.ID, Status: model.OrderStatusPending}
	require.NoError(t, s.Orders().Create(ctx, order))

	ok, err := s.Orders().Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Orders().Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
