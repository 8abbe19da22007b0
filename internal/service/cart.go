package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/repository"
)

type CartService struct {
	store repository.Store
	log   *zap.Logger
}

func NewCartService(store repository.Store, log *zap.Logger) *CartService {
	return &CartService{store: store, log: log}
}

// Add puts quantity units of a product in the user's cart, accumulating onto
// an existing line item. The combined quantity must be covered by stock.
func (s *CartService) Add(ctx context.Context, userID, productID int64, quantity int) (string, error) {
	if quantity <= 0 {
		return "", validationf("quantity must be greater than zero")
	}

	var name string
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		cart, err := userCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		product, err := tx.Products().GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil || !product.IsActive {
			return notFoundf("product %d not found", productID)
		}
		name = product.Name

		combined := quantity
		existing, err := tx.Carts().GetItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}
		if existing != nil {
			combined += existing.Quantity
		}
		if !product.CanSell(combined) {
			return conflictf("not enough stock for %q: requested %d, available %d", product.Name, combined, product.Stock)
		}

		return tx.Carts().AddItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity})
	})
	if err != nil {
		return "", storageError(s.log, "add to cart", err, zap.Int64("user_id", userID), zap.Int64("product_id", productID))
	}

	s.log.Debug("cart item added", zap.Int64("user_id", userID), zap.Int64("product_id", productID), zap.Int("quantity", quantity))
	return "added " + name + " to cart", nil
}

func (s *CartService) Remove(ctx context.Context, userID, productID int64) (string, error) {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		cart, err := userCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		deleted, err := tx.Carts().DeleteItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}
		if !deleted {
			return notFoundf("product %d is not in your cart", productID)
		}
		return nil
	})
	if err != nil {
		return "", storageError(s.log, "remove from cart", err, zap.Int64("user_id", userID), zap.Int64("product_id", productID))
	}
	return "removed from cart", nil
}

// UpdateQuantity overwrites a line item's quantity. A quantity of zero or
// less removes the item.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (string, error) {
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		cart, err := userCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		item, err := tx.Carts().GetItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}
		if item == nil {
			return notFoundf("product %d is not in your cart", productID)
		}
		product, err := tx.Products().GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil || !product.IsActive {
			return notFoundf("product %d not found", productID)
		}
		if !product.CanSell(quantity) {
			return conflictf("not enough stock for %q: requested %d, available %d", product.Name, quantity, product.Stock)
		}
		return tx.Carts().UpdateItemQuantity(ctx, cart.ID, productID, quantity)
	})
	if err != nil {
		return "", storageError(s.log, "update cart", err, zap.Int64("user_id", userID), zap.Int64("product_id", productID))
	}
	return "quantity updated", nil
}

func (s *CartService) Clear(ctx context.Context, userID int64) (string, error) {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		cart, err := userCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		return tx.Carts().Clear(ctx, cart.ID)
	})
	if err != nil {
		return "", storageError(s.log, "clear cart", err, zap.Int64("user_id", userID))
	}
	return "cart cleared", nil
}

func (s *CartService) Items(ctx context.Context, userID int64) ([]model.CartItem, error) {
	cart, err := userCart(ctx, s.store, userID)
	if err != nil {
		return nil, storageError(s.log, "list cart", err, zap.Int64("user_id", userID))
	}
	items, err := s.store.Carts().ListItems(ctx, cart.ID)
	if err != nil {
		return nil, storageError(s.log, "list cart", err, zap.Int64("user_id", userID))
	}
	return items, nil
}

// Summary totals the cart at current discounted prices. An empty cart
// yields a zero summary.
func (s *CartService) Summary(ctx context.Context, userID int64) (*dto.CartSummary, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &dto.CartSummary{TotalPrice: decimal.Zero, Items: make([]dto.CartLine, 0, len(items))}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		unit := item.Product.FinalPrice()
		line := dto.CartLine{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			Total:     unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		summary.Items = append(summary.Items, line)
		summary.ItemsCount += item.Quantity
		summary.TotalPrice = summary.TotalPrice.Add(line.Total)
	}
	return summary, nil
}

func userCart(ctx context.Context, store repository.Store, userID int64) (*model.Cart, error) {
	cart, err := store.Carts().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, notFoundf("cart not found")
	}
	return cart, nil
}
