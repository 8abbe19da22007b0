package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flicky/go-ecommerce-cli/internal/cache"
	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/events"
	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/repository"
)

type OrderService struct {
	store     repository.Store
	cache     *cache.ProductCache
	publisher events.Publisher
	log       *zap.Logger
}

func NewOrderService(store repository.Store, productCache *cache.ProductCache, publisher events.Publisher, log *zap.Logger) *OrderService {
	return &OrderService{store: store, cache: productCache, publisher: publisher, log: log}
}

// Create turns the user's cart into an order. Stock is checked and
// decremented under row locks; on any failure nothing is written.
func (s *OrderService) Create(ctx context.Context, userID int64) (int64, string, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return 0, "", storageError(s.log, "create order", err, zap.Int64("user_id", userID))
	}
	if user == nil {
		return 0, "", notFoundf("user not found")
	}

	order := &model.Order{UserID: userID, Status: model.OrderStatusPending, TotalPrice: decimal.Zero}
	var touched []int64
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		cart, err := userCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		items, err := tx.Carts().ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return validationf("cart is empty")
		}

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range items {
			product, err := tx.Products().GetForUpdate(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product == nil || !product.IsActive {
				return conflictf("product %d is no longer available", item.ProductID)
			}
			if !product.CanSell(item.Quantity) {
				return conflictf("not enough stock for %q: requested %d, available %d", product.Name, item.Quantity, product.Stock)
			}

			orderItem := &model.OrderItem{
				OrderID:         order.ID,
				ProductID:       product.ID,
				ProductName:     product.Name,
				Quantity:        item.Quantity,
				PriceAtPurchase: product.Price,
				SaleAtPurchase:  product.Sale,
			}
			if err := tx.Orders().CreateItem(ctx, orderItem); err != nil {
				return err
			}
			ok, err := tx.Products().AdjustStock(ctx, product.ID, -item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return conflictf("not enough stock for %q", product.Name)
			}

			order.Items = append(order.Items, *orderItem)
			order.ItemsCount += item.Quantity
			total = total.Add(orderItem.Total())
			touched = append(touched, product.ID)
		}

		if err := tx.Orders().UpdateTotal(ctx, order.ID, total); err != nil {
			return err
		}
		order.TotalPrice = total
		return tx.Carts().Clear(ctx, cart.ID)
	})
	if err != nil {
		return 0, "", storageError(s.log, "create order", err, zap.Int64("user_id", userID))
	}

	s.cache.Invalidate(ctx, touched...)
	s.log.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.String("total", order.TotalPrice.StringFixed(2)),
	)
	publish(ctx, s.publisher, s.log, events.Event{
		Type:       events.OrderCreated,
		UserID:     userID,
		OrderID:    order.ID,
		Status:     string(order.Status),
		TotalPrice: &order.TotalPrice,
	})
	return order.ID, fmt.Sprintf("order %d created", order.ID), nil
}

// Cancel marks the order cancelled and returns its quantities to stock.
func (s *OrderService) Cancel(ctx context.Context, orderID int64) (string, error) {
	var order *model.Order
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return notFoundf("order %d not found", orderID)
		}
		if order.Status == model.OrderStatusCancelled {
			return conflictf("order %d is already cancelled", orderID)
		}

		cancelled, err := tx.Orders().Cancel(ctx, orderID)
		if err != nil {
			return err
		}
		if !cancelled {
			return conflictf("order %d is already cancelled", orderID)
		}
		for _, item := range order.Items {
			if _, err := tx.Products().AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", storageError(s.log, "cancel order", err, zap.Int64("order_id", orderID))
	}

	ids := make([]int64, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	s.cache.Invalidate(ctx, ids...)
	s.log.Info("order cancelled", zap.Int64("order_id", orderID))
	publish(ctx, s.publisher, s.log, events.Event{
		Type:    events.OrderCancelled,
		UserID:  order.UserID,
		OrderID: orderID,
		Status:  string(model.OrderStatusCancelled),
	})
	return fmt.Sprintf("order %d cancelled", orderID), nil
}

// UpdateStatus overwrites the status with any allowed value. Stock is not
// touched, even when moving to or from cancelled.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (string, error) {
	st := model.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return "", validationf("invalid status %q, expected one of %s", status, statusList())
	}

	var order *model.Order
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return notFoundf("order %d not found", orderID)
		}
		updated, err := tx.Orders().UpdateStatus(ctx, orderID, st)
		if err != nil {
			return err
		}
		if !updated {
			return notFoundf("order %d not found", orderID)
		}
		return nil
	})
	if err != nil {
		return "", storageError(s.log, "update order status", err, zap.Int64("order_id", orderID))
	}

	s.log.Info("order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(st)),
	)
	publish(ctx, s.publisher, s.log, events.Event{
		Type:    events.OrderStatusChanged,
		UserID:  order.UserID,
		OrderID: orderID,
		Status:  string(st),
	})
	return fmt.Sprintf("order %d is now %s", orderID, st), nil
}

// Details returns nil without error when the order does not exist.
func (s *OrderService) Details(ctx context.Context, orderID int64) (*dto.OrderDetails, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, storageError(s.log, "get order", err, zap.Int64("order_id", orderID))
	}
	if order == nil {
		return nil, nil
	}

	details := &dto.OrderDetails{
		ID:         order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
		Items:      make([]dto.OrderItemDetails, 0, len(order.Items)),
	}
	user, err := s.store.Users().GetByID(ctx, order.UserID)
	if err != nil {
		return nil, storageError(s.log, "get order", err, zap.Int64("order_id", orderID))
	}
	if user != nil {
		details.User = user.FullName()
	}
	for _, item := range order.Items {
		details.ItemsCount += item.Quantity
		details.Items = append(details.Items, dto.OrderItemDetails{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			Sale:            item.SaleAtPurchase,
			Total:           item.Total(),
		})
	}
	return details, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	orders, err := s.store.Orders().ListByUserID(ctx, userID)
	if err != nil {
		return nil, storageError(s.log, "list orders", err, zap.Int64("user_id", userID))
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.store.Orders().List(ctx)
	if err != nil {
		return nil, storageError(s.log, "list orders", err)
	}
	return orders, nil
}

// Revenue sums order totals with the given status, completed when empty.
func (s *OrderService) Revenue(ctx context.Context, status model.OrderStatus) (decimal.Decimal, error) {
	if status == "" {
		status = model.OrderStatusCompleted
	}
	if !status.Valid() {
		return decimal.Zero, validationf("invalid status %q, expected one of %s", status, statusList())
	}
	total, err := s.store.Orders().SumTotals(ctx, status)
	if err != nil {
		return decimal.Zero, storageError(s.log, "revenue", err)
	}
	return total, nil
}

func statusList() string {
	names := make([]string, 0, len(model.OrderStatuses))
	for _, st := range model.OrderStatuses {
		names = append(names, string(st))
	}
	return strings.Join(names, ", ")
}
