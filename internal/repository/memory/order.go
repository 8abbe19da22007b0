package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/go-ecommerce-cli/internal/model"
)

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(_ context.Context, order *model.Order) error {
	defer r.s.lock()()
	t := r.s.data
	if _, ok := t.users[order.UserID]; !ok {
		return fmt.Errorf("insert order: user %d does not exist", order.UserID)
	}
	now := time.Now()
	order.ID = t.nextID()
	order.CreatedAt, order.UpdatedAt = now, now
	stored := *order
	stored.Items = nil
	t.orders[order.ID] = stored
	return nil
}

func (r *orderRepo) CreateItem(_ context.Context, item *model.OrderItem) error {
	defer r.s.lock()()
	t := r.s.data
	if _, ok := t.orders[item.OrderID]; !ok {
		return fmt.Errorf("insert order item: order %d does not exist", item.OrderID)
	}
	if _, ok := t.products[item.ProductID]; !ok {
		return fmt.Errorf("insert order item: product %d does not exist", item.ProductID)
	}
	item.ID = t.nextID()
	item.CreatedAt = time.Now()
	t.orderItems[item.ID] = *item
	return nil
}

func (r *orderRepo) UpdateTotal(_ context.Context, id int64, total decimal.Decimal) error {
	defer r.s.lock()()
	t := r.s.data
	if o, ok := t.orders[id]; ok {
		o.TotalPrice = total
		o.UpdatedAt = time.Now()
		t.orders[id] = o
	}
	return nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, id int64, status model.OrderStatus) (bool, error) {
	defer r.s.lock()()
	t := r.s.data
	o, ok := t.orders[id]
	if !ok {
		return false, nil
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	t.orders[id] = o
	return true, nil
}

func (r *orderRepo) Cancel(_ context.Context, id int64) (bool, error) {
	defer r.s.lock()()
	t := r.s.data
	o, ok := t.orders[id]
	if !ok || o.Status == model.OrderStatusCancelled {
		return false, nil
	}
	o.Status = model.OrderStatusCancelled
	o.UpdatedAt = time.Now()
	t.orders[id] = o
	return true, nil
}

func (r *orderRepo) GetByID(_ context.Context, id int64) (*model.Order, error) {
	defer r.s.lock()()
	t := r.s.data
	o, ok := t.orders[id]
	if !ok {
		return nil, nil
	}
	o.Items = t.itemsOf(id)
	o.ItemsCount = countItems(o.Items)
	return &o, nil
}

func (r *orderRepo) ListByUserID(_ context.Context, userID int64) ([]model.Order, error) {
	defer r.s.lock()()
	return r.s.data.listOrders(func(o model.Order) bool { return o.UserID == userID }), nil
}

func (r *orderRepo) List(_ context.Context) ([]model.Order, error) {
	defer r.s.lock()()
	return r.s.data.listOrders(func(model.Order) bool { return true }), nil
}

func (r *orderRepo) SumTotals(_ context.Context, status model.OrderStatus) (decimal.Decimal, error) {
	defer r.s.lock()()
	total := decimal.Zero
	for _, o := range r.s.data.orders {
		if o.Status == status {
			total = total.Add(o.TotalPrice)
		}
	}
	return total, nil
}

func (t *tables) itemsOf(orderID int64) []model.OrderItem {
	var items []model.OrderItem
	for _, item := range t.orderItems {
		if item.OrderID == orderID {
			item.ProductName = t.products[item.ProductID].Name
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (t *tables) listOrders(match func(model.Order) bool) []model.Order {
	var orders []model.Order
	for _, o := range t.orders {
		if !match(o) {
			continue
		}
		o.ItemsCount = countItems(t.itemsOf(o.ID))
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders
}

func countItems(items []model.OrderItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
