package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

var hundred = decimal.NewFromInt(100)

type User struct {
	ID        int64
	Username  string
	Password  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type Product struct {
	ID          int64
	UserID      int64
	Name        string
	Category    string
	Price       decimal.Decimal
	Stock       int
	Sale        int // discount percent
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FinalPrice is the price after the sale discount.
func (p *Product) FinalPrice() decimal.Decimal {
	return discounted(p.Price, p.Sale)
}

func (p *Product) CanSell(quantity int) bool {
	return p.Stock >= quantity
}

type Cart struct {
	ID        int64
	UserID    int64
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time
	Product   *Product
}

type Order struct {
	ID         int64
	UserID     int64
	Status     OrderStatus
	TotalPrice decimal.Decimal
	ItemsCount int
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type OrderItem struct {
	ID              int64
	OrderID         int64
	ProductID       int64
	ProductName     string
	Quantity        int
	PriceAtPurchase decimal.Decimal
	SaleAtPurchase  int
	CreatedAt       time.Time
}

// Total is the discounted line total at purchase time.
func (i *OrderItem) Total() decimal.Decimal {
	return discounted(i.PriceAtPurchase, i.SaleAtPurchase).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func discounted(price decimal.Decimal, sale int) decimal.Decimal {
	if sale == 0 {
		return price
	}
	discount := price.Mul(decimal.NewFromInt(int64(sale))).Div(hundred)
	return price.Sub(discount)
}
