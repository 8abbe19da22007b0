package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/go-ecommerce-cli/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

type LoginRequest struct {
	Username string
	Password string
}

// --- Product ---

type CreateProductRequest struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	Stock       int
	Description string
}

// ProductChanges is the set of fields an owner may change. Nil fields are left as is.
type ProductChanges struct {
	Name        *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	Description *string
}

func (c ProductChanges) Empty() bool {
	return c.Name == nil && c.Category == nil && c.Price == nil && c.Stock == nil && c.Description == nil
}

// --- Cart ---

type CartLine struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

type CartSummary struct {
	ItemsCount int
	TotalPrice decimal.Decimal
	Items      []CartLine
}

// --- Order ---

type OrderDetails struct {
	ID         int64
	UserID     int64
	User       string
	Status     model.OrderStatus
	TotalPrice decimal.Decimal
	ItemsCount int
	CreatedAt  time.Time
	Items      []OrderItemDetails
}

type OrderItemDetails struct {
	ProductID       int64
	ProductName     string
	Quantity        int
	PriceAtPurchase decimal.Decimal
	Sale            int
	Total           decimal.Decimal
}
