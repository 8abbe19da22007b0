package cli

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/model"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) table(header []string, rows [][]string) {
	t := tablewriter.NewWriter(a.out)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.AppendBulk(rows)
	t.Render()
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func formatID(n int64) string { return strconv.FormatInt(n, 10) }

func (a *App) renderProducts(products []model.Product) {
	if len(products) == 0 {
		a.printf("No products found\n")
		return
	}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			formatID(p.ID), p.Name, p.Category, money(p.Price),
			strconv.Itoa(p.Sale) + "%", money(p.FinalPrice()), strconv.Itoa(p.Stock),
		})
	}
	a.table([]string{"ID", "Name", "Category", "Price", "Sale", "Final price", "Stock"}, rows)
}

func (a *App) renderProduct(p *model.Product) {
	a.table([]string{"Field", "Value"}, [][]string{
		{"ID", formatID(p.ID)},
		{"Name", p.Name},
		{"Category", p.Category},
		{"Price", money(p.Price)},
		{"Sale", strconv.Itoa(p.Sale) + "%"},
		{"Final price", money(p.FinalPrice())},
		{"Stock", strconv.Itoa(p.Stock)},
		{"Description", p.Description},
		{"Added", p.CreatedAt.Format(timeLayout)},
	})
}

func (a *App) renderCart(s *dto.CartSummary) {
	if len(s.Items) == 0 {
		a.printf("Your cart is empty\n")
		return
	}
	rows := make([][]string, 0, len(s.Items))
	for _, line := range s.Items {
		rows = append(rows, []string{
			formatID(line.ProductID), line.Name, strconv.Itoa(line.Quantity), money(line.UnitPrice), money(line.Total),
		})
	}
	a.table([]string{"Product ID", "Name", "Quantity", "Unit price", "Total"}, rows)
	a.printf("Items: %d  Total: %s\n", s.ItemsCount, money(s.TotalPrice))
}

func (a *App) renderOrders(orders []model.Order) {
	if len(orders) == 0 {
		a.printf("No orders found\n")
		return
	}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			formatID(o.ID), formatID(o.UserID), string(o.Status), strconv.Itoa(o.ItemsCount),
			money(o.TotalPrice), o.CreatedAt.Format(timeLayout),
		})
	}
	a.table([]string{"ID", "User ID", "Status", "Items", "Total", "Created"}, rows)
}

func (a *App) renderOrder(d *dto.OrderDetails) {
	a.printf("Order %d by %s, status %s, created %s\n", d.ID, d.User, d.Status, d.CreatedAt.Format(timeLayout))
	rows := make([][]string, 0, len(d.Items))
	for _, item := range d.Items {
		rows = append(rows, []string{
			formatID(item.ProductID), item.ProductName, strconv.Itoa(item.Quantity),
			money(item.PriceAtPurchase), strconv.Itoa(item.Sale) + "%", money(item.Total),
		})
	}
	a.table([]string{"Product ID", "Name", "Quantity", "Price", "Sale", "Total"}, rows)
	a.printf("Items: %d  Total: %s\n", d.ItemsCount, money(d.TotalPrice))
}
