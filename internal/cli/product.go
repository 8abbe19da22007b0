package cli

import (
	"context"

	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/service"
)

func (a *App) viewProducts(ctx context.Context, _ *service.Session) error {
	products, err := a.svc.Products.ListActive(ctx)
	if err != nil {
		a.fail(err)
		return nil
	}
	a.renderProducts(products)
	if len(products) == 0 {
		return nil
	}

	line, err := a.readLine("Product id for details (enter to go back): ")
	if err != nil || line == "" {
		return err
	}
	return a.showProduct(ctx, line)
}

func (a *App) showProduct(ctx context.Context, raw string) error {
	productID, ok := parseID(raw)
	if !ok {
		a.printf("Error: %q is not a valid id\n", raw)
		return nil
	}
	p, err := a.svc.Products.Get(ctx, productID)
	if err != nil {
		a.fail(err)
		return nil
	}
	a.renderProduct(p)
	return nil
}

func (a *App) searchProducts(ctx context.Context, _ *service.Session) error {
	a.printf("1. By name or description\n2. By category\n")
	mode, err := a.readLine("> ")
	if err != nil {
		return err
	}

	var search func(context.Context, string) ([]model.Product, error)
	switch mode {
	case "1":
		search = a.svc.Products.Search
	case "2":
		search = a.svc.Products.ListByCategory
	default:
		a.printf("Unknown option %q\n", mode)
		return nil
	}

	text, err := a.readLine("Search: ")
	if err != nil {
		return err
	}
	products, err := search(ctx, text)
	if err != nil {
		a.fail(err)
		return nil
	}
	a.renderProducts(products)
	return nil
}

func (a *App) addProduct(ctx context.Context, sess *service.Session) error {
	var req dto.CreateProductRequest
	var err error
	if req.Name, err = a.readLine("Name: "); err != nil {
		return err
	}
	if req.Category, err = a.readLine("Category: "); err != nil {
		return err
	}
	price, ok, err := a.readDecimal("Price: ")
	if err != nil || !ok {
		return err
	}
	req.Price = price
	stock, ok, err := a.readInt("Stock: ")
	if err != nil || !ok {
		return err
	}
	req.Stock = stock
	if req.Description, err = a.readLine("Description: "); err != nil {
		return err
	}
	a.result(a.svc.Products.Create(ctx, sess.UserID, req))
	return nil
}

func (a *App) manageProducts(ctx context.Context, sess *service.Session) error {
	for ctx.Err() == nil {
		products, err := a.svc.Products.ListByOwner(ctx, sess.UserID)
		if err != nil {
			a.fail(err)
			return nil
		}
		a.printf("\n=== My products ===\n")
		a.renderProducts(products)
		a.printf("1. Add product\n2. Edit product\n3. Delete product\n4. Restock\n0. Back\n")
		choice, err := a.readLine("> ")
		if err != nil {
			return err
		}

		switch choice {
		case "0":
			return nil
		case "1":
			err = a.addProduct(ctx, sess)
		case "2":
			err = a.editProduct(ctx, sess)
		case "3":
			err = a.deleteProduct(ctx, sess)
		case "4":
			err = a.restock(ctx, sess)
		default:
			a.printf("Unknown option %q\n", choice)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// editProduct prompts for every field. A blank answer keeps the current value.
func (a *App) editProduct(ctx context.Context, sess *service.Session) error {
	productID, ok, err := a.readID("Product id: ")
	if err != nil || !ok {
		return err
	}
	a.printf("Leave a field blank to keep it\n")

	var changes dto.ProductChanges
	if changes.Name, err = a.optionalText("Name: "); err != nil {
		return err
	}
	if changes.Category, err = a.optionalText("Category: "); err != nil {
		return err
	}

	line, err := a.readLine("Price: ")
	if err != nil {
		return err
	}
	if line != "" {
		price, ok := parseDecimal(line)
		if !ok {
			a.printf("Error: %q is not a valid amount\n", line)
			return nil
		}
		changes.Price = &price
	}

	line, err = a.readLine("Stock: ")
	if err != nil {
		return err
	}
	if line != "" {
		stock, ok := parseInt(line)
		if !ok {
			a.printf("Error: %q is not a whole number\n", line)
			return nil
		}
		changes.Stock = &stock
	}

	if changes.Description, err = a.optionalText("Description: "); err != nil {
		return err
	}
	a.result(a.svc.Products.Update(ctx, productID, sess.UserID, changes))
	return nil
}

func (a *App) deleteProduct(ctx context.Context, sess *service.Session) error {
	productID, ok, err := a.readID("Product id: ")
	if err != nil || !ok {
		return err
	}
	a.result(a.svc.Products.Delete(ctx, productID, sess.UserID))
	return nil
}

func (a *App) restock(ctx context.Context, sess *service.Session) error {
	productID, ok, err := a.readID("Product id: ")
	if err != nil || !ok {
		return err
	}
	delta, ok, err := a.readInt("Change in stock (negative to remove): ")
	if err != nil || !ok {
		return err
	}
	a.result(a.svc.Products.Restock(ctx, productID, sess.UserID, delta))
	return nil
}

func (a *App) optionalText(prompt string) (*string, error) {
	line, err := a.readLine(prompt)
	if err != nil || line == "" {
		return nil, err
	}
	return &line, nil
}
