package cli

import (
	"context"

	"github.com/flicky/go-ecommerce-cli/internal/service"
)

func (a *App) addToCart(ctx context.Context, sess *service.Session) error {
	productID, ok, err := a.readID("Product id: ")
	if err != nil || !ok {
		return err
	}
	quantity, ok, err := a.readInt("Quantity: ")
	if err != nil || !ok {
		return err
	}
	a.result(a.svc.Carts.Add(ctx, sess.UserID, productID, quantity))
	return nil
}

func (a *App) removeFromCart(ctx context.Context, sess *service.Session) error {
	productID, ok, err := a.readID("Product id: ")
	if err != nil || !ok {
		return err
	}
	a.result(a.svc.Carts.Remove(ctx, sess.UserID, productID))
	return nil
}

func (a *App) viewCart(ctx context.Context, sess *service.Session) error {
	for ctx.Err() == nil {
		summary, err := a.svc.Carts.Summary(ctx, sess.UserID)
		if err != nil {
			a.fail(err)
			return nil
		}
		a.printf("\n=== Cart ===\n")
		a.renderCart(summary)
		if len(summary.Items) == 0 {
			return nil
		}

		a.printf("1. Change quantity\n2. Clear cart\n0. Back\n")
		choice, err := a.readLine("> ")
		if err != nil {
			return err
		}
		switch choice {
		case "0":
			return nil
		case "1":
			productID, ok, err := a.readID("Product id: ")
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			quantity, ok, err := a.readInt("New quantity (0 removes): ")
			if err != nil {
				return err
			}
			if ok {
				a.result(a.svc.Carts.UpdateQuantity(ctx, sess.UserID, productID, quantity))
			}
		case "2":
			a.result(a.svc.Carts.Clear(ctx, sess.UserID))
		default:
			a.printf("Unknown option %q\n", choice)
		}
	}
	return nil
}
