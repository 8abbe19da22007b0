package cli

import (
	"context"

	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/service"
)

func (a *App) createOrder(ctx context.Context, sess *service.Session) error {
	orderID, msg, err := a.svc.Orders.Create(ctx, sess.UserID)
	if err != nil {
		a.fail(err)
		return nil
	}
	a.printf("%s\n", msg)

	details, err := a.svc.Orders.Details(ctx, orderID)
	if err != nil {
		a.fail(err)
		return nil
	}
	if details != nil {
		a.renderOrder(details)
	}
	return nil
}

func (a *App) myOrders(ctx context.Context, sess *service.Session) error {
	for ctx.Err() == nil {
		orders, err := a.svc.Orders.ListByUser(ctx, sess.UserID)
		if err != nil {
			a.fail(err)
			return nil
		}
		a.printf("\n=== My orders ===\n")
		a.renderOrders(orders)
		if len(orders) == 0 {
			return nil
		}

		a.printf("1. Order details\n2. Cancel order\n3. Change status\n0. Back\n")
		choice, err := a.readLine("> ")
		if err != nil {
			return err
		}
		if choice == "0" {
			return nil
		}
		if choice != "1" && choice != "2" && choice != "3" {
			a.printf("Unknown option %q\n", choice)
			continue
		}

		details, err := a.ownOrder(ctx, sess)
		if err != nil {
			return err
		}
		if details == nil {
			continue
		}

		switch choice {
		case "1":
			a.renderOrder(details)
		case "2":
			a.result(a.svc.Orders.Cancel(ctx, details.ID))
		case "3":
			status, err := a.readLine("New status (" + statusChoices() + "): ")
			if err != nil {
				return err
			}
			a.result(a.svc.Orders.UpdateStatus(ctx, details.ID, status))
		}
	}
	return nil
}

// ownOrder asks for an order id and loads it. It prints why and returns nil
// when the id is invalid, unknown or belongs to someone else.
func (a *App) ownOrder(ctx context.Context, sess *service.Session) (*dto.OrderDetails, error) {
	orderID, ok, err := a.readID("Order id: ")
	if err != nil || !ok {
		return nil, err
	}
	details, err := a.svc.Orders.Details(ctx, orderID)
	if err != nil {
		a.fail(err)
		return nil, nil
	}
	if details == nil || details.UserID != sess.UserID {
		a.printf("Error: order %d not found\n", orderID)
		return nil, nil
	}
	return details, nil
}

func (a *App) reports(ctx context.Context, _ *service.Session) error {
	orders, err := a.svc.Orders.ListAll(ctx)
	if err != nil {
		a.fail(err)
		return nil
	}
	a.printf("\n=== All orders ===\n")
	a.renderOrders(orders)

	rows := make([][]string, 0, len(model.OrderStatuses))
	for _, st := range model.OrderStatuses {
		total, err := a.svc.Orders.Revenue(ctx, st)
		if err != nil {
			a.fail(err)
			return nil
		}
		rows = append(rows, []string{string(st), money(total)})
	}
	a.printf("\n=== Revenue ===\n")
	a.table([]string{"Status", "Total"}, rows)
	return nil
}

func statusChoices() string {
	s := ""
	for i, st := range model.OrderStatuses {
		if i > 0 {
			s += "/"
		}
		s += string(st)
	}
	return s
}
