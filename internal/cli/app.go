// Package cli is the interactive terminal front end. It reads one command per
// line and calls exactly one service operation per command.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flicky/go-ecommerce-cli/internal/service"
)

type Services struct {
	Auth     *service.AuthService
	Products *service.ProductService
	Carts    *service.CartService
	Orders   *service.OrderService
}

type App struct {
	svc Services
	in  *bufio.Scanner
	out io.Writer
	log *zap.Logger
}

func New(svc Services, in io.Reader, out io.Writer, log *zap.Logger) *App {
	return &App{svc: svc, in: bufio.NewScanner(in), out: out, log: log}
}

// Run serves the home menu until the user exits, input ends or ctx is done.
func (a *App) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		a.printf("\n=== Shop ===\n1. Register\n2. Login\n0. Exit\n")
		choice, err := a.readLine("> ")
		if err != nil {
			return endOfInput(err)
		}

		switch choice {
		case "1":
			err = a.register(ctx)
		case "2":
			err = a.login(ctx)
		case "0":
			a.printf("Goodbye!\n")
			return nil
		default:
			a.printf("Unknown option %q\n", choice)
		}
		if err != nil {
			return endOfInput(err)
		}
	}
	return nil
}

type userAction func(ctx context.Context, sess *service.Session) error

// userMenu runs until logout. The session token is resolved before every
// command so an expired or deleted account drops back to the home menu.
func (a *App) userMenu(ctx context.Context, sess *service.Session) error {
	actions := map[string]userAction{
		"1":  a.viewProducts,
		"2":  a.searchProducts,
		"3":  a.addToCart,
		"4":  a.viewCart,
		"5":  a.removeFromCart,
		"6":  a.createOrder,
		"7":  a.myOrders,
		"8":  a.addProduct,
		"9":  a.manageProducts,
		"10": a.reports,
	}

	for ctx.Err() == nil {
		current, err := a.svc.Auth.Resolve(ctx, sess.Token)
		if err != nil {
			a.fail(err)
			return nil
		}

		a.printf("\n=== Welcome, %s ===\n", current.FullName)
		a.printf("1. View products\n2. Search products\n3. Add to cart\n4. View cart\n")
		a.printf("5. Remove from cart\n6. Create order\n7. My orders\n8. Add product\n")
		a.printf("9. Manage my products\n10. Reports\n11. Delete my account\n0. Logout\n")
		choice, err := a.readLine("> ")
		if err != nil {
			return err
		}

		switch choice {
		case "0":
			if a.svc.Auth.Logout(current) {
				a.printf("Logged out\n")
			}
			return nil
		case "11":
			deleted, err := a.deleteAccount(ctx, current)
			if err != nil || deleted {
				return err
			}
			continue
		}

		action, ok := actions[choice]
		if !ok {
			a.printf("Unknown option %q\n", choice)
			continue
		}
		if err := action(ctx, current); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// result prints the confirmation message or the error.
func (a *App) result(msg string, err error) {
	if err != nil {
		a.fail(err)
		return
	}
	a.printf("%s\n", msg)
}

func (a *App) fail(err error) {
	if errors.Is(err, service.ErrStorage) {
		a.log.Debug("command failed", zap.Error(err))
	}
	a.printf("Error: %s\n", err.Error())
}

// readLine returns io.EOF once input is exhausted.
func (a *App) readLine(prompt string) (string, error) {
	a.printf("%s", prompt)
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(a.in.Text()), nil
}

// readID reports ok=false, after printing why, when the input is not a
// positive integer.
func (a *App) readID(prompt string) (int64, bool, error) {
	line, err := a.readLine(prompt)
	if err != nil {
		return 0, false, err
	}
	id, ok := parseID(line)
	if !ok {
		a.printf("Error: %q is not a valid id\n", line)
	}
	return id, ok, nil
}

func (a *App) readInt(prompt string) (int, bool, error) {
	line, err := a.readLine(prompt)
	if err != nil {
		return 0, false, err
	}
	n, ok := parseInt(line)
	if !ok {
		a.printf("Error: %q is not a whole number\n", line)
	}
	return n, ok, nil
}

func (a *App) readDecimal(prompt string) (decimal.Decimal, bool, error) {
	line, err := a.readLine(prompt)
	if err != nil {
		return decimal.Zero, false, err
	}
	d, ok := parseDecimal(line)
	if !ok {
		a.printf("Error: %q is not a valid amount\n", line)
	}
	return d, ok, nil
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	return d, err == nil
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
