package cli

import (
	"context"
	"strings"

	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/service"
)

func (a *App) register(ctx context.Context) error {
	var req dto.RegisterRequest
	var err error
	if req.Username, err = a.readLine("Username: "); err != nil {
		return err
	}
	if req.Password, err = a.readLine("Password: "); err != nil {
		return err
	}
	if req.FirstName, err = a.readLine("First name: "); err != nil {
		return err
	}
	if req.LastName, err = a.readLine("Last name: "); err != nil {
		return err
	}
	a.result(a.svc.Auth.Register(ctx, req))
	return nil
}

// login enters the user menu on success.
func (a *App) login(ctx context.Context) error {
	var req dto.LoginRequest
	var err error
	if req.Username, err = a.readLine("Username: "); err != nil {
		return err
	}
	if req.Password, err = a.readLine("Password: "); err != nil {
		return err
	}

	sess, err := a.svc.Auth.Login(ctx, req)
	if err != nil {
		a.fail(err)
		return nil
	}
	a.printf("Logged in as %s\n", sess.Username)
	return a.userMenu(ctx, sess)
}

func (a *App) deleteAccount(ctx context.Context, sess *service.Session) (bool, error) {
	answer, err := a.readLine("Delete your account, products, cart and orders? Type yes to confirm: ")
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(answer, "yes") {
		a.printf("Cancelled\n")
		return false, nil
	}

	msg, err := a.svc.Auth.DeleteAccount(ctx, sess.UserID)
	if err != nil {
		a.fail(err)
		return false, nil
	}
	a.svc.Auth.Logout(sess)
	a.printf("%s\n", msg)
	return true, nil
}
