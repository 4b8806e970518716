package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gopanel/internal/client/router"
	"github.com/dmitrijs2005/gopanel/internal/common"
)

var ErrAuthFailed = errors.New("authentication failed")

// credentials takes the email from args or prompts for it, then reads the
// password. The caller wipes the password.
func (a *App) credentials(args []string) (string, []byte, error) {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		email, err = getSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return "", nil, err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Login signs in and then goes where the login page was asked to return to,
// or to the dashboard.
func (a *App) Login(ctx context.Context, args []string) error {
	email, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	a.auth.Login(ctx, email, string(password))
	if msg := a.auth.Err(); msg != "" {
		return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
	}
	if !a.auth.IsAuthenticated() {
		return ErrAuthFailed
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", a.auth.CurrentUser().Email)
	return a.Goto(ctx, a.afterLogin())
}

func (a *App) afterLogin() string {
	if m := a.router.Current(); m != nil && m.Name() == router.RouteLogin {
		if target := m.Query(router.QueryRedirect); target != "" {
			return target
		}
	}
	p, err := a.router.PathFor(router.RouteDashboard, nil, nil)
	if err != nil {
		return "/"
	}
	return p
}

// Signup registers an account. When the project requires email
// confirmation no session is created and the user is told to confirm.
func (a *App) Signup(ctx context.Context, args []string) error {
	email, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	a.auth.Signup(ctx, email, string(password))
	if msg := a.auth.Err(); msg != "" {
		return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
	}
	if !a.auth.IsAuthenticated() {
		fmt.Fprintln(a.out, "Check your inbox to confirm the account, then log in.")
		return nil
	}

	fmt.Fprintf(a.out, "Signed up as %s\n", a.auth.CurrentUser().Email)
	return a.Goto(ctx, a.afterLogin())
}

func (a *App) Logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	if msg := a.auth.Err(); msg != "" {
		return fmt.Errorf("logout: %s", msg)
	}
	fmt.Fprintln(a.out, "Signed out")
	return a.Goto(ctx, "/")
}

func (a *App) WhoAmI(ctx context.Context) error {
	u := a.auth.CurrentUser()
	if u == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	role := "user"
	if u.IsAdmin() {
		role = "admin"
	}
	fmt.Fprintf(a.out, "%s (%s, id %s)\n", u.Email, role, u.ID)
	if s := a.auth.Session(); s != nil && !s.Expiry().IsZero() {
		fmt.Fprintf(a.out, "Session expires at %s\n", s.Expiry().Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}
