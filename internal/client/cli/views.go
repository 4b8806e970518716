package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
	"github.com/dmitrijs2005/gopanel/internal/client/router"
)

// Goto navigates to path. The page the router lands on prints itself.
func (a *App) Goto(ctx context.Context, path string) error {
	_, err := a.router.Navigate(ctx, path)
	return err
}

func (a *App) registerViews() {
	a.router.Handle("login", a.loginView)
	a.router.Handle("dashboard", a.dashboardView)
	a.router.Handle("uikit", a.pageView)
	a.router.Handle("blocks", a.pageView)
	a.router.Handle("empty", a.pageView)
	a.router.Handle("landing", a.landingView)
	a.router.Handle("documentation", a.documentationView)
	a.router.Handle("crud", a.crudView)
	a.router.Handle("crud-detail", a.crudDetailView)
	a.router.Handle("admin-users", a.adminUsersView)
	a.router.Handle("notfound", a.notFoundView)
	a.router.Handle("access", a.accessDeniedView)
	a.router.Handle("error", a.errorView)
}

func (a *App) header(m *router.Match) {
	title := m.Meta.Title
	if len(m.Meta.Breadcrumb) > 0 {
		title = strings.Join(m.Meta.Breadcrumb, " / ")
	}
	fmt.Fprintf(a.out, "== %s [%s]\n", title, m.Location.Path)
}

func (a *App) loginView(ctx context.Context, m *router.Match) error {
	a.header(m)
	if target := m.Query(router.QueryRedirect); target != "" {
		fmt.Fprintf(a.out, "Sign in to open %s.\n", target)
	}
	fmt.Fprintln(a.out, "Use 'login' to sign in or 'signup' to create an account.")
	return nil
}

func (a *App) dashboardView(ctx context.Context, m *router.Match) error {
	a.header(m)
	if u := a.auth.CurrentUser(); u != nil {
		fmt.Fprintf(a.out, "Welcome, %s\n", u.Email)
	}
	fmt.Fprintln(a.out, "Pages:")
	for _, r := range a.router.Routes() {
		if !r.Meta.RequiresAuth || r.Name() == router.RouteDashboard {
			continue
		}
		if r.Meta.RequiresAdmin && !a.auth.CurrentUser().IsAdmin() {
			continue
		}
		fmt.Fprintf(a.out, "  %-16s %s\n", r.Name(), r.Pattern)
	}
	return nil
}

func (a *App) pageView(ctx context.Context, m *router.Match) error {
	a.header(m)
	fmt.Fprintln(a.out, "(nothing to show in a terminal)")
	return nil
}

func (a *App) landingView(ctx context.Context, m *router.Match) error {
	a.header(m)
	fmt.Fprintln(a.out, "gopanel: an admin console for your project's tables.")
	return nil
}

func (a *App) documentationView(ctx context.Context, m *router.Match) error {
	a.header(m)
	fmt.Fprintln(a.out, helpSignedIn)
	return nil
}

func (a *App) crudView(ctx context.Context, m *router.Match) error {
	a.header(m)
	c, err := a.collection(a.config.CrudTable)
	if err != nil {
		return err
	}
	if err := c.FetchAll(ctx); err != nil {
		return err
	}
	return printRecords(a.out, c.Items())
}

func (a *App) crudDetailView(ctx context.Context, m *router.Match) error {
	a.header(m)
	c, err := a.collection(a.config.CrudTable)
	if err != nil {
		return err
	}
	if err := c.FetchAll(ctx); err != nil {
		return err
	}
	id := m.Param("id")
	for _, r := range c.Items() {
		if models.SameID(r.ID(), id) {
			return printRecord(a.out, r)
		}
	}
	fmt.Fprintf(a.out, "No %s record with id %s\n", a.config.CrudTable, id)
	return nil
}

func (a *App) adminUsersView(ctx context.Context, m *router.Match) error {
	a.header(m)
	u := a.auth.CurrentUser()
	fmt.Fprintf(a.out, "Signed in as administrator %s\n", u.Email)
	return nil
}

func (a *App) notFoundView(ctx context.Context, m *router.Match) error {
	a.header(m)
	fmt.Fprintln(a.out, "Page not found.")
	return nil
}

func (a *App) accessDeniedView(ctx context.Context, m *router.Match) error {
	a.header(m)
	fmt.Fprintln(a.out, "You do not have the necessary permissions.")
	return nil
}

func (a *App) errorView(ctx context.Context, m *router.Match) error {
	a.header(m)
	msg := m.Query(router.QueryMessage)
	if msg == "" {
		msg = "unknown error"
	}
	fmt.Fprintln(a.out, "Something went wrong:", msg)
	return nil
}
