package router

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
)

// Guard inspects a resolved navigation. It returns a location to redirect
// to, or "" to let the navigation through.
type Guard func(ctx context.Context, to *Match) (redirect string, err error)

// AuthState is the read side of the auth store the guards consult.
type AuthState interface {
	Session() *models.Session
	CurrentUser() *models.User
}

// RequireSession sends unauthenticated visitors of protected routes to the
// login page, remembering where they were going.
func RequireSession(r *Router, state AuthState) Guard {
	return func(ctx context.Context, to *Match) (string, error) {
		if !to.Meta.RequiresAuth || state.Session() != nil {
			return "", nil
		}
		return r.PathFor(RouteLogin, nil, url.Values{QueryRedirect: {to.Location.String()}})
	}
}

// SkipLoginWhenSignedIn sends signed-in users away from the login page.
func SkipLoginWhenSignedIn(r *Router, state AuthState) Guard {
	return func(ctx context.Context, to *Match) (string, error) {
		if to.Name() != RouteLogin || state.Session() == nil {
			return "", nil
		}
		return r.PathFor(RouteDashboard, nil, nil)
	}
}

// RequireAdmin keeps non-admin users out of admin-only routes.
func RequireAdmin(r *Router, state AuthState) Guard {
	return func(ctx context.Context, to *Match) (string, error) {
		if !to.Meta.RequiresAdmin || state.CurrentUser().IsAdmin() {
			return "", nil
		}
		return r.PathFor(RouteAccessDenied, nil, nil)
	}
}

// AuthGuards returns the session, login and admin guards in evaluation
// order.
func AuthGuards(r *Router, state AuthState) []Guard {
	return []Guard{
		RequireSession(r, state),
		SkipLoginWhenSignedIn(r, state),
		RequireAdmin(r, state),
	}
}
