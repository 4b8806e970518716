package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
)

type passwordCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (c *SupabaseClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var s models.Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   []string{"auth", "v1", "token"},
		query:  url.Values{"grant_type": {"password"}},
		body:   passwordCredentials{Email: email, Password: password},
	}, &s)
	if err != nil {
		return nil, err
	}
	if !s.Valid() {
		return nil, fmt.Errorf("%w: no access token in response", ErrNoSession)
	}

	completeSession(&s, c.now())
	c.changeSession(&s, models.EventSignedIn)
	return &s, nil
}

func (c *SupabaseClient) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	var s models.Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   []string{"auth", "v1", "signup"},
		body:   passwordCredentials{Email: email, Password: password},
	}, &s)
	if err != nil {
		return nil, err
	}
	// Without auto-confirm GoTrue answers with the bare user object.
	if !s.Valid() {
		return nil, nil
	}

	completeSession(&s, c.now())
	c.changeSession(&s, models.EventSignedIn)
	return &s, nil
}

// SignOut revokes the session remotely and clears it locally. A 401, 403 or
// 404 means the session is already gone server-side and still counts as
// signed out. Other failures leave the session in place.
func (c *SupabaseClient) SignOut(ctx context.Context) error {
	if token := c.accessToken(); token != "" {
		err := c.do(ctx, request{
			method: http.MethodPost,
			path:   []string{"auth", "v1", "logout"},
			query:  url.Values{"scope": {"global"}},
			bearer: token,
		}, nil)
		if err != nil && !hasStatus(err, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound) {
			return err
		}
	}

	c.changeSession(nil, models.EventSignedOut)
	return nil
}

// RefreshSession exchanges the refresh token. A rejected refresh token ends
// the session and emits SIGNED_OUT.
func (c *SupabaseClient) RefreshSession(ctx context.Context) (*models.Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

// refreshUnlessRotated refreshes the session unless the access token is no
// longer stale, meaning another caller refreshed while this one waited.
func (c *SupabaseClient) refreshUnlessRotated(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if cur := c.accessToken(); cur != "" && cur != stale {
		return nil
	}
	_, err := c.refreshLocked(ctx)
	return err
}

// refreshLocked exchanges the refresh token. The caller holds refreshMu.
func (c *SupabaseClient) refreshLocked(ctx context.Context) (*models.Session, error) {
	rt := c.refreshToken()
	if rt == "" {
		return nil, ErrNoSession
	}

	var s models.Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   []string{"auth", "v1", "token"},
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   refreshRequest{RefreshToken: rt},
	}, &s)
	if err != nil {
		if hasStatus(err, http.StatusBadRequest, http.StatusUnauthorized) {
			c.changeSession(nil, models.EventSignedOut)
		}
		return nil, err
	}
	if !s.Valid() {
		return nil, fmt.Errorf("%w: no access token in response", ErrNoSession)
	}

	completeSession(&s, c.now())
	c.changeSession(&s, models.EventTokenRefreshed)
	return &s, nil
}

// StartAutoRefresh refreshes the session whenever it is within margin of
// expiring, checking every interval until ctx is done.
func (c *SupabaseClient) StartAutoRefresh(ctx context.Context, interval, margin time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s := c.CurrentSession()
			if !s.Valid() || s.RefreshToken == "" || !s.ExpiresWithin(c.now(), margin) {
				continue
			}
			rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if _, err := c.RefreshSession(rctx); err != nil {
				c.log.Warn(ctx, "background token refresh failed", "error", err)
			}
			cancel()

		case <-ctx.Done():
			return
		}
	}
}
