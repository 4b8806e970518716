package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAnonKey = "anon-key"

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:       email,
		Role:        "authenticated",
		AppMetadata: map[string]any{"is_admin": true},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// fakeServer records every request and answers through handler.
type fakeServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, body string)
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   string(b),
	})
	f.mu.Unlock()
	f.handler(w, r, string(b))
}

func (f *fakeServer) calls() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body string)) (*SupabaseClient, *fakeServer) {
	t.Helper()
	fs := &fakeServer{handler: handler}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	c, err := NewSupabaseClient(SupabaseConfig{
		URL:        srv.URL,
		AnonKey:    testAnonKey,
		HTTPClient: srv.Client(),
		Now:        func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return c, fs
}

func recordEvents(c *SupabaseClient) *[]models.AuthChange {
	var got []models.AuthChange
	c.OnAuthStateChange(func(ch models.AuthChange) { got = append(got, ch) })
	return &got
}

func TestNewSupabaseClient_Validation(t *testing.T) {
	_, err := NewSupabaseClient(SupabaseConfig{URL: "", AnonKey: "k"})
	require.ErrorIs(t, err, ErrMissingProjectConfig)

	_, err = NewSupabaseClient(SupabaseConfig{URL: "https://x.supabase.co"})
	require.ErrorIs(t, err, ErrMissingProjectConfig)

	_, err = NewSupabaseClient(SupabaseConfig{URL: "not a url", AnonKey: "k"})
	require.Error(t, err)
}

func TestSignInWithPassword_Success(t *testing.T) {
	token := signedToken(t, "user-1", "a@b.co", testNow.Add(time.Hour))

	c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  token,
			"token_type":    "bearer",
			"expires_in":    3600,
			"refresh_token": "rt-1",
		})
	})
	events := recordEvents(c)

	s, err := c.SignInWithPassword(context.Background(), "a@b.co", "secret")
	require.NoError(t, err)

	calls := fs.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/auth/v1/token", calls[0].Path)
	assert.Equal(t, "grant_type=password", calls[0].Query)
	assert.Equal(t, testAnonKey, calls[0].Header.Get("apikey"))
	assert.Equal(t, "Bearer "+testAnonKey, calls[0].Header.Get("Authorization"))
	assert.JSONEq(t, `{"email":"a@b.co","password":"secret"}`, calls[0].Body)

	// expires_at and user come from expires_in and the token claims
	assert.Equal(t, testNow.Unix()+3600, s.ExpiresAt)
	require.NotNil(t, s.User)
	assert.Equal(t, "user-1", s.User.ID)
	assert.Equal(t, "a@b.co", s.User.Email)
	assert.True(t, s.User.IsAdmin())

	require.Len(t, *events, 1)
	assert.Equal(t, models.EventSignedIn, (*events)[0].Event)
	assert.Same(t, s, (*events)[0].Session)
	assert.Same(t, s, c.CurrentSession())
}

func TestSignInWithPassword_InvalidCredentials(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
	})
	events := recordEvents(c)

	_, err := c.SignInWithPassword(context.Background(), "a@b.co", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid login credentials", err.Error())
	assert.Empty(t, *events)
	assert.Nil(t, c.CurrentSession())
}

func TestSignUp_ConfirmationPending(t *testing.T) {
	c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "user-2", "email": "n@b.co"})
	})
	events := recordEvents(c)

	s, err := c.SignUp(context.Background(), "n@b.co", "secret1")
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Empty(t, *events)
	assert.Equal(t, "/auth/v1/signup", fs.calls()[0].Path)
}

func TestSignUp_AutoConfirm(t *testing.T) {
	token := signedToken(t, "user-3", "n@b.co", testNow.Add(time.Hour))
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  token,
			"refresh_token": "rt",
			"expires_at":    testNow.Add(time.Hour).Unix(),
			"user":          map[string]any{"id": "user-3", "email": "n@b.co"},
		})
	})
	events := recordEvents(c)

	s, err := c.SignUp(context.Background(), "n@b.co", "secret1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "user-3", s.User.ID)
	require.Len(t, *events, 1)
	assert.Equal(t, models.EventSignedIn, (*events)[0].Event)
}

func TestSignOut(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   bool
		wantEvent bool
	}{
		{name: "ok", status: http.StatusNoContent, wantEvent: true},
		{name: "already revoked", status: http.StatusUnauthorized, wantEvent: true},
		{name: "user gone", status: http.StatusNotFound, wantEvent: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
				w.WriteHeader(tt.status)
			})
			c.SetSession(&models.Session{AccessToken: "at", RefreshToken: "rt"})
			events := recordEvents(c)

			err := c.SignOut(context.Background())

			calls := fs.calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "/auth/v1/logout", calls[0].Path)
			assert.Equal(t, "Bearer at", calls[0].Header.Get("Authorization"))

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnavailable)
				assert.NotNil(t, c.CurrentSession())
				assert.Empty(t, *events)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, c.CurrentSession())
			require.Len(t, *events, 1)
			assert.Equal(t, models.EventSignedOut, (*events)[0].Event)
			assert.Nil(t, (*events)[0].Session)
		})
	}
}

func TestSignOut_WithoutSessionSkipsRequest(t *testing.T) {
	c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		t.Error("unexpected request")
	})
	events := recordEvents(c)

	require.NoError(t, c.SignOut(context.Background()))
	assert.Empty(t, fs.calls())
	require.Len(t, *events, 1)
}

func TestRefreshSession(t *testing.T) {
	token := signedToken(t, "user-1", "a@b.co", testNow.Add(time.Hour))
	c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": token, "refresh_token": "rt-2", "expires_in": 3600})
	})
	c.SetSession(&models.Session{AccessToken: "old", RefreshToken: "rt-1"})
	events := recordEvents(c)

	s, err := c.RefreshSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rt-2", s.RefreshToken)

	calls := fs.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "grant_type=refresh_token", calls[0].Query)
	assert.JSONEq(t, `{"refresh_token":"rt-1"}`, calls[0].Body)

	require.Len(t, *events, 1)
	assert.Equal(t, models.EventTokenRefreshed, (*events)[0].Event)
}

func TestRefreshSession_RejectedSignsOut(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error_code": "refresh_token_not_found", "msg": "Invalid Refresh Token"})
	})
	c.SetSession(&models.Session{AccessToken: "old", RefreshToken: "rt-1"})
	events := recordEvents(c)

	_, err := c.RefreshSession(context.Background())
	require.Error(t, err)
	assert.Nil(t, c.CurrentSession())
	require.Len(t, *events, 1)
	assert.Equal(t, models.EventSignedOut, (*events)[0].Event)
}

func TestRefreshSession_NoSession(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		t.Error("unexpected request")
	})
	_, err := c.RefreshSession(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSelect_SendsSessionToken(t *testing.T) {
	c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "a"}, {"id": 2, "name": "b"}})
	})
	c.SetSession(&models.Session{AccessToken: "at"})

	rows, err := c.Select(context.Background(), "products")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, json.Number("1"), rows[0].ID())

	calls := fs.calls()
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Equal(t, "/rest/v1/products", calls[0].Path)
	assert.Equal(t, "select=%2A", calls[0].Query)
	assert.Equal(t, "Bearer at", calls[0].Header.Get("Authorization"))
}

func TestInsertUpdateDelete_Requests(t *testing.T) {
	c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 7, "name": "x"}})
		}
	})
	ctx := context.Background()

	ins, err := c.Insert(ctx, "products", models.Record{"name": "x"})
	require.NoError(t, err)
	assert.True(t, models.SameID(ins.ID(), 7))

	upd, err := c.Update(ctx, "products", 7, models.Record{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", upd["name"])

	require.NoError(t, c.Delete(ctx, "products", 7))

	calls := fs.calls()
	require.Len(t, calls, 3)

	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "return=representation", calls[0].Header.Get("Prefer"))
	assert.JSONEq(t, `{"name":"x"}`, calls[0].Body)

	assert.Equal(t, http.MethodPatch, calls[1].Method)
	assert.Equal(t, "id=eq.7&select=%2A", calls[1].Query)
	assert.Equal(t, "return=representation", calls[1].Header.Get("Prefer"))

	assert.Equal(t, http.MethodDelete, calls[2].Method)
	assert.Equal(t, "id=eq.7", calls[2].Query)
}

func TestUpdate_NoMatchingRow(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, []map[string]any{})
	})

	_, err := c.Update(context.Background(), "products", 99, models.Record{"name": "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTableCall_RefreshesOnceOn401(t *testing.T) {
	token := signedToken(t, "user-1", "a@b.co", testNow.Add(time.Hour))
	c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		switch {
		case r.URL.Path == "/auth/v1/token":
			writeJSON(w, http.StatusOK, map[string]any{"access_token": token, "refresh_token": "rt-2"})
		case r.Header.Get("Authorization") == "Bearer "+token:
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1}})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": "PGRST301", "message": "JWT expired"})
		}
	})
	c.SetSession(&models.Session{AccessToken: "expired", RefreshToken: "rt-1"})
	events := recordEvents(c)

	rows, err := c.Select(context.Background(), "products")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	calls := fs.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "/rest/v1/products", calls[0].Path)
	assert.Equal(t, "/auth/v1/token", calls[1].Path)
	assert.Equal(t, "/rest/v1/products", calls[2].Path)

	require.Len(t, *events, 1)
	assert.Equal(t, models.EventTokenRefreshed, (*events)[0].Event)
}

func TestTableCall_Concurrent401sRefreshOnce(t *testing.T) {
	token := signedToken(t, "user-1", "a@b.co", testNow.Add(time.Hour))

	// Both calls are rejected before either refreshes.
	var arrived sync.WaitGroup
	arrived.Add(2)

	var mu sync.Mutex
	var refreshTokens []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		switch {
		case r.URL.Path == "/auth/v1/token":
			var req map[string]string
			_ = json.Unmarshal([]byte(body), &req)
			mu.Lock()
			refreshTokens = append(refreshTokens, req["refresh_token"])
			n := len(refreshTokens)
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"access_token": token, "refresh_token": fmt.Sprintf("rt-%d", n+1)})
		case r.Header.Get("Authorization") == "Bearer "+token:
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1}})
		default:
			arrived.Done()
			arrived.Wait()
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": "PGRST301", "message": "JWT expired"})
		}
	})
	c.SetSession(&models.Session{AccessToken: "expired", RefreshToken: "rt-1"})

	var refreshed int
	c.OnAuthStateChange(func(ch models.AuthChange) {
		mu.Lock()
		defer mu.Unlock()
		if ch.Event == models.EventTokenRefreshed {
			refreshed++
		}
	})

	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := c.Select(context.Background(), "products")
			errs <- err
		}()
	}
	for range 2 {
		require.NoError(t, <-errs)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"rt-1"}, refreshTokens)
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, "rt-2", c.CurrentSession().RefreshToken)
}

func TestTableCall_401WithoutRefreshToken(t *testing.T) {
	c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "JWT expired"})
	})

	_, err := c.Select(context.Background(), "products")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Len(t, fs.calls(), 1)
}

func TestTableCall_InvalidTable(t *testing.T) {
	c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		t.Error("unexpected request")
	})

	_, err := c.Select(context.Background(), "products;drop")
	require.ErrorIs(t, err, ErrInvalidTable)
	assert.Empty(t, fs.calls())
}

func TestTransportFailure_IsUnavailable(t *testing.T) {
	c, err := NewSupabaseClient(SupabaseConfig{URL: "http://127.0.0.1:1", AnonKey: testAnonKey})
	require.NoError(t, err)

	_, err = c.Select(context.Background(), "products")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestStartAutoRefresh_RefreshesNearExpiry(t *testing.T) {
	token := signedToken(t, "user-1", "a@b.co", testNow.Add(time.Hour))
	refreshed := make(chan struct{}, 1)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": token, "refresh_token": "rt-2", "expires_in": 3600})
		select {
		case refreshed <- struct{}{}:
		default:
		}
	})
	c.SetSession(&models.Session{AccessToken: "at", RefreshToken: "rt-1", ExpiresAt: testNow.Add(10 * time.Second).Unix()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.StartAutoRefresh(ctx, 5*time.Millisecond, time.Minute)

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("session was not refreshed")
	}
	require.Eventually(t, func() bool {
		s := c.CurrentSession()
		return s != nil && s.RefreshToken == "rt-2"
	}, 2*time.Second, 5*time.Millisecond)
}
