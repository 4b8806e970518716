package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
	"github.com/dmitrijs2005/gopanel/internal/common"
	"github.com/dmitrijs2005/gopanel/internal/logging"
)

// SupabaseConfig configures a SupabaseClient.
type SupabaseConfig struct {
	URL        string
	AnonKey    string
	HTTPClient *http.Client
	Logger     logging.Logger
	Now        func() time.Time
}

// SupabaseClient implements AuthProvider and TableClient on top of a
// project's GoTrue (/auth/v1) and PostgREST (/rest/v1) endpoints.
type SupabaseClient struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	log     logging.Logger
	now     func() time.Time

	mu      sync.RWMutex
	session *models.Session

	// refreshMu serialises refreshes. A 401 waiter whose access token was
	// replaced meanwhile retries without refreshing again.
	refreshMu sync.Mutex
	listeners notifier
}

var ErrMissingProjectConfig = errors.New("supabase URL or anon key is missing")

func NewSupabaseClient(cfg SupabaseConfig) (*SupabaseClient, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, ErrMissingProjectConfig
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid supabase URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid supabase URL %q", cfg.URL)
	}

	c := &SupabaseClient{
		baseURL: u,
		apiKey:  cfg.AnonKey,
		http:    cfg.HTTPClient,
		log:     cfg.Logger,
		now:     cfg.Now,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.log == nil {
		c.log = logging.Nop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Close releases idle HTTP connections.
func (c *SupabaseClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// CurrentSession returns the session the client authorizes with.
func (c *SupabaseClient) CurrentSession() *models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *SupabaseClient) SetSession(s *models.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *SupabaseClient) OnAuthStateChange(fn func(models.AuthChange)) func() {
	return c.listeners.subscribe(fn)
}

// changeSession swaps the session and then notifies listeners.
func (c *SupabaseClient) changeSession(s *models.Session, event models.AuthEvent) {
	c.SetSession(s)
	c.log.Debug(context.Background(), "auth state change", "event", string(event))
	c.listeners.notify(models.AuthChange{Event: event, Session: s})
}

func (c *SupabaseClient) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *SupabaseClient) refreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.RefreshToken
}

type request struct {
	method  string
	path    []string
	query   url.Values
	body    any
	headers map[string]string
	bearer  string
}

func (c *SupabaseClient) do(ctx context.Context, req request, out any) error {
	u := c.baseURL.JoinPath(req.path...)
	if req.query != nil {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	bearer := req.bearer
	if bearer == "" {
		bearer = c.apiKey
	}
	httpReq.Header.Set(common.APIKeyHeaderName, c.apiKey)
	httpReq.Header.Set(common.AuthorizationHeaderName, "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// authorized sends req with the session's access token. On a 401 with a
// refresh token at hand, it refreshes once and retries.
func (c *SupabaseClient) authorized(ctx context.Context, req request, out any) error {
	req.bearer = c.accessToken()
	err := c.do(ctx, req, out)
	if !hasStatus(err, http.StatusUnauthorized) || c.refreshToken() == "" {
		return err
	}

	if rerr := c.refreshUnlessRotated(ctx, req.bearer); rerr != nil {
		c.log.Warn(ctx, "token refresh failed", "error", rerr)
		return err
	}

	req.bearer = c.accessToken()
	return c.do(ctx, req, out)
}
