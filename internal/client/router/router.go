package router

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/dmitrijs2005/gopanel/internal/logging"
)

// MaxRedirects bounds how many guard redirects one navigation may follow.
const MaxRedirects = 10

var (
	ErrDuplicateRoute   = errors.New("duplicate route name")
	ErrUnknownRoute     = errors.New("unknown route")
	ErrMissingParam     = errors.New("missing route param")
	ErrTooManyRedirects = errors.New("too many redirects")
)

// View renders a resolved route.
type View func(ctx context.Context, m *Match) error

// Router resolves locations, evaluates guards in registration order and
// runs the view registered for the target route.
type Router struct {
	routes []*compiled
	byName map[string]*compiled
	log    logging.Logger

	mu      sync.RWMutex
	guards  []Guard
	views   map[string]View
	current *Match
}

func New(routes []Route, log logging.Logger) (*Router, error) {
	compiledRoutes, err := compile(routes)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}

	r := &Router{
		routes: compiledRoutes,
		byName: make(map[string]*compiled, len(compiledRoutes)),
		log:    log,
		views:  make(map[string]View),
	}
	for _, c := range compiledRoutes {
		r.byName[c.route.Name] = c
	}
	return r, nil
}

// Use appends guards. Guards run in the order they were added.
func (r *Router) Use(guards ...Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards = append(r.guards, guards...)
}

// Handle registers the view for routes whose View field equals name.
func (r *Router) Handle(name string, v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[name] = v
}

// Current returns the last successful navigation, or nil.
func (r *Router) Current() *Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Routes lists the named routes in declaration order.
func (r *Router) Routes() []*Match {
	out := make([]*Match, 0, len(r.routes))
	for _, c := range r.routes {
		out = append(out, &Match{Route: c.route, Chain: c.chain, Pattern: c.pattern, Meta: c.meta})
	}
	return out
}

// PathFor builds the location of the named route.
func (r *Router) PathFor(name string, params map[string]string, query url.Values) (string, error) {
	c, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	p, err := c.build(params)
	if err != nil {
		return "", err
	}
	return Location{Path: p, Query: query}.String(), nil
}

// Resolve matches loc against the table. Unmatched paths resolve to the
// not-found route when the table has one.
func (r *Router) Resolve(loc Location) (*Match, error) {
	for _, c := range r.routes {
		if params, ok := c.match(loc.Path); ok {
			return c.toMatch(loc, params), nil
		}
	}
	if c, ok := r.byName[RouteNotFound]; ok {
		return c.toMatch(loc, map[string]string{}), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, loc.Path)
}

func (c *compiled) toMatch(loc Location, params map[string]string) *Match {
	return &Match{
		Route:    c.route,
		Chain:    c.chain,
		Pattern:  c.pattern,
		Params:   params,
		Meta:     c.meta,
		Location: loc,
	}
}

// Navigate resolves target, follows guard redirects and runs the target's
// view. A guard or view failure lands on the error route with the message
// in the query; if the error view fails too, that failure is returned.
func (r *Router) Navigate(ctx context.Context, target string) (*Match, error) {
	m, err := r.navigate(ctx, target)
	if err == nil {
		return m, nil
	}
	if errors.Is(err, ErrTooManyRedirects) || m.Name() == RouteError {
		return nil, err
	}

	r.log.Error(ctx, "navigation failed", "target", target, "error", err)
	errPath, perr := r.PathFor(RouteError, nil, url.Values{QueryMessage: {err.Error()}})
	if perr != nil {
		return nil, err
	}

	m, eerr := r.navigate(ctx, errPath)
	if eerr != nil {
		return nil, fmt.Errorf("error view: %w", eerr)
	}
	return m, nil
}

// navigate returns the match it stopped at along with any failure.
func (r *Router) navigate(ctx context.Context, target string) (*Match, error) {
	r.mu.RLock()
	guards := append([]Guard(nil), r.guards...)
	r.mu.RUnlock()

	for hops := 0; ; hops++ {
		if hops > MaxRedirects {
			return nil, fmt.Errorf("%w: stopped at %s", ErrTooManyRedirects, target)
		}

		loc, err := ParseLocation(target)
		if err != nil {
			return nil, fmt.Errorf("invalid location %q: %w", target, err)
		}
		m, err := r.Resolve(loc)
		if err != nil {
			return nil, err
		}

		redirect, err := runGuards(ctx, guards, m)
		if err != nil {
			return m, err
		}
		if redirect != "" {
			r.log.Debug(ctx, "redirect", "from", loc.String(), "to", redirect)
			target = redirect
			continue
		}

		if err := r.render(ctx, m); err != nil {
			return m, err
		}

		r.mu.Lock()
		r.current = m
		r.mu.Unlock()
		r.log.Debug(ctx, "navigated", "path", loc.String(), "route", m.Name())
		return m, nil
	}
}

// runGuards stops at the first guard that redirects or fails.
func runGuards(ctx context.Context, guards []Guard, m *Match) (string, error) {
	for _, g := range guards {
		redirect, err := g(ctx, m)
		if err != nil || redirect != "" {
			return redirect, err
		}
	}
	return "", nil
}

func (r *Router) render(ctx context.Context, m *Match) error {
	r.mu.RLock()
	v := r.views[m.Route.View]
	r.mu.RUnlock()
	if v == nil {
		return nil
	}
	return v(ctx, m)
}
