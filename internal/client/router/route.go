// Package router resolves console locations against a declarative route
// tree and runs navigation guards before a view is shown.
package router

import (
	"net/url"
	"strings"
)

// Meta carries per-route guard flags and display hints. RequiresAuth and
// RequiresAdmin are inherited by every descendant.
type Meta struct {
	RequiresAuth  bool
	RequiresAdmin bool
	Title         string
	Breadcrumb    []string
}

// Route is one node of the route tree. A child path starting with "/" is
// absolute, any other child path is appended to the parent's. Segments of the
// form ":name" match any non-empty segment. Only named routes can be
// navigated to; unnamed routes group children under shared meta.
type Route struct {
	Path     string
	Name     string
	View     string
	Meta     Meta
	Children []Route
}

// Location is a parsed navigation target.
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation parses "/path?query". A missing leading slash is added and
// trailing slashes are dropped.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Location{}, err
	}
	return Location{Path: cleanPath(u.Path), Query: u.Query()}, nil
}

func cleanPath(p string) string {
	p = "/" + strings.Trim(p, "/")
	return p
}

// String returns the full path including the encoded query.
func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// Match is a resolved navigation: the named route, its ancestors and the
// effective meta.
type Match struct {
	Route    *Route
	Chain    []*Route
	Pattern  string
	Params   map[string]string
	Meta     Meta
	Location Location
}

func (m *Match) Name() string {
	if m == nil || m.Route == nil {
		return ""
	}
	return m.Route.Name
}

// Query returns the first value of the query parameter key.
func (m *Match) Query(key string) string {
	return m.Location.Query.Get(key)
}

func (m *Match) Param(key string) string {
	return m.Params[key]
}
