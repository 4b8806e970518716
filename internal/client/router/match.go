package router

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

type compiled struct {
	route    *Route
	chain    []*Route
	pattern  string
	segments []string
	meta     Meta
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func joinPath(parent, child string) string {
	if strings.HasPrefix(child, "/") {
		return cleanPath(child)
	}
	if child == "" {
		return cleanPath(parent)
	}
	return cleanPath(path.Join(parent, child))
}

// mergeMeta folds ancestor meta into the child. Flags are inherited; display
// fields come from the nearest route that sets them.
func mergeMeta(parent, child Meta) Meta {
	m := child
	m.RequiresAuth = parent.RequiresAuth || child.RequiresAuth
	m.RequiresAdmin = parent.RequiresAdmin || child.RequiresAdmin
	if m.Title == "" {
		m.Title = parent.Title
	}
	if m.Breadcrumb == nil {
		m.Breadcrumb = parent.Breadcrumb
	}
	return m
}

// compile flattens the tree in declaration order, parents before children.
func compile(routes []Route) ([]*compiled, error) {
	var out []*compiled
	names := make(map[string]bool)

	var walk func(routes []Route, parentPath string, chain []*Route, meta Meta) error
	walk = func(routes []Route, parentPath string, chain []*Route, meta Meta) error {
		for i := range routes {
			r := &routes[i]
			full := joinPath(parentPath, r.Path)
			m := mergeMeta(meta, r.Meta)
			c := append(chain[:len(chain):len(chain)], r)

			if r.Name != "" {
				if names[r.Name] {
					return fmt.Errorf("%w: %q", ErrDuplicateRoute, r.Name)
				}
				names[r.Name] = true
				out = append(out, &compiled{
					route:    r,
					chain:    c,
					pattern:  full,
					segments: splitPath(full),
					meta:     m,
				})
			}
			if err := walk(r.Children, full, c, m); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(routes, "/", nil, Meta{}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *compiled) match(p string) (map[string]string, bool) {
	segs := splitPath(p)
	if len(segs) != len(c.segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, s := range c.segments {
		if name, ok := strings.CutPrefix(s, ":"); ok {
			v, err := url.PathUnescape(segs[i])
			if err != nil || v == "" {
				return nil, false
			}
			params[name] = v
			continue
		}
		if s != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// build fills the pattern's dynamic segments from params.
func (c *compiled) build(params map[string]string) (string, error) {
	segs := make([]string, len(c.segments))
	for i, s := range c.segments {
		if name, ok := strings.CutPrefix(s, ":"); ok {
			v := params[name]
			if v == "" {
				return "", fmt.Errorf("%w: %s needs %q", ErrMissingParam, c.route.Name, name)
			}
			segs[i] = url.PathEscape(v)
			continue
		}
		segs[i] = s
	}
	return "/" + strings.Join(segs, "/"), nil
}
