// Package router maps client paths to views. Views other than the home page
// are loaded on first use.
package router

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
)

var ErrRouteNotFound = errors.New("route not found")

// View describes a page. Rendering it is not this package's concern.
type View struct {
	Name  string
	Chunk string
}

// Loader produces a lazily loaded view.
type Loader func(ctx context.Context) (View, error)

// Route is one entry of the table.
type Route struct {
	Path string
	Name string

	view   *View
	loader Loader

	mu     sync.Mutex
	once   *sync.Once
	loaded View
	err    error
}

// Eager builds a route whose view is available immediately.
func Eager(path, name string, v View) *Route {
	return &Route{Path: path, Name: name, view: &v}
}

// Lazy builds a route whose view is produced by load on first resolve.
func Lazy(path, name string, load Loader) *Route {
	return &Route{Path: path, Name: name, loader: load, once: new(sync.Once)}
}

// IsLazy reports whether the route loads its view on demand.
func (r *Route) IsLazy() bool { return r.loader != nil }

func (r *Route) resolve(ctx context.Context) (View, error) {
	if r.view != nil {
		return *r.view, nil
	}

	r.mu.Lock()
	once := r.once
	r.mu.Unlock()

	once.Do(func() {
		v, err := r.loader(ctx)
		r.mu.Lock()
		defer r.mu.Unlock()
		r.loaded, r.err = v, err
		if err != nil {
			// Failed loads are retried on the next resolve.
			r.once = new(sync.Once)
		}
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded, r.err
}

// Router resolves paths against a fixed table.
type Router struct {
	base   *url.URL
	routes map[string]*Route
	order  []string
}

// New builds a router for routes served under baseURL. An empty baseURL
// accepts bare paths only.
func New(baseURL string, routes ...*Route) (*Router, error) {
	r := &Router{routes: make(map[string]*Route, len(routes))}
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/"))
		if err != nil {
			return nil, err
		}
		r.base = u
	}
	for _, rt := range routes {
		if _, dup := r.routes[rt.Path]; dup {
			return nil, errors.New("router: duplicate route " + rt.Path)
		}
		r.routes[rt.Path] = rt
		r.order = append(r.order, rt.Path)
	}
	return r, nil
}

// Routes returns the table in declaration order.
func (r *Router) Routes() []*Route {
	out := make([]*Route, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.routes[p])
	}
	return out
}

// Resolve returns the view for target, which is either a path or an absolute
// URL under the base URL.
func (r *Router) Resolve(ctx context.Context, target string) (*Route, View, error) {
	path, err := r.path(target)
	if err != nil {
		return nil, View{}, err
	}
	rt, ok := r.routes[path]
	if !ok {
		return nil, View{}, ErrRouteNotFound
	}
	v, err := rt.resolve(ctx)
	if err != nil {
		return rt, View{}, err
	}
	return rt, v, nil
}

func (r *Router) path(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", ErrRouteNotFound
	}
	if u.IsAbs() {
		if r.base == nil || !strings.EqualFold(u.Scheme, r.base.Scheme) || !strings.EqualFold(u.Host, r.base.Host) {
			return "", ErrRouteNotFound
		}
		p := strings.TrimPrefix(u.Path, r.base.Path)
		if r.base.Path != "" && p == u.Path {
			return "", ErrRouteNotFound
		}
		u.Path = p
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p, nil
}
