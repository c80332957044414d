// Package router matches a request method and path against a fixed table of
// routes. Patterns are split on "/"; a segment beginning with ':' binds the
// corresponding path segment by name, every other segment must match exactly.
//
// A parameter never binds an empty segment, so "/todos/" does not match
// "/todos/:id".
//
// Routes are tried in registration order and the first structural match wins,
// so when two patterns overlap the one registered first takes precedence.
package router

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Request is what a handler sees of an inbound HTTP request. BodyErr is set
// when the body could not be read or decoded; handlers that ignore the body
// ignore it too.
type Request struct {
	Context context.Context
	Params  Params
	Body    []byte
	BodyErr error
}

// Response is the outcome of a handler. Body may be nil for bodiless statuses.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
}

// Handler produces a Response for a matched Request.
type Handler func(Request) Response

// Route describes a registered entry.
type Route struct {
	Method  string
	Pattern string
}

type entry struct {
	route    Route
	segments []segment
	handler  Handler
}

type segment struct {
	value string
	param bool
}

// Match is the result of a successful Resolve.
type Match struct {
	Route   Route
	Handler Handler
	Params  Params
}

// Router holds the route table. Register everything before serving; the table
// is read without locking afterwards.
type Router struct {
	entries []entry
}

// New returns an empty Router.
func New() *Router {
	return &Router{}
}

// Register adds a route. It panics on malformed patterns since those are
// programming errors found at startup.
func (r *Router) Register(method, pattern string, h Handler) {
	if method == "" {
		panic("router: empty method")
	}
	if h == nil {
		panic("router: nil handler for " + method + " " + pattern)
	}
	if !strings.HasPrefix(pattern, "/") {
		panic(fmt.Sprintf("router: pattern %q must start with /", pattern))
	}

	parts := split(pattern)
	segs := make([]segment, len(parts))
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			if len(p) == 1 {
				panic(fmt.Sprintf("router: empty parameter name in %q", pattern))
			}
			segs[i] = segment{value: p[1:], param: true}
			continue
		}
		segs[i] = segment{value: p}
	}

	r.entries = append(r.entries, entry{
		route:    Route{Method: method, Pattern: pattern},
		segments: segs,
		handler:  h,
	})
}

// Resolve finds the first route matching method and path. path must be the
// escaped form (url.URL.EscapedPath) so an encoded "/" stays inside its
// segment; bound parameter values are unescaped.
func (r *Router) Resolve(method, path string) (Match, bool) {
	parts := split(path)
	for i := range r.entries {
		e := &r.entries[i]
		if e.route.Method != method || len(e.segments) != len(parts) {
			continue
		}
		if params, ok := e.match(parts); ok {
			return Match{Route: e.route, Handler: e.handler, Params: params}, true
		}
	}
	return Match{}, false
}

// Routes lists the registered routes in registration order.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.route
	}
	return out
}

func (e *entry) match(parts []string) (Params, bool) {
	var params Params
	for i, s := range e.segments {
		if !s.param {
			if s.value != parts[i] {
				return nil, false
			}
			continue
		}
		if parts[i] == "" {
			return nil, false
		}
		v, err := url.PathUnescape(parts[i])
		if err != nil {
			return nil, false
		}
		if params == nil {
			params = make(Params, 1)
		}
		params[s.value] = v
	}
	return params, true
}

// split drops the leading slash only, so "/todos/" yields two segments and
// never matches "/todos".
func split(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}
