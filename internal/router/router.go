package router

import (
	"net/http"
	"strings"
)

// Handler is the terminal function of a route.
type Handler func(*Context) (*Response, error)

// Next invokes the remainder of the middleware chain and returns its result.
type Next func() (*Response, error)

// Middleware wraps the rest of the chain. It may short-circuit by returning
// without calling next, and must not call next more than once.
type Middleware func(*Context, Next) (*Response, error)

// Route is one (method, template, handler, middlewares) registration. Routes
// are immutable once registered.
type Route struct {
	Method      string
	Template    string
	Handler     Handler
	Middlewares []Middleware

	pattern *Pattern
}

// Router owns the route table and the global middleware list. Registration
// is not safe for concurrent use with matching; register everything before
// serving, the way an application wires its routes at startup.
type Router struct {
	routes   []*Route
	global   []Middleware
	patterns map[string]*Pattern
}

// anyMethods are the methods Any registers under.
var anyMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
	http.MethodOptions,
}

func New() *Router {
	return &Router{patterns: make(map[string]*Pattern)}
}

// Use appends a middleware to the global list. Global middlewares run in
// registration order, before any route-specific middleware, for every route.
func (r *Router) Use(mw Middleware) {
	r.global = append(r.global, mw)
}

// Register appends a route. Duplicate (method, template) registrations are
// permitted; Match resolves them by registration order.
func (r *Router) Register(method, template string, h Handler, mw ...Middleware) {
	r.routes = append(r.routes, &Route{
		Method:      strings.ToUpper(method),
		Template:    template,
		Handler:     h,
		Middlewares: mw,
		pattern:     r.pattern(template),
	})
}

// pattern returns the compiled pattern for a template, compiling it on first
// use. Routes sharing a template share one pattern.
func (r *Router) pattern(template string) *Pattern {
	if p, ok := r.patterns[template]; ok {
		return p
	}
	p := Compile(template)
	r.patterns[template] = p
	return p
}

func (r *Router) GET(path string, h Handler, mw ...Middleware) {
	r.Register(http.MethodGet, path, h, mw...)
}

func (r *Router) POST(path string, h Handler, mw ...Middleware) {
	r.Register(http.MethodPost, path, h, mw...)
}

func (r *Router) PUT(path string, h Handler, mw ...Middleware) {
	r.Register(http.MethodPut, path, h, mw...)
}

func (r *Router) DELETE(path string, h Handler, mw ...Middleware) {
	r.Register(http.MethodDelete, path, h, mw...)
}

func (r *Router) PATCH(path string, h Handler, mw ...Middleware) {
	r.Register(http.MethodPatch, path, h, mw...)
}

func (r *Router) OPTIONS(path string, h Handler, mw ...Middleware) {
	r.Register(http.MethodOptions, path, h, mw...)
}

// Any registers the same handler and middleware list under the six standard
// methods. All six registrations share one compiled pattern and one
// middleware slice.
func (r *Router) Any(path string, h Handler, mw ...Middleware) {
	for _, method := range anyMethods {
		r.Register(method, path, h, mw...)
	}
}

// Match resolves a (method, path) pair to a route and its extracted
// parameters. The scan is linear in registration order and returns the
// first route whose method and pattern both match: an earlier, more general
// template shadows a later, more specific one. This registration-order
// precedence is deliberate and relied upon by callers.
func (r *Router) Match(method, path string) (*Route, Params, bool) {
	method = strings.ToUpper(method)
	for _, route := range r.routes {
		if route.Method != method {
			continue
		}
		if params, ok := route.pattern.Match(path); ok {
			return route, params, true
		}
	}
	return nil, nil, false
}

// Handle matches the context's request and drives the middleware chain
// around the matched handler. The chain is [global..., route...] walked by
// an index closure: each middleware receives a next that runs the remainder
// of the chain, a middleware that never calls next short-circuits, and the
// terminal handler runs once the chain is exhausted. Returns ok=false when
// no route matched; errors and panics propagate to the caller untouched.
func (r *Router) Handle(c *Context) (*Response, bool, error) {
	route, params, ok := r.Match(c.Request.Method, c.Path)
	if !ok {
		return nil, false, nil
	}

	c.Params = params
	c.RouteTemplate = route.Template

	chain := make([]Middleware, 0, len(r.global)+len(route.Middlewares))
	chain = append(chain, r.global...)
	chain = append(chain, route.Middlewares...)

	index := 0
	var next Next
	next = func() (*Response, error) {
		if index < len(chain) {
			mw := chain[index]
			index++
			return mw(c, next)
		}
		return route.Handler(c)
	}

	resp, err := next()
	return resp, true, err
}
