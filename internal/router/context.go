package router

import (
	"net/http"
	"net/url"
)

// BodyKind discriminates the parsed request body union. The kind is decided
// once, at parse time, so downstream code switches on it instead of probing
// types at runtime.
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyJSON
	BodyForm
	BodyText
)

// Body is the parsed request body. Exactly one of JSON, Form and Text is
// populated, according to Kind; a zero-byte body is BodyEmpty regardless of
// the declared content type.
type Body struct {
	Kind BodyKind
	JSON any
	Form map[string]string
	Text string
}

// Context carries one request through the middleware chain and into its
// handler. It is created per request and never shared between requests; it
// must not be retained past the request's lifetime.
type Context struct {
	Request *http.Request
	Writer  http.ResponseWriter

	// Path is the resolved request path the route was matched against.
	Path string

	// Params holds the captures extracted by the matched route's pattern.
	// Its keys are exactly the pattern's parameter names.
	Params Params

	// Query holds the request's query parameters; on duplicate keys the
	// last value wins.
	Query map[string]string

	// Body is the parsed request body, populated by the pipeline before
	// the router runs.
	Body Body

	// RouteTemplate is the template of the matched route, set by Handle.
	RouteTemplate string

	state map[string]any
}

// NewContext builds a request context from an inbound request/response pair.
// Params and Body are populated later, by the router and the pipeline.
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	query := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[len(values)-1]
		}
	}

	return &Context{
		Request: r,
		Writer:  w,
		Path:    r.URL.Path,
		Query:   query,
	}
}

// Param returns the value captured for a named template segment.
func (c *Context) Param(name string) string { return c.Params[name] }

// QueryParam returns the value of a query parameter, or "" when absent.
func (c *Context) QueryParam(name string) string { return c.Query[name] }

// Header returns a request header value.
func (c *Context) Header(name string) string { return c.Request.Header.Get(name) }

// SetHeader sets a header on the outgoing response.
func (c *Context) SetHeader(key, value string) { c.Writer.Header().Set(key, value) }

// Set stores a value in the per-request state map, visible to later
// middlewares and the handler.
func (c *Context) Set(key string, value any) {
	if c.state == nil {
		c.state = make(map[string]any)
	}
	c.state[key] = value
}

// Get reads a value from the per-request state map.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.state[key]
	return v, ok
}

// Raw exposes the underlying response writer for direct manipulation. A
// handler that writes through it should return a nil-body Response so the
// pipeline does not write a second payload.
func (c *Context) Raw() http.ResponseWriter { return c.Writer }

// Status binds a status code to the response helpers, so that
// c.Status(http.StatusCreated).JSON(v) produces a 201.
func (c *Context) Status(code int) *ResponseBuilder {
	return &ResponseBuilder{status: code}
}

// Text responds 200 with a plain-text body.
func (c *Context) Text(body string) *Response {
	return c.Status(http.StatusOK).Text(body)
}

// JSON responds 200 with a JSON-encoded body.
func (c *Context) JSON(body any) *Response {
	return c.Status(http.StatusOK).JSON(body)
}

// HTML responds 200 with an HTML body.
func (c *Context) HTML(body string) *Response {
	return c.Status(http.StatusOK).HTML(body)
}

// Form responds 200 with a form-encoded body.
func (c *Context) Form(values map[string]string) *Response {
	return c.Status(http.StatusOK).Form(values)
}

// Binary responds 200 with pre-encoded bytes written verbatim.
func (c *Context) Binary(data []byte) *Response {
	return c.Status(http.StatusOK).Binary(data)
}

// Redirect responds 302 with a Location header.
func (c *Context) Redirect(location string) *Response {
	return c.Status(http.StatusFound).Redirect(location)
}

// ResponseBuilder is the helper set returned by Status. Each helper applies
// the bound status code and the conventional content type.
type ResponseBuilder struct {
	status int
}

func (b *ResponseBuilder) Text(body string) *Response {
	return &Response{
		Status:  b.status,
		Body:    body,
		Headers: map[string]string{"Content-Type": "text/plain; charset=utf-8"},
	}
}

func (b *ResponseBuilder) JSON(body any) *Response {
	return &Response{
		Status:  b.status,
		Body:    body,
		Headers: map[string]string{"Content-Type": "application/json"},
	}
}

func (b *ResponseBuilder) HTML(body string) *Response {
	return &Response{
		Status:  b.status,
		Body:    body,
		Headers: map[string]string{"Content-Type": "text/html; charset=utf-8"},
	}
}

func (b *ResponseBuilder) Form(values map[string]string) *Response {
	encoded := url.Values{}
	for k, v := range values {
		encoded.Set(k, v)
	}
	return &Response{
		Status:  b.status,
		Body:    encoded.Encode(),
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
	}
}

func (b *ResponseBuilder) Binary(data []byte) *Response {
	return &Response{
		Status:  b.status,
		Body:    data,
		Headers: map[string]string{"Content-Type": "application/octet-stream"},
		Raw:     true,
	}
}

func (b *ResponseBuilder) Redirect(location string) *Response {
	status := b.status
	if status < 300 || status > 399 {
		status = http.StatusFound
	}
	return &Response{
		Status:  status,
		Headers: map[string]string{"Location": location},
	}
}
