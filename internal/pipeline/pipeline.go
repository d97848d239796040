// Package pipeline orchestrates one request end to end: header injection,
// bounded body parsing, router dispatch, error mapping and response
// serialization. It is the engine's sole recovery boundary; nothing below it
// swallows faults.
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/minigate/minigate/internal/config"
	"github.com/minigate/minigate/internal/metrics"
	"github.com/minigate/minigate/internal/ratelimit"
	"github.com/minigate/minigate/internal/router"
)

const genericFaultMessage = "An unexpected error occurred"

type Pipeline struct {
	router  *router.Router
	cfg     *config.Config
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
	secure  bool
}

// New binds a router to the pipeline. When rate limiting is enabled the
// admission middleware is installed globally here, so it runs before any
// route middleware on every route. m may be nil when metrics are disabled.
func New(r *router.Router, cfg *config.Config, m *metrics.Metrics) *Pipeline {
	p := &Pipeline{
		router:  r,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default(),
		secure:  cfg.Server.TLS(),
	}

	if cfg.RateLimit.Enabled {
		p.limiter = ratelimit.New(cfg.RateLimit.RequestsPerMinute, time.Minute)
		r.Use(RateLimit(p.limiter, m))
	}

	return p
}

// Stop releases the pipeline's background resources.
func (p *Pipeline) Stop() {
	if p.limiter != nil {
		p.limiter.Stop()
	}
}

func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if p.metrics != nil {
		done := p.metrics.TrackInFlight()
		defer done()
	}

	header := w.Header()
	p.applyCORS(header, r.Header.Get("Origin"))
	p.applySecurityHeaders(header)

	// Preflight is answered here, before the router is consulted: the
	// headers above already satisfy the CORS contract. Routes registered
	// for OPTIONS are only reachable by dispatching through the router
	// directly.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		p.observe(r, "", http.StatusNoContent, start)
		return
	}

	c := router.NewContext(w, r)
	resp := p.process(c)
	p.write(w, resp)
	p.observe(r, c.RouteTemplate, resp.Status, start)
}

// process runs body parsing and router dispatch, mapping every fault onto
// the error taxonomy. It always returns a response to serialize.
func (p *Pipeline) process(c *router.Context) *router.Response {
	body, err := parseBody(c.Request)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "Bad Request", err.Error())
	}
	c.Body = body

	resp, ok, err := p.dispatch(c)
	if err != nil {
		p.logger.Error("unhandled fault in request chain",
			"method", c.Request.Method, "path", c.Path, "error", err)
		msg := genericFaultMessage
		if p.cfg.Debug {
			msg = err.Error()
		}
		return errorResponse(http.StatusInternalServerError, "Internal Server Error", msg)
	}
	if !ok {
		return errorResponse(http.StatusNotFound, "Not Found",
			fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Path))
	}
	if resp == nil {
		// Handler wrote through the raw writer, or returned nothing.
		return &router.Response{Status: http.StatusOK}
	}
	return resp
}

// dispatch invokes the router, converting a panic anywhere in the chain into
// an error. This is the only recovery point in the engine.
func (p *Pipeline) dispatch(c *router.Context) (resp *router.Response, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = true
			if e, isErr := rec.(error); isErr {
				err = e
			} else {
				err = fmt.Errorf("%v", rec)
			}
		}
	}()
	return p.router.Handle(c)
}

// applyCORS negotiates the allow-origin header. An absent Origin, an empty
// allow-list or a wildcard entry all open the response to any origin; a
// listed origin is echoed back with Vary: Origin; anything else gets no
// allow-origin header at all and the browser enforces the block.
func (p *Pipeline) applyCORS(h http.Header, origin string) {
	allowed := p.cfg.AllowedDomains

	switch {
	case origin == "" || len(allowed) == 0 || contains(allowed, "*"):
		h.Set("Access-Control-Allow-Origin", "*")
	case contains(allowed, origin):
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Vary", "Origin")
	}

	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
	h.Set("Access-Control-Max-Age", "86400")
}

func (p *Pipeline) applySecurityHeaders(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	h.Set("X-XSS-Protection", "1; mode=block")
	if p.secure {
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}

// write serializes the final response: headers first, then the body by
// shape. Raw bodies go out verbatim, nil bodies end with the status line,
// strings are written as-is and everything else is JSON-encoded.
func (p *Pipeline) write(w http.ResponseWriter, resp *router.Response) {
	header := w.Header()
	for key, value := range resp.Headers {
		header.Set(key, value)
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	if resp.Raw {
		w.WriteHeader(status)
		if data, ok := resp.Body.([]byte); ok {
			_, _ = w.Write(data)
		}
		return
	}

	switch body := resp.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			p.logger.Error("failed to encode response body", "error", err)
			header.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Internal Server Error","message":"` + genericFaultMessage + `"}`))
			return
		}
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = w.Write(data)
	}
}

// observe records metrics and the per-request debug log line.
func (p *Pipeline) observe(r *http.Request, route string, status int, start time.Time) {
	duration := time.Since(start)
	if route == "" {
		route = "none"
	}
	if p.metrics != nil {
		p.metrics.RecordRequest(r.Method, route, status, duration)
	}
	p.logger.Debug("request completed",
		"method", r.Method, "path", r.URL.Path, "status", status, "duration", duration)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func errorResponse(status int, label, message string) *router.Response {
	return &router.Response{
		Status:  status,
		Body:    errorBody{Error: label, Message: message},
		Headers: map[string]string{"Content-Type": "application/json"},
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
