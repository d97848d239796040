package pipeline

import (
	"net"
	"net/http"
	"strconv"

	"github.com/minigate/minigate/internal/metrics"
	"github.com/minigate/minigate/internal/ratelimit"
	"github.com/minigate/minigate/internal/router"
)

// unknownClientKey is the sentinel all requests without a resolvable remote
// address collapse to.
const unknownClientKey = "unknown"

// RateLimit is the admission-control middleware. It consults the limiter
// under the client's key, stamps the X-RateLimit-* headers on every request,
// and short-circuits with a 429 when the key is over quota. m may be nil.
func RateLimit(l *ratelimit.Limiter, m *metrics.Metrics) router.Middleware {
	return func(c *router.Context, next router.Next) (*router.Response, error) {
		key := clientKey(c.Request)
		allowed := l.Allow(key)

		c.SetHeader("X-RateLimit-Limit", strconv.Itoa(l.Limit()))
		c.SetHeader("X-RateLimit-Remaining", strconv.Itoa(l.Remaining(key)))
		c.SetHeader("X-RateLimit-Reset", strconv.FormatInt(l.ResetTime(key), 10))

		if !allowed {
			if m != nil {
				m.RecordRateLimitRejection()
			}
			return errorResponse(http.StatusTooManyRequests, "Too Many Requests",
				"Rate limit exceeded, try again later"), nil
		}

		return next()
	}
}

// clientKey derives the rate-limit key from the connection's remote address.
// The engine is origin-facing, so forwarding headers are not consulted.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return unknownClientKey
	}
	return host
}
