package e621

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different service root. Useful for
// staging mirrors and tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient supplies an external HTTP client. The caller keeps ownership:
// Close will not release it.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
		c.ownsTransport = false
	}
}

// WithTimeout sets the owned HTTP client's timeout. Ignored when the caller
// supplied its own client via WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.ownsTransport {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit overrides the outbound throttle. The default is two requests
// per rolling second, which matches the service's published allowance.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}
