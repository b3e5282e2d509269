package client

import (
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go/failsafehttp"
	"github.com/failsafe-go/failsafe-go/ratelimiter"
)

// defaultRequestsPerMinute caps outbound provider traffic when no limit is
// configured. Subtitle providers ban aggressive clients quickly.
const defaultRequestsPerMinute = 40

// newResilientTransport wraps base with the outbound provider policies: a
// smooth rate limiter spreading the per-minute budget evenly, and a bounded
// retry for transient failures. The limiter is built per client instance
// and injected into the transport rather than kept as process-wide state,
// so tests can construct clients with their own budgets and no time-based
// side effects leak between them.
//
// Policy order matters: retries sit outside the limiter, so every retry
// attempt must acquire its own permit.
func newResilientTransport(base http.RoundTripper, perMinute int, maxWait time.Duration) http.RoundTripper {
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}

	limiter := ratelimiter.NewSmoothBuilder[*http.Response](uint(perMinute), time.Minute).
		WithMaxWaitTime(maxWait).
		Build()

	retry := failsafehttp.NewRetryPolicyBuilder().
		WithBackoff(time.Second, 10*time.Second).
		WithMaxRetries(2).
		Build()

	return failsafehttp.NewRoundTripper(base, retry, limiter)
}
