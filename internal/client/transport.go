package client

import (
	"net/http"

	"golang.org/x/time/rate"

	"assetflow/internal/domain"
)

// RequestIDHeader carries a per-request identifier for server-side correlation.
const RequestIDHeader = "X-Request-ID"

// Transport throttles outbound requests with a token bucket and stamps each
// request with a request id.
type Transport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// NewTransport creates a Transport allowing rps sustained requests per second
// with the given burst. rps <= 0 disables throttling.
func NewTransport(base http.RoundTripper, rps float64, burst int) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	t := &Transport{Base: base}
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		t.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			// RoundTrippers must close the body even on error.
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, err
		}
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, domain.NewID())
	}
	return t.Base.RoundTrip(req)
}
