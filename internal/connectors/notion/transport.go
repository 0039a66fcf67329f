package notion

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// transport throttles requests and turns error responses into
// domain.UpstreamError before the notionapi client sees them.
type transport struct {
	base     http.RoundTripper
	limiter  *rate.Limiter
	endpoint *url.URL
}

func newTransport(base http.RoundTripper, rps float64, endpoint *url.URL) *transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &transport{
		base:     base,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		endpoint: endpoint,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	if t.endpoint != nil {
		req = req.Clone(req.Context())
		req.URL.Scheme = t.endpoint.Scheme
		req.URL.Host = t.endpoint.Host
		req.Host = t.endpoint.Host
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &domain.UpstreamError{
		Provider:   providerName,
		Op:         req.Method + " " + req.URL.Path,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body),
		RetryAfter: domain.ParseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// errorMessage extracts {"code": ..., "message": ...} from a Notion error.
func errorMessage(body []byte) string {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		if e.Code != "" {
			return e.Code + ": " + e.Message
		}
		return e.Message
	}
	return string(body)
}
