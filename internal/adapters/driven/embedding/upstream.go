package embedding

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// maxMessageLen bounds the response body quoted in error messages.
const maxMessageLen = 512

// StatusError converts a non-2xx HTTP response into a domain.UpstreamError
// so the retry helper can classify it.
func StatusError(provider, op string, resp *http.Response, body []byte) *domain.UpstreamError {
	return &domain.UpstreamError{
		Provider:   provider,
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body),
		RetryAfter: domain.ParseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// errorMessage extracts {"error": {"message": ...}} or {"error": "..."}
// and falls back to the raw body.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen] + "..."
	}
	return msg
}

// ToFloat32 narrows a float64 vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
