package embedding

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		header    string
		message   string
		retry     time.Duration
		transient bool
	}{
		{"openai style", 429, `{"error":{"message":"slow down","type":"rate_limit"}}`, "3", "slow down", 3 * time.Second, true},
		{"ollama style", 404, `{"error":"model not found"}`, "", "model not found", 0, false},
		{"plain body", 502, "bad gateway", "", "bad gateway", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			err := StatusError("openai", "embed", resp, []byte(tt.body))
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.retry, err.RetryAfter)
			assert.Equal(t, tt.transient, domain.IsTransient(err))
		})
	}
}

func TestToFloat32(t *testing.T) {
	assert.Equal(t, []float32{0.5, -1}, ToFloat32([]float64{0.5, -1}))
}
