package gemini

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(context.Background(), Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)
	defer svc.Close()

	out, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUpstreamError(t *testing.T) {
	t.Run("rate limited is transient", func(t *testing.T) {
		err := upstreamError("embed", &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota"})

		var upErr *domain.UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, "gemini", upErr.Provider)
		assert.Equal(t, "quota", upErr.Message)
		assert.True(t, domain.IsTransient(err))
		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})

	t.Run("bad request is permanent", func(t *testing.T) {
		err := upstreamError("embed", &googleapi.Error{Code: http.StatusBadRequest, Body: "bad"})
		assert.True(t, domain.IsPermanent(err))
		assert.Contains(t, err.Error(), "bad")
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		err := upstreamError("embed", context.DeadlineExceeded)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestEmbedBatch_Live(t *testing.T) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: key})
	require.NoError(t, err)
	defer svc.Close()

	vecs, err := svc.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], svc.Dimensions())
}
