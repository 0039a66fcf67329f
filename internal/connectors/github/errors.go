package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

const providerName = "github"

// GitHub-specific errors.
var (
	// ErrInvalidDocumentID indicates a document ID not in owner/repo@branch:path form.
	ErrInvalidDocumentID = errors.New("github: invalid document id")

	// ErrInvalidRepo indicates a repository reference not in owner/repo form.
	ErrInvalidRepo = errors.New("github: invalid repository")

	// ErrNotAFile indicates the path resolved to a directory.
	ErrNotAFile = errors.New("github: path is not a file")
)

// wrapError converts go-github errors into domain.UpstreamError so the retry
// helper and the crawler can classify them.
func wrapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &domain.UpstreamError{
			Provider:   providerName,
			Op:         op,
			StatusCode: http.StatusTooManyRequests,
			Message:    rateErr.Message,
			RetryAfter: time.Until(rateErr.Rate.Reset.Time),
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &domain.UpstreamError{
			Provider:   providerName,
			Op:         op,
			StatusCode: http.StatusTooManyRequests,
			Message:    abuseErr.Message,
			RetryAfter: abuseErr.GetRetryAfter(),
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &domain.UpstreamError{
			Provider:   providerName,
			Op:         op,
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
	}

	return fmt.Errorf("github: %s: %w", op, err)
}
