package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrMissingDocumentID indicates a change event carried no extractable document identity.
	ErrMissingDocumentID = errors.New("document id not found in event")

	// ErrDocumentAbsent indicates the upstream document is gone and there is
	// no prior state to retract.
	ErrDocumentAbsent = errors.New("document absent upstream")

	// ErrEmbeddingCountMismatch indicates the embedding provider returned a
	// different number of vectors than texts requested. The run must abort
	// without writing vectors.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrVectorWrite indicates an upsert or delete against the vector index failed.
	ErrVectorWrite = errors.New("vector index write failed")

	// ErrStateWrite indicates the index state store could not be updated.
	ErrStateWrite = errors.New("index state write failed")

	// ErrDispatchInFlight indicates the same document is already being
	// indexed for an earlier event. The caller should redeliver later.
	ErrDispatchInFlight = errors.New("document dispatch in progress")

	// ErrInvalidSignature indicates a webhook signature did not verify.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrRateLimited indicates the upstream rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderClosed indicates the provider has been closed.
	ErrProviderClosed = errors.New("provider closed")
)

// UpstreamError is a failure reported by an external provider
// (content source, embedding API) with an HTTP-like status.
type UpstreamError struct {
	// Provider names the upstream system (notion, github, openai, ...).
	Provider string

	// Op is the operation that failed.
	Op string

	// StatusCode is the HTTP status, 0 when the failure was not an HTTP response.
	StatusCode int

	// Message is the upstream error message.
	Message string

	// RetryAfter is the server-suggested delay, zero when absent.
	RetryAfter time.Duration
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: status %d: %s", e.Provider, e.Op, e.StatusCode, e.Message)
}

// Is makes UpstreamError match ErrNotFound and ErrRateLimited.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// Transient reports whether retrying the operation may succeed.
func (e *UpstreamError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= http.StatusInternalServerError
}

// IsTransient reports whether err is a rate-limit or server-side failure
// worth retrying.
func IsTransient(err error) bool {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Transient()
	}
	return errors.Is(err, ErrRateLimited)
}

// IsGone reports whether err means the document no longer exists upstream
// or is no longer visible to us (not-found, gone, permission denied).
func IsGone(err error) bool {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		switch upErr.StatusCode {
		case http.StatusNotFound, http.StatusGone, http.StatusForbidden:
			return true
		}
		return false
	}
	return errors.Is(err, ErrNotFound)
}

// GoneReason returns the skip reason for an error satisfying IsGone.
func GoneReason(err error) string {
	var upErr *UpstreamError
	if errors.As(err, &upErr) && upErr.StatusCode == http.StatusForbidden {
		return ReasonPermissionDenied
	}
	return ReasonNotFound
}

// IsPermanent reports whether err will fail the same way on retry.
func IsPermanent(err error) bool {
	return err != nil && !IsTransient(err)
}

// ParseRetryAfter parses a Retry-After header given in seconds or as an
// HTTP date. Unparseable or past values yield zero.
func ParseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
