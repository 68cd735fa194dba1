package actionscache

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jmgilman/go/errors"
)

// Cache-specific error codes (use existing codes from errors library).
// These are convenience aliases for readability in cache context.
const (
	// ErrCodeConfiguration indicates a required credential or endpoint was
	// absent at construction.
	ErrCodeConfiguration = errors.CodeInvalidConfig

	// ErrCodeRateLimited indicates the service returned an error status
	// with a Retry-After hint. Use RetryAfter to read the requested wait.
	ErrCodeRateLimited = errors.CodeRateLimit

	// ErrCodeTransport indicates any other non-success HTTP outcome or a
	// network-level failure.
	ErrCodeTransport = errors.CodeNetwork

	// ErrCodeInvalidInput indicates invalid parameters.
	ErrCodeInvalidInput = errors.CodeInvalidInput
)

// retryAfterKey is the error context key holding the Retry-After value in
// seconds.
const retryAfterKey = "retry_after"

// checkResponse classifies a completed response and turns non-success
// statuses into typed errors. It must run before any attempt to decode a
// body: error bodies are not guaranteed to match the success schema.
//
// Any client or server error carrying a Retry-After header that parses as
// a non-negative integer of seconds is reported as rate limiting,
// regardless of which operation produced it. This check runs ahead of the
// generic status mapping so callers always receive the wait hint; earlier
// revisions of the upstream protocol client skipped it and left callers
// unable to distinguish throttling from real failures.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if secs, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			err := errors.Newf(errors.CodeRateLimit,
				"server rate limited the request, asking to wait %d seconds", secs)
			return errors.WithContext(err, retryAfterKey, secs)
		}
	}

	err := errors.Newf(errors.CodeNetwork, "server returned %s", resp.Status)
	return errors.WithContext(err, "status_code", resp.StatusCode)
}

// parseRetryAfter parses a Retry-After header value as whole seconds.
// The HTTP-date form is not used by the cache service and is ignored.
func parseRetryAfter(value string) (int, bool) {
	if value == "" {
		return 0, false
	}

	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return 0, false
	}

	return secs, true
}

// RetryAfter returns the wait requested by a rate-limited response.
//
// The second return value is false when the error is nil, not produced by
// this library, or not a rate-limit error; in that case the caller should
// treat the failure according to its code instead of waiting.
//
// Example:
//
//	if wait, ok := actionscache.RetryAfter(err); ok {
//	    time.Sleep(wait)
//	    // retry the operation
//	}
func RetryAfter(err error) (time.Duration, bool) {
	var platformErr errors.PlatformError
	if !errors.As(err, &platformErr) || platformErr.Code() != errors.CodeRateLimit {
		return 0, false
	}

	ctx := platformErr.Context()
	if ctx == nil {
		return 0, false
	}

	secs, ok := ctx[retryAfterKey].(int)
	if !ok {
		return 0, false
	}

	return time.Duration(secs) * time.Second, true
}

// IsRateLimited returns true if the error represents a rate-limited
// request.
func IsRateLimited(err error) bool {
	return errors.GetCode(err) == errors.CodeRateLimit
}
