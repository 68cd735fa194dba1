package actionscache

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// response builds a minimal completed response for classification tests.
func response(statusCode int, headers map[string]string) *http.Response {
	header := http.Header{}
	for k, v := range headers {
		header.Set(k, v)
	}
	return &http.Response{
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Header:     header,
	}
}

func TestCheckResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resp     *http.Response
		wantCode errors.ErrorCode
		wantWait int // seconds, rate-limit cases only
	}{
		{
			name: "200 passes through",
			resp: response(http.StatusOK, nil),
		},
		{
			name: "201 passes through",
			resp: response(http.StatusCreated, nil),
		},
		{
			name: "204 passes through",
			resp: response(http.StatusNoContent, nil),
		},
		{
			name:     "429 with retry-after is rate limited",
			resp:     response(http.StatusTooManyRequests, map[string]string{"Retry-After": "7"}),
			wantCode: errors.CodeRateLimit,
			wantWait: 7,
		},
		{
			name:     "503 with retry-after is rate limited",
			resp:     response(http.StatusServiceUnavailable, map[string]string{"Retry-After": "30"}),
			wantCode: errors.CodeRateLimit,
			wantWait: 30,
		},
		{
			name:     "zero retry-after is rate limited",
			resp:     response(http.StatusTooManyRequests, map[string]string{"Retry-After": "0"}),
			wantCode: errors.CodeRateLimit,
			wantWait: 0,
		},
		{
			name:     "429 without retry-after is a transport error",
			resp:     response(http.StatusTooManyRequests, nil),
			wantCode: errors.CodeNetwork,
		},
		{
			name:     "unparseable retry-after is a transport error",
			resp:     response(http.StatusServiceUnavailable, map[string]string{"Retry-After": "soon"}),
			wantCode: errors.CodeNetwork,
		},
		{
			name:     "negative retry-after is a transport error",
			resp:     response(http.StatusTooManyRequests, map[string]string{"Retry-After": "-1"}),
			wantCode: errors.CodeNetwork,
		},
		{
			name:     "404 is a transport error",
			resp:     response(http.StatusNotFound, nil),
			wantCode: errors.CodeNetwork,
		},
		{
			name:     "500 is a transport error",
			resp:     response(http.StatusInternalServerError, nil),
			wantCode: errors.CodeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := checkResponse(tt.resp)

			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)

			var platformErr errors.PlatformError
			require.True(t, errors.As(err, &platformErr))
			assert.Equal(t, tt.wantCode, platformErr.Code())

			if tt.wantCode == errors.CodeRateLimit {
				wait, ok := RetryAfter(err)
				require.True(t, ok)
				assert.Equal(t, time.Duration(tt.wantWait)*time.Second, wait)
			}
		})
	}
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()

		_, ok := RetryAfter(nil)
		assert.False(t, ok)
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()

		err := checkResponse(response(http.StatusBadGateway, nil))

		_, ok := RetryAfter(err)
		assert.False(t, ok)
	})

	t.Run("foreign error", func(t *testing.T) {
		t.Parallel()

		_, ok := RetryAfter(fmt.Errorf("something else"))
		assert.False(t, ok)
	})

	t.Run("survives wrapping", func(t *testing.T) {
		t.Parallel()

		err := checkResponse(response(http.StatusTooManyRequests, map[string]string{"Retry-After": "12"}))
		wrapped := fmt.Errorf("storing entry: %w", err)

		wait, ok := RetryAfter(wrapped)
		require.True(t, ok)
		assert.Equal(t, 12*time.Second, wait)
	})
}

func TestIsRateLimited(t *testing.T) {
	t.Parallel()

	limited := checkResponse(response(http.StatusTooManyRequests, map[string]string{"Retry-After": "1"}))
	assert.True(t, IsRateLimited(limited))

	plain := checkResponse(response(http.StatusInternalServerError, nil))
	assert.False(t, IsRateLimited(plain))

	assert.False(t, IsRateLimited(nil))
}

func TestRateLimitErrorsAreRetryable(t *testing.T) {
	t.Parallel()

	err := checkResponse(response(http.StatusTooManyRequests, map[string]string{"Retry-After": "5"}))
	assert.True(t, errors.IsRetryable(err))
}
