package actionscache

import (
	"net/http"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("with token and endpoint", func(t *testing.T) {
		t.Parallel()

		cache, err := New(
			WithToken("test-token"),
			WithEndpoint("https://cache.example.com"),
			WithUserAgent("actionscache/test"),
		)

		require.NoError(t, err)
		assert.NotNil(t, cache)
		assert.Equal(t, "https://cache.example.com/_apis/artifactcache", cache.Endpoint())
		assert.Equal(t, "actionscache/test", cache.UserAgent())
	})

	t.Run("trims trailing slash from endpoint", func(t *testing.T) {
		t.Parallel()

		cache, err := New(
			WithToken("test-token"),
			WithEndpoint("https://cache.example.com/"),
		)

		require.NoError(t, err)
		assert.Equal(t, "https://cache.example.com/_apis/artifactcache", cache.Endpoint())
	})

	t.Run("missing token fails construction", func(t *testing.T) {
		t.Parallel()

		_, err := New(WithEndpoint("https://cache.example.com"))

		require.Error(t, err)

		var platformErr errors.PlatformError
		require.True(t, errors.As(err, &platformErr))
		assert.Equal(t, errors.CodeInvalidConfig, platformErr.Code())
		assert.Equal(t, "token", platformErr.Context()["field"])
	})

	t.Run("missing endpoint fails construction", func(t *testing.T) {
		t.Parallel()

		_, err := New(WithToken("test-token"))

		require.Error(t, err)

		var platformErr errors.PlatformError
		require.True(t, errors.As(err, &platformErr))
		assert.Equal(t, errors.CodeInvalidConfig, platformErr.Code())
		assert.Equal(t, "endpoint", platformErr.Context()["field"])
	})

	tests := []struct {
		name     string
		opts     []Option
		wantCode errors.ErrorCode
	}{
		{
			name:     "empty token returns error",
			opts:     []Option{WithToken("")},
			wantCode: errors.CodeInvalidInput,
		},
		{
			name:     "empty endpoint returns error",
			opts:     []Option{WithEndpoint("")},
			wantCode: errors.CodeInvalidInput,
		},
		{
			name:     "relative endpoint returns error",
			opts:     []Option{WithEndpoint("cache.example.com/path")},
			wantCode: errors.CodeInvalidInput,
		},
		{
			name:     "empty user agent returns error",
			opts:     []Option{WithUserAgent("")},
			wantCode: errors.CodeInvalidInput,
		},
		{
			name:     "nil http client returns error",
			opts:     []Option{WithHTTPClient(nil)},
			wantCode: errors.CodeInvalidInput,
		},
		{
			name:     "nil logger returns error",
			opts:     []Option{WithLogger(nil)},
			wantCode: errors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.opts...)

			require.Error(t, err)

			var platformErr errors.PlatformError
			require.True(t, errors.As(err, &platformErr))
			assert.Equal(t, tt.wantCode, platformErr.Code())
		})
	}

	t.Run("custom http client and logger are accepted", func(t *testing.T) {
		t.Parallel()

		log := logrus.New()
		client := &http.Client{}

		cache, err := New(
			WithToken("test-token"),
			WithEndpoint("https://cache.example.com"),
			WithHTTPClient(client),
			WithLogger(log),
		)

		require.NoError(t, err)
		assert.Same(t, client, cache.client)
	})
}
