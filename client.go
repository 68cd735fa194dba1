package actionscache

import (
	"io"
	"net/http"
	"strings"

	"github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
)

// apiPath is appended to the configured endpoint; all cache operations are
// served below it.
const apiPath = "/_apis/artifactcache"

// Cache is a client for the Actions artifact cache API.
//
// A Cache is immutable after construction: the token, endpoint, and user
// agent are fixed, and the only shared mutable state is the HTTP client's
// connection pool. Reusing a single instance across many operations,
// including concurrent ones, is safe and avoids repeated connection setup.
//
// Example usage:
//
//	cache, err := actionscache.New(
//	    actionscache.WithToken(token),
//	    actionscache.WithEndpoint(endpoint),
//	    actionscache.WithUserAgent("myorg/mytool"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	hit, data, err := cache.GetBytes(ctx, keySpace, []string{"deps-"})
type Cache struct {
	client    *http.Client
	token     string
	endpoint  string // normalized: no trailing slash, apiPath appended
	userAgent string
	log       logrus.FieldLogger
}

// New creates a new client instance.
//
// WithToken and WithEndpoint are required; omitting either fails with
// errors.CodeInvalidConfig and a distinct message naming the missing value.
// The endpoint is normalized once here: a trailing slash is trimmed and the
// API path appended, so "https://cache.example.com/" and
// "https://cache.example.com" configure the same client.
func New(opts ...Option) (*Cache, error) {
	cfg := &config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.token == "" {
		err := errors.New(errors.CodeInvalidConfig, "a runtime token is required")
		return nil, errors.WithContext(err, "field", "token")
	}
	if cfg.endpoint == "" {
		err := errors.New(errors.CodeInvalidConfig, "an endpoint URL is required")
		return nil, errors.WithContext(err, "field", "endpoint")
	}

	if cfg.client == nil {
		cfg.client = &http.Client{}
	}
	if cfg.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		cfg.log = discard
	}

	return &Cache{
		client:    cfg.client,
		token:     cfg.token,
		endpoint:  strings.TrimRight(cfg.endpoint, "/") + apiPath,
		userAgent: cfg.userAgent,
		log:       cfg.log,
	}, nil
}

// Endpoint returns the normalized base URL requests are issued against,
// including the API path.
func (c *Cache) Endpoint() string {
	return c.endpoint
}

// UserAgent returns the configured user agent, or an empty string if none
// was set.
func (c *Cache) UserAgent() string {
	return c.userAgent
}
