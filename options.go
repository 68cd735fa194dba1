package actionscache

import (
	"net/http"
	"net/url"

	"github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
)

// config holds configuration collected from options before validation.
type config struct {
	token     string
	endpoint  string
	userAgent string
	client    *http.Client
	log       logrus.FieldLogger
}

// Option configures the client.
type Option func(*config) error

// WithToken sets the bearer token used to authenticate API requests.
// On a runner this is the value of the ACTIONS_RUNTIME_TOKEN environment
// variable; reading it from the environment is left to the caller.
func WithToken(token string) Option {
	return func(cfg *config) error {
		if token == "" {
			err := errors.New(errors.CodeInvalidInput, "token cannot be empty")
			return errors.WithContext(err, "field", "token")
		}
		cfg.token = token
		return nil
	}
}

// WithEndpoint sets the base URL of the cache service. On a runner this is
// the value of the ACTIONS_CACHE_URL environment variable. A trailing slash
// is tolerated; the API path is appended during construction.
func WithEndpoint(endpoint string) Option {
	return func(cfg *config) error {
		if endpoint == "" {
			err := errors.New(errors.CodeInvalidInput, "endpoint cannot be empty")
			return errors.WithContext(err, "field", "endpoint")
		}
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			perr := errors.Newf(errors.CodeInvalidInput, "endpoint is not a valid absolute URL: %s", endpoint)
			return errors.WithContext(perr, "field", "endpoint")
		}
		cfg.endpoint = endpoint
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent with every request,
// including archive downloads. It should identify the program using this
// library.
func WithUserAgent(userAgent string) Option {
	return func(cfg *config) error {
		if userAgent == "" {
			err := errors.New(errors.CodeInvalidInput, "user agent cannot be empty")
			return errors.WithContext(err, "field", "userAgent")
		}
		cfg.userAgent = userAgent
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client. This allows full control over
// transport configuration such as proxies and connection pooling. The
// default is a plain http.Client sharing the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *config) error {
		if client == nil {
			err := errors.New(errors.CodeInvalidInput, "client cannot be nil")
			return errors.WithContext(err, "field", "client")
		}
		cfg.client = client
		return nil
	}
}

// WithLogger sets the logger used for per-request debug output (response
// status and headers). The default discards all output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(cfg *config) error {
		if log == nil {
			err := errors.New(errors.CodeInvalidInput, "logger cannot be nil")
			return errors.WithContext(err, "field", "logger")
		}
		cfg.log = log
		return nil
	}
}
