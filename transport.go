package actionscache

import (
	"context"
	"io"
	"net/http"

	"github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
)

// acceptHeader pins responses to the JSON media type of the API version
// this client speaks.
const acceptHeader = "application/json;api-version=6.0-preview.1"

// newAPIRequest builds a request for the cache API: bearer authentication,
// the versioned accept header, and the configured user agent.
func (c *Cache) newAPIRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", acceptHeader)

	return req, nil
}

// newRequest builds an unauthenticated request carrying only the user
// agent. Archive downloads use this directly: their URLs are pre-signed
// and must not carry the bearer token.
func (c *Cache) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "failed to build %s request", method)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	return req, nil
}

// do sends the request over the shared connection pool. There are no
// implicit retries and no internal timeout; cancellation comes from the
// request's context. The caller owns the response body.
func (c *Cache) do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeNetwork, "%s %s failed", req.Method, req.URL.Path)
	}

	c.log.WithFields(logrus.Fields{
		"method":  req.Method,
		"path":    req.URL.Path,
		"status":  resp.StatusCode,
		"headers": resp.Header,
	}).Debug("cache API response")

	return resp, nil
}
