package actionscache

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jmgilman/go/errors"
)

// lookupResponse is the success body of the cache-query endpoint.
type lookupResponse struct {
	CacheHit
	ArchiveLocation string `json:"archiveLocation"`
}

// GetURL performs a cache lookup and returns the URL for a matching entry.
//
// keySpace is an opaque version identifier, usually a hex string, which
// must match exactly between store and lookup. keyPrefixes is a non-empty
// list of key prefixes evaluated by server-side precedence: an exact match
// is preferred, then the most recent entry sharing a prefix, in the order
// supplied here. The list is passed through verbatim and never reordered.
//
// A miss returns (nil, "", nil); it is not an error. On a hit, the
// returned location is a pre-signed URL valid only long enough to perform
// one download and should not be persisted.
func (c *Cache) GetURL(ctx context.Context, keySpace string, keyPrefixes []string) (*CacheHit, string, error) {
	if keySpace == "" {
		err := errors.New(errors.CodeInvalidInput, "key space cannot be empty")
		return nil, "", errors.WithContext(err, "field", "keySpace")
	}
	if len(keyPrefixes) == 0 {
		err := errors.New(errors.CodeInvalidInput, "at least one key prefix is required")
		return nil, "", errors.WithContext(err, "field", "keyPrefixes")
	}

	query := url.Values{}
	query.Set("keys", strings.Join(keyPrefixes, ","))
	query.Set("version", keySpace)

	req, err := c.newAPIRequest(ctx, http.MethodGet, c.endpoint+"/cache?"+query.Encode(), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return nil, "", nil
	}
	if err := checkResponse(resp); err != nil {
		return nil, "", err
	}

	var result lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", errors.Wrap(err, errors.CodeNetwork, "failed to decode lookup response")
	}

	return &result.CacheHit, result.ArchiveLocation, nil
}

// GetBytes performs a cache lookup and returns the content of a matching
// entry.
//
// See GetURL for details about the lookup. The download itself is an
// unauthenticated GET of the pre-signed location; no bearer token is sent.
// A miss returns (nil, nil, nil) unchanged from the lookup.
func (c *Cache) GetBytes(ctx context.Context, keySpace string, keyPrefixes []string) (*CacheHit, []byte, error) {
	hit, location, err := c.GetURL(ctx, keySpace, keyPrefixes)
	if err != nil || hit == nil {
		return nil, nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return nil, nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeNetwork, "failed to read archive")
	}

	return hit, data, nil
}
