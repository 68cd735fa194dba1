package actionscache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jmgilman/go/errors"
)

// reserveRequest is the body of the reservation phase.
type reserveRequest struct {
	Key     string `json:"key"`
	Version string `json:"version"`
}

// reserveResponse carries the server-issued id for an in-progress store.
type reserveResponse struct {
	CacheID int64 `json:"cacheId"`
}

// finalizeRequest commits a reservation; Size must equal the exact number
// of bytes uploaded.
type finalizeRequest struct {
	Size int `json:"size"`
}

// PutBytes stores an entry in the cache.
//
// The store is a three-phase transaction executed strictly in order:
// reserve a cache id, upload the payload, finalize with the payload
// length. The upload phase is skipped entirely for an empty payload; the
// entry is then finalized with size 0. The payload is sent in a single
// request - the service's multi-range chunked upload is not used.
//
// The operation is all-or-nothing from the caller's view: any phase
// failing fails the whole call, and the store only counts as successful
// once finalize returns success. A reservation whose upload or finalize
// failed is left to the service; the client performs no cleanup.
func (c *Cache) PutBytes(ctx context.Context, keySpace, key string, data []byte) error {
	if keySpace == "" {
		err := errors.New(errors.CodeInvalidInput, "key space cannot be empty")
		return errors.WithContext(err, "field", "keySpace")
	}
	if key == "" {
		err := errors.New(errors.CodeInvalidInput, "key cannot be empty")
		return errors.WithContext(err, "field", "key")
	}

	cacheID, err := c.reserve(ctx, keySpace, key)
	if err != nil {
		return err
	}

	if len(data) > 0 {
		if err := c.upload(ctx, cacheID, data); err != nil {
			return err
		}
	}

	return c.finalize(ctx, cacheID, len(data))
}

// reserve asks the service for a cache id to upload against.
func (c *Cache) reserve(ctx context.Context, keySpace, key string) (int64, error) {
	body, err := json.Marshal(reserveRequest{Key: key, Version: keySpace})
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "failed to encode reserve request")
	}

	req, err := c.newAPIRequest(ctx, http.MethodPost, c.endpoint+"/caches", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return 0, err
	}

	var result reserveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, errors.Wrap(err, errors.CodeNetwork, "failed to decode reserve response")
	}

	return result.CacheID, nil
}

// upload sends the full payload against the reservation in one request.
// The content range covers bytes 0 through len(data)-1 over an unknown
// total, which is how the service expects a single-shot upload.
func (c *Cache) upload(ctx context.Context, cacheID int64, data []byte) error {
	url := fmt.Sprintf("%s/caches/%d", c.endpoint, cacheID)

	req, err := c.newAPIRequest(ctx, http.MethodPatch, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/*", len(data)-1))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return err
	}

	// Drain so the connection can be reused for the finalize request.
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// finalize commits the reservation with the exact byte count uploaded. A
// size mismatch is a server-side validation failure and surfaces as a
// classified error.
func (c *Cache) finalize(ctx context.Context, cacheID int64, size int) error {
	body, err := json.Marshal(finalizeRequest{Size: size})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode finalize request")
	}

	url := fmt.Sprintf("%s/caches/%d", c.endpoint, cacheID)

	req, err := c.newAPIRequest(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return checkResponse(resp)
}
