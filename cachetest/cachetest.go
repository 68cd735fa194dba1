// Package cachetest provides an in-memory fake of the Actions artifact
// cache service for testing clients against the full wire protocol.
//
// The fake implements all five operations - lookup, archive download,
// reserve, upload, and finalize - including the server-side key precedence
// rules: an exact key match wins over a prefix match, and among prefix
// matches the most recently committed entry wins, evaluated in the order
// the lookup supplied its keys.
//
// Example usage:
//
//	srv := cachetest.NewServer()
//	defer srv.Close()
//
//	cache, err := actionscache.New(
//	    actionscache.WithToken(srv.Token()),
//	    actionscache.WithEndpoint(srv.URL()),
//	)
package cachetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// entry is a committed cache entry, retrievable by lookup.
type entry struct {
	id      int64
	key     string
	version string
	data    []byte
}

// reservation is an in-progress store that has not been finalized yet.
type reservation struct {
	key     string
	version string
	data    []byte
}

// Server is a fake artifact cache service backed by process memory.
// It is safe for concurrent use.
type Server struct {
	srv   *httptest.Server
	token string
	scope string

	mu           sync.Mutex
	nextID       int64
	entries      []*entry
	reservations map[int64]*reservation
	requests     []string
}

// Option configures the fake server.
type Option func(*Server)

// WithToken sets the bearer token API requests must present.
// The default is "cachetest-token".
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithScope sets the branch scope reported on cache hits.
// The default is "refs/heads/main".
func WithScope(scope string) Option {
	return func(s *Server) { s.scope = scope }
}

// NewServer starts a fake cache service on a local listener.
// Callers must Close it when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		token:        "cachetest-token",
		scope:        "refs/heads/main",
		reservations: make(map[int64]*reservation),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/artifactcache/cache", s.handleLookup)
	mux.HandleFunc("/_apis/artifactcache/caches", s.handleReserve)
	mux.HandleFunc("/_apis/artifactcache/caches/", s.handleCache)
	mux.HandleFunc("/_apis/artifactcache/artifacts/", s.handleDownload)
	s.srv = httptest.NewServer(mux)

	return s
}

// URL returns the base endpoint to configure a client with.
func (s *Server) URL() string {
	return s.srv.URL
}

// Token returns the bearer token the server expects.
func (s *Server) Token() string {
	return s.token
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

// Requests returns every API request received so far as "METHOD path"
// strings, in arrival order. Archive downloads are included.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// record appends to the request log and enforces bearer authentication.
// Returns false after writing an error response if the request is
// unauthorized.
func (s *Server) record(w http.ResponseWriter, r *http.Request, authenticated bool) bool {
	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.mu.Unlock()

	if authenticated && r.Header.Get("Authorization") != "Bearer "+s.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// handleLookup resolves ordered key prefixes against committed entries.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if !s.record(w, r, true) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	keys := strings.Split(r.URL.Query().Get("keys"), ",")
	version := r.URL.Query().Get("version")

	s.mu.Lock()
	match := s.resolve(keys, version)
	s.mu.Unlock()

	if match == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"cacheKey":        match.key,
		"scope":           s.scope,
		"archiveLocation": fmt.Sprintf("%s/_apis/artifactcache/artifacts/%d", s.srv.URL, match.id),
	})
}

// resolve applies the precedence rules: for each requested key in order,
// an exact match wins; otherwise the most recently committed entry whose
// key has the requested key as a prefix. Caller holds the lock.
func (s *Server) resolve(keys []string, version string) *entry {
	for _, key := range keys {
		var newest *entry
		for _, e := range s.entries {
			if e.version != version {
				continue
			}
			if e.key == key {
				return e
			}
			if strings.HasPrefix(e.key, key) && (newest == nil || e.id > newest.id) {
				newest = e
			}
		}
		if newest != nil {
			return newest
		}
	}
	return nil
}

// handleReserve issues a cache id for an incoming store. A key that is
// already committed under the same version conflicts; duplicate
// reservations for the same key are allowed, as on the real service.
func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	if !s.record(w, r, true) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Key     string `json:"key"`
		Version string `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" || req.Version == "" {
		http.Error(w, "bad reserve request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.key == req.Key && e.version == req.Version {
			http.Error(w, "cache entry already exists", http.StatusConflict)
			return
		}
	}

	s.nextID++
	s.reservations[s.nextID] = &reservation{key: req.Key, version: req.Version}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]int64{"cacheId": s.nextID})
}

// handleCache dispatches the per-id operations: PATCH uploads payload
// bytes, POST finalizes the reservation.
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	if !s.record(w, r, true) {
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/_apis/artifactcache/caches/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "bad cache id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPatch:
		s.handleUpload(w, r, id)
	case http.MethodPost:
		s.handleFinalize(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleUpload accepts the payload for a reservation. The content range
// must describe the full payload starting at byte zero; the service's
// chunked multi-range form is not implemented.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Header.Get("Content-Type") != "application/octet-stream" {
		http.Error(w, "expected octet-stream payload", http.StatusBadRequest)
		return
	}

	var start, end int64
	if _, err := fmt.Sscanf(r.Header.Get("Content-Range"), "bytes %d-%d/*", &start, &end); err != nil || start != 0 {
		http.Error(w, "bad content range", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil || int64(len(data)) != end-start+1 {
		http.Error(w, "payload does not match content range", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[id]
	if !ok {
		http.Error(w, "no such reservation", http.StatusNotFound)
		return
	}
	res.data = data

	w.WriteHeader(http.StatusNoContent)
}

// handleFinalize commits a reservation. The declared size must equal the
// number of bytes uploaded, or zero when the upload was skipped.
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		Size int `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad finalize request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[id]
	if !ok {
		http.Error(w, "no such reservation", http.StatusNotFound)
		return
	}
	if req.Size != len(res.data) {
		http.Error(w, fmt.Sprintf("declared size %d does not match uploaded %d bytes", req.Size, len(res.data)), http.StatusBadRequest)
		return
	}

	delete(s.reservations, id)
	s.entries = append(s.entries, &entry{
		id:      id,
		key:     res.key,
		version: res.version,
		data:    res.data,
	})

	w.WriteHeader(http.StatusNoContent)
}

// handleDownload serves a committed entry's bytes. Archive URLs are
// pre-signed on the real service, so no authentication is required here.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !s.record(w, r, false) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/_apis/artifactcache/artifacts/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "bad artifact id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.id == id {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(e.data)
			return
		}
	}

	http.Error(w, "no such artifact", http.StatusNotFound)
}
