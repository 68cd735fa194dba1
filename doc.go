// Package actionscache provides a client for the GitHub Actions artifact
// cache API.
//
// The artifact cache API is the service GitHub-hosted runners use to store
// and retrieve reusable byte blobs (dependency archives, build outputs)
// keyed by a versioned namespace and a hierarchical key. The API is not part
// of the documented REST surface; its shape is only defined by the official
// actions/toolkit client. GitHub supports pinning action versions, so the
// wire protocol is stable in practice.
//
// # Core Types
//
// Cache is the main entry point. It owns the credentials and a pooled HTTP
// client, and exposes three operations:
//
//   - GetURL resolves a list of key prefixes to a matching entry's metadata
//     and a pre-signed download URL.
//   - GetBytes composes GetURL with the download and returns the payload.
//   - PutBytes stores a payload using the service's three-phase write
//     (reserve, upload, finalize).
//
// CacheHit carries the metadata of a resolved entry: the exact key the
// entry was stored under and the branch scope that stored it.
//
// # Key Spaces and Key Prefixes
//
// Every operation takes a key space: an opaque version identifier (usually
// a hex string) that must match exactly between store and lookup. Lookups
// additionally take an ordered list of key prefixes; the service prefers an
// exact key match, then the most recent entry sharing a prefix, evaluated
// in the order the prefixes are supplied. The client passes the list
// through verbatim - precedence is entirely server-side.
//
// # Usage
//
//	cache, err := actionscache.New(
//	    actionscache.WithToken(os.Getenv("ACTIONS_RUNTIME_TOKEN")),
//	    actionscache.WithEndpoint(os.Getenv("ACTIONS_CACHE_URL")),
//	    actionscache.WithUserAgent("myorg/mytool"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := cache.PutBytes(ctx, keySpace, "deps-linux-abc123", payload); err != nil {
//	    log.Fatal(err)
//	}
//
//	hit, data, err := cache.GetBytes(ctx, keySpace, []string{"deps-linux-abc123", "deps-linux-"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if hit == nil {
//	    fmt.Println("cache miss")
//	}
//
// # Error Handling
//
// The library uses the workspace errors library for consistent error
// handling. Every failure is a PlatformError with one of these codes:
//
//   - errors.CodeInvalidConfig: token or endpoint missing at construction
//   - errors.CodeInvalidInput: empty key space, key, or prefix list
//   - errors.CodeRateLimit: the service returned an error status with a
//     Retry-After header; the requested wait is available via RetryAfter
//   - errors.CodeNetwork: any other non-success status or network failure
//
// Callers switch on the code to handle each case:
//
//	hit, data, err := cache.GetBytes(ctx, keySpace, keys)
//	if err != nil {
//	    if wait, ok := actionscache.RetryAfter(err); ok {
//	        time.Sleep(wait)
//	        // retry
//	    }
//	    return err
//	}
//
// The client itself never retries, sleeps, or suppresses errors. Rate-limit
// handling is advisory: the wait duration is surfaced and the caller
// decides. Operations carry no internal timeout; wrap the context with a
// deadline if one is needed.
//
// # Concurrency
//
// A Cache is immutable after construction and safe to share across
// goroutines; the only shared mutable state is the underlying HTTP
// connection pool. Concurrent PutBytes calls for the same key may create
// duplicate reservations, which the service resolves on its own.
//
// # Testing
//
// The cachetest sub-package provides an in-memory fake of the cache
// service implementing the full wire protocol, including server-side key
// precedence:
//
//	srv := cachetest.NewServer()
//	defer srv.Close()
//
//	cache, err := actionscache.New(
//	    actionscache.WithToken(srv.Token()),
//	    actionscache.WithEndpoint(srv.URL()),
//	)
//
// # Dependencies
//
// This library depends on:
//   - github.com/jmgilman/go/errors - Workspace errors library
//   - github.com/sirupsen/logrus - Optional debug logging
//
// # References
//
// For more information:
//   - actions/toolkit cache client: https://github.com/actions/toolkit/tree/main/packages/cache
//   - Key matching rules: https://docs.github.com/en/actions/advanced-guides/caching-dependencies-to-speed-up-workflows#matching-a-cache-key
package actionscache
