package actionscache

// CacheHit contains the metadata of the entry a lookup resolved to.
//
// A CacheHit is only produced by a successful lookup and is immutable; it
// has no lifecycle beyond the response that produced it.
type CacheHit struct {
	// Key is the full key under which the found entry was stored. When the
	// lookup matched by prefix this differs from the requested prefix.
	Key string `json:"cacheKey"`

	// Scope is the branch scope that stored the entry.
	Scope string `json:"scope"`
}
