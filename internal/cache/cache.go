package cache

// EvictCallback is invoked when an entry is evicted. Only providers that
// evict inside the process can support it; the Redis provider leaves
// eviction to the server and never calls it.
type EvictCallback func(key string, value []byte)

// Logger is the minimal logging surface a provider needs for reporting
// backend failures. Keeping it this small spares the package a logging
// dependency and lets callers adapt whatever logger they already hold.
type Logger interface {
	Error(msg string, err error)
}

// Cache is a byte-value cache with TTL semantics. The poster proxy is the
// only consumer today, but nothing in the interface is poster-specific.
type Cache interface {
	// Get retrieves a value by key, reporting whether it was present.
	Get(key string) ([]byte, bool)

	// Set stores a value under key, overwriting any previous value.
	Set(key string, value []byte)

	// Contains reports whether key exists without counting as a use for
	// providers with LRU ordering.
	Contains(key string) bool

	// Len returns the number of entries. For the Redis provider this is the
	// key count of the configured logical database, so that provider should
	// be pointed at a database of its own.
	Len() int

	// Close releases backend resources. In-memory providers treat it as a
	// no-op.
	Close() error
}
