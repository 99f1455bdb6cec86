package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ProviderConfig carries everything any provider might need. Providers read
// the fields relevant to them and ignore the rest.
type ProviderConfig struct {
	// Size caps the entry count for providers with in-process eviction.
	Size int

	// TTL is how long entries live before expiring.
	TTL time.Duration

	// OnEvict, when non-nil, is invoked for entries evicted in-process.
	OnEvict EvictCallback

	// Logger receives backend errors. Must be non-nil for the redis
	// provider.
	Logger Logger

	// Redis connection settings, used only by the redis provider.
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// Group, when non-empty, wraps the provider with Prometheus counters
	// labelled by this name.
	Group string
}

// Factory constructs a Cache from a ProviderConfig.
type Factory func(config ProviderConfig) (Cache, error)

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Factory)
)

// Register makes a cache provider available under the given name. It panics
// if the name is already taken, which points at duplicate registration
// rather than a runtime condition worth handling.
func Register(name string, factory Factory) {
	providersMu.Lock()
	defer providersMu.Unlock()

	if _, dup := providers[name]; dup {
		panic(fmt.Sprintf("cache: provider %q registered twice", name))
	}
	providers[name] = factory
}

// RegisteredProviders returns the provider names in sorted order, for use in
// configuration error messages.
func RegisteredProviders() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named provider. When config.Group is set the returned cache
// is wrapped so hits, misses, evictions and entry counts are exported as
// Prometheus metrics under that group label.
func New(name string, config ProviderConfig) (Cache, error) {
	providersMu.RLock()
	factory, ok := providers[name]
	providersMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("cache: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}

	if config.Group != "" {
		return newInstrumented(config.Group, factory, config)
	}
	return factory(config)
}
