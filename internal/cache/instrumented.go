package cache

// instrumented wraps a Cache so lookups and evictions feed the Prometheus
// counters for its group, and entry counts are read lazily at scrape time.
type instrumented struct {
	inner Cache
	group string
}

// newInstrumented builds the provider with an eviction hook that counts into
// evictionsTotal before invoking any caller-supplied callback, then wraps the
// result.
func newInstrumented(group string, factory Factory, config ProviderConfig) (Cache, error) {
	userOnEvict := config.OnEvict
	config.OnEvict = func(key string, value []byte) {
		evictionsTotal.WithLabelValues(group).Inc()
		if userOnEvict != nil {
			userOnEvict(key, value)
		}
	}

	inner, err := factory(config)
	if err != nil {
		return nil, err
	}

	registerEntries(group, inner.Len)

	return &instrumented{inner: inner, group: group}, nil
}

func (c *instrumented) Get(key string) ([]byte, bool) {
	value, ok := c.inner.Get(key)
	if ok {
		hitsTotal.WithLabelValues(c.group).Inc()
	} else {
		missesTotal.WithLabelValues(c.group).Inc()
	}
	return value, ok
}

func (c *instrumented) Set(key string, value []byte) {
	c.inner.Set(key, value)
}

func (c *instrumented) Contains(key string) bool {
	return c.inner.Contains(key)
}

func (c *instrumented) Len() int {
	return c.inner.Len()
}

func (c *instrumented) Close() error {
	unregisterEntries(c.group)
	return c.inner.Close()
}
