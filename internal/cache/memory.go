package cache

import (
	"github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", newMemory)
}

// memory is an in-process LRU cache with per-entry TTL.
type memory struct {
	lru *expirable.LRU[string, []byte]
}

func newMemory(config ProviderConfig) (Cache, error) {
	var onEvict expirable.EvictCallback[string, []byte]
	if config.OnEvict != nil {
		onEvict = func(key string, value []byte) {
			config.OnEvict(key, value)
		}
	}

	return &memory{
		lru: expirable.NewLRU[string, []byte](config.Size, onEvict, config.TTL),
	}, nil
}

func (m *memory) Get(key string) ([]byte, bool) {
	return m.lru.Get(key)
}

func (m *memory) Set(key string, value []byte) {
	m.lru.Add(key, value)
}

func (m *memory) Contains(key string) bool {
	return m.lru.Contains(key)
}

func (m *memory) Len() int {
	return m.lru.Len()
}

func (m *memory) Close() error {
	return nil
}
