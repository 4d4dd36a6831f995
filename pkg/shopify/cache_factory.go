package shopify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
)

// CacheType selects where resolved CDN URLs are remembered.
type CacheType string

const (
	// CacheTypeMemory represents the in-process LRU cache.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS represents the JetStream key/value cache.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeChain puts the memory cache in front of the NATS cache.
	CacheTypeChain CacheType = "chain"

	// CacheTypeNone represents no caching.
	CacheTypeNone CacheType = "none"
)

// CacheConfig configures the CDN URL cache. NATS is required for the
// nats and chain types.
type CacheConfig struct {
	Type    CacheType
	MaxSize int
	TTL     time.Duration
	NATS    *NATSKVConfig
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:    CacheTypeMemory,
		MaxSize: constants.DefaultCacheSize,
		TTL:     constants.DefaultCacheTTL,
	}
}

// NewCacheFromConfig builds the cache named by config.Type; nil selects the
// in-memory LRU.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		return NewMemoryCache(config.MaxSize), nil

	case CacheTypeNATS:
		return NewNATSKVCache(config.NATS)

	case CacheTypeChain:
		remote, err := NewNATSKVCache(config.NATS)
		if err != nil {
			return nil, err
		}

		return NewCacheChain(NewMemoryCache(config.MaxSize), remote), nil

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCache, config.Type)
	}
}

// NoOpCache disables URL caching; every lookup misses.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error { return nil }

func (c *NoOpCache) Delete(ctx context.Context, key string) error { return nil }

func (c *NoOpCache) Clear(ctx context.Context) error { return nil }

func (c *NoOpCache) Has(ctx context.Context, key string) bool { return false }

// CacheChain consults caches in order, so a process-local cache can sit in
// front of the shared NATS bucket. A hit in a slower cache is copied into
// every faster one.
type CacheChain struct {
	caches []Cache
}

// NewCacheChain creates a chain; the first cache is consulted first.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{caches: caches}
}

func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for i, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, faster := range c.caches[:i] {
			_ = faster.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, ErrKeyNotFoundInAnyCache
}

// Set writes through to every cache and reports all failures.
func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(cache Cache) error { return cache.Set(ctx, key, entry) })
}

func (c *CacheChain) Delete(ctx context.Context, key string) error {
	return c.each(func(cache Cache) error { return cache.Delete(ctx, key) })
}

func (c *CacheChain) Clear(ctx context.Context) error {
	return c.each(func(cache Cache) error { return cache.Clear(ctx) })
}

func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}

func (c *CacheChain) each(fn func(Cache) error) error {
	errs := make([]error, 0, len(c.caches))
	for _, cache := range c.caches {
		errs = append(errs, fn(cache))
	}

	return errors.Join(errs...)
}

// Close releases every cache in the chain that holds a connection.
func (c *CacheChain) Close() {
	for _, cache := range c.caches {
		CloseCache(cache)
	}
}

// CloseCache releases cache if it holds a connection.
func CloseCache(cache Cache) {
	if closer, ok := cache.(interface{ Close() }); ok {
		closer.Close()
	}
}
