package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nats-io/nats.go"
)

// Static errors for err113 compliance.
var (
	ErrKeyNotFound           = errors.New("key not found")
	ErrEntryExpired          = errors.New("entry expired")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// CacheEntry is one cached value.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry has a deadline in the past.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Cache is a key/value store for finished-asset lookups.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// MemoryCache is an in-process LRU cache.
type MemoryCache struct {
	entries *lru.Cache[string, *CacheEntry]
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, *CacheEntry](maxSize)

	return &MemoryCache{entries: entries}
}

// Get returns the entry stored under key.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	if entry.Expired(time.Now()) {
		c.entries.Remove(key)

		return nil, fmt.Errorf("%w: %s", ErrEntryExpired, key)
	}

	return entry, nil
}

// Set stores entry under key, evicting the least recently used entry when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.entries.Add(key, entry)

	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.entries.Purge()

	return nil
}

// Has reports whether a live entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// NATSKVConfig configures the JetStream key/value cache.
type NATSKVConfig struct {
	// Conn is an established connection. When nil, URL is dialed.
	Conn *nats.Conn
	URL  string
	// Bucket is created when it does not exist.
	Bucket string
	// TTL is the bucket-level max age.
	TTL time.Duration
}

// NATSKVCache stores entries in a JetStream key/value bucket so several
// processes share what they learned.
type NATSKVCache struct {
	kv    nats.KeyValue
	conn  *nats.Conn
	owned bool
	mu    sync.Mutex
}

// NewNATSKVCache binds (or creates) the configured bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConnRequired
	}

	conn := config.Conn
	owned := false

	if conn == nil {
		if config.URL == "" {
			return nil, ErrNATSConnRequired
		}

		var err error

		conn, err = nats.Connect(config.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		owned = true
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	js, err := conn.JetStream()
	if err != nil {
		closeIfOwned(conn, owned)

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: bucket,
			TTL:    config.TTL,
		})
	}

	if err != nil {
		closeIfOwned(conn, owned)

		return nil, fmt.Errorf("binding key/value bucket %s: %w", bucket, err)
	}

	return &NATSKVCache{kv: kv, conn: conn, owned: owned}, nil
}

// Get returns the entry stored under key.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	item, err := c.kv.Get(natsKey(key))
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s from key/value bucket: %w", key, err)
	}

	var entry CacheEntry

	err = json.Unmarshal(item.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cached entry %s: %w", key, err)
	}

	if entry.Expired(time.Now()) {
		_ = c.kv.Delete(natsKey(key))

		return nil, fmt.Errorf("%w: %s", ErrEntryExpired, key)
	}

	return &entry, nil
}

// Set stores entry under key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}

	_, err = c.kv.Put(natsKey(key), data)
	if err != nil {
		return fmt.Errorf("writing %s to key/value bucket: %w", key, err)
	}

	return nil
}

// Delete removes key.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(natsKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s from key/value bucket: %w", key, err)
	}

	return nil
}

// Clear removes every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("listing key/value bucket: %w", err)
	}

	for _, key := range keys {
		err = c.kv.Delete(key)
		if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
			return fmt.Errorf("deleting %s from key/value bucket: %w", key, err)
		}
	}

	return nil
}

// Has reports whether a live entry exists for key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the connection when the cache dialed it.
func (c *NATSKVCache) Close() {
	closeIfOwned(c.conn, c.owned)
}

// NATS keys may not contain ':', which GIDs do.
func natsKey(key string) string {
	return strings.ReplaceAll(key, ":", "_")
}

func closeIfOwned(conn *nats.Conn, owned bool) {
	if owned && conn != nil {
		conn.Close()
	}
}

// URLCache remembers CDN URLs of finished assets.
type URLCache struct {
	backend Cache
	ttl     time.Duration
}

// NewURLCache wraps backend. A nil backend disables caching.
func NewURLCache(backend Cache, ttl time.Duration) *URLCache {
	if backend == nil {
		backend = NewNoOpCache()
	}

	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}

	return &URLCache{backend: backend, ttl: ttl}
}

// Lookup returns the cached URL of assetID.
func (c *URLCache) Lookup(ctx context.Context, assetID string) (string, bool) {
	if c == nil {
		return "", false
	}

	entry, err := c.backend.Get(ctx, constants.CacheKeyPrefixFileURL+assetID)
	if err != nil || len(entry.Data) == 0 {
		return "", false
	}

	return string(entry.Data), true
}

// Store records the URL of assetID.
func (c *URLCache) Store(ctx context.Context, assetID, url string) error {
	if c == nil || url == "" {
		return nil
	}

	now := time.Now()

	return c.backend.Set(ctx, constants.CacheKeyPrefixFileURL+assetID, &CacheEntry{
		Data:      []byte(url),
		StoredAt:  now,
		ExpiresAt: now.Add(c.ttl),
	})
}

// Forget drops the cached URL of assetID.
func (c *URLCache) Forget(ctx context.Context, assetID string) error {
	if c == nil {
		return nil
	}

	return c.backend.Delete(ctx, constants.CacheKeyPrefixFileURL+assetID)
}
