package lookup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Error variables for cache errors
var (
	// ErrCacheCorrupted is returned when the cache file cannot be parsed
	ErrCacheCorrupted = errors.New("cache file is corrupted")
)

// DefaultCacheTTL is the default time-to-live for cache entries.
// Lookup results go stale quickly when a package is updated, so the
// window is short.
const DefaultCacheTTL = 15 * time.Minute

// CacheEntry represents a cached lookup result
type CacheEntry struct {
	// Result is the cached lookup result
	Result Result `json:"result"`
	// Timestamp is when this entry was cached
	Timestamp time.Time `json:"timestamp"`
}

// cacheFile represents the JSON structure stored on disk
type cacheFile struct {
	Entries map[string]CacheEntry `json:"entries"`
}

// Cache manages lookup result caching with TTL-based expiration.
// It persists cache entries to disk and supports concurrent access.
type Cache struct {
	// Entries holds all cached results, keyed by query (name + repo)
	Entries map[string]CacheEntry `json:"entries"`
	// TTL is the time-to-live for cache entries
	TTL time.Duration
	// path is the file path where cache is persisted
	path string
	// mu protects concurrent access to Entries
	mu sync.RWMutex
	// nowFunc allows injecting time for testing
	nowFunc func() time.Time
}

// CacheOption is a functional option for configuring Cache
type CacheOption func(*Cache)

// WithTTL sets a custom TTL for the cache
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.TTL = ttl
	}
}

// WithNowFunc sets a custom time function for testing
func WithNowFunc(fn func() time.Time) CacheOption {
	return func(c *Cache) {
		c.nowFunc = fn
	}
}

// NewCache creates or loads a cache from disk.
// If the cache file exists, it loads existing entries.
// If the cache file doesn't exist or is corrupted, it creates a new
// empty cache. cacheDir should be the archpkg cache directory
// (e.g., ~/.cache/archpkg).
func NewCache(cacheDir string, opts ...CacheOption) (*Cache, error) {
	// Ensure cache directory exists
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cachePath := filepath.Join(cacheDir, "lookups.json")

	cache := &Cache{
		Entries: make(map[string]CacheEntry),
		TTL:     DefaultCacheTTL,
		path:    cachePath,
		nowFunc: time.Now,
	}

	// Apply options
	for _, opt := range opts {
		opt(cache)
	}

	// Try to load existing cache
	if err := cache.load(); err != nil {
		// If file doesn't exist, that's fine - start with empty cache
		if !os.IsNotExist(err) {
			// A corrupted file is overwritten on next Save
			cache.Entries = make(map[string]CacheEntry)
		}
	}

	return cache, nil
}

// cacheKey builds the map key for a query. The NUL separator cannot
// appear in package or repository names.
func cacheKey(name, repo string) string {
	return name + "\x00" + repo
}

// load reads the cache from disk
func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}

	if cf.Entries != nil {
		c.Entries = cf.Entries
	}

	return nil
}

// Get retrieves a cached result if it exists and is not expired.
// Returns a copy of the result and true if found and valid.
func (c *Cache) Get(name, repo string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.Entries[cacheKey(name, repo)]
	if !exists {
		return nil, false
	}

	// Check if entry is expired
	if c.isExpired(entry) {
		return nil, false
	}

	result := entry.Result
	return &result, true
}

// isExpired checks if a cache entry has expired based on TTL
func (c *Cache) isExpired(entry CacheEntry) bool {
	now := c.nowFunc()
	age := now.Sub(entry.Timestamp)
	return age >= c.TTL
}

// Set stores a result in the cache with the current timestamp.
// It automatically saves the cache to disk after setting.
func (c *Cache) Set(name, repo string, result *Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries[cacheKey(name, repo)] = CacheEntry{
		Result:    *result,
		Timestamp: c.nowFunc(),
	}

	return c.saveUnsafe()
}

// Save persists the cache to disk.
// This is thread-safe and can be called concurrently.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveUnsafe()
}

// saveUnsafe persists the cache to disk without locking.
// Caller must hold the write lock.
func (c *Cache) saveUnsafe() error {
	cf := cacheFile{
		Entries: c.Entries,
	}

	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		// Clean up temp file on rename failure
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	return nil
}

// Delete removes a query from the cache.
// It automatically saves the cache to disk after deletion.
func (c *Cache) Delete(name, repo string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.Entries, cacheKey(name, repo))
	return c.saveUnsafe()
}

// Clear removes all entries from the cache.
// It automatically saves the cache to disk after clearing.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries = make(map[string]CacheEntry)
	return c.saveUnsafe()
}

// Len returns the number of entries in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}

// Path returns the location of the cache file on disk.
func (c *Cache) Path() string {
	return c.path
}

// Cleanup removes all expired entries from the cache.
// It automatically saves the cache to disk after cleanup.
func (c *Cache) Cleanup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.Entries {
		if c.isExpired(entry) {
			delete(c.Entries, key)
		}
	}

	return c.saveUnsafe()
}
