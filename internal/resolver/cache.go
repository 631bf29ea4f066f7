package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/mrz1836/goalsync/internal/clock"
	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/errors"
	"github.com/mrz1836/goalsync/internal/flock"
	"github.com/mrz1836/goalsync/internal/fsutil"
)

// Cache maps ASINs to remote product ids. Entries are never removed or
// changed once written, and misses are never stored.
type Cache interface {
	// Get returns the product id for asin and whether it was present.
	Get(ctx context.Context, asin string) (int64, bool, error)
	// Put durably records a resolved mapping.
	Put(ctx context.Context, asin string, productID int64) error
	// All returns a copy of every mapping.
	All(ctx context.Context) (map[string]int64, error)
}

// cacheDocument is the on-disk product cache.
type cacheDocument struct {
	SchemaVersion string           `json:"schema_version"`
	Products      map[string]int64 `json:"products"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// FileCache is a Cache persisted as one JSON document. Reads are served
// from memory; every Put locks, re-reads, merges and atomically rewrites the
// file so concurrent runs sharing the file never lose each other's entries.
type FileCache struct {
	path  string
	clock clock.Clock

	mu       sync.RWMutex
	products map[string]int64
}

// OpenFileCache loads the cache at path. A missing file is an empty cache;
// an unreadable document is errors.ErrCacheCorrupted.
func OpenFileCache(path string, clk clock.Clock) (*FileCache, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}
	products, err := readCacheDocument(path)
	if err != nil {
		return nil, err
	}
	return &FileCache{path: path, clock: clk, products: products}, nil
}

func readCacheDocument(path string) (map[string]int64, error) {
	data, err := fsutil.ReadIfExists(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCacheCorrupted, err)
	}
	if len(data) == 0 {
		return map[string]int64{}, nil
	}

	var doc cacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrCacheCorrupted, path, err)
	}
	if doc.Products == nil {
		doc.Products = map[string]int64{}
	}
	return doc.Products, nil
}

// Get implements Cache.
func (c *FileCache) Get(_ context.Context, asin string) (int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.products[asin]
	return id, ok, nil
}

// Put implements Cache.
func (c *FileCache) Put(ctx context.Context, asin string, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, err := flock.Acquire(ctx, c.path+constants.LockFileSuffix, constants.LockTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrCacheWrite, err)
	}
	defer func() { _ = lock.Release() }()

	onDisk, err := readCacheDocument(c.path)
	if err != nil {
		return err
	}
	// Entries already on disk win; another run may have written them first.
	for k, v := range c.products {
		if _, exists := onDisk[k]; !exists {
			onDisk[k] = v
		}
	}
	if _, exists := onDisk[asin]; !exists {
		onDisk[asin] = productID
	}

	data, err := json.MarshalIndent(cacheDocument{
		SchemaVersion: constants.CacheSchemaVersion,
		Products:      onDisk,
		UpdatedAt:     c.clock.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrCacheWrite, err)
	}
	if err := fsutil.AtomicWrite(c.path, data); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrCacheWrite, err)
	}

	c.products = onDisk
	return nil
}

// All implements Cache.
func (c *FileCache) All(_ context.Context) (map[string]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.products), nil
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu       sync.RWMutex
	products map[string]int64
}

// NewMemoryCache returns a MemoryCache seeded with a copy of seed.
func NewMemoryCache(seed map[string]int64) *MemoryCache {
	products := make(map[string]int64, len(seed))
	maps.Copy(products, seed)
	return &MemoryCache{products: products}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, asin string) (int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.products[asin]
	return id, ok, nil
}

// Put implements Cache. An existing entry is kept.
func (c *MemoryCache) Put(_ context.Context, asin string, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.products[asin]; !exists {
		c.products[asin] = productID
	}
	return nil
}

// All implements Cache.
func (c *MemoryCache) All(_ context.Context) (map[string]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.products), nil
}

// readOnlyCache serves reads from an in-memory overlay first, then the base.
type readOnlyCache struct {
	base    Cache
	overlay *MemoryCache
}

// ReadOnly wraps base so that Put only reaches an in-memory overlay. Dry runs
// use it to resolve products without touching the cache file.
func ReadOnly(base Cache) Cache {
	return &readOnlyCache{base: base, overlay: NewMemoryCache(nil)}
}

func (c *readOnlyCache) Get(ctx context.Context, asin string) (int64, bool, error) {
	if id, ok, _ := c.overlay.Get(ctx, asin); ok {
		return id, true, nil
	}
	return c.base.Get(ctx, asin)
}

func (c *readOnlyCache) Put(ctx context.Context, asin string, productID int64) error {
	return c.overlay.Put(ctx, asin, productID)
}

func (c *readOnlyCache) All(ctx context.Context) (map[string]int64, error) {
	all, err := c.base.All(ctx)
	if err != nil {
		return nil, err
	}
	extra, _ := c.overlay.All(ctx)
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return all, nil
}
