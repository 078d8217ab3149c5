package lg

import (
	"container/list"
	"fmt"
	"os"
	"sync"
	"time"
)

// CacheConfig contains configuration options for the source cache
type CacheConfig struct {
	// MaxSize is the maximum number of files to cache. 0 disables caching.
	MaxSize int
	// TTL is the time-to-live for cached files. 0 means no expiration.
	TTL time.Duration
}

// SourceCache keeps parsed .lg files keyed by path. An entry is reused only
// while the file's modification time and size are unchanged.
type SourceCache struct {
	mu     sync.Mutex
	cache  map[string]*cacheEntry
	lru    *list.List
	config CacheConfig
}

type cacheEntry struct {
	key     string
	source  *parsedSource
	modTime time.Time
	size    int64
	expiry  time.Time
	element *list.Element
}

// NewSourceCache creates a source cache sized from the global configuration
func NewSourceCache() *SourceCache {
	config := GetGlobalConfig()
	return NewSourceCacheWithConfig(CacheConfig{
		MaxSize: config.CacheMaxSize,
		TTL:     config.CacheTTL,
	})
}

// NewSourceCacheWithConfig creates a source cache with the given configuration
func NewSourceCacheWithConfig(config CacheConfig) *SourceCache {
	return &SourceCache{
		cache:  make(map[string]*cacheEntry),
		lru:    list.New(),
		config: config,
	}
}

// load returns the parsed file at path, reading and parsing it on a miss.
func (sc *SourceCache) load(path string) (*parsedSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read template file %s: %w", path, err)
	}

	if src, ok := sc.lookup(path, info); ok {
		return src, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template file %s: %w", path, err)
	}
	src := parseSource(string(data), path)
	sc.store(path, info, src)
	return src, nil
}

func (sc *SourceCache) lookup(path string, info os.FileInfo) (*parsedSource, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	entry, exists := sc.cache[path]
	if !exists {
		return nil, false
	}
	expired := sc.config.TTL > 0 && time.Now().After(entry.expiry)
	if expired || !entry.modTime.Equal(info.ModTime()) || entry.size != info.Size() {
		sc.removeLocked(entry)
		return nil, false
	}
	sc.lru.MoveToFront(entry.element)
	return entry.source, true
}

func (sc *SourceCache) store(path string, info os.FileInfo, src *parsedSource) {
	if sc.config.MaxSize == 0 {
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if existing, exists := sc.cache[path]; exists {
		sc.removeLocked(existing)
	}

	if sc.lru.Len() >= sc.config.MaxSize {
		if oldest := sc.lru.Back(); oldest != nil {
			sc.removeLocked(oldest.Value.(*cacheEntry))
		}
	}

	entry := &cacheEntry{
		key:     path,
		source:  src,
		modTime: info.ModTime(),
		size:    info.Size(),
	}
	if sc.config.TTL > 0 {
		entry.expiry = time.Now().Add(sc.config.TTL)
	}
	entry.element = sc.lru.PushFront(entry)
	sc.cache[path] = entry
}

func (sc *SourceCache) removeLocked(entry *cacheEntry) {
	delete(sc.cache, entry.key)
	sc.lru.Remove(entry.element)
}

// Remove drops a file from the cache
func (sc *SourceCache) Remove(path string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if entry, exists := sc.cache[path]; exists {
		sc.removeLocked(entry)
	}
}

// Contains reports whether path has a cached entry, fresh or not
func (sc *SourceCache) Contains(path string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	_, exists := sc.cache[path]
	return exists
}

// Clear removes all files from the cache
func (sc *SourceCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.cache = make(map[string]*cacheEntry)
	sc.lru = list.New()
}

// Size returns the current number of cached files
func (sc *SourceCache) Size() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.cache)
}

// defaultCache is shared by engines created without WithCache
var defaultCache = NewSourceCache()
