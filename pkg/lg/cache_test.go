package lg

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeLG(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSourceCache_Basic(t *testing.T) {
	cache := NewSourceCacheWithConfig(CacheConfig{MaxSize: 10})
	path := writeLG(t, t.TempDir(), "a.lg", "# a\n- one")

	first, err := cache.load(path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	second, err := cache.load(path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if first != second {
		t.Error("Expected cached source to be the same object")
	}
	if cache.Size() != 1 || !cache.Contains(path) {
		t.Errorf("Size() = %d, Contains() = %v", cache.Size(), cache.Contains(path))
	}
}

func TestSourceCache_FileChanged(t *testing.T) {
	cache := NewSourceCacheWithConfig(CacheConfig{MaxSize: 10})
	path := writeLG(t, t.TempDir(), "a.lg", "# a\n- one")

	first, err := cache.load(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("# a\n- one\n- two"), 0644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	second, err := cache.load(path)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("Expected a changed file to be parsed again")
	}
	if n := len(second.templates[0].body.variations); n != 2 {
		t.Errorf("reparsed template has %d variations, want 2", n)
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}
}

func TestSourceCache_Eviction(t *testing.T) {
	cache := NewSourceCacheWithConfig(CacheConfig{MaxSize: 2})
	dir := t.TempDir()
	a := writeLG(t, dir, "a.lg", "# a\n- a")
	b := writeLG(t, dir, "b.lg", "# b\n- b")
	c := writeLG(t, dir, "c.lg", "# c\n- c")

	for _, path := range []string{a, b, a, c} {
		if _, err := cache.load(path); err != nil {
			t.Fatal(err)
		}
	}

	if cache.Size() != 2 {
		t.Errorf("Size() = %d, want 2", cache.Size())
	}
	if cache.Contains(b) {
		t.Error("least recently used file should have been evicted")
	}
	if !cache.Contains(a) || !cache.Contains(c) {
		t.Error("recently used files should stay cached")
	}
}

func TestSourceCache_TTL(t *testing.T) {
	cache := NewSourceCacheWithConfig(CacheConfig{MaxSize: 10, TTL: 50 * time.Millisecond})
	path := writeLG(t, t.TempDir(), "a.lg", "# a\n- one")

	first, err := cache.load(path)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	second, err := cache.load(path)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("Expected expired entry to be parsed again")
	}
}

func TestSourceCache_Disabled(t *testing.T) {
	cache := NewSourceCacheWithConfig(CacheConfig{MaxSize: 0})
	path := writeLG(t, t.TempDir(), "a.lg", "# a\n- one")

	first, err := cache.load(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.load(path)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("disabled cache should parse every time")
	}
	if cache.Size() != 0 {
		t.Errorf("Size() = %d, want 0", cache.Size())
	}
}

func TestSourceCache_RemoveAndClear(t *testing.T) {
	cache := NewSourceCacheWithConfig(CacheConfig{MaxSize: 10})
	dir := t.TempDir()
	a := writeLG(t, dir, "a.lg", "# a\n- a")
	b := writeLG(t, dir, "b.lg", "# b\n- b")
	cache.load(a)
	cache.load(b)

	cache.Remove(a)
	if cache.Contains(a) || cache.Size() != 1 {
		t.Errorf("after Remove: Contains(a) = %v, Size() = %d", cache.Contains(a), cache.Size())
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("after Clear: Size() = %d", cache.Size())
	}
}

func TestSourceCache_MissingFile(t *testing.T) {
	cache := NewSourceCacheWithConfig(CacheConfig{MaxSize: 10})
	if _, err := cache.load(filepath.Join(t.TempDir(), "nope.lg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSourceCache_Concurrent(t *testing.T) {
	cache := NewSourceCacheWithConfig(CacheConfig{MaxSize: 5})
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.lg", "b.lg", "c.lg", "d.lg", "e.lg", "f.lg"} {
		paths = append(paths, writeLG(t, dir, name, "# t\n- x"))
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 30; j++ {
				if _, err := cache.load(paths[(i+j)%len(paths)]); err != nil {
					t.Error(err)
				}
			}
		}(i)
	}
	wg.Wait()

	if cache.Size() > 5 {
		t.Errorf("Size() = %d, exceeds MaxSize", cache.Size())
	}
}

func TestEngineUsesCache(t *testing.T) {
	path := writeLG(t, t.TempDir(), "a.lg", "# a\n- one")

	engine := New(WithLogger(quietLogger()), WithCache(4))
	if err := engine.AddFiles(path); err != nil {
		t.Fatal(err)
	}
	if !engine.cache.Contains(path) {
		t.Error("engine should cache loaded files")
	}
	engine.ClearCache()
	if engine.cache.Size() != 0 {
		t.Error("ClearCache() should empty the cache")
	}
}
