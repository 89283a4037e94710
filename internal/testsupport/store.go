package testsupport

import (
	"testing"

	"ytscribe/internal/cache"
	"ytscribe/internal/config"
	"ytscribe/internal/logging"
)

// MustOpenCache opens a cache.Store for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *cache.Store {
	t.Helper()

	store, err := cache.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	if store == nil {
		t.Fatal("cache.Open returned nil store; enable caching in the test config")
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
