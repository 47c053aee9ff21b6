package analysis

import (
	"testing"
)

func TestCacheRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenCache("smarty-test")
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	key := CacheKey("int main() {}", false)
	if _, ok := cache.Load(key); ok {
		t.Fatal("expected miss on empty cache")
	}
	want := Result{
		Language:    "c",
		Issues:      map[string]string{ToolCppcheck: "main.c:1:1: note"},
		Runtime:     SentinelNoOutput,
		Suggestions: "1. Consider returning a value",
	}
	if err := cache.Store(key, &want); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, ok := cache.Load(key)
	if !ok {
		t.Fatal("expected hit after store")
	}
	if got.Language != want.Language || got.Issues[ToolCppcheck] != want.Issues[ToolCppcheck] {
		t.Fatalf("payload mismatch: %+v", got)
	}
}

func TestCacheKeyVariesByFocus(t *testing.T) {
	if CacheKey("code", false) == CacheKey("code", true) {
		t.Fatal("focus flag must participate in the cache key")
	}
	if CacheKey("a", false) == CacheKey("b", false) {
		t.Fatal("distinct code must produce distinct keys")
	}
}
