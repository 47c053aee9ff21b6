package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when cachePayload format changes.
const cacheSchemaVersion uint16 = 1

// Digest keys a cached analysis result by content.
type Digest [sha256.Size]byte

// CacheKey digests an analysis request. focus participates in the key
// because the conceptual-focus flag changes the remote output.
func CacheKey(code string, focus bool) Digest {
	h := sha256.New()
	h.Write([]byte(code))
	if focus {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

type cachePayload struct {
	Schema  uint16
	SavedAt int64
	Result  Result
}

// Cache stores remote analysis results on disk keyed by request digest.
// Thread-safe for concurrent access. One-shot CLI runs use it to skip
// re-analysis of unchanged files; the LSP never does, because its
// freshness rules are revision-driven.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// OpenCache initializes and returns a disk cache at the standard location.
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app, "results")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, hex.EncodeToString(key[:])+".msgpack")
}

// Load returns the cached result for key, or ok=false on miss or on a
// payload with a stale schema.
func (c *Cache) Load(key Digest) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	raw, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	var payload cachePayload
	if err := msgpack.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, false
	}
	return &payload.Result, true
}

// Store writes the result for key, replacing any previous entry.
func (c *Cache) Store(key Digest, res *Result) error {
	if res == nil {
		return errors.New("nil result")
	}
	payload := cachePayload{
		Schema:  cacheSchemaVersion,
		SavedAt: time.Now().Unix(),
		Result:  *res,
	}
	raw, err := msgpack.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	tmp := c.pathFor(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.pathFor(key))
}
