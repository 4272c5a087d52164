// Package diskcache persists parsed tracepoint format-file results to
// disk so that a second run over the same probe program does not pay
// the blocking filesystem cost of re-walking and re-parsing
// /sys/kernel/tracing/events again (spec.md §5's "tracepoint format
// parsing is blocking filesystem I/O" note).
//
// Grounded directly in the teacher's internal/driver/dcache.go: same
// schema-versioned payload struct, same atomic temp-file-then-rename
// Put, same RLock-guarded Get, same msgpack encoding. The cache key here
// is (events_root, category, event) hashed to a filename instead of a
// module content hash, and the payload carries the parsed field list
// instead of module metadata.
package diskcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// schemaVersion guards against stale payloads after a format change;
// bump it whenever FieldPayload or DiskPayload gains/loses a field.
const schemaVersion uint16 = 1

// FieldPayload is the cached, as-parsed representation of one tracepoint
// format field (its C type not yet widened or resolved) — flat data, no *types.SizedType pointers, so
// the payload has no pointer graph for msgpack to walk.
type FieldPayload struct {
	Name     string
	CType    string
	Offset   uint32
	Size     uint32
	Signed   bool
	ArrayLen int
	DataLoc  bool
}

// DiskPayload is what gets written to one cache file: everything
// ParseAll needs to rebuild a types.Struct without touching the format
// file again, plus the mtime it was parsed from so a changed tracefs
// entry invalidates the entry.
type DiskPayload struct {
	Schema     uint16
	Category   string
	Event      string
	StructName string
	Fields     []FieldPayload
	ModTimeNS  int64
}

// Cache stores DiskPayload values on disk keyed by (eventsRoot,
// category, event). Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes a Cache rooted at dir, creating it if absent.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// DefaultDir returns the standard cache location under
// $XDG_CACHE_HOME/tracesema (or $HOME/.cache/tracesema).
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "tracesema"), nil
}

func keyFor(eventsRoot, category, event string) string {
	h := sha256.Sum256([]byte(eventsRoot + "\x00" + category + "\x00" + event))
	return hex.EncodeToString(h[:])
}

func (c *Cache) pathFor(eventsRoot, category, event string) string {
	return filepath.Join(c.dir, "tracepoints", keyFor(eventsRoot, category, event)+".mp")
}

// Put writes payload to disk, replacing any existing entry atomically.
func (c *Cache) Put(eventsRoot string, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(eventsRoot, payload.Category, payload.Event)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	removeTemp := true
	defer func() {
		if removeTemp {
			os.Remove(f.Name())
		}
	}()

	payload.Schema = schemaVersion
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), p); err != nil {
		return err
	}
	removeTemp = false
	return nil
}

// Get reads a payload back for (category, event), reporting false if no
// entry exists, the entry's schema is stale, or its recorded mtime no
// longer matches currentModTimeNS (the format file changed since it was
// cached).
func (c *Cache) Get(eventsRoot, category, event string, currentModTimeNS int64) (DiskPayload, bool, error) {
	var out DiskPayload
	if c == nil {
		return out, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(eventsRoot, category, event)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, false, nil
		}
		return out, false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return DiskPayload{}, false, err
	}
	if out.Schema != schemaVersion || out.ModTimeNS != currentModTimeNS {
		return DiskPayload{}, false, nil
	}
	return out, true, nil
}

// DropAll invalidates every cached entry, e.g. after a schema change.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(c.dir)
}
