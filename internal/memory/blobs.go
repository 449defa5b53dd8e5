package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/ristretto"
)

// BlobStore keeps the canonical JSON document of each entry on disk,
// laid out as <dir>/YYYY/MM/<id>.json. Reads are fronted by an optional
// ristretto cache keyed by path and validated against the file's mtime,
// so a document removed or edited outside the store is never served stale.
type BlobStore struct {
	dir   string
	cache *ristretto.Cache
}

type cachedBlob struct {
	entry   *Entry
	modTime time.Time
	size    int64
}

// NewBlobStore creates the blob directory and, when cacheEntries > 0,
// a read cache holding up to that many documents.
func NewBlobStore(dir string, cacheEntries int64) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating entries directory: %w", err)
	}

	b := &BlobStore{dir: dir}
	if cacheEntries > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: cacheEntries * 10,
			MaxCost:     cacheEntries,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("creating blob cache: %w", err)
		}
		b.cache = cache
	}
	return b, nil
}

// PathFor returns where an entry created at t is stored.
func (b *BlobStore) PathFor(id string, t time.Time) string {
	t = t.UTC()
	return filepath.Join(b.dir, t.Format("2006"), t.Format("01"), id+".json")
}

// Write stores a new document and returns its path.
func (b *BlobStore) Write(e *Entry, created time.Time) (string, error) {
	path := b.PathFor(e.ID, created)
	if err := b.Rewrite(path, e); err != nil {
		return "", err
	}
	return path, nil
}

// Rewrite replaces the document at path.
func (b *BlobStore) Rewrite(path string, e *Entry) error {
	data, err := marshalEntry(e)
	if err != nil {
		return fmt.Errorf("marshaling entry %s: %w", e.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating entry directory: %w", err)
	}

	// Each writer gets its own temp file; the rename is atomic so readers
	// see either the old or the new document.
	f, err := os.CreateTemp(filepath.Dir(path), e.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing entry %s: %w", e.ID, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("writing entry %s: %w", e.ID, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing entry %s: %w", e.ID, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing entry %s: %w", e.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing entry %s: %w", e.ID, err)
	}

	if b.cache != nil {
		b.cache.Del(path)
	}
	return nil
}

// Read loads the document at path. A missing document yields an error
// wrapping fs.ErrNotExist.
func (b *BlobStore) Read(path string) (*Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		if b.cache != nil {
			b.cache.Del(path)
		}
		return nil, err
	}

	if b.cache != nil {
		if v, ok := b.cache.Get(path); ok {
			if cb, ok := v.(cachedBlob); ok && cb.modTime.Equal(info.ModTime()) && cb.size == info.Size() {
				return cb.entry.clone(), nil
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}

	if b.cache != nil {
		b.cache.Set(path, cachedBlob{entry: e.clone(), modTime: info.ModTime(), size: info.Size()}, 1)
	}
	return &e, nil
}

// Remove deletes the document at path, ignoring a missing file.
func (b *BlobStore) Remove(path string) error {
	if b.cache != nil {
		b.cache.Del(path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Close stops the cache's background goroutines.
func (b *BlobStore) Close() {
	if b.cache != nil {
		b.cache.Close()
	}
}

// marshalEntry renders the document with two-space indentation and
// without HTML escaping so CJK and URLs stay readable on disk.
func marshalEntry(e *Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
