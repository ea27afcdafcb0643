package cache

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// FileCache keeps registry responses as JSON envelopes on a billy
// filesystem, sharded by the first two hex digits of the key hash. The CLI
// uses it on osfs, below the user cache directory.
type FileCache struct {
	fs  billy.Filesystem
	dir string
}

// NewFileCache opens a cache rooted at dir on fs, creating dir if needed.
func NewFileCache(fs billy.Filesystem, dir string) (*FileCache, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{fs: fs, dir: dir}, nil
}

type envelope struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Get returns the stored bytes for key. Expired and unreadable entries are
// removed and reported as misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	p := c.path(key)
	raw, err := util.ReadFile(c.fs, p)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e envelope
	if json.Unmarshal(raw, &e) != nil || e.expired(time.Now()) {
		_ = c.fs.Remove(p)
		return nil, false, nil
	}
	return e.Data, true, nil
}

func (e envelope) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Set stores data under key. A non-positive ttl never expires.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	e := envelope{Data: data}
	if ttl > 0 {
		e.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	p := c.path(key)
	if err := c.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	return util.WriteFile(c.fs, p, raw, 0o644)
}

func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := c.fs.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear drops every entry and leaves an empty cache directory behind.
func (c *FileCache) Clear(_ context.Context) error {
	if err := util.RemoveAll(c.fs, c.dir); err != nil {
		return err
	}
	return c.fs.MkdirAll(c.dir, 0o755)
}

// Dir is the cache root on the filesystem.
func (c *FileCache) Dir() string { return c.dir }

func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return path.Join(c.dir, h[:2], h[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
