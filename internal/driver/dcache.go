package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"svir/internal/mir"
	"svir/internal/project"
)

// Current schema version - increment when CachedDesign format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты понижения чистых дизайнов по их Digest.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedDesign is the lowering output of a design that produced no
// diagnostics.
type CachedDesign struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Name    string
	Path    string
	Outputs []CachedOutput
}

// CachedOutput mirrors Output without the in-memory trees.
type CachedOutput struct {
	Root     int
	Text     string
	Env      string
	Kind     string
	Dump     string
	Snapshot *mir.Snapshot
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// Для удобства очистки — подкаталог "designs".
	return filepath.Join(c.dir, "designs", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key project.Digest, payload *CachedDesign) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// после Rename файла уже нет
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	payload.Schema = diskCacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. Entries of
// another schema count as misses.
func (c *DiskCache) Get(key project.Digest) (*CachedDesign, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var out CachedDesign
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", key, err)
	}
	if out.Schema != diskCacheSchemaVersion {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

func outputsToCache(name, path string, outputs []Output) *CachedDesign {
	payload := &CachedDesign{Name: name, Path: path, Outputs: make([]CachedOutput, len(outputs))}
	for i, out := range outputs {
		payload.Outputs[i] = CachedOutput{
			Root:     out.Root,
			Text:     out.Text,
			Env:      out.Env,
			Kind:     out.Kind.String(),
			Dump:     out.Dump,
			Snapshot: out.Snapshot,
		}
	}
	return payload
}

func cacheToOutputs(payload *CachedDesign) []Output {
	outputs := make([]Output, len(payload.Outputs))
	for i, c := range payload.Outputs {
		outputs[i] = Output{
			Root:     c.Root,
			Text:     c.Text,
			Env:      c.Env,
			Kind:     parseKind(c.Kind),
			Dump:     c.Dump,
			Snapshot: c.Snapshot,
		}
	}
	return outputs
}
