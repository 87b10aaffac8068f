package pyproject

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"

	"github.com/pyproject-tools/pybuild/internal/metrics"
	"github.com/pyproject-tools/pybuild/pkg/buildsys"
)

const defaultCacheSize = 256

type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

// Loader parses project files and runs discovery on them. Parsed documents are
// cached by path, size and modification time, so long-lived callers only decode
// files that changed. A Loader is safe for concurrent use.
type Loader struct {
	cache *lru.Cache
}

func NewLoader(cacheSize int) (*Loader, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	c, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Loader{cache: c}, nil
}

// Load returns the parsed document at filename. The returned map is shared
// with the cache and must not be modified.
func (l *Loader) Load(filename string) (map[string]any, error) {
	fi, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", filename, err)
	}

	key := cacheKey{path: filename, size: fi.Size(), modTime: fi.ModTime().UnixNano()}
	if v, ok := l.cache.Get(key); ok {
		metrics.ParseCacheHits.Inc()
		return v.(map[string]any), nil
	}
	metrics.ParseCacheMisses.Inc()

	doc, err := ParseFile(filename)
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, doc)
	return doc, nil
}

// Discover reads the pyproject.toml of projectRoot and resolves its build
// descriptor. A project without pyproject.toml gets the legacy defaults.
func (l *Loader) Discover(projectRoot string) (*buildsys.BuildDescriptor, error) {
	doc, err := l.Load(filepath.Join(projectRoot, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		doc, err = map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	return buildsys.Discover(doc, projectRoot)
}

// Len returns the number of cached documents.
func (l *Loader) Len() int {
	return l.cache.Len()
}
