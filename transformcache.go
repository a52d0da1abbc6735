package transformcache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

// realizationState tracks whether the transform and the cache directory
// are ready for a cache miss.
type realizationState int

const (
	stateUninitialized realizationState = iota
	stateReady
)

// Transformer wraps a transform function with an on-disk, content-addressed
// cache. It is safe for concurrent use.
type Transformer struct {
	cacheDir    string
	source      Source
	cfg         config
	fingerprint string

	mu         sync.Mutex // guards the fields below
	state      realizationState
	transform  TransformFunc
	dirCreated bool

	flight singleflight.Group // dedups concurrent misses on one cache file
	stats  counters
}

// New creates a Transformer caching the results of src under cacheDir.
// cacheDir may be empty only when caching is disabled. Configuration is
// validated here and all problems are returned together as a *ConfigError;
// New itself never touches the filesystem.
func New(cacheDir string, src Source, options ...Option) (*Transformer, error) {
	cfg := defaultConfig()
	for _, option := range options {
		option(&cfg)
	}

	errs := append([]error(nil), cfg.errs...)
	if src == nil || !src.valid() {
		errs = append(errs, ErrNoTransform)
	}
	if cacheDir == "" && !cfg.disableCache {
		errs = append(errs, ErrNoCacheDir)
	}
	if err := newConfigError(errs); err != nil {
		return nil, err
	}

	t := &Transformer{
		cacheDir: cacheDir,
		source:   src,
		cfg:      cfg,
	}
	if cfg.fingerprint != nil {
		t.fingerprint = *cfg.fingerprint
	} else {
		t.fingerprint = DefaultFingerprint()
	}

	// A direct transform that needs no directory is ready right away.
	if direct, ok := src.(directSource); ok && !t.managesDir() {
		t.transform = direct.fn
		t.state = stateReady
	}

	return t, nil
}

// Transform returns the result for input, from the cache when possible.
//
// When the shouldTransform gate rejects the input it is returned unchanged.
// With caching disabled the transform always runs. Otherwise the key is
// derived, the onHash observer is notified and the cache file is read; a
// present file is returned as-is without running the transform. On a miss
// the transform runs once and its result is written atomically before it is
// returned.
func (t *Transformer) Transform(input []byte, metadata any) ([]byte, error) {
	if !t.cfg.shouldTransform(input, metadata) {
		t.stats.bypassed.Add(1)
		t.cfg.logger.Debug("transform bypassed")
		return input, nil
	}

	if t.cfg.disableCache {
		fn, err := t.realize()
		if err != nil {
			return nil, err
		}
		t.stats.uncached.Add(1)
		t.cfg.logger.Debug("transform uncached")
		return fn(input, metadata, "")
	}

	key, err := t.Hash(input, metadata)
	if err != nil {
		return nil, err
	}
	t.cfg.onHash(input, metadata, key)

	path := t.pathFor(key, metadata)
	if cached, ok := t.readCached(path); ok {
		t.stats.hits.Add(1)
		t.cfg.logger.Debug("cache hit", "key", key, "path", path)
		return cached, nil
	}

	v, err, shared := t.flight.Do(path, func() (any, error) {
		return t.fill(input, metadata, key, path)
	})
	if err != nil {
		return nil, err
	}
	result := v.([]byte)
	if shared {
		result = bytes.Clone(result)
	}
	return result, nil
}

// TransformString is Transform for text. A string and its byte equivalent
// share cache entries.
func (t *Transformer) TransformString(input string, metadata any) (string, error) {
	out, err := t.Transform([]byte(input), metadata)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Func returns Transform as a plain function value.
func (t *Transformer) Func() func(input []byte, metadata any) ([]byte, error) {
	return t.Transform
}

// CacheDir returns the cache directory.
func (t *Transformer) CacheDir() string {
	return t.cacheDir
}

// Fingerprint returns the library fingerprint mixed into every key.
func (t *Transformer) Fingerprint() string {
	return t.fingerprint
}

// fill handles a cache miss: run the transform and persist its result.
func (t *Transformer) fill(input []byte, metadata any, key, path string) ([]byte, error) {
	fn, err := t.realize()
	if err != nil {
		return nil, err
	}

	result, err := fn(input, metadata, key)
	if err != nil {
		return nil, err
	}
	t.stats.misses.Add(1)
	t.cfg.logger.Debug("cache miss", "key", key, "path", path)

	if err := t.persist(path, result); err != nil {
		return nil, err
	}
	return result, nil
}

// readCached reads and decodes a cache file. Any failure counts as a miss.
func (t *Transformer) readCached(path string) ([]byte, bool) {
	data, err := afero.ReadFile(t.cfg.fs, path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			t.cfg.logger.Debug("cache file unreadable, treating as miss", "path", path, "error", err)
		}
		return nil, false
	}

	decoded, err := t.cfg.encoding.decode(data)
	if err != nil {
		t.cfg.logger.Debug("cache file undecodable, treating as miss", "path", path, "error", err)
		return nil, false
	}
	return decoded, true
}

// managesDir reports whether the transformer is responsible for creating
// the cache directory.
func (t *Transformer) managesDir() bool {
	return t.cfg.createCacheDir && !t.cfg.disableCache
}

// realize moves the transformer to stateReady: it creates the cache
// directory (once) and builds the transform from a factory (once).
func (t *Transformer) realize() (TransformFunc, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateReady {
		return t.transform, nil
	}

	if t.managesDir() && !t.dirCreated {
		if err := t.cfg.fs.MkdirAll(t.cacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory %s: %w", t.cacheDir, err)
		}
		t.dirCreated = true
		t.cfg.logger.Info("cache directory ready", "dir", t.cacheDir)
	}

	if t.transform == nil {
		fn, err := t.source.realize(t.cacheDir)
		if err != nil {
			return nil, err
		}
		t.transform = fn
		if _, ok := t.source.(factorySource); ok {
			t.cfg.logger.Info("transform built by factory", "dir", t.cacheDir)
		}
	}

	t.state = stateReady
	return t.transform, nil
}

// recreateDir re-creates the cache directory after it vanished during a
// write. The realized transform is kept.
func (t *Transformer) recreateDir() error {
	t.mu.Lock()
	t.dirCreated = false
	t.state = stateUninitialized
	t.mu.Unlock()

	_, err := t.realize()
	return err
}
