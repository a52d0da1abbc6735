package transformcache

import (
	"fmt"
	"hash"
	"log/slog"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// DefaultPersistRetries is how many extra write attempts are made when the
// cache directory disappears while a result is being persisted.
const DefaultPersistRetries = 3

// HashFunc defines a function that creates a new hash.Hash instance.
type HashFunc func() hash.Hash

// HashDataFunc returns extra key material for an input. The result may be
// nil, a single value or a []any of values; see Transformer.Hash.
type HashDataFunc func(input []byte, metadata any) (any, error)

// OnHashFunc observes every derived key before the cache is consulted.
type OnHashFunc func(input []byte, metadata any, hash string)

// FilenamePrefixFunc returns a prefix for the cache file name of an input.
type FilenamePrefixFunc func(metadata any) string

// ShouldTransformFunc decides whether an input goes through the transform at
// all. Returning false hands the input back untouched.
type ShouldTransformFunc func(input []byte, metadata any) bool

// Option defines a function that configures a Transformer.
type Option func(*config)

type config struct {
	fs              afero.Fs
	hashFunc        HashFunc
	salt            []byte
	ext             string
	hashData        HashDataFunc
	onHash          OnHashFunc
	filenamePrefix  FilenamePrefixFunc
	shouldTransform ShouldTransformFunc
	disableCache    bool
	createCacheDir  bool
	encoding        Encoding
	fingerprint     *string
	persistRetries  int
	fileMode        os.FileMode
	logger          *slog.Logger
	errs            []error // option validation errors, reported by New
}

func defaultConfig() config {
	return config{
		fs:              afero.NewOsFs(),
		hashFunc:        defaultHashFunc,
		hashData:        func([]byte, any) (any, error) { return nil, nil },
		onHash:          func([]byte, any, string) {},
		filenamePrefix:  func(any) string { return "" },
		shouldTransform: func([]byte, any) bool { return true },
		createCacheDir:  true,
		encoding:        UTF8,
		persistRetries:  DefaultPersistRetries,
		fileMode:        0o644,
		logger:          slog.New(slog.DiscardHandler),
	}
}

func (c *config) invalid(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidOption}, args...)...))
}

// WithFs sets the filesystem used for cache files.
// This is primarily useful for testing with in-memory filesystems.
//
// Example:
//
//	t, err := transformcache.New(".cache", src, transformcache.WithFs(afero.NewMemMapFs()))
func WithFs(fs afero.Fs) Option {
	return func(c *config) {
		if fs == nil {
			c.invalid("nil filesystem")
			return
		}
		c.fs = fs
	}
}

// WithHashFunc sets the hash function used to derive cache keys.
// The default is xxHash64.
//
// Note: Changing the hash function will invalidate existing cache entries.
func WithHashFunc(hashFunc HashFunc) Option {
	return func(c *config) {
		if hashFunc == nil {
			c.invalid("nil hash function")
			return
		}
		c.hashFunc = hashFunc
	}
}

// WithSalt mixes salt into every cache key.
func WithSalt(salt string) Option {
	return func(c *config) {
		c.salt = []byte(salt)
	}
}

// WithSaltBytes is WithSalt for binary salts. A byte salt and the string with
// the same bytes produce the same keys.
func WithSaltBytes(salt []byte) Option {
	return func(c *config) {
		c.salt = append([]byte(nil), salt...)
	}
}

// WithExtension sets the suffix of cache file names, e.g. ".js".
func WithExtension(ext string) Option {
	return func(c *config) {
		c.ext = ext
	}
}

// WithHashData adds caller-computed key material to every key.
func WithHashData(fn HashDataFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.hashData = fn
		}
	}
}

// WithOnHash registers an observer called with every derived key.
func WithOnHash(fn OnHashFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.onHash = fn
		}
	}
}

// WithFilenamePrefix sets a function choosing a file name prefix per input.
func WithFilenamePrefix(fn FilenamePrefixFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.filenamePrefix = fn
		}
	}
}

// WithShouldTransform sets a gate that can bypass both the transform and the cache.
func WithShouldTransform(fn ShouldTransformFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.shouldTransform = fn
		}
	}
}

// WithDisableCache makes every call run the transform without touching the filesystem.
func WithDisableCache(disable bool) Option {
	return func(c *config) {
		c.disableCache = disable
	}
}

// WithCreateCacheDir controls whether the cache directory is created on the
// first miss. Pass false when the caller guarantees the directory exists.
//
// Creation happens once, except when the directory disappears while a
// result is being written: it is then created again before each retry (see
// WithPersistRetries).
func WithCreateCacheDir(create bool) Option {
	return func(c *config) {
		c.createCacheDir = create
	}
}

// WithEncoding sets how results are written to and read from cache files.
// The default is UTF8; use Raw for binary results.
func WithEncoding(enc Encoding) Option {
	return func(c *config) {
		c.encoding = enc
	}
}

// WithFingerprint replaces the library fingerprint mixed into every key.
// By default DefaultFingerprint is used.
func WithFingerprint(fingerprint string) Option {
	return func(c *config) {
		c.fingerprint = &fingerprint
	}
}

// WithPersistRetries sets how many extra write attempts are made when the
// cache directory vanishes during a write. The default is DefaultPersistRetries.
func WithPersistRetries(n int) Option {
	return func(c *config) {
		if n < 0 {
			c.invalid("negative persist retries %d", n)
			return
		}
		c.persistRetries = n
	}
}

// WithFileMode sets the permission bits of new cache files. The default is 0644.
func WithFileMode(mode os.FileMode) Option {
	return func(c *config) {
		c.fileMode = mode
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// defaultHashFunc returns the default hash function (xxHash64).
func defaultHashFunc() hash.Hash {
	return xxhash.New()
}
