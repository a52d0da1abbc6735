/*
Package transformcache memoizes expensive, deterministic transforms on disk.

A Transformer wraps a transform function. Given an input (and optional
metadata) it either returns a result computed by an earlier call, possibly in
another process, or runs the transform and stores the result for next time.
It was built for source-to-source tools such as instrumenters and compilers,
where the same file is transformed over and over across runs.

# Core Architecture

Every input is mapped to a content-addressed key. The key is a hash (xxHash
by default) over an ordered sequence of chunks:

  - the library fingerprint (module path and version)
  - the input bytes
  - the configured salt
  - whatever the hashData option returns for the input

The result lives in a single flat file named after the key:

	.cache/
	├── [prefix][key][ext]
	└── [prefix][key][ext]

There is no index and no manifest. A present file is trusted forever: the key
already covers everything that could make it stale, so invalidation means
changing the salt, the hash data or the library version. Deleting files is
always safe; the next call simply misses.

# Basic Usage

Creating a transformer:

	t, err := transformcache.New(".cache", transformcache.Direct(
	    func(input []byte, metadata any, hash string) ([]byte, error) {
	        return instrument(input)
	    },
	), transformcache.WithSalt("instrumenter-v2"), transformcache.WithExtension(".js"))
	if err != nil {
	    log.Fatalf("Failed to create transformer: %v", err)
	}

Transforming an input:

	out, err := t.Transform(src, nil)
	if err != nil {
	    log.Fatalf("Transform failed: %v", err)
	}

Deferring expensive setup until the first real miss:

	t, err := transformcache.New(".cache", transformcache.Factory(
	    func(cacheDir string) (transformcache.TransformFunc, error) {
	        compiler, err := loadCompiler()
	        if err != nil {
	            return nil, err
	        }
	        return compiler.Transform, nil
	    },
	))

The factory runs at most once per Transformer, and never when every call is a
cache hit.

# Configuration Options

  - WithSalt, WithSaltBytes: extra key material shared by every input
  - WithHashData, HashFiles, HashGlob: per-input key material
  - WithExtension, WithFilenamePrefix: cache file naming
  - WithShouldTransform: skip the transform and the cache for some inputs
  - WithDisableCache: always run the transform, never touch the filesystem
  - WithCreateCacheDir: set to false when the directory is known to exist
  - WithEncoding: Raw, UTF8 or any charset from LookupEncoding
  - WithOnHash: observe every derived key
  - WithFs, WithHashFunc, WithFingerprint, WithPersistRetries, WithLogger

# Concurrency

Cache files are written to a temporary file and renamed into place, so
readers never see a partial result. Several processes may share one cache
directory without locking; at worst two of them compute the same miss. If
the directory is removed while a result is being written, the write is
retried up to DefaultPersistRetries times, re-creating the directory, without
running the transform again. Within one process, concurrent misses on the
same key share a single transform call.

# Error Handling

  - ConfigError: returned by New, wraps ErrNoTransform, ErrNoCacheDir and
    ErrInvalidOption
  - PersistError: returned when persist retries run out, wraps
    ErrRetriesExhausted and the last I/O error
  - Errors from the transform, the factory and hashData are returned as-is or
    wrapped; other filesystem errors are returned immediately

A failing transform is never cached.
*/
package transformcache
