package transformcache

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// deriveKey hashes the ordered chunk sequence
// [fingerprint, input, salt, extra...] into a hex digest.
func deriveKey(newHash HashFunc, fingerprint string, input, salt []byte, extra []chunk) (string, error) {
	h := newHash()

	writeChunk(h, []byte(fingerprint))
	writeChunk(h, input)
	writeChunk(h, salt)
	for i, c := range extra {
		if c.file == nil {
			writeChunk(h, c.data)
			continue
		}
		if err := writeFileChunk(h, c.file.fs, c.file.path); err != nil {
			return "", fmt.Errorf("failed to hash data %d: %w", i, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Hash returns the cache key for input. The key covers the library
// fingerprint, the input bytes, the salt and whatever the hashData option
// returns for (input, metadata); metadata itself is never hashed.
//
// hashData may return nil (no extra material), a single value, or a []any,
// []string or [][]byte whose elements are hashed in order. Strings and byte
// slices are hashed as their bytes; any other value is hashed through a
// deterministic textual dump of its contents.
func (t *Transformer) Hash(input []byte, metadata any) (string, error) {
	data, err := t.cfg.hashData(input, metadata)
	if err != nil {
		return "", fmt.Errorf("hash data: %w", err)
	}
	return deriveKey(t.cfg.hashFunc, t.fingerprint, input, t.cfg.salt, hashDataChunks(data))
}

// Path returns the cache file used for input.
func (t *Transformer) Path(input []byte, metadata any) (string, error) {
	key, err := t.Hash(input, metadata)
	if err != nil {
		return "", err
	}
	return t.pathFor(key, metadata), nil
}

// pathFor joins the cache directory with prefix + key + extension.
func (t *Transformer) pathFor(key string, metadata any) string {
	return filepath.Join(t.cacheDir, t.cfg.filenamePrefix(metadata)+key+t.cfg.ext)
}
