package transformcache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// writeFileAtomic writes data to path so that readers see either the previous
// state or the complete new file. The data goes to a temporary file in the
// same directory, which is then renamed over path.
func writeFileAtomic(fs afero.Fs, path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err = fs.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to chmod temporary file: %w", err)
	}
	if err = fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// persist writes result to path, retrying when the cache directory vanished
// under a concurrent writer. The transform is never re-run here.
func (t *Transformer) persist(path string, result []byte) error {
	data, err := t.cfg.encoding.encode(result)
	if err != nil {
		return fmt.Errorf("failed to encode result for %s: %w", path, err)
	}

	for attempt := 1; ; attempt++ {
		err := writeFileAtomic(t.cfg.fs, path, data, t.cfg.fileMode)
		if err == nil {
			t.stats.writes.Add(1)
			return nil
		}

		// Without directory creation a missing directory is the caller's
		// problem, not a race. The same goes for subdirectories introduced
		// by a filename prefix, which are never created.
		if !t.managesDir() || !t.inCacheDir(path) || !isTransientRace(err) {
			return fmt.Errorf("failed to write cache file %s: %w", path, err)
		}
		if attempt > t.cfg.persistRetries {
			return &PersistError{Path: path, Attempts: attempt, Err: err}
		}

		t.stats.retries.Add(1)
		t.cfg.logger.Warn("cache directory vanished during write, retrying",
			"path", path, "attempt", attempt, "error", err)

		// Another writer may have completed the same entry meanwhile.
		if exists, _ := afero.Exists(t.cfg.fs, path); exists {
			return nil
		}
		if err := t.recreateDir(); err != nil {
			return err
		}
	}
}

// inCacheDir reports whether path lives directly in the cache directory.
func (t *Transformer) inCacheDir(path string) bool {
	return filepath.Dir(path) == filepath.Clean(t.cacheDir)
}
