package transformcache

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Sentinel errors
var (
	// ErrNoTransform is returned by New when neither a transform nor a factory
	// was supplied, or when a factory produced a nil transform.
	ErrNoTransform = errors.New("no transform or factory configured")

	// ErrNoCacheDir is returned by New when caching is enabled but no cache
	// directory was given.
	ErrNoCacheDir = errors.New("cache directory is required unless caching is disabled")

	// ErrInvalidOption is returned by New when an option received an unusable value.
	ErrInvalidOption = errors.New("invalid option")

	// ErrRetriesExhausted is wrapped by PersistError once every persist retry failed.
	ErrRetriesExhausted = errors.New("persist retries exhausted")
)

// ConfigError represents one or more configuration errors found by New.
type ConfigError struct {
	Errors []error
}

// Error implements the error interface.
func (ce *ConfigError) Error() string {
	if len(ce.Errors) == 0 {
		return "invalid configuration"
	}
	if len(ce.Errors) == 1 {
		return fmt.Sprintf("invalid configuration: %v", ce.Errors[0])
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "invalid configuration with %d errors:\n", len(ce.Errors))
	for i, err := range ce.Errors {
		fmt.Fprintf(&buf, "  %d. %v\n", i+1, err)
	}
	return buf.String()
}

// Unwrap returns the underlying errors for use with errors.Is and errors.As.
func (ce *ConfigError) Unwrap() []error {
	return ce.Errors
}

// newConfigError creates a ConfigError from a slice of errors.
// Returns nil if the slice is empty.
func newConfigError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &ConfigError{Errors: errs}
}

// PersistError is returned when a result could not be written to the cache
// because the cache directory kept disappearing under a concurrent writer.
// It matches both ErrRetriesExhausted and the last underlying I/O error.
type PersistError struct {
	Path     string // Target cache file
	Attempts int    // Write attempts made, including the first one
	Err      error  // Last write error
}

// Error implements the error interface.
func (pe *PersistError) Error() string {
	return fmt.Sprintf("failed to persist %s after %d attempts: %v", pe.Path, pe.Attempts, pe.Err)
}

// Unwrap returns ErrRetriesExhausted and the last write error.
func (pe *PersistError) Unwrap() []error {
	return []error{ErrRetriesExhausted, pe.Err}
}

// isTransientRace reports whether a write error looks like the cache
// directory vanished between lookup and write.
func isTransientRace(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
