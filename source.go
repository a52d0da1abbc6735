package transformcache

import "fmt"

// TransformFunc computes the result for an input. hash is the derived cache
// key, or the empty string when caching is disabled.
type TransformFunc func(input []byte, metadata any, hash string) ([]byte, error)

// FactoryFunc builds a TransformFunc on first need. It receives the cache
// directory so expensive setup can keep its own state next to the cache.
type FactoryFunc func(cacheDir string) (TransformFunc, error)

// Source supplies the transform of a Transformer. It has exactly two
// implementations, created with Direct and Factory.
type Source interface {
	realize(cacheDir string) (TransformFunc, error)
	valid() bool
}

// Direct returns a Source wrapping an already built transform.
func Direct(fn TransformFunc) Source {
	return directSource{fn: fn}
}

// Factory returns a Source that calls fn once, the first time a transform is
// actually needed, and reuses its result afterwards.
func Factory(fn FactoryFunc) Source {
	return factorySource{fn: fn}
}

type directSource struct {
	fn TransformFunc
}

func (s directSource) realize(string) (TransformFunc, error) {
	return s.fn, nil
}

func (s directSource) valid() bool {
	return s.fn != nil
}

type factorySource struct {
	fn FactoryFunc
}

func (s factorySource) realize(cacheDir string) (TransformFunc, error) {
	fn, err := s.fn(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("factory failed: %w", err)
	}
	if fn == nil {
		return nil, fmt.Errorf("factory returned a nil transform: %w", ErrNoTransform)
	}
	return fn, nil
}

func (s factorySource) valid() bool {
	return s.fn != nil
}
