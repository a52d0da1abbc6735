package transformcache

import (
	"fmt"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/afero"
)

// dumpConfig renders arbitrary hash data deterministically: map keys are
// sorted, and pointer addresses and slice capacities are left out.
var dumpConfig = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// chunk is one unit of key material: bytes already in memory, or a file
// streamed into the hash when the key is derived.
type chunk struct {
	data []byte
	file *fileContent
}

// fileContent is a hash data value standing for the content of a file.
// HashFiles and HashGlob produce it.
type fileContent struct {
	fs   afero.Fs
	path string
}

// hashDataChunks flattens the value returned by a HashDataFunc into an
// ordered list of chunks. A single value is a one-element sequence.
func hashDataChunks(v any) []chunk {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		chunks := make([]chunk, len(val))
		for i, item := range val {
			chunks[i] = chunkFor(item)
		}
		return chunks
	case []string:
		chunks := make([]chunk, len(val))
		for i, item := range val {
			chunks[i] = chunk{data: []byte(item)}
		}
		return chunks
	case [][]byte:
		chunks := make([]chunk, len(val))
		for i, item := range val {
			chunks[i] = chunk{data: item}
		}
		return chunks
	default:
		return []chunk{chunkFor(v)}
	}
}

// chunkFor returns the chunk hashed for a single hash data value.
func chunkFor(v any) chunk {
	switch val := v.(type) {
	case []byte:
		return chunk{data: val}
	case string:
		return chunk{data: []byte(val)}
	case fileContent:
		return chunk{file: &val}
	default:
		return chunk{data: []byte(dumpConfig.Sdump(val))}
	}
}

// HashFiles returns a HashDataFunc that keys every input on the contents of
// the given files, e.g. the configuration a transform reads. Paths are
// hashed in the given order together with their contents. The files are
// streamed into the key on every call, so edits invalidate the cache and a
// missing file fails key derivation.
func HashFiles(fs afero.Fs, paths ...string) HashDataFunc {
	return func([]byte, any) (any, error) {
		return fileData(fs, paths), nil
	}
}

// HashGlob is HashFiles for every regular file matching pattern, in sorted
// order. A pattern matching nothing contributes only its match count.
func HashGlob(fs afero.Fs, pattern string) HashDataFunc {
	return func([]byte, any) (any, error) {
		matches, err := afero.Glob(fs, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		files := matches[:0]
		for _, match := range matches {
			if isDir, err := afero.IsDir(fs, match); err == nil && isDir {
				continue
			}
			files = append(files, match)
		}
		sort.Strings(files)

		return append([]any{fmt.Sprintf("glob:%s:%d", pattern, len(files))}, fileData(fs, files)...), nil
	}
}

func fileData(fs afero.Fs, paths []string) []any {
	data := make([]any, 0, 2*len(paths))
	for _, path := range paths {
		data = append(data, "file:"+path, fileContent{fs: fs, path: path})
	}
	return data
}
