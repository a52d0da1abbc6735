package transformcache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// TestHashReader checks that streaming content through the pooled buffer
// produces the same digest as hashing it directly.
func TestHashReader(t *testing.T) {
	testCases := []struct {
		name    string
		content []byte
	}{
		{name: "Normal content", content: []byte("test content")},
		{name: "Empty content", content: []byte{}},
		{name: "Larger than the buffer", content: bytes.Repeat([]byte("0123456789"), defaultBufferSize/5)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h1 := xxhash.New()
			h2 := xxhash.New()

			r := &recordingReader{r: bytes.NewReader(tc.content)}
			n, err := hashReader(r, h1)
			if err != nil {
				t.Fatalf("hashReader() error = %v", err)
			}
			if n != int64(len(tc.content)) {
				t.Errorf("hashReader() hashed %d bytes, expected %d", n, len(tc.content))
			}
			h2.Write(tc.content)

			if !bytes.Equal(h1.Sum(nil), h2.Sum(nil)) {
				t.Errorf("hashReader() produced different hash than direct hashing")
			}
			if r.maxRead != defaultBufferSize {
				t.Errorf("Expected reads into a %d byte buffer, got %d", defaultBufferSize, r.maxRead)
			}
		})
	}
}

func TestHashReader_Fail(t *testing.T) {
	r := &failingReader{err: errReadFailed}
	if _, err := hashReader(r, xxhash.New()); !errors.Is(err, errReadFailed) {
		t.Fatalf("Expected read error, got %v", err)
	}
}

// TestWriteChunk checks the chunk framing: a uvarint length followed by the bytes.
func TestWriteChunk(t *testing.T) {
	chunk := []byte("framed")

	h1 := xxhash.New()
	writeChunk(h1, chunk)

	h2 := xxhash.New()
	h2.Write(binary.AppendUvarint(nil, uint64(len(chunk))))
	h2.Write(chunk)

	if h1.Sum64() != h2.Sum64() {
		t.Fatalf("writeChunk() framing mismatch")
	}
}

func TestWriteFileChunk(t *testing.T) {
	memFs := afero.NewMemMapFs()
	files := map[string][]byte{
		"/data/small.txt": []byte("small file"),
		"/data/empty.txt": {},
		"/data/large.bin": bytes.Repeat([]byte{0xab, 0xcd, 0xef}, defaultBufferSize),
	}
	for path, content := range files {
		if err := afero.WriteFile(memFs, path, content, 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}

	for path, content := range files {
		t.Run(path, func(t *testing.T) {
			streamed := xxhash.New()
			if err := writeFileChunk(streamed, memFs, path); err != nil {
				t.Fatalf("writeFileChunk() error = %v", err)
			}

			inMemory := xxhash.New()
			writeChunk(inMemory, content)

			if streamed.Sum64() != inMemory.Sum64() {
				t.Fatalf("Expected a streamed file to hash like its content")
			}
		})
	}

	t.Run("Missing file", func(t *testing.T) {
		err := writeFileChunk(xxhash.New(), memFs, "/data/missing.txt")
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("Expected a not-exist error, got %v", err)
		}
	})

	t.Run("Directory", func(t *testing.T) {
		if err := writeFileChunk(xxhash.New(), memFs, "/data"); err == nil {
			t.Fatalf("Expected an error for a directory")
		}
	})
}

var errReadFailed = errors.New("read failed")

type failingReader struct{ err error }

func (f *failingReader) Read([]byte) (int, error) { return 0, f.err }

// recordingReader remembers the largest buffer it was asked to fill.
type recordingReader struct {
	r       *bytes.Reader
	maxRead int
}

func (r *recordingReader) Read(p []byte) (int, error) {
	r.maxRead = max(r.maxRead, len(p))
	return r.r.Read(p)
}
