package transformcache

import (
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/spf13/afero"
)

// Default size for the buffer used when streaming files into a hash
const defaultBufferSize = 32 * 1024 // 32KB

// bufferPool is a pool of byte slices used when streaming files into a hash
var bufferPool = sync.Pool{
	New: func() interface{} {
		buffer := make([]byte, defaultBufferSize)
		return &buffer
	},
}

// hashReader hashes the content from a reader using the provided hash function.
// It returns the number of bytes hashed.
func hashReader(content io.Reader, h hash.Hash) (int64, error) {
	bufPtr := bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer bufferPool.Put(bufPtr)

	n, err := io.CopyBuffer(h, content, buffer)
	if err != nil {
		return n, fmt.Errorf("failed to copy content: %w", err)
	}
	return n, nil
}

// writeLength writes the uvarint length prefix of a chunk.
func writeLength(h hash.Hash, n uint64) {
	var lenBuf [binary.MaxVarintLen64]byte
	h.Write(lenBuf[:binary.PutUvarint(lenBuf[:], n)])
}

// writeChunk writes one length-prefixed chunk to h, so that the boundaries
// between consecutive chunks are part of the digest. hash.Hash writes never
// fail.
func writeChunk(h hash.Hash, chunk []byte) {
	writeLength(h, uint64(len(chunk)))
	h.Write(chunk)
}

// writeFileChunk streams the content of a file into h as one chunk, framed
// exactly like writeChunk over the same bytes. The file is never loaded
// whole into memory.
func writeFileChunk(h hash.Hash, fs afero.Fs, path string) error {
	file, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("failed to hash %s: is a directory", path)
	}

	size := info.Size()
	writeLength(h, uint64(size))
	n, err := hashReader(io.LimitReader(file, size), h)
	if err != nil {
		return fmt.Errorf("failed to hash file %s: %w", path, err)
	}
	if n != size {
		return fmt.Errorf("file %s changed size while hashing: %w", path, io.ErrUnexpectedEOF)
	}
	return nil
}
