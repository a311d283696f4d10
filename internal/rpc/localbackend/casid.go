package localbackend

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// headSize is how much of a file feeds its cas id.
const headSize = 64 * 1024

// casID identifies file content by the xxh3-128 of its size and head bytes.
// Files sharing a size and first 64 KiB share an id, which is acceptable for
// a development index.
func casID(path string, size int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 8+headSize)
	binary.LittleEndian.PutUint64(buf, uint64(size))
	n, err := io.ReadFull(f, buf[8:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return fmt.Sprintf("%x", xxh3.Hash128(buf[:8+n]).Bytes()), nil
}
