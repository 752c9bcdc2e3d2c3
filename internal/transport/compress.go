package transport

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// deflate zlib-compresses data using klauspost/compress's drop-in zlib,
// faster than the standard library's implementation for the packet sizes
// a chunk-heavy connection pushes.
func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// inflate reverses deflate, reading exactly uncompressedLen bytes.
func inflate(data []byte, uncompressedLen int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out := make([]byte, uncompressedLen)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	return out, nil
}
