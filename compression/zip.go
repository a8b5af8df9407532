package compression

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Deflate errors
var (
	ErrDeflateCorrupted = errors.New("compression: corrupted deflate data")
)

// Pool for zlib writers to reduce allocations. Each pooled item contains
// both the writer and its destination buffer.
type zlibWriterPoolItem struct {
	writer *zlib.Writer
	buf    *bytes.Buffer
}

var zlibWriterPool = sync.Pool{
	New: func() any {
		buf := new(bytes.Buffer)
		w, _ := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
		return &zlibWriterPoolItem{writer: w, buf: buf}
	},
}

// DeflateCompress compresses data with zlib at the default level.
func DeflateCompress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	item := zlibWriterPool.Get().(*zlibWriterPoolItem)
	item.buf.Reset()
	item.writer.Reset(item.buf)

	if _, err := item.writer.Write(src); err != nil {
		item.writer.Close()
		zlibWriterPool.Put(item)
		return nil, err
	}
	if err := item.writer.Close(); err != nil {
		zlibWriterPool.Put(item)
		return nil, err
	}

	result := make([]byte, item.buf.Len())
	copy(result, item.buf.Bytes())
	zlibWriterPool.Put(item)

	return result, nil
}

// DeflateDecompress decompresses zlib data. The expectedSize parameter is
// the decompressed size, used to allocate the output and validate the
// result.
func DeflateDecompress(src []byte, expectedSize int) ([]byte, error) {
	if len(src) == 0 {
		if expectedSize != 0 {
			return nil, ErrDeflateCorrupted
		}
		return nil, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, ErrDeflateCorrupted
	}
	defer zr.Close()

	dst := make([]byte, expectedSize)
	n, err := io.ReadFull(zr, dst)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, ErrDeflateCorrupted
	}
	if n != expectedSize {
		return nil, ErrDeflateCorrupted
	}

	// A corrupt stream can decompress to the right length and keep going.
	if _, err := zr.Read(make([]byte, 1)); err != io.EOF {
		return nil, ErrDeflateCorrupted
	}

	return dst, nil
}
