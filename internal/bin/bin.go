// Package bin provides bounds-checked binary reading and writing over
// in-memory byte slices.
//
// Photoshop tag payloads mix byte orders: most header fields follow the
// byte order declared by the payload's format signature, while channel
// sample data is always big-endian. Every multi-byte access therefore
// takes an explicit binary.ByteOrder instead of relying on a package-wide
// setting, and no access assumes natural alignment.
package bin

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrShortBuffer is returned when a read would pass the end of the buffer.
	ErrShortBuffer = errors.New("bin: buffer too short")

	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("bin: negative size")
)

// Reader provides positional binary reading from a byte slice.
// It maintains a read position and bounds-checks every operation.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// SetPos sets the read position. Returns an error if out of bounds.
func (r *Reader) SetPos(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return ErrShortBuffer
	}
	r.pos = pos
	return nil
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return ErrNegativeSize
	}
	if r.pos+n > len(r.data) {
		return ErrShortBuffer
	}
	r.pos += n
	return nil
}

// Mark returns the current position for later use with Since.
func (r *Reader) Mark() int {
	return r.pos
}

// Since returns the number of bytes consumed after mark was taken.
// Used to verify declared-length fields against actual consumption.
func (r *Reader) Since(mark int) int {
	return r.pos - mark
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrShortBuffer
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if r.pos+n > len(r.data) || r.pos+n < 0 {
		return nil, ErrShortBuffer
	}
	result := make([]byte, n)
	copy(result, r.data[r.pos:r.pos+n])
	r.pos += n
	return result, nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	return r.ReadByte()
}

// ReadInt8 reads a signed 8-bit integer.
func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

// ReadUint16 reads an unsigned 16-bit integer in the given byte order.
func (r *Reader) ReadUint16(bo binary.ByteOrder) (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := bo.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadInt16 reads a signed 16-bit integer in the given byte order.
func (r *Reader) ReadInt16(bo binary.ByteOrder) (int16, error) {
	v, err := r.ReadUint16(bo)
	return int16(v), err
}

// ReadUint32 reads an unsigned 32-bit integer in the given byte order.
func (r *Reader) ReadUint32(bo binary.ByteOrder) (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := bo.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadInt32 reads a signed 32-bit integer in the given byte order.
func (r *Reader) ReadInt32(bo binary.ByteOrder) (int32, error) {
	v, err := r.ReadUint32(bo)
	return int32(v), err
}

// ReadUint64 reads an unsigned 64-bit integer in the given byte order.
func (r *Reader) ReadUint64(bo binary.ByteOrder) (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := bo.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadInt64 reads a signed 64-bit integer in the given byte order.
func (r *Reader) ReadInt64(bo binary.ByteOrder) (int64, error) {
	v, err := r.ReadUint64(bo)
	return int64(v), err
}

// ReadFloat64 reads a 64-bit IEEE 754 floating-point number in the given
// byte order.
func (r *Reader) ReadFloat64(bo binary.ByteOrder) (float64, error) {
	v, err := r.ReadUint64(bo)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// BufferWriter provides a growing buffer for writing binary data.
// Writes never fail; the buffer expands to accommodate them.
type BufferWriter struct {
	buf []byte
}

// NewBufferWriter creates a BufferWriter with an initial capacity.
func NewBufferWriter(capacity int) *BufferWriter {
	return &BufferWriter{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written.
func (w *BufferWriter) Len() int {
	return len(w.buf)
}

// Bytes returns the written data. The returned slice is valid until the
// next write operation.
func (w *BufferWriter) Bytes() []byte {
	return w.buf
}

// WriteByte writes a single byte.
func (w *BufferWriter) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteBytes writes a byte slice.
func (w *BufferWriter) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteZeros writes n zero bytes.
func (w *BufferWriter) WriteZeros(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// WriteUint8 writes an unsigned 8-bit integer.
func (w *BufferWriter) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteInt8 writes a signed 8-bit integer.
func (w *BufferWriter) WriteInt8(v int8) {
	w.buf = append(w.buf, byte(v))
}

// WriteUint16 writes an unsigned 16-bit integer in the given byte order.
func (w *BufferWriter) WriteUint16(v uint16, bo binary.ByteOrder) {
	var b [2]byte
	bo.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteInt16 writes a signed 16-bit integer in the given byte order.
func (w *BufferWriter) WriteInt16(v int16, bo binary.ByteOrder) {
	w.WriteUint16(uint16(v), bo)
}

// WriteUint32 writes an unsigned 32-bit integer in the given byte order.
func (w *BufferWriter) WriteUint32(v uint32, bo binary.ByteOrder) {
	var b [4]byte
	bo.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteInt32 writes a signed 32-bit integer in the given byte order.
func (w *BufferWriter) WriteInt32(v int32, bo binary.ByteOrder) {
	w.WriteUint32(uint32(v), bo)
}

// WriteUint64 writes an unsigned 64-bit integer in the given byte order.
func (w *BufferWriter) WriteUint64(v uint64, bo binary.ByteOrder) {
	var b [8]byte
	bo.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteInt64 writes a signed 64-bit integer in the given byte order.
func (w *BufferWriter) WriteInt64(v int64, bo binary.ByteOrder) {
	w.WriteUint64(uint64(v), bo)
}

// WriteFloat64 writes a 64-bit IEEE 754 floating-point number in the given
// byte order.
func (w *BufferWriter) WriteFloat64(v float64, bo binary.ByteOrder) {
	w.WriteUint64(math.Float64bits(v), bo)
}
