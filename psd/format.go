// Package psd reads and writes the Adobe Photoshop ImageResources and
// ImageSourceData payloads embedded in TIFF files under tags 34377 and
// 37724. Both payloads are parsed from and serialized to in-memory byte
// buffers; extracting them from the TIFF container is the psdtiff
// package's job.
//
// The formats are specified in the Adobe Photoshop TIFF Technical Notes
// and the Adobe Photoshop File Formats Specification.
package psd

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"

	"github.com/mrjoshuak/go-psdtags/internal/bin"
)

// Format identifies the 4-byte format signature of a payload, which
// fixes the byte order of header fields and the width of size fields.
// Channel sample data is big-endian regardless of Format.
type Format uint8

const (
	// FormatUnknown is the zero value; it is not a valid wire format.
	FormatUnknown Format = iota
	// BigEndian32 is the classic "8BIM" format: big-endian, 4-byte sizes.
	BigEndian32
	// LittleEndian32 is the byte-swapped "MIB8" format.
	LittleEndian32
	// BigEndian64 is the large-document "8B64" format: 8-byte sizes.
	BigEndian64
	// LittleEndian64 is the byte-swapped "46B8" format.
	LittleEndian64
)

// Signature returns the signature bytes as they appear on the wire.
func (f Format) Signature() string {
	switch f {
	case BigEndian32:
		return "8BIM"
	case LittleEndian32:
		return "MIB8"
	case BigEndian64:
		return "8B64"
	case LittleEndian64:
		return "46B8"
	default:
		return ""
	}
}

// ByteOrder returns the byte order of header fields in this format.
func (f Format) ByteOrder() binary.ByteOrder {
	if f == LittleEndian32 || f == LittleEndian64 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// SizeWidth returns the width in bytes of size fields: 4 for the classic
// formats, 8 for the large-document formats.
func (f Format) SizeWidth() int {
	if f == BigEndian64 || f == LittleEndian64 {
		return 8
	}
	return 4
}

func (f Format) String() string {
	if s := f.Signature(); s != "" {
		return s
	}
	return "unknown"
}

// DetectFormat identifies the format from signature bytes.
func DetectFormat(sig []byte) (Format, error) {
	if len(sig) >= 4 {
		switch string(sig[:4]) {
		case "8BIM":
			return BigEndian32, nil
		case "MIB8":
			return LittleEndian32, nil
		case "8B64":
			return BigEndian64, nil
		case "46B8":
			return LittleEndian64, nil
		}
	}
	return FormatUnknown, formatError(0, "unrecognized format signature %q", sig)
}

// readSignature consumes the 4 signature bytes and verifies they match f.
func (f Format) readSignature(r *bin.Reader) error {
	offset := r.Pos()
	sig, err := r.ReadBytes(4)
	if err != nil {
		return formatError(offset, "truncated signature")
	}
	if string(sig) != f.Signature() {
		return formatError(offset, "signature %q, expected %q", sig, f.Signature())
	}
	return nil
}

// readKey reads a 4-character key. Little-endian formats store keys
// byte-reversed; the returned Key is always in canonical (big-endian)
// character order.
func (f Format) readKey(r *bin.Reader) (Key, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return "", err
	}
	if f.ByteOrder() == binary.LittleEndian {
		b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	}
	return Key(b), nil
}

// writeKey writes a 4-character key, byte-reversed for little-endian
// formats.
func (f Format) writeKey(w *bin.BufferWriter, k Key) {
	b := []byte(k)
	if len(b) != 4 {
		b = append(b, make([]byte, 4)...)[:4]
	}
	if f.ByteOrder() == binary.LittleEndian {
		b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	}
	w.WriteBytes(b)
}

// readSize reads a size field: 4 or 8 bytes depending on the format.
func (f Format) readSize(r *bin.Reader) (int, error) {
	offset := r.Pos()
	if f.SizeWidth() == 8 {
		v, err := r.ReadUint64(f.ByteOrder())
		if err != nil {
			return 0, err
		}
		if v > uint64(int(^uint(0)>>1)) {
			return 0, formatError(offset, "size %d overflows", v)
		}
		return int(v), nil
	}
	v, err := r.ReadUint32(f.ByteOrder())
	return int(v), err
}

// writeSize writes a size field at the format's width.
func (f Format) writeSize(w *bin.BufferWriter, n int) {
	if f.SizeWidth() == 8 {
		w.WriteUint64(uint64(n), f.ByteOrder())
	} else {
		w.WriteUint32(uint32(n), f.ByteOrder())
	}
}

// readPascalString reads a length-prefixed string padded so that the
// prefix plus content occupy a multiple of align bytes. Names are in the
// Mac Roman charset. A fresh decoder per call keeps concurrent parses
// independent.
func readPascalString(r *bin.Reader, align int) (string, error) {
	offset := r.Pos()
	n, err := r.ReadByte()
	if err != nil {
		return "", formatError(offset, "truncated string length")
	}
	raw, err := r.ReadBytes(int(n))
	if err != nil {
		return "", formatError(offset, "truncated string of length %d", n)
	}
	if err := r.Skip(padding(int(n)+1, align)); err != nil {
		return "", formatError(offset, "truncated string padding")
	}
	s, err := charmap.Macintosh.NewDecoder().Bytes(raw)
	if err != nil {
		// Mac Roman maps every byte; decoding cannot fail on valid input.
		return string(raw), nil
	}
	return string(s), nil
}

// writePascalString writes a length-prefixed string padded so that the
// prefix plus content occupy a multiple of align bytes. Strings longer
// than 255 bytes are truncated.
func writePascalString(w *bin.BufferWriter, s string, align int) {
	raw, err := charmap.Macintosh.NewEncoder().Bytes([]byte(s))
	if err != nil {
		raw = []byte(s)
	}
	if len(raw) > 255 {
		raw = raw[:255]
	}
	w.WriteByte(byte(len(raw)))
	w.WriteBytes(raw)
	w.WriteZeros(padding(len(raw)+1, align))
}

// padding returns the number of bytes needed to pad n up to a multiple
// of align.
func padding(n, align int) int {
	return (align - n%align) % align
}
