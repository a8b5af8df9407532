// Package psdtiff locates Photoshop tag values inside TIFF files.
//
// Layered Photoshop TIFF files store the image resource blocks in tag
// 34377 and the layer/mask section in tag 37724. This package walks the
// image file directories of classic TIFF and BigTIFF files and returns
// those tag values for decoding by the psd package.
package psdtiff

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-psdtags/internal/bin"
)

// Photoshop tags.
const (
	TagImageResources  uint16 = 34377
	TagImageSourceData uint16 = 37724
)

var (
	// ErrFormat is returned for data that is not a TIFF file.
	ErrFormat = errors.New("psdtiff: invalid TIFF")

	// ErrTagNotFound is returned when the requested page has no such tag.
	ErrTagNotFound = errors.New("psdtiff: tag not found")
)

// ImageResources returns the ImageResources tag value of the given page.
func ImageResources(data []byte, page int) ([]byte, error) {
	return TagValue(data, TagImageResources, page)
}

// ImageSourceData returns the ImageSourceData tag value of the given
// page.
func ImageSourceData(data []byte, page int) ([]byte, error) {
	return TagValue(data, TagImageSourceData, page)
}

// TagValue returns the raw value of a tag in the given page's directory.
func TagValue(data []byte, tag uint16, page int) ([]byte, error) {
	r := bin.NewReader(data)
	head, err := r.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrFormat)
	}

	var bo binary.ByteOrder
	switch string(head[:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: byte order %q", ErrFormat, head[:2])
	}

	big := false
	switch bo.Uint16(head[2:4]) {
	case 42:
	case 43:
		big = true
		// BigTIFF: offset size (always 8) and a reserved word.
		sz, err := r.ReadUint16(bo)
		if err != nil || sz != 8 {
			return nil, fmt.Errorf("%w: offset size %d", ErrFormat, sz)
		}
		if v, err := r.ReadUint16(bo); err != nil || v != 0 {
			return nil, fmt.Errorf("%w: reserved word %d", ErrFormat, v)
		}
	default:
		return nil, fmt.Errorf("%w: version %d", ErrFormat, bo.Uint16(head[2:4]))
	}

	offset, err := readOffset(r, bo, big)
	if err != nil {
		return nil, err
	}
	for p := 0; ; p++ {
		if offset == 0 {
			return nil, fmt.Errorf("%w: page %d out of range", ErrTagNotFound, page)
		}
		if err := r.SetPos(int(offset)); err != nil {
			return nil, fmt.Errorf("%w: directory offset %d out of range", ErrFormat, offset)
		}
		count, err := readCount(r, bo, big)
		if err != nil {
			return nil, err
		}
		if p < page {
			// Skip this directory's entries to the next-IFD pointer.
			if err := r.Skip(count * entrySize(big)); err != nil {
				return nil, fmt.Errorf("%w: truncated directory", ErrFormat)
			}
			if offset, err = readOffset(r, bo, big); err != nil {
				return nil, err
			}
			continue
		}
		for i := 0; i < count; i++ {
			value, ok, err := matchEntry(r, bo, big, tag, data)
			if err != nil {
				return nil, err
			}
			if ok {
				return value, nil
			}
		}
		return nil, fmt.Errorf("%w: tag %d on page %d", ErrTagNotFound, tag, page)
	}
}

func entrySize(big bool) int {
	if big {
		return 20
	}
	return 12
}

func readOffset(r *bin.Reader, bo binary.ByteOrder, big bool) (uint64, error) {
	if big {
		v, err := r.ReadUint64(bo)
		if err != nil {
			return 0, fmt.Errorf("%w: truncated offset", ErrFormat)
		}
		return v, nil
	}
	v, err := r.ReadUint32(bo)
	if err != nil {
		return 0, fmt.Errorf("%w: truncated offset", ErrFormat)
	}
	return uint64(v), nil
}

func readCount(r *bin.Reader, bo binary.ByteOrder, big bool) (int, error) {
	if big {
		v, err := r.ReadUint64(bo)
		if err != nil || v > 1<<20 {
			return 0, fmt.Errorf("%w: bad entry count", ErrFormat)
		}
		return int(v), nil
	}
	v, err := r.ReadUint16(bo)
	if err != nil {
		return 0, fmt.Errorf("%w: bad entry count", ErrFormat)
	}
	return int(v), nil
}

// typeSizes maps TIFF data types to their byte widths.
var typeSizes = [...]int{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8, 4, 0, 0, 8, 8, 8}

// matchEntry consumes one directory entry. When the entry carries the
// requested tag it returns the tag's raw value bytes.
func matchEntry(r *bin.Reader, bo binary.ByteOrder, big bool, tag uint16, data []byte) ([]byte, bool, error) {
	t, err := r.ReadUint16(bo)
	if err != nil {
		return nil, false, fmt.Errorf("%w: truncated entry", ErrFormat)
	}
	dtype, err := r.ReadUint16(bo)
	if err != nil {
		return nil, false, fmt.Errorf("%w: truncated entry", ErrFormat)
	}
	n, err := readOffset(r, bo, big) // count field shares the offset width
	if err != nil {
		return nil, false, err
	}
	inline := 4
	if big {
		inline = 8
	}
	valueField, err := r.ReadBytes(inline)
	if err != nil {
		return nil, false, fmt.Errorf("%w: truncated entry", ErrFormat)
	}
	if t != tag {
		return nil, false, nil
	}
	if int(dtype) >= len(typeSizes) || typeSizes[dtype] == 0 {
		return nil, false, fmt.Errorf("%w: tag %d has unsupported type %d", ErrFormat, tag, dtype)
	}
	size := int(n) * typeSizes[dtype]
	if size < 0 || uint64(size) < n {
		return nil, false, fmt.Errorf("%w: tag %d value too large", ErrFormat, tag)
	}
	if size <= inline {
		return valueField[:size], true, nil
	}
	off := int(bo.Uint32(valueField))
	if big {
		off = int(bo.Uint64(valueField))
	}
	if off < 0 || off+size > len(data) || off+size < 0 {
		return nil, false, fmt.Errorf("%w: tag %d value out of range", ErrFormat, tag)
	}
	return data[off : off+size], true, nil
}
