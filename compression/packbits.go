// Package compression provides the byte-level compression algorithms used
// by Photoshop channel image data: PackBits run-length coding and zlib
// deflate. The framing around them (per-row size tables, predictors,
// compression codes) lives in the psd package.
package compression

import (
	"errors"
)

// PackBits errors
var (
	ErrPackBitsCorrupted = errors.New("compression: corrupted PackBits data")
	ErrPackBitsOverflow  = errors.New("compression: PackBits decompressed size overflow")
)

const (
	packBitsMinRun = 3
	packBitsMaxRun = 128
)

// PackBitsEncode compresses data using PackBits run-length encoding.
//
// The control byte is a signed count:
//   - Negative count (-n): the next byte is repeated (n+1) times
//   - Positive count (+n): the next (n+1) bytes are copied literally
//   - -128 is never emitted (decoders treat it as a no-op)
//
// For example:
//
//	[A, A, A, A, B, C, D] -> [-3, A, 2, B, C, D]
func PackBitsEncode(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}

	dst := make([]byte, 0, len(src)+len(src)/128+1)

	i := 0
	for i < len(src) {
		val := src[i]
		runEnd := i + 1
		for runEnd < len(src) && src[runEnd] == val && runEnd-i < packBitsMaxRun {
			runEnd++
		}
		runLength := runEnd - i

		if runLength >= packBitsMinRun {
			dst = append(dst, byte(-(runLength - 1)), val)
			i = runEnd
			continue
		}

		literalStart := i
		for i < len(src) && i-literalStart < packBitsMaxRun {
			if i+packBitsMinRun <= len(src) {
				val := src[i]
				if src[i+1] == val && src[i+2] == val {
					break
				}
			}
			i++
		}

		literalLength := i - literalStart
		if literalLength > 0 {
			dst = append(dst, byte(literalLength-1))
			dst = append(dst, src[literalStart:i]...)
		}
	}

	return dst
}

// PackBitsDecode decompresses PackBits-encoded data.
// The expectedSize parameter is the decompressed size, used to allocate
// the output buffer and validate the result.
func PackBitsDecode(src []byte, expectedSize int) ([]byte, error) {
	if len(src) == 0 {
		if expectedSize != 0 {
			return nil, ErrPackBitsCorrupted
		}
		return nil, nil
	}

	dst := make([]byte, expectedSize)
	dstPos := 0

	i := 0
	for i < len(src) {
		count := int(int8(src[i]))
		i++

		switch {
		case count == -128:
			// No-op per the PackBits specification.
		case count < 0:
			runLength := -count + 1
			if i >= len(src) {
				return nil, ErrPackBitsCorrupted
			}
			if dstPos+runLength > expectedSize {
				return nil, ErrPackBitsOverflow
			}
			val := src[i]
			i++
			for end := dstPos + runLength; dstPos < end; dstPos++ {
				dst[dstPos] = val
			}
		default:
			literalLength := count + 1
			if i+literalLength > len(src) {
				return nil, ErrPackBitsCorrupted
			}
			if dstPos+literalLength > expectedSize {
				return nil, ErrPackBitsOverflow
			}
			copy(dst[dstPos:], src[i:i+literalLength])
			dstPos += literalLength
			i += literalLength
		}
	}

	if dstPos != expectedSize {
		return nil, ErrPackBitsCorrupted
	}

	return dst, nil
}
