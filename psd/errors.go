package psd

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is returned when a payload violates the binary format:
	// signature mismatch, declared length inconsistent with consumed
	// bytes, or truncated buffer. Parsing never returns a partial result.
	ErrFormat = errors.New("psd: invalid format")

	// ErrUnsupportedCompression is returned when a channel uses a
	// compression code that has no codec in the table. Distinct from
	// ErrFormat: the framing was valid but no decoder exists.
	ErrUnsupportedCompression = errors.New("psd: unsupported compression")

	// ErrChannelData is returned when channel data does not match the
	// dimensions declared by the owning layer or mask.
	ErrChannelData = errors.New("psd: channel data size mismatch")
)

// formatError wraps ErrFormat with a byte offset and diagnostic detail.
func formatError(offset int, format string, args ...any) error {
	return fmt.Errorf("%w: %s (offset %d)", ErrFormat, fmt.Sprintf(format, args...), offset)
}

// Warning reports a recoverable oddity encountered during parsing, such
// as an unrecognized section or extension key that was preserved as
// opaque bytes. Warnings never abort the parse.
type Warning struct {
	Key    Key
	Offset int
}

func (w Warning) String() string {
	return fmt.Sprintf("unrecognized key %q at offset %d", string(w.Key), w.Offset)
}
