package psd

import (
	"fmt"

	"github.com/mrjoshuak/go-psdtags/compression"
	"github.com/mrjoshuak/go-psdtags/internal/bin"
	"github.com/mrjoshuak/go-psdtags/internal/predictor"
)

// CodecContext describes the channel slice a codec operates on. Samples
// are big-endian on the wire regardless of the payload byte order, so
// codecs never see byte-order differences.
type CodecContext struct {
	// Rows and Cols are the dimensions of the slice. RLE codecs are
	// invoked one row at a time with Rows == 1.
	Rows, Cols int
	// SampleSize is the bytes per sample: 1, 2 or 4.
	SampleSize int
}

func (c CodecContext) size() int { return c.Rows * c.Cols * c.SampleSize }

// Codec compresses and decompresses channel sample data. Implementations
// must be safe for concurrent use.
type Codec interface {
	// Compress returns the encoded form of src. src must not be
	// modified.
	Compress(src []byte, ctx CodecContext) ([]byte, error)

	// Decompress decodes src into exactly ctx.size() bytes.
	Decompress(src []byte, ctx CodecContext) ([]byte, error)
}

// CodecTable maps compression codes to codecs. A nil entry or missing
// code makes channels stored with that code fail with
// ErrUnsupportedCompression.
type CodecTable map[CompressionType]Codec

// DefaultCodecs returns a table with all four standard compression
// methods. The table may be extended or reduced by the caller; the
// returned map is a fresh copy.
func DefaultCodecs() CodecTable {
	return CodecTable{
		CompressionRaw:           rawCodec{},
		CompressionRLE:           rleCodec{},
		CompressionZIP:           zipCodec{},
		CompressionZIPPrediction: zipPredictionCodec{},
	}
}

func (t CodecTable) codec(c CompressionType) (Codec, error) {
	switch c {
	case CompressionRaw, CompressionRLE, CompressionZIP, CompressionZIPPrediction:
	default:
		return nil, formatError(0, "invalid compression code %d", c)
	}
	codec, ok := t[c]
	if !ok || codec == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCompression, c)
	}
	return codec, nil
}

type rawCodec struct{}

func (rawCodec) Compress(src []byte, ctx CodecContext) ([]byte, error) {
	return src, nil
}

func (rawCodec) Decompress(src []byte, ctx CodecContext) ([]byte, error) {
	if len(src) != ctx.size() {
		return nil, fmt.Errorf("%w: raw channel has %d bytes, want %d",
			ErrChannelData, len(src), ctx.size())
	}
	return src, nil
}

type rleCodec struct{}

func (rleCodec) Compress(src []byte, ctx CodecContext) ([]byte, error) {
	return compression.PackBitsEncode(src), nil
}

func (rleCodec) Decompress(src []byte, ctx CodecContext) ([]byte, error) {
	out, err := compression.PackBitsDecode(src, ctx.size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelData, err)
	}
	return out, nil
}

type zipCodec struct{}

func (zipCodec) Compress(src []byte, ctx CodecContext) ([]byte, error) {
	return compression.DeflateCompress(src)
}

func (zipCodec) Decompress(src []byte, ctx CodecContext) ([]byte, error) {
	out, err := compression.DeflateDecompress(src, ctx.size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelData, err)
	}
	return out, nil
}

// zipPredictionCodec applies horizontal differencing before deflate.
// 8- and 16-bit samples use integer deltas; 32-bit samples use the
// floating-point predictor (byte planes split per row, then deltas).
type zipPredictionCodec struct{}

func (zipPredictionCodec) Compress(src []byte, ctx CodecContext) ([]byte, error) {
	tmp := make([]byte, len(src))
	copy(tmp, src)
	if ctx.SampleSize == 4 {
		predictor.FloatEncode(tmp, ctx.Cols)
	} else {
		predictor.DeltaEncode(tmp, ctx.Cols, ctx.SampleSize)
	}
	return compression.DeflateCompress(tmp)
}

func (zipPredictionCodec) Decompress(src []byte, ctx CodecContext) ([]byte, error) {
	out, err := compression.DeflateDecompress(src, ctx.size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelData, err)
	}
	if ctx.SampleSize == 4 {
		predictor.FloatDecode(out, ctx.Cols)
	} else {
		predictor.DeltaDecode(out, ctx.Cols, ctx.SampleSize)
	}
	return out, nil
}

// rleRowTableWidth returns the byte width of RLE row-size table entries:
// 2 for 32-bit formats, 4 for 64-bit formats.
func rleRowTableWidth(f Format) int {
	if f.SizeWidth() == 8 {
		return 4
	}
	return 2
}

// decodeChannelData decodes one channel's image data payload: the
// 2-byte compression code followed by the encoded samples. It returns
// the compression used and the decompressed big-endian sample data.
func decodeChannelData(data []byte, f Format, ctx CodecContext, codecs CodecTable) (CompressionType, []byte, error) {
	r := bin.NewReader(data)
	bo := f.ByteOrder()
	code, err := r.ReadInt16(bo)
	if err != nil {
		return CompressionUnknown, nil, formatError(0, "channel data: %v", err)
	}
	comp := CompressionType(code)
	codec, err := codecs.codec(comp)
	if err != nil {
		return comp, nil, err
	}

	// Zero-area channels carry no samples after the code, whatever the
	// compression says.
	if ctx.size() == 0 {
		return comp, nil, nil
	}

	if comp != CompressionRLE {
		payload, err := r.ReadBytes(r.Len())
		if err != nil {
			return comp, nil, err
		}
		out, err := codec.Decompress(payload, ctx)
		return comp, out, err
	}

	// RLE: per-row size table, then one packed run per row.
	rowCtx := CodecContext{Rows: 1, Cols: ctx.Cols, SampleSize: ctx.SampleSize}
	sizes := make([]int, ctx.Rows)
	for i := range sizes {
		var n int
		if rleRowTableWidth(f) == 2 {
			v, err := r.ReadUint16(bo)
			if err != nil {
				return comp, nil, formatError(r.Pos(), "rle row table: %v", err)
			}
			n = int(v)
		} else {
			v, err := r.ReadUint32(bo)
			if err != nil {
				return comp, nil, formatError(r.Pos(), "rle row table: %v", err)
			}
			n = int(v)
		}
		sizes[i] = n
	}
	out := make([]byte, 0, ctx.size())
	for i, n := range sizes {
		row, err := r.ReadBytes(n)
		if err != nil {
			return comp, nil, formatError(r.Pos(), "rle row %d: %v", i, err)
		}
		decoded, err := codec.Decompress(row, rowCtx)
		if err != nil {
			return comp, nil, fmt.Errorf("rle row %d: %w", i, err)
		}
		out = append(out, decoded...)
	}
	return comp, out, nil
}

// encodeChannelData encodes one channel's image data payload for the
// target format, including the 2-byte compression code.
func encodeChannelData(data []byte, f Format, ctx CodecContext, comp CompressionType, codecs CodecTable) ([]byte, error) {
	if len(data) != ctx.size() {
		return nil, fmt.Errorf("%w: channel has %d bytes, want %d (%dx%d x%d)",
			ErrChannelData, len(data), ctx.size(), ctx.Rows, ctx.Cols, ctx.SampleSize)
	}
	codec, err := codecs.codec(comp)
	if err != nil {
		return nil, err
	}
	bo := f.ByteOrder()
	w := bin.NewBufferWriter(len(data)/2 + 2)
	w.WriteInt16(int16(comp), bo)

	if ctx.size() == 0 {
		return w.Bytes(), nil
	}

	if comp != CompressionRLE {
		out, err := codec.Compress(data, ctx)
		if err != nil {
			return nil, err
		}
		w.WriteBytes(out)
		return w.Bytes(), nil
	}

	rowCtx := CodecContext{Rows: 1, Cols: ctx.Cols, SampleSize: ctx.SampleSize}
	rowSize := ctx.Cols * ctx.SampleSize
	rows := make([][]byte, ctx.Rows)
	for i := range rows {
		row, err := codec.Compress(data[i*rowSize:(i+1)*rowSize], rowCtx)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	for _, row := range rows {
		if rleRowTableWidth(f) == 2 {
			w.WriteUint16(uint16(len(row)), bo)
		} else {
			w.WriteUint32(uint32(len(row)), bo)
		}
	}
	for _, row := range rows {
		w.WriteBytes(row)
	}
	return w.Bytes(), nil
}
