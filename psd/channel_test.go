package psd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/mrjoshuak/go-psdtags/compression"
)

func TestChannelDataRoundTrip(t *testing.T) {
	ctx := CodecContext{Rows: 4, Cols: 5, SampleSize: 2}
	src := channelPattern(ctx.size(), 3)
	for _, f := range allFormats {
		for _, comp := range allCompressions {
			enc, err := encodeChannelData(src, f, ctx, comp, DefaultCodecs())
			if err != nil {
				t.Fatalf("%v/%v: encode: %v", f, comp, err)
			}
			gotComp, gotData, err := decodeChannelData(enc, f, ctx, DefaultCodecs())
			if err != nil {
				t.Fatalf("%v/%v: decode: %v", f, comp, err)
			}
			if gotComp != comp {
				t.Errorf("%v/%v: compression = %v", f, comp, gotComp)
			}
			if !bytes.Equal(gotData, src) {
				t.Errorf("%v/%v: data mismatch", f, comp)
			}
		}
	}
}

func TestChannelDataEmpty(t *testing.T) {
	ctx := CodecContext{}
	for _, comp := range allCompressions {
		enc, err := encodeChannelData(nil, BigEndian32, ctx, comp, DefaultCodecs())
		if err != nil {
			t.Fatalf("%v: %v", comp, err)
		}
		// A zero-area channel is just the compression code.
		if len(enc) != 2 {
			t.Errorf("%v: len = %d, want 2", comp, len(enc))
		}
		gotComp, gotData, err := decodeChannelData(enc, BigEndian32, ctx, DefaultCodecs())
		if err != nil || gotComp != comp || len(gotData) != 0 {
			t.Errorf("%v: decode = %v, %x, %v", comp, gotComp, gotData, err)
		}
	}
}

// The RLE payload is a per-row size table followed by the packed rows.
// The table entries are 2 bytes wide in the 32-bit formats and 4 bytes
// in the 64-bit ones.
func TestRLERowTable(t *testing.T) {
	ctx := CodecContext{Rows: 3, Cols: 16, SampleSize: 1}
	src := make([]byte, ctx.size())
	for i := range src {
		src[i] = byte(i / 16) // constant rows, compress well
	}
	for _, tt := range []struct {
		f     Format
		width int
	}{
		{BigEndian32, 2},
		{LittleEndian32, 2},
		{BigEndian64, 4},
		{LittleEndian64, 4},
	} {
		enc, err := encodeChannelData(src, tt.f, ctx, CompressionRLE, DefaultCodecs())
		if err != nil {
			t.Fatalf("%v: %v", tt.f, err)
		}
		bo := tt.f.ByteOrder()
		if int16(bo.Uint16(enc)) != int16(CompressionRLE) {
			t.Fatalf("%v: code = %x", tt.f, enc[:2])
		}
		pos := 2
		total := 0
		for row := 0; row < ctx.Rows; row++ {
			var n int
			if tt.width == 2 {
				n = int(bo.Uint16(enc[pos:]))
			} else {
				n = int(bo.Uint32(enc[pos:]))
			}
			pos += tt.width
			total += n
		}
		if pos+total != len(enc) {
			t.Fatalf("%v: table says %d row bytes, payload has %d", tt.f, total, len(enc)-pos)
		}
		row0, err := compression.PackBitsDecode(enc[pos:pos+rowLen(bo, enc, tt.width, 0)], 16)
		if err != nil || !bytes.Equal(row0, src[:16]) {
			t.Fatalf("%v: row 0 = %x, %v", tt.f, row0, err)
		}
	}
}

func rowLen(bo binary.ByteOrder, enc []byte, width, row int) int {
	off := 2 + row*width
	if width == 2 {
		return int(bo.Uint16(enc[off:]))
	}
	return int(bo.Uint32(enc[off:]))
}

func TestChannelDataErrors(t *testing.T) {
	ctx := CodecContext{Rows: 2, Cols: 2, SampleSize: 1}
	codecs := DefaultCodecs()

	// Wrong source length.
	if _, err := encodeChannelData([]byte{1}, BigEndian32, ctx, CompressionRaw, codecs); !errors.Is(err, ErrChannelData) {
		t.Errorf("short source: err = %v", err)
	}
	// Unknown compression code on the wire.
	if _, _, err := decodeChannelData([]byte{0, 9, 1, 2, 3, 4}, BigEndian32, ctx, codecs); !errors.Is(err, ErrFormat) {
		t.Errorf("bad code: err = %v", err)
	}
	// Known code with no registered codec.
	delete(codecs, CompressionZIP)
	if _, _, err := decodeChannelData([]byte{0, 2, 1, 2}, BigEndian32, ctx, codecs); !errors.Is(err, ErrUnsupportedCompression) {
		t.Errorf("missing codec: err = %v", err)
	}
	if _, err := encodeChannelData([]byte{1, 2, 3, 4}, BigEndian32, ctx, CompressionZIP, codecs); !errors.Is(err, ErrUnsupportedCompression) {
		t.Errorf("missing codec encode: err = %v", err)
	}
	// Truncated payload: fewer bytes than the channel needs.
	if _, _, err := decodeChannelData([]byte{0, 0, 1, 2}, BigEndian32, ctx, DefaultCodecs()); err == nil {
		t.Error("truncated raw payload: err = nil")
	}
}

func TestParallelChunks(t *testing.T) {
	fn := func(i int) ([]byte, error) {
		return []byte{byte(i), byte(i * 2)}, nil
	}
	for _, workers := range []int{0, 1, 3, 16} {
		got, err := parallelChunks(10, workers, fn)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		for i, chunk := range got {
			if !bytes.Equal(chunk, []byte{byte(i), byte(i * 2)}) {
				t.Fatalf("workers=%d: chunk %d = %x", workers, i, chunk)
			}
		}
	}
}

func TestParallelChunksError(t *testing.T) {
	errBoom := errors.New("boom")
	fn := func(i int) ([]byte, error) {
		if i == 3 || i == 7 {
			return nil, errBoom
		}
		return []byte{byte(i)}, nil
	}
	for _, workers := range []int{1, 4} {
		if _, err := parallelChunks(10, workers, fn); !errors.Is(err, errBoom) {
			t.Fatalf("workers=%d: err = %v", workers, err)
		}
	}
}
