package psd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mrjoshuak/go-psdtags/internal/bin"
)

var allFormats = []Format{BigEndian32, LittleEndian32, BigEndian64, LittleEndian64}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		sig  string
		want Format
	}{
		{"8BIM", BigEndian32},
		{"MIB8", LittleEndian32},
		{"8B64", BigEndian64},
		{"46B8", LittleEndian64},
	}
	for _, tt := range tests {
		got, err := DetectFormat([]byte(tt.sig))
		if err != nil || got != tt.want {
			t.Errorf("DetectFormat(%q) = %v, %v, want %v", tt.sig, got, err, tt.want)
		}
	}
	if _, err := DetectFormat([]byte("EXIF")); err == nil {
		t.Error("DetectFormat accepted an unknown signature")
	}
}

func TestFormatProperties(t *testing.T) {
	tests := []struct {
		f     Format
		bo    binary.ByteOrder
		width int
	}{
		{BigEndian32, binary.BigEndian, 4},
		{LittleEndian32, binary.LittleEndian, 4},
		{BigEndian64, binary.BigEndian, 8},
		{LittleEndian64, binary.LittleEndian, 8},
	}
	for _, tt := range tests {
		if got := tt.f.ByteOrder(); got != tt.bo {
			t.Errorf("%v.ByteOrder() = %v, want %v", tt.f, got, tt.bo)
		}
		if got := tt.f.SizeWidth(); got != tt.width {
			t.Errorf("%v.SizeWidth() = %d, want %d", tt.f, got, tt.width)
		}
	}
}

func TestKeyByteOrder(t *testing.T) {
	// Keys are byte-reversed on the wire in little-endian formats.
	for _, f := range allFormats {
		w := bin.NewBufferWriter(4)
		f.writeKey(w, "Layr")
		wire := w.Bytes()
		if f.ByteOrder() == binary.LittleEndian {
			if !bytes.Equal(wire, []byte("ryaL")) {
				t.Errorf("%v: wire key = %q, want %q", f, wire, "ryaL")
			}
		} else if !bytes.Equal(wire, []byte("Layr")) {
			t.Errorf("%v: wire key = %q, want %q", f, wire, "Layr")
		}
		k, err := f.readKey(bin.NewReader(wire))
		if err != nil || k != "Layr" {
			t.Errorf("%v: readKey = %q, %v", f, k, err)
		}
	}
}

func TestSizeRoundTrip(t *testing.T) {
	for _, f := range allFormats {
		for _, n := range []int{0, 1, 0x1234, 0x7FFFFFFF} {
			w := bin.NewBufferWriter(8)
			f.writeSize(w, n)
			if got := w.Len(); got != f.SizeWidth() {
				t.Fatalf("%v: size field is %d bytes, want %d", f, got, f.SizeWidth())
			}
			got, err := f.readSize(bin.NewReader(w.Bytes()))
			if err != nil || got != n {
				t.Errorf("%v: readSize = %d, %v, want %d", f, got, err, n)
			}
		}
	}
}

func TestPascalString(t *testing.T) {
	tests := []struct {
		s     string
		align int
		// total bytes on the wire including length prefix and padding
		wire int
	}{
		{"", 4, 4},
		{"abc", 4, 4},
		{"abcd", 4, 8},
		{"Layer 1", 4, 8},
		{"ab", 2, 4},
		{"café", 4, 8}, // Mac Roman encodes é as one byte
	}
	for _, tt := range tests {
		w := bin.NewBufferWriter(16)
		writePascalString(w, tt.s, tt.align)
		if w.Len() != tt.wire {
			t.Errorf("writePascalString(%q, %d) wrote %d bytes, want %d",
				tt.s, tt.align, w.Len(), tt.wire)
		}
		r := bin.NewReader(w.Bytes())
		got, err := readPascalString(r, tt.align)
		if err != nil || got != tt.s {
			t.Errorf("readPascalString = %q, %v, want %q", got, err, tt.s)
		}
		if r.Len() != 0 {
			t.Errorf("readPascalString(%q) left %d bytes", tt.s, r.Len())
		}
	}
}

func TestPascalStringTruncated(t *testing.T) {
	if _, err := readPascalString(bin.NewReader([]byte{5, 'a', 'b'}), 4); err == nil {
		t.Error("readPascalString accepted a truncated string")
	}
}
