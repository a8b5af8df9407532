package compression

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

func TestDeflateRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
	}{
		{"empty", nil},
		{"short", []byte("hello")},
		{"repetitive", bytes.Repeat([]byte{1, 2, 3, 4}, 1000)},
		{"binary", func() []byte {
			b := make([]byte, 4096)
			for i := range b {
				b[i] = byte(i * 7)
			}
			return b
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := DeflateCompress(tt.src)
			if err != nil {
				t.Fatalf("DeflateCompress: %v", err)
			}
			dec, err := DeflateDecompress(enc, len(tt.src))
			if err != nil {
				t.Fatalf("DeflateDecompress: %v", err)
			}
			if !bytes.Equal(dec, tt.src) {
				t.Errorf("round trip mismatch: %d bytes in, %d out", len(tt.src), len(dec))
			}
		})
	}
}

func TestDeflateDecompressErrors(t *testing.T) {
	if _, err := DeflateDecompress([]byte("not zlib"), 10); !errors.Is(err, ErrDeflateCorrupted) {
		t.Errorf("bad header: err = %v, want ErrDeflateCorrupted", err)
	}
	if _, err := DeflateDecompress(nil, 10); !errors.Is(err, ErrDeflateCorrupted) {
		t.Errorf("empty input with size: err = %v, want ErrDeflateCorrupted", err)
	}

	enc, err := DeflateCompress([]byte("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DeflateDecompress(enc, 5); !errors.Is(err, ErrDeflateCorrupted) {
		t.Errorf("wrong size: err = %v, want ErrDeflateCorrupted", err)
	}
	if _, err := DeflateDecompress(enc[:len(enc)-4], 11); !errors.Is(err, ErrDeflateCorrupted) {
		t.Errorf("truncated stream: err = %v, want ErrDeflateCorrupted", err)
	}
}

func TestDeflateConcurrent(t *testing.T) {
	// The writer pool must hand every goroutine an independent codec.
	src := bytes.Repeat([]byte("abcdefgh"), 512)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				enc, err := DeflateCompress(src)
				if err != nil {
					t.Error(err)
					return
				}
				dec, err := DeflateDecompress(enc, len(src))
				if err != nil {
					t.Error(err)
					return
				}
				if !bytes.Equal(dec, src) {
					t.Error("concurrent round trip mismatch")
					return
				}
			}
		}()
	}
	wg.Wait()
}
