package psd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mrjoshuak/go-psdtags/internal/bin"
)

// layerNames is the layer stack of a typical layered TIFF, bottom to
// top as stored in the section.
var layerNames = []string{
	"Background", "Reflect1", "Reflect2", "image",
	"Layer 1", "ORight", "I", "IShadow", "O",
}

func channelPattern(n, seed int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(seed*31 + i*7)
	}
	return data
}

// testSourceData builds a payload exercising layers, masks, extension
// blocks and every channel role.
func testSourceData(key Key) *ImageSourceData {
	li := &LayerInfo{Key: key, HasTransparency: true}
	ss := li.SampleSize()

	for i, name := range layerNames {
		l := Layer{
			Name:      name,
			Rectangle: Rectangle{Top: 0, Left: 0, Bottom: 2, Right: 3},
			BlendMode: BlendNormal,
			Opacity:   255,
		}
		size := 2 * 3 * ss
		for id := ChannelID(0); id < 3; id++ {
			l.Channels = append(l.Channels, Channel{
				ID:          id,
				Compression: CompressionRaw,
				Data:        channelPattern(size, i*4+int(id)),
			})
		}
		switch name {
		case "Background":
			l.BlendingRanges = BlendingRanges{0x0000ffff, 0x0000ffff, 0x0000ffff, 0x0000ffff}
		case "image":
			l.Channels = append(l.Channels, Channel{
				ID:          ChannelTransparencyMask,
				Compression: CompressionRaw,
				Data:        channelPattern(size, 99),
			})
			l.Mask = &Mask{
				Rectangle:    Rectangle{Top: 0, Left: 0, Bottom: 1, Right: 2},
				DefaultColor: 255,
				Flags:        MaskDisabled,
			}
			l.Channels = append(l.Channels, Channel{
				ID:          ChannelUserMask,
				Compression: CompressionRaw,
				Data:        channelPattern(1*2*ss, 7),
			})
		case "Layer 1":
			l.Info = []Block{
				&UnicodeString{Tag: KeyUnicodeLayerName, Value: "Layer 1"},
				&Integer{Tag: KeyLayerID, Value: 7},
				&Boolean{Tag: KeyKnockoutSetting, Value: true},
				&SectionDivider{Tag: KeySectionDivider, Type: SectionOpenFolder, BlendMode: BlendNormal},
				&Opaque{Tag: "zz99", Data: []byte{1, 2, 3, 4, 5}, Pad: []byte{0}},
			}
		case "ORight":
			l.Info = []Block{
				&DescriptorBlock{
					Tag:     KeySolidColorSheet,
					Version: 16,
					Value: Descriptor{
						ClassID: "null",
						Items: []DescriptorItem{
							{Key: "Clr ", Value: Descriptor{
								ClassID: "RGBC",
								Items: []DescriptorItem{
									{Key: "Rd  ", Value: Double(255)},
									{Key: "Grn ", Value: Double(128.5)},
									{Key: "Bl  ", Value: Double(0)},
								},
							}},
							{Key: "enab", Value: Bool(true)},
							{Key: "Nm  ", Value: Text("fill")},
							{Key: "Md  ", Value: Enumerated{Type: "BlnM", Value: "Nrml"}},
							{Key: "Scl ", Value: UnitFloat{Unit: "#Prc", Value: 100}},
							{Key: "nums", Value: List{Long(1), Long(2), Comp(1 << 40)}},
						},
					},
				},
			}
		case "I":
			// A layer with no pixels: empty rectangle, empty channels.
			l.Rectangle = Rectangle{}
			for c := range l.Channels {
				l.Channels[c].Data = nil
			}
		case "O":
			l.Channels = nil
		}
		li.Layers = append(li.Layers, l)
	}

	return &ImageSourceData{
		Format: BigEndian32,
		Layers: li,
		GlobalMask: &GlobalMask{
			ColorSpace: ColorSpaceRGB,
			Components: [4]uint16{65535, 0, 0, 0},
			Opacity:    50,
			Flag:       128,
		},
		Info: []Block{
			&FilterMask{ColorSpace: ColorSpaceRGB, Components: [4]uint16{0, 0, 65535, 0}, Opacity: 128},
		},
	}
}

var allCompressions = []CompressionType{
	CompressionRaw, CompressionRLE, CompressionZIP, CompressionZIPPrediction,
}

func TestSourceDataRoundTrip(t *testing.T) {
	for _, key := range []Key{KeyLayer, KeyLayer16, KeyLayer32} {
		d := testSourceData(key)
		for _, f := range allFormats {
			for _, comp := range allCompressions {
				out, err := d.Serialize(WriteOptions{
					Format: f, Compression: comp, OverrideCompression: true,
				})
				if err != nil {
					t.Fatalf("%v/%v/%v: Serialize: %v", key, f, comp, err)
				}
				got, warnings, err := ParseImageSourceData(out, ParseOptions{})
				if err != nil {
					t.Fatalf("%v/%v/%v: Parse: %v", key, f, comp, err)
				}
				if got.Format != f {
					t.Fatalf("%v/%v/%v: parsed format %v", key, f, comp, got.Format)
				}
				if !got.Equal(d) {
					t.Fatalf("%v/%v/%v: round trip not equal", key, f, comp)
				}
				// The only unrecognized key in the payload is zz99.
				if len(warnings) != 1 || warnings[0].Key != "zz99" {
					t.Fatalf("%v/%v/%v: warnings = %v", key, f, comp, warnings)
				}
			}
		}
	}
}

func TestLayerNamesAndOrder(t *testing.T) {
	d := testSourceData(KeyLayer)
	out, err := d.Serialize(WriteOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := ParseImageSourceData(out, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Layers == nil || len(got.Layers.Layers) != len(layerNames) {
		t.Fatalf("parsed %d layers", len(got.Layers.Layers))
	}
	if !got.Layers.HasTransparency {
		t.Error("HasTransparency lost")
	}
	for i, want := range layerNames {
		if got.Layers.Layers[i].Name != want {
			t.Errorf("layer %d name = %q, want %q", i, got.Layers.Layers[i].Name, want)
		}
	}
	// The unicode name block wins over the record name when present.
	if got.Layers.Layers[4].UnicodeName() != "Layer 1" {
		t.Errorf("UnicodeName = %q", got.Layers.Layers[4].UnicodeName())
	}
}

func TestReserializeStable(t *testing.T) {
	d := testSourceData(KeyLayer)
	for _, f := range allFormats {
		out1, err := d.Serialize(WriteOptions{Format: f, Compression: CompressionRLE, OverrideCompression: true})
		if err != nil {
			t.Fatal(err)
		}
		got, _, err := ParseImageSourceData(out1, ParseOptions{})
		if err != nil {
			t.Fatal(err)
		}
		out2, err := got.Serialize(WriteOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out1, out2) {
			t.Fatalf("%v: parse/serialize is not byte stable", f)
		}
	}
}

func TestParallelDeterminism(t *testing.T) {
	d := testSourceData(KeyLayer16)
	var first []byte
	for _, workers := range []int{1, 2, 8} {
		out, err := d.Serialize(WriteOptions{
			Compression: CompressionRLE, OverrideCompression: true, Workers: workers,
		})
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if first == nil {
			first = out
			continue
		}
		if !bytes.Equal(out, first) {
			t.Fatalf("workers=%d produced different bytes", workers)
		}
	}
	for _, workers := range []int{1, 2, 8} {
		got, _, err := ParseImageSourceData(first, ParseOptions{Workers: workers})
		if err != nil {
			t.Fatalf("parse workers=%d: %v", workers, err)
		}
		if !got.Equal(d) {
			t.Fatalf("parse workers=%d: not equal", workers)
		}
	}
}

func TestMaskParameters(t *testing.T) {
	density := uint8(128)
	feather := 2.5
	realFlags := MaskFlags(0)
	realBG := uint8(0)
	realRect := Rectangle{Top: 1, Left: 1, Bottom: 3, Right: 4}

	d := testSourceData(KeyLayer)
	l := &d.Layers.Layers[3] // "image", the masked layer
	l.Mask.Flags |= MaskRendered
	l.Mask.UserDensity = &density
	l.Mask.UserFeather = &feather
	l.Mask.RealFlags = &realFlags
	l.Mask.RealBackground = &realBG
	l.Mask.RealRectangle = &realRect

	out, err := d.Serialize(WriteOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := ParseImageSourceData(out, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	m := got.Layers.Layers[3].Mask
	if m == nil || !m.Equal(l.Mask) {
		t.Fatalf("mask round trip mismatch: %+v", m)
	}
}

func TestMaskParametersRequireRealFields(t *testing.T) {
	density := uint8(1)
	d := testSourceData(KeyLayer)
	d.Layers.Layers[3].Mask.UserDensity = &density
	if _, err := d.Serialize(WriteOptions{}); !errors.Is(err, ErrFormat) {
		t.Fatalf("Serialize: err = %v, want ErrFormat", err)
	}
}

func TestEmptyPayload(t *testing.T) {
	got, warnings, err := ParseImageSourceData(sourceDataSignature, ParseOptions{})
	if err != nil || len(warnings) != 0 {
		t.Fatalf("Parse: %v, %v", warnings, err)
	}
	if got.Format != FormatUnknown || got.Layers != nil {
		t.Fatalf("parsed %+v", got)
	}
	out, err := got.Serialize(WriteOptions{})
	if err != nil || !bytes.Equal(out, sourceDataSignature) {
		t.Fatalf("Serialize = %x, %v", out, err)
	}
}

func TestTruncation(t *testing.T) {
	d := testSourceData(KeyLayer)
	out, err := d.Serialize(WriteOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 10, 35, 38, 42, 46, 60, 100} {
		if _, _, err := ParseImageSourceData(out[:n], ParseOptions{}); !errors.Is(err, ErrFormat) {
			t.Errorf("truncated at %d: err = %v, want ErrFormat", n, err)
		}
	}
}

func TestInvertedRectangle(t *testing.T) {
	li := &LayerInfo{Key: KeyLayer}
	li.Layers = []Layer{{
		Name:      "flip",
		Rectangle: Rectangle{Top: 0, Left: 0, Bottom: 2, Right: 2},
		BlendMode: BlendNormal,
		Opacity:   255,
		Channels: []Channel{{
			ID:          0,
			Compression: CompressionRLE,
			Data:        channelPattern(4, 1),
		}},
	}}
	d := &ImageSourceData{Format: BigEndian32, Layers: li}
	out, err := d.Serialize(WriteOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// Rewrite the bottom edge to sit above the top edge. The parser
	// must reject the rectangle instead of sizing channel buffers
	// from its negative area.
	const bottom = 36 + 12 + 2 + 8 // header, section header, count, top+left
	copy(out[bottom:bottom+4], []byte{0xff, 0xff, 0xff, 0xff})
	if _, _, err := ParseImageSourceData(out, ParseOptions{}); !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

func TestMissingHeader(t *testing.T) {
	if _, _, err := ParseImageSourceData([]byte("not photoshop data"), ParseOptions{}); !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
	// SkipSignature accepts a bare section stream.
	d := testSourceData(KeyLayer)
	out, err := d.Serialize(WriteOptions{SkipSignature: true})
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := ParseImageSourceData(out, ParseOptions{SkipSignature: true})
	if err != nil || !got.Equal(d) {
		t.Fatalf("SkipSignature round trip: %v", err)
	}
}

func TestOpaqueSectionByteIdentity(t *testing.T) {
	// An unknown section round-trips byte for byte, including padding.
	w := bin.NewBufferWriter(64)
	w.WriteBytes(sourceDataSignature)
	writeSection(w, BigEndian32, "Strs", []byte{9, 8, 7, 6, 5}, nil)
	in := append([]byte(nil), w.Bytes()...)

	got, warnings, err := ParseImageSourceData(in, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || warnings[0].Key != "Strs" {
		t.Fatalf("warnings = %v", warnings)
	}
	op, ok := got.Info[0].(*Opaque)
	if !ok || !bytes.Equal(op.Data, []byte{9, 8, 7, 6, 5}) {
		t.Fatalf("Info[0] = %#v", got.Info[0])
	}
	out, err := got.Serialize(WriteOptions{})
	if err != nil || !bytes.Equal(out, in) {
		t.Fatalf("opaque section not byte identical: %v", err)
	}
}

func TestTrailingFiller(t *testing.T) {
	w := bin.NewBufferWriter(64)
	w.WriteBytes(sourceDataSignature)
	writeSection(w, BigEndian32, "Strs", []byte{1, 2, 3, 4}, nil)
	w.WriteBytes([]byte{0, 0, 0}) // shorter than a section header
	in := append([]byte(nil), w.Bytes()...)

	got, _, err := ParseImageSourceData(in, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Trailer, []byte{0, 0, 0}) {
		t.Fatalf("Trailer = %x", got.Trailer)
	}
	out, err := got.Serialize(WriteOptions{})
	if err != nil || !bytes.Equal(out, in) {
		t.Fatalf("trailing filler not preserved: %v", err)
	}
}

func TestWarningOncePerKey(t *testing.T) {
	d := testSourceData(KeyLayer)
	// A second layer carrying the same unknown block.
	d.Layers.Layers[0].Info = []Block{
		&Opaque{Tag: "zz99", Data: []byte{9, 9}},
	}
	out, err := d.Serialize(WriteOptions{})
	if err != nil {
		t.Fatal(err)
	}
	_, warnings, err := ParseImageSourceData(out, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || warnings[0].Key != "zz99" {
		t.Fatalf("warnings = %v, want one for zz99", warnings)
	}
}

func TestStrictMode(t *testing.T) {
	w := bin.NewBufferWriter(64)
	w.WriteBytes(sourceDataSignature)
	writeSection(w, BigEndian32, "Strs", []byte{1, 2, 3, 4}, nil)
	if _, _, err := ParseImageSourceData(w.Bytes(), ParseOptions{Strict: true}); !errors.Is(err, ErrFormat) {
		t.Fatalf("strict unknown section: err = %v, want ErrFormat", err)
	}

	d := testSourceData(KeyLayer) // contains the zz99 layer block
	out, err := d.Serialize(WriteOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ParseImageSourceData(out, ParseOptions{Strict: true}); !errors.Is(err, ErrFormat) {
		t.Fatalf("strict unknown block: err = %v, want ErrFormat", err)
	}
}

func TestOpaqueKeyOption(t *testing.T) {
	d := testSourceData(KeyLayer)
	out, err := d.Serialize(WriteOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got, warnings, err := ParseImageSourceData(out, ParseOptions{
		Opaque: []Key{KeyUnicodeLayerName, "zz99"},
	})
	if err != nil {
		t.Fatal(err)
	}
	// Requested keys produce no warnings and stay raw.
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	b := got.Layers.Layers[4].Block(KeyUnicodeLayerName)
	if _, ok := b.(*Opaque); !ok {
		t.Fatalf("luni block = %#v, want *Opaque", b)
	}
}

func TestRegistryWithout(t *testing.T) {
	d := testSourceData(KeyLayer)
	out, err := d.Serialize(WriteOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got, warnings, err := ParseImageSourceData(out, ParseOptions{
		Registry: DefaultRegistry().Without(KeyLayerID),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Layers.Layers[4].Block(KeyLayerID).(*Opaque); !ok {
		t.Fatal("lyid still decoded after Without")
	}
	// zz99 plus the now-unknown lyid.
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestUnsupportedCompression(t *testing.T) {
	d := testSourceData(KeyLayer)
	out, err := d.Serialize(WriteOptions{Compression: CompressionRLE, OverrideCompression: true})
	if err != nil {
		t.Fatal(err)
	}
	codecs := DefaultCodecs()
	delete(codecs, CompressionRLE)
	for _, workers := range []int{1, 8} {
		_, _, err = ParseImageSourceData(out, ParseOptions{Codecs: codecs, Workers: workers})
		if !errors.Is(err, ErrUnsupportedCompression) {
			t.Fatalf("workers=%d: err = %v, want ErrUnsupportedCompression", workers, err)
		}
	}
}

func TestChannelSizeValidation(t *testing.T) {
	d := testSourceData(KeyLayer)
	d.Layers.Layers[0].Channels[0].Data = []byte{1, 2, 3} // needs 6 bytes
	if _, err := d.Serialize(WriteOptions{}); !errors.Is(err, ErrChannelData) {
		t.Fatalf("err = %v, want ErrChannelData", err)
	}
}

func TestFormatConversion(t *testing.T) {
	// Parse big-endian, write little-endian 64-bit, parse again: the
	// content must survive both conversions.
	d := testSourceData(KeyLayer16)
	be, err := d.Serialize(WriteOptions{Format: BigEndian32})
	if err != nil {
		t.Fatal(err)
	}
	parsed, _, err := ParseImageSourceData(be, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	le, err := parsed.Serialize(WriteOptions{Format: LittleEndian64, Compression: CompressionZIP, OverrideCompression: true})
	if err != nil {
		t.Fatal(err)
	}
	back, _, err := ParseImageSourceData(le, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if back.Format != LittleEndian64 {
		t.Fatalf("format = %v", back.Format)
	}
	if !back.Equal(d) {
		t.Fatal("conversion round trip not equal")
	}
}

func BenchmarkSerialize(b *testing.B) {
	d := testSourceData(KeyLayer)
	opts := WriteOptions{Compression: CompressionRLE, OverrideCompression: true}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := d.Serialize(opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	d := testSourceData(KeyLayer)
	out, err := d.Serialize(WriteOptions{Compression: CompressionRLE, OverrideCompression: true})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := ParseImageSourceData(out, ParseOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}
