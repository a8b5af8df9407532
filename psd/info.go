package psd

import (
	"bytes"

	"github.com/mrjoshuak/go-psdtags/internal/bin"
)

// Block is a tagged information block: a 4-character key plus a typed
// payload. Keys with a registered decoder produce concrete types below;
// everything else round-trips as *Opaque.
type Block interface {
	// Key returns the block's 4-character key.
	Key() Key

	// encode appends the block payload, without framing, in the byte
	// order of the target format.
	encode(w *bin.BufferWriter, f Format)
}

// BlockDecoder decodes a block payload. data is the payload without
// framing or trailing pad bytes beyond the declared size.
type BlockDecoder func(key Key, data []byte, f Format) (Block, error)

// Registry maps block keys to decoders. A Registry is immutable once
// built: With and Without return modified copies, so a Registry may be
// shared across concurrent parses.
type Registry struct {
	decoders map[Key]BlockDecoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: map[Key]BlockDecoder{}}
}

// With returns a copy of the registry with dec registered for keys.
func (r *Registry) With(dec BlockDecoder, keys ...Key) *Registry {
	c := &Registry{decoders: make(map[Key]BlockDecoder, len(r.decoders)+len(keys))}
	for k, d := range r.decoders {
		c.decoders[k] = d
	}
	for _, k := range keys {
		c.decoders[k] = dec
	}
	return c
}

// Without returns a copy of the registry with keys removed. Payloads for
// removed keys decode as *Opaque.
func (r *Registry) Without(keys ...Key) *Registry {
	c := &Registry{decoders: make(map[Key]BlockDecoder, len(r.decoders))}
	for k, d := range r.decoders {
		c.decoders[k] = d
	}
	for _, k := range keys {
		delete(c.decoders, k)
	}
	return c
}

func (r *Registry) lookup(k Key) (BlockDecoder, bool) {
	d, ok := r.decoders[k]
	return d, ok
}

var defaultRegistry = NewRegistry().
	With(decodeUnicodeString, KeyUnicodeLayerName, KeyUnicodePathName).
	With(decodeBoolean, KeyKnockoutSetting, KeyBlendClippingElements,
		KeyBlendInteriorElements, KeyTransparencyShapes).
	With(decodeInteger, KeyLayerID, KeyLayerVersion).
	With(decodeWord, KeyProtectedSetting, KeySheetColorSetting).
	With(decodeFourCC, KeyLayerNameSource).
	With(decodeReferencePoint, KeyReferencePoint).
	With(decodeSectionDivider, KeySectionDivider, KeyNestedSectionDivider).
	With(decodeDescriptorBlock, KeySolidColorSheet, KeyGradientFillSetting,
		KeyPatternFillSetting)

// DefaultRegistry returns the registry of built-in block decoders. The
// returned value is shared; use With or Without to derive variants.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// UnicodeString is a UTF-16 string block (luni, pths).
type UnicodeString struct {
	Tag   Key
	Value string
}

func (b *UnicodeString) Key() Key { return b.Tag }

func (b *UnicodeString) encode(w *bin.BufferWriter, f Format) {
	writeUnicodeString(w, f, b.Value)
}

func decodeUnicodeString(key Key, data []byte, f Format) (Block, error) {
	r := bin.NewReader(data)
	s, err := readUnicodeString(r, f)
	if err != nil {
		return nil, formatError(r.Pos(), "unicode string %q: %v", key, err)
	}
	return &UnicodeString{Tag: key, Value: s}, nil
}

// Boolean is a one-byte flag block (knko, clbl, infx, tsly). The payload
// is written as 4 bytes with the value in the first.
type Boolean struct {
	Tag   Key
	Value bool
}

func (b *Boolean) Key() Key { return b.Tag }

func (b *Boolean) encode(w *bin.BufferWriter, f Format) {
	if b.Value {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
	w.WriteZeros(3)
}

func decodeBoolean(key Key, data []byte, f Format) (Block, error) {
	if len(data) < 1 {
		return nil, formatError(0, "boolean %q: empty payload", key)
	}
	return &Boolean{Tag: key, Value: data[0] != 0}, nil
}

// Integer is a signed 32-bit integer block (lyid, lyvr).
type Integer struct {
	Tag   Key
	Value int32
}

func (b *Integer) Key() Key { return b.Tag }

func (b *Integer) encode(w *bin.BufferWriter, f Format) {
	w.WriteInt32(b.Value, f.ByteOrder())
}

func decodeInteger(key Key, data []byte, f Format) (Block, error) {
	v, err := bin.NewReader(data).ReadInt32(f.ByteOrder())
	if err != nil {
		return nil, formatError(0, "integer %q: %v", key, err)
	}
	return &Integer{Tag: key, Value: v}, nil
}

// Word is an unsigned 32-bit integer block (lspf, lclr).
type Word struct {
	Tag   Key
	Value uint32
}

func (b *Word) Key() Key { return b.Tag }

func (b *Word) encode(w *bin.BufferWriter, f Format) {
	w.WriteUint32(b.Value, f.ByteOrder())
}

func decodeWord(key Key, data []byte, f Format) (Block, error) {
	v, err := bin.NewReader(data).ReadUint32(f.ByteOrder())
	if err != nil {
		return nil, formatError(0, "word %q: %v", key, err)
	}
	return &Word{Tag: key, Value: v}, nil
}

// FourCC is a block whose payload is a single 4-character code (lnsr).
type FourCC struct {
	Tag   Key
	Value Key
}

func (b *FourCC) Key() Key { return b.Tag }

func (b *FourCC) encode(w *bin.BufferWriter, f Format) {
	f.writeKey(w, b.Value)
}

func decodeFourCC(key Key, data []byte, f Format) (Block, error) {
	v, err := f.readKey(bin.NewReader(data))
	if err != nil {
		return nil, formatError(0, "fourcc %q: %v", key, err)
	}
	return &FourCC{Tag: key, Value: v}, nil
}

// ReferencePoint is the fxrp block: two doubles.
type ReferencePoint struct {
	Tag  Key
	X, Y float64
}

func (b *ReferencePoint) Key() Key { return b.Tag }

func (b *ReferencePoint) encode(w *bin.BufferWriter, f Format) {
	bo := f.ByteOrder()
	w.WriteFloat64(b.X, bo)
	w.WriteFloat64(b.Y, bo)
}

func decodeReferencePoint(key Key, data []byte, f Format) (Block, error) {
	r := bin.NewReader(data)
	bo := f.ByteOrder()
	x, err := r.ReadFloat64(bo)
	if err != nil {
		return nil, formatError(0, "reference point %q: %v", key, err)
	}
	y, err := r.ReadFloat64(bo)
	if err != nil {
		return nil, formatError(r.Pos(), "reference point %q: %v", key, err)
	}
	return &ReferencePoint{Tag: key, X: x, Y: y}, nil
}

// SectionDividerType is the kind field of a section divider block.
type SectionDividerType uint32

const (
	SectionOther           SectionDividerType = 0
	SectionOpenFolder      SectionDividerType = 1
	SectionClosedFolder    SectionDividerType = 2
	SectionBoundingDivider SectionDividerType = 3
)

// SectionDivider is the lsct (or lsdk) block grouping layers into
// sections. BlendMode and SubType are present only in longer payloads;
// an empty BlendMode means absent, and SubType requires BlendMode.
type SectionDivider struct {
	Tag       Key
	Type      SectionDividerType
	BlendMode BlendMode
	SubType   *uint32
}

func (b *SectionDivider) Key() Key { return b.Tag }

func (b *SectionDivider) encode(w *bin.BufferWriter, f Format) {
	bo := f.ByteOrder()
	w.WriteUint32(uint32(b.Type), bo)
	if b.BlendMode == "" {
		return
	}
	w.WriteBytes([]byte(f.Signature()))
	f.writeKey(w, Key(b.BlendMode))
	if b.SubType != nil {
		w.WriteUint32(*b.SubType, bo)
	}
}

func decodeSectionDivider(key Key, data []byte, f Format) (Block, error) {
	r := bin.NewReader(data)
	bo := f.ByteOrder()
	kind, err := r.ReadUint32(bo)
	if err != nil {
		return nil, formatError(0, "section divider %q: %v", key, err)
	}
	b := &SectionDivider{Tag: key, Type: SectionDividerType(kind)}
	if len(data) >= 12 {
		if err := f.readSignature(r); err != nil {
			return nil, formatError(r.Pos(), "section divider %q: %v", key, err)
		}
		mode, err := f.readKey(r)
		if err != nil {
			return nil, formatError(r.Pos(), "section divider %q: %v", key, err)
		}
		b.BlendMode = BlendMode(mode)
	}
	if len(data) >= 16 {
		sub, err := r.ReadUint32(bo)
		if err != nil {
			return nil, formatError(r.Pos(), "section divider %q: %v", key, err)
		}
		b.SubType = &sub
	}
	return b, nil
}

// DescriptorBlock is a block whose payload is a version number followed
// by a descriptor structure (SoCo, GdFl, PtFl).
type DescriptorBlock struct {
	Tag     Key
	Version uint32
	Value   Descriptor
}

func (b *DescriptorBlock) Key() Key { return b.Tag }

func (b *DescriptorBlock) encode(w *bin.BufferWriter, f Format) {
	w.WriteUint32(b.Version, f.ByteOrder())
	b.Value.encode(w, f)
}

func decodeDescriptorBlock(key Key, data []byte, f Format) (Block, error) {
	r := bin.NewReader(data)
	version, err := r.ReadUint32(f.ByteOrder())
	if err != nil {
		return nil, formatError(0, "descriptor %q: %v", key, err)
	}
	d, err := decodeDescriptor(r, f)
	if err != nil {
		return nil, formatError(r.Pos(), "descriptor %q: %v", key, err)
	}
	return &DescriptorBlock{Tag: key, Version: version, Value: d}, nil
}

// Opaque is a block with no registered decoder. The payload and its pad
// bytes are preserved verbatim so the block serializes byte-identically.
type Opaque struct {
	Tag  Key
	Data []byte
	// Pad holds the alignment bytes that followed the payload. They are
	// written back unchanged; zeros are written if Pad is too short.
	Pad []byte
}

func (b *Opaque) Key() Key { return b.Tag }

func (b *Opaque) encode(w *bin.BufferWriter, f Format) {
	w.WriteBytes(b.Data)
}

// blockEqual compares two blocks by type and content. Opaque blocks
// compare payloads but not pad bytes.
func blockEqual(a, b Block) bool {
	switch x := a.(type) {
	case *UnicodeString:
		y, ok := b.(*UnicodeString)
		return ok && *x == *y
	case *Boolean:
		y, ok := b.(*Boolean)
		return ok && *x == *y
	case *Integer:
		y, ok := b.(*Integer)
		return ok && *x == *y
	case *Word:
		y, ok := b.(*Word)
		return ok && *x == *y
	case *FourCC:
		y, ok := b.(*FourCC)
		return ok && *x == *y
	case *ReferencePoint:
		y, ok := b.(*ReferencePoint)
		return ok && *x == *y
	case *SectionDivider:
		y, ok := b.(*SectionDivider)
		return ok && x.Tag == y.Tag && x.Type == y.Type &&
			x.BlendMode == y.BlendMode && ptrEqual(x.SubType, y.SubType)
	case *DescriptorBlock:
		y, ok := b.(*DescriptorBlock)
		return ok && x.Tag == y.Tag && x.Version == y.Version &&
			x.Value.Equal(&y.Value)
	case *FilterMask:
		y, ok := b.(*FilterMask)
		return ok && *x == *y
	case *Opaque:
		y, ok := b.(*Opaque)
		return ok && x.Tag == y.Tag && bytes.Equal(x.Data, y.Data)
	}
	return false
}
