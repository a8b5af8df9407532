package psd

import (
	"bytes"
	"fmt"
)

// Rectangle is a pixel-coordinate rectangle in top, left, bottom, right
// order as stored on the wire.
type Rectangle struct {
	Top    int32
	Left   int32
	Bottom int32
	Right  int32
}

// Width returns right minus left.
func (r Rectangle) Width() int32 { return r.Right - r.Left }

// Height returns bottom minus top.
func (r Rectangle) Height() int32 { return r.Bottom - r.Top }

// IsZero reports whether all four coordinates are zero.
func (r Rectangle) IsZero() bool { return r == Rectangle{} }

func (r Rectangle) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", r.Top, r.Left, r.Bottom, r.Right)
}

// Channel is one channel of a layer: an identifier, the compression used
// on the wire, and the decompressed big-endian sample data.
type Channel struct {
	ID ChannelID
	// Compression records how the channel was stored when parsed, and
	// selects the method used when serializing (unless overridden).
	Compression CompressionType
	// Data holds decompressed samples in big-endian byte order, row
	// major, with no padding. Its dimensions come from the owning
	// layer's shape for the channel id.
	Data []byte
}

// Equal reports whether two channels carry the same id and sample data.
// The stored compression type is not compared: it is a storage detail,
// not image content.
func (c *Channel) Equal(o *Channel) bool {
	if c.ID != o.ID {
		return false
	}
	return bytes.Equal(c.Data, o.Data)
}

// Mask is a layer mask: a rectangle, default color, flags, and optional
// density and feather parameters. Nil parameter pointers mean the
// parameter was absent and is not written back.
type Mask struct {
	Rectangle    Rectangle
	DefaultColor uint8
	Flags        MaskFlags

	UserDensity   *uint8
	UserFeather   *float64
	VectorDensity *uint8
	VectorFeather *float64

	// RealFlags, RealBackground and RealRectangle hold the second mask
	// record present in 40-byte mask blocks.
	RealFlags      *MaskFlags
	RealBackground *uint8
	RealRectangle  *Rectangle
}

// params returns the parameter presence flags for serialization.
func (m *Mask) params() MaskParameterFlags {
	var p MaskParameterFlags
	if m.UserDensity != nil {
		p |= MaskParamUserDensity
	}
	if m.UserFeather != nil {
		p |= MaskParamUserFeather
	}
	if m.VectorDensity != nil {
		p |= MaskParamVectorDensity
	}
	if m.VectorFeather != nil {
		p |= MaskParamVectorFeather
	}
	return p
}

// Equal reports whether two masks carry the same geometry, flags and
// parameters.
func (m *Mask) Equal(o *Mask) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Rectangle != o.Rectangle || m.DefaultColor != o.DefaultColor || m.Flags != o.Flags {
		return false
	}
	return ptrEqual(m.UserDensity, o.UserDensity) &&
		ptrEqual(m.UserFeather, o.UserFeather) &&
		ptrEqual(m.VectorDensity, o.VectorDensity) &&
		ptrEqual(m.VectorFeather, o.VectorFeather) &&
		ptrEqual(m.RealFlags, o.RealFlags) &&
		ptrEqual(m.RealBackground, o.RealBackground) &&
		ptrEqual(m.RealRectangle, o.RealRectangle)
}

// BlendingRanges holds the composite and per-channel blending range
// values as a flat sequence of 32-bit integers, exactly as stored.
type BlendingRanges []int32

// Layer is one layer record with its channel image data.
type Layer struct {
	Name      string
	Rectangle Rectangle
	Channels  []Channel
	Mask      *Mask
	// BlendingRanges is the raw blending range data, possibly empty.
	BlendingRanges BlendingRanges
	BlendMode      BlendMode
	Opacity        uint8
	Clipping       ClippingType
	Flags          LayerFlags
	// Filler is the byte following the flags, preserved verbatim.
	Filler uint8
	// Info holds the tagged extension blocks following the layer record,
	// in wire order.
	Info []Block
	// Extra holds unframed bytes found after the last extension block,
	// written back verbatim.
	Extra []byte
}

// ChannelShape returns the rows and columns of the named channel: masks
// use the mask rectangle, all other channels the layer rectangle.
func (l *Layer) ChannelShape(id ChannelID) (rows, cols int) {
	r := l.Rectangle
	if id < ChannelTransparencyMask && l.Mask != nil {
		r = l.Mask.Rectangle
	}
	return int(r.Height()), int(r.Width())
}

// Shape returns the layer's height and width in pixels.
func (l *Layer) Shape() (rows, cols int) {
	return int(l.Rectangle.Height()), int(l.Rectangle.Width())
}

// Offset returns the layer's top-left position in document coordinates.
func (l *Layer) Offset() (top, left int32) {
	return l.Rectangle.Top, l.Rectangle.Left
}

// Channel returns the channel with the given id, or nil.
func (l *Layer) Channel(id ChannelID) *Channel {
	for i := range l.Channels {
		if l.Channels[i].ID == id {
			return &l.Channels[i]
		}
	}
	return nil
}

// Block returns the first extension block with the given key, or nil.
func (l *Layer) Block(key Key) Block {
	for _, b := range l.Info {
		if b.Key() == key {
			return b
		}
	}
	return nil
}

// UnicodeName returns the unicode layer name extension if present, else
// the record name.
func (l *Layer) UnicodeName() string {
	if b, ok := l.Block(KeyUnicodeLayerName).(*UnicodeString); ok {
		return b.Value
	}
	return l.Name
}

// Equal reports whether two layers describe the same image content.
// Names and raw record details that do not affect pixels (the filler
// byte) are excluded, mirroring how equality is used in round-trip
// comparisons across formats.
func (l *Layer) Equal(o *Layer) bool {
	if l.Rectangle != o.Rectangle ||
		l.BlendMode != o.BlendMode ||
		l.Opacity != o.Opacity ||
		l.Clipping != o.Clipping ||
		l.Flags != o.Flags ||
		len(l.Channels) != len(o.Channels) {
		return false
	}
	if !l.Mask.Equal(o.Mask) {
		return false
	}
	if len(l.BlendingRanges) != len(o.BlendingRanges) {
		return false
	}
	for i := range l.BlendingRanges {
		if l.BlendingRanges[i] != o.BlendingRanges[i] {
			return false
		}
	}
	for i := range l.Channels {
		if !l.Channels[i].Equal(&o.Channels[i]) {
			return false
		}
	}
	if len(l.Info) != len(o.Info) {
		return false
	}
	for i := range l.Info {
		if !blockEqual(l.Info[i], o.Info[i]) {
			return false
		}
	}
	return true
}

// GlobalMask is the document-wide layer mask from the LMsk section.
type GlobalMask struct {
	ColorSpace ColorSpace
	// Components are the four color components of the overlay color.
	Components [4]uint16
	Opacity    uint16
	Flag       uint8
}

// Component returns component i of the overlay color, sign-extended
// for the Lab color space, whose a and b components are signed.
func (m *GlobalMask) Component(i int) int {
	if m.ColorSpace == ColorSpaceLab && i > 0 {
		return int(int16(m.Components[i]))
	}
	return int(m.Components[i])
}

// FilterMask is the FMsk section: a mask color space and opacity.
type FilterMask struct {
	ColorSpace ColorSpace
	Components [4]uint16
	Opacity    uint16
}

// LayerInfo is a decoded Layr, Lr16 or Lr32 section: the layer stack
// plus the merged-transparency flag encoded in the sign of the layer
// count.
type LayerInfo struct {
	Key    Key
	Layers []Layer
	// HasTransparency is set when the first alpha channel of the merged
	// result contains transparency data (negative layer count on the
	// wire).
	HasTransparency bool
}

// SampleSize returns the bytes per sample for the section key: 1 for
// Layr, 2 for Lr16, 4 for Lr32.
func (li *LayerInfo) SampleSize() int {
	switch li.Key {
	case KeyLayer16:
		return 2
	case KeyLayer32:
		return 4
	default:
		return 1
	}
}

// Bounds returns the union of all non-empty layer rectangles.
func (li *LayerInfo) Bounds() Rectangle {
	var r Rectangle
	first := true
	for i := range li.Layers {
		lr := li.Layers[i].Rectangle
		if lr.IsZero() {
			continue
		}
		if first {
			r = lr
			first = false
			continue
		}
		r.Top = min(r.Top, lr.Top)
		r.Left = min(r.Left, lr.Left)
		r.Bottom = max(r.Bottom, lr.Bottom)
		r.Right = max(r.Right, lr.Right)
	}
	return r
}

// Plane is one channel's decompressed samples with their geometry.
type Plane struct {
	Rows, Cols int
	// SampleSize is the element width in bytes; samples are big-endian.
	SampleSize int
	Data       []byte
}

// Plane returns the named channel of the given layer as samples plus
// shape and element width.
func (li *LayerInfo) Plane(layer int, id ChannelID) (Plane, error) {
	if layer < 0 || layer >= len(li.Layers) {
		return Plane{}, fmt.Errorf("%w: no layer %d", ErrChannelData, layer)
	}
	l := &li.Layers[layer]
	ch := l.Channel(id)
	if ch == nil {
		return Plane{}, fmt.Errorf("%w: layer %d has no channel %s", ErrChannelData, layer, id)
	}
	rows, cols := l.ChannelShape(id)
	p := Plane{Rows: rows, Cols: cols, SampleSize: li.SampleSize(), Data: ch.Data}
	if len(ch.Data) != rows*cols*p.SampleSize {
		return Plane{}, fmt.Errorf("%w: layer %d channel %s has %d bytes, want %d",
			ErrChannelData, layer, id, len(ch.Data), rows*cols*p.SampleSize)
	}
	return p, nil
}

// Equal reports whether two layer stacks carry the same layers and
// transparency flag.
func (li *LayerInfo) Equal(o *LayerInfo) bool {
	if li.HasTransparency != o.HasTransparency || len(li.Layers) != len(o.Layers) {
		return false
	}
	for i := range li.Layers {
		if !li.Layers[i].Equal(&o.Layers[i]) {
			return false
		}
	}
	return true
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
