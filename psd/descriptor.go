package psd

import (
	"bytes"
	"unicode/utf16"

	"github.com/mrjoshuak/go-psdtags/internal/bin"
)

// Descriptor is the versioned key/value structure Photoshop uses for
// fill settings and similar blocks: a class name, a class id, and an
// ordered list of typed items. A Descriptor is itself a value, so
// descriptors nest.
type Descriptor struct {
	Name    string
	ClassID string
	Items   []DescriptorItem
}

// DescriptorItem is one key/value pair of a descriptor.
type DescriptorItem struct {
	Key   string
	Value DescriptorValue
}

// DescriptorValue is a typed descriptor value. The concrete types map to
// the OSType codes of the wire format.
type DescriptorValue interface {
	osType() Key
	encodeValue(w *bin.BufferWriter, f Format)
}

// Long is a signed 32-bit descriptor value.
type Long int32

// Comp is a signed 64-bit descriptor value.
type Comp int64

// Double is a 64-bit floating-point descriptor value.
type Double float64

// Bool is a boolean descriptor value.
type Bool bool

// Text is a unicode string descriptor value.
type Text string

// RawData is an untyped byte payload descriptor value.
type RawData []byte

// List is an ordered list of descriptor values.
type List []DescriptorValue

// Enumerated is an enumeration descriptor value: a type id and a value
// id within it.
type Enumerated struct {
	Type  string
	Value string
}

// UnitFloat is a double with a 4-character unit code (#Prc, #Pxl, ...).
type UnitFloat struct {
	Unit  Key
	Value float64
}

func (Descriptor) osType() Key { return "Objc" }
func (Long) osType() Key       { return "long" }
func (Comp) osType() Key       { return "comp" }
func (Double) osType() Key     { return "doub" }
func (Bool) osType() Key       { return "bool" }
func (Text) osType() Key       { return "TEXT" }
func (RawData) osType() Key    { return "tdta" }
func (List) osType() Key       { return "VlLs" }
func (Enumerated) osType() Key { return "enum" }
func (UnitFloat) osType() Key  { return "UntF" }

// Item returns the value for key, or nil.
func (d *Descriptor) Item(key string) DescriptorValue {
	for _, it := range d.Items {
		if it.Key == key {
			return it.Value
		}
	}
	return nil
}

// Equal reports whether two descriptors have the same name, class id,
// and items in the same order.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d.Name != o.Name || d.ClassID != o.ClassID || len(d.Items) != len(o.Items) {
		return false
	}
	for i := range d.Items {
		if d.Items[i].Key != o.Items[i].Key ||
			!descriptorValueEqual(d.Items[i].Value, o.Items[i].Value) {
			return false
		}
	}
	return true
}

func descriptorValueEqual(a, b DescriptorValue) bool {
	switch x := a.(type) {
	case Descriptor:
		y, ok := b.(Descriptor)
		return ok && x.Equal(&y)
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !descriptorValueEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case RawData:
		y, ok := b.(RawData)
		return ok && bytes.Equal(x, y)
	default:
		return a == b
	}
}

func (d Descriptor) encodeValue(w *bin.BufferWriter, f Format) {
	writeUnicodeString(w, f, d.Name)
	writeDescriptorID(w, f, d.ClassID)
	w.WriteUint32(uint32(len(d.Items)), f.ByteOrder())
	for _, it := range d.Items {
		writeDescriptorID(w, f, it.Key)
		f.writeKey(w, it.Value.osType())
		it.Value.encodeValue(w, f)
	}
}

// encode appends the descriptor structure without a version prefix.
func (d *Descriptor) encode(w *bin.BufferWriter, f Format) {
	d.encodeValue(w, f)
}

func (v Long) encodeValue(w *bin.BufferWriter, f Format) {
	w.WriteInt32(int32(v), f.ByteOrder())
}

func (v Comp) encodeValue(w *bin.BufferWriter, f Format) {
	w.WriteInt64(int64(v), f.ByteOrder())
}

func (v Double) encodeValue(w *bin.BufferWriter, f Format) {
	w.WriteFloat64(float64(v), f.ByteOrder())
}

func (v Bool) encodeValue(w *bin.BufferWriter, f Format) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

func (v Text) encodeValue(w *bin.BufferWriter, f Format) {
	writeUnicodeString(w, f, string(v))
}

func (v RawData) encodeValue(w *bin.BufferWriter, f Format) {
	w.WriteUint32(uint32(len(v)), f.ByteOrder())
	w.WriteBytes(v)
}

func (v List) encodeValue(w *bin.BufferWriter, f Format) {
	w.WriteUint32(uint32(len(v)), f.ByteOrder())
	for _, e := range v {
		f.writeKey(w, e.osType())
		e.encodeValue(w, f)
	}
}

func (v Enumerated) encodeValue(w *bin.BufferWriter, f Format) {
	writeDescriptorID(w, f, v.Type)
	writeDescriptorID(w, f, v.Value)
}

func (v UnitFloat) encodeValue(w *bin.BufferWriter, f Format) {
	f.writeKey(w, v.Unit)
	w.WriteFloat64(v.Value, f.ByteOrder())
}

func decodeDescriptor(r *bin.Reader, f Format) (Descriptor, error) {
	var d Descriptor
	var err error
	if d.Name, err = readUnicodeString(r, f); err != nil {
		return d, err
	}
	if d.ClassID, err = readDescriptorID(r, f); err != nil {
		return d, err
	}
	n, err := r.ReadUint32(f.ByteOrder())
	if err != nil {
		return d, err
	}
	// An item needs at least eight bytes of id on the wire.
	if n > uint32(r.Len()/8) {
		return d, formatError(r.Pos(), "descriptor: %d items declared, %d bytes remain", n, r.Len())
	}
	d.Items = make([]DescriptorItem, 0, n)
	for i := uint32(0); i < n; i++ {
		key, err := readDescriptorID(r, f)
		if err != nil {
			return d, err
		}
		value, err := decodeDescriptorValue(r, f)
		if err != nil {
			return d, err
		}
		d.Items = append(d.Items, DescriptorItem{Key: key, Value: value})
	}
	return d, nil
}

func decodeDescriptorValue(r *bin.Reader, f Format) (DescriptorValue, error) {
	ostype, err := f.readKey(r)
	if err != nil {
		return nil, err
	}
	bo := f.ByteOrder()
	switch ostype {
	case "Objc", "GlbO":
		return decodeDescriptor(r, f)
	case "long":
		v, err := r.ReadInt32(bo)
		return Long(v), err
	case "comp":
		v, err := r.ReadInt64(bo)
		return Comp(v), err
	case "doub":
		v, err := r.ReadFloat64(bo)
		return Double(v), err
	case "bool":
		b, err := r.ReadByte()
		return Bool(b != 0), err
	case "TEXT":
		s, err := readUnicodeString(r, f)
		return Text(s), err
	case "tdta":
		n, err := r.ReadUint32(bo)
		if err != nil {
			return nil, err
		}
		data, err := r.ReadBytes(int(n))
		return RawData(data), err
	case "VlLs":
		n, err := r.ReadUint32(bo)
		if err != nil {
			return nil, err
		}
		// Each element carries at least a 4-byte type code.
		if n > uint32(r.Len()/4) {
			return nil, formatError(r.Pos(), "descriptor: %d list elements declared, %d bytes remain", n, r.Len())
		}
		list := make(List, 0, n)
		for i := uint32(0); i < n; i++ {
			e, err := decodeDescriptorValue(r, f)
			if err != nil {
				return nil, err
			}
			list = append(list, e)
		}
		return list, nil
	case "enum":
		var v Enumerated
		if v.Type, err = readDescriptorID(r, f); err != nil {
			return nil, err
		}
		v.Value, err = readDescriptorID(r, f)
		return v, err
	case "UntF":
		var v UnitFloat
		if v.Unit, err = f.readKey(r); err != nil {
			return nil, err
		}
		v.Value, err = r.ReadFloat64(bo)
		return v, err
	}
	return nil, formatError(r.Pos(), "descriptor: unknown value type %q", ostype)
}

// readDescriptorID reads a length-prefixed id. A length of zero means a
// 4-character code follows.
func readDescriptorID(r *bin.Reader, f Format) (string, error) {
	n, err := r.ReadUint32(f.ByteOrder())
	if err != nil {
		return "", err
	}
	if n == 0 {
		k, err := f.readKey(r)
		return string(k), err
	}
	b, err := r.ReadBytes(int(n))
	return string(b), err
}

// writeDescriptorID writes an id. 4-character ids use the zero-length
// code form.
func writeDescriptorID(w *bin.BufferWriter, f Format, id string) {
	if len(id) == 4 {
		w.WriteUint32(0, f.ByteOrder())
		f.writeKey(w, Key(id))
		return
	}
	w.WriteUint32(uint32(len(id)), f.ByteOrder())
	w.WriteBytes([]byte(id))
}

func readUnicodeString(r *bin.Reader, f Format) (string, error) {
	bo := f.ByteOrder()
	n, err := r.ReadUint32(bo)
	if err != nil {
		return "", err
	}
	if n > uint32(r.Len()/2) {
		return "", formatError(r.Pos(), "unicode string: %d units declared, %d bytes remain", n, r.Len())
	}
	units := make([]uint16, n)
	for i := range units {
		if units[i], err = r.ReadUint16(bo); err != nil {
			return "", err
		}
	}
	return string(utf16.Decode(units)), nil
}

func writeUnicodeString(w *bin.BufferWriter, f Format, s string) {
	bo := f.ByteOrder()
	units := utf16.Encode([]rune(s))
	w.WriteUint32(uint32(len(units)), bo)
	for _, u := range units {
		w.WriteUint16(u, bo)
	}
}
