package psd

import (
	"bytes"
	"encoding/binary"

	"github.com/mrjoshuak/go-psdtags/internal/bin"
)

// ImageResources is the decoded value of TIFF tag 34377: the image
// resource blocks of a Photoshop file. Unlike ImageSourceData, the
// resource stream is always big-endian.
type ImageResources struct {
	// Name is a label for diagnostics, not stored in the payload.
	Name   string
	Blocks []ResourceBlock
	// Trailer holds bytes after the last block, too short to be
	// another block. Serialize writes them back verbatim.
	Trailer []byte
}

// ResourceBlock is one image resource: a signature, numeric id, pascal
// name, and raw data. Data is preserved verbatim.
type ResourceBlock struct {
	// Signature is "8BIM" for Photoshop resources. ImageReady and
	// PhotoDeluxe wrote other signatures; they are kept as parsed.
	Signature string
	ID        ResourceID
	// BlockName is the block's pascal name, usually empty.
	BlockName string
	Data      []byte
}

var resourceSignatures = map[string]bool{
	"8BIM": true,
	"MeSa": true,
	"PHUT": true,
	"AgHg": true,
	"DCSR": true,
}

// ParseImageResources decodes an ImageResources (TIFF tag 34377)
// payload into its resource blocks.
func ParseImageResources(data []byte) (*ImageResources, error) {
	r := bin.NewReader(data)
	res := &ImageResources{}
	for r.Len() >= 4 {
		mark := r.Mark()
		sig, err := r.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		if !resourceSignatures[string(sig)] {
			return nil, formatError(mark, "unrecognized resource signature %q", sig)
		}
		id, err := r.ReadUint16(binary.BigEndian)
		if err != nil {
			return nil, formatError(mark, "truncated resource id")
		}
		name, err := readPascalString(r, 2)
		if err != nil {
			return nil, err
		}
		size, err := r.ReadUint32(binary.BigEndian)
		if err != nil {
			return nil, formatError(r.Pos(), "resource %d: truncated length", id)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, formatError(r.Pos(), "resource %d: declared %d bytes, %d remain",
				id, size, r.Len())
		}
		if err := r.Skip(min(int(size)%2, r.Len())); err != nil {
			return nil, err
		}
		res.Blocks = append(res.Blocks, ResourceBlock{
			Signature: string(sig),
			ID:        ResourceID(id),
			BlockName: name,
			Data:      payload,
		})
	}
	if r.Len() > 0 {
		res.Trailer, _ = r.ReadBytes(r.Len())
	}
	return res, nil
}

// Serialize encodes the resource blocks back into a tag payload.
func (res *ImageResources) Serialize() []byte {
	w := bin.NewBufferWriter(256)
	for _, b := range res.Blocks {
		sig := b.Signature
		if sig == "" {
			sig = "8BIM"
		}
		w.WriteBytes([]byte(sig))
		w.WriteUint16(uint16(b.ID), binary.BigEndian)
		writePascalString(w, b.BlockName, 2)
		w.WriteUint32(uint32(len(b.Data)), binary.BigEndian)
		w.WriteBytes(b.Data)
		w.WriteZeros(len(b.Data) % 2)
	}
	w.WriteBytes(res.Trailer)
	return w.Bytes()
}

// Block returns the first resource with the given id, or nil.
func (res *ImageResources) Block(id ResourceID) *ResourceBlock {
	for i := range res.Blocks {
		if res.Blocks[i].ID == id {
			return &res.Blocks[i]
		}
	}
	return nil
}

// Thumbnail formats.
const (
	ThumbnailRaw  uint32 = 0
	ThumbnailJPEG uint32 = 1
)

// Thumbnail is a decoded thumbnail resource (ids 1033 and 1036).
type Thumbnail struct {
	// Format is ThumbnailRaw or ThumbnailJPEG.
	Format         uint32
	Width          uint32
	Height         uint32
	WidthBytes     uint32
	TotalSize      uint32
	CompressedSize uint32
	BitsPerPixel   uint16
	Planes         uint16
	// Data is the pixel stream: a JFIF image for ThumbnailJPEG.
	Data []byte
	// BGR is set for the Photoshop 4.0 resource (id 1033), whose raw
	// pixels are in blue, green, red order.
	BGR bool
}

// Thumbnail decodes the thumbnail resource, preferring the Photoshop
// 5.0 block (id 1036) over the 4.0 one (id 1033). Returns nil when
// neither is present.
func (res *ImageResources) Thumbnail() (*Thumbnail, error) {
	b := res.Block(ResourceThumbnail)
	bgr := false
	if b == nil {
		b = res.Block(ResourceThumbnailPS4)
		bgr = true
	}
	if b == nil {
		return nil, nil
	}
	r := bin.NewReader(b.Data)
	t := &Thumbnail{BGR: bgr}
	fields := []*uint32{
		&t.Format, &t.Width, &t.Height, &t.WidthBytes, &t.TotalSize, &t.CompressedSize,
	}
	var err error
	for _, f := range fields {
		if *f, err = r.ReadUint32(binary.BigEndian); err != nil {
			return nil, formatError(r.Pos(), "thumbnail %d: %v", b.ID, err)
		}
	}
	if t.BitsPerPixel, err = r.ReadUint16(binary.BigEndian); err != nil {
		return nil, formatError(r.Pos(), "thumbnail %d: %v", b.ID, err)
	}
	if t.Planes, err = r.ReadUint16(binary.BigEndian); err != nil {
		return nil, formatError(r.Pos(), "thumbnail %d: %v", b.ID, err)
	}
	if t.Data, err = r.ReadBytes(r.Len()); err != nil {
		return nil, err
	}
	return t, nil
}

// SetThumbnail stores t as the Photoshop 5.0 thumbnail resource,
// replacing an existing one.
func (res *ImageResources) SetThumbnail(t *Thumbnail) {
	w := bin.NewBufferWriter(28 + len(t.Data))
	for _, v := range []uint32{
		t.Format, t.Width, t.Height, t.WidthBytes, t.TotalSize, t.CompressedSize,
	} {
		w.WriteUint32(v, binary.BigEndian)
	}
	w.WriteUint16(t.BitsPerPixel, binary.BigEndian)
	w.WriteUint16(t.Planes, binary.BigEndian)
	w.WriteBytes(t.Data)

	id := ResourceThumbnail
	if t.BGR {
		id = ResourceThumbnailPS4
	}
	if b := res.Block(id); b != nil {
		b.Data = w.Bytes()
		return
	}
	res.Blocks = append(res.Blocks, ResourceBlock{
		Signature: "8BIM",
		ID:        id,
		Data:      w.Bytes(),
	})
}

// Equal reports whether two resource streams carry the same blocks.
func (res *ImageResources) Equal(o *ImageResources) bool {
	if len(res.Blocks) != len(o.Blocks) {
		return false
	}
	for i := range res.Blocks {
		a, b := &res.Blocks[i], &o.Blocks[i]
		if a.Signature != b.Signature || a.ID != b.ID || a.BlockName != b.BlockName {
			return false
		}
		if !bytes.Equal(a.Data, b.Data) {
			return false
		}
	}
	return true
}
