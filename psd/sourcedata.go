package psd

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mrjoshuak/go-psdtags/internal/bin"
)

// sourceDataSignature starts every ImageSourceData payload.
var sourceDataSignature = []byte("Adobe Photoshop Document Data Block\x00")

// ImageSourceData is the decoded value of TIFF tag 37724: the layered
// image section of a TIFF-based Photoshop file.
type ImageSourceData struct {
	// Format is the signature the payload was parsed from, or
	// FormatUnknown for an empty payload.
	Format Format
	// Name is a label for diagnostics. It is not stored in the payload
	// and not compared by Equal.
	Name string

	Layers     *LayerInfo
	GlobalMask *GlobalMask
	// Info holds the remaining sections in wire order: filter masks and
	// unrecognized sections preserved as *Opaque.
	Info []Block
	// Trailer holds bytes after the last section, written back verbatim.
	Trailer []byte
}

// ParseOptions controls payload parsing. The zero value parses with the
// default registry and codecs.
type ParseOptions struct {
	// SkipSignature parses a payload without the leading
	// "Adobe Photoshop Document Data Block" header.
	SkipSignature bool

	// Strict turns unrecognized section and extension keys into errors
	// instead of warnings.
	Strict bool

	// Opaque lists keys that are preserved as raw bytes even when a
	// decoder is registered, without a warning.
	Opaque []Key

	// Registry overrides DefaultRegistry for extension blocks.
	Registry *Registry

	// Codecs overrides DefaultCodecs for channel data.
	Codecs CodecTable

	// Workers bounds the goroutines used for channel decompression.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int
}

// WriteOptions controls serialization. The zero value writes the
// payload's own format and per-channel compression.
type WriteOptions struct {
	// Format selects the output signature. FormatUnknown keeps the
	// parsed format.
	Format Format

	// Compression replaces every channel's compression when
	// OverrideCompression is set.
	Compression         CompressionType
	OverrideCompression bool

	// SkipSignature omits the leading header.
	SkipSignature bool

	// Codecs overrides DefaultCodecs for channel data.
	Codecs CodecTable

	// Workers bounds the goroutines used for channel compression.
	Workers int
}

func (o ParseOptions) registry() *Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return DefaultRegistry()
}

func (o ParseOptions) codecs() CodecTable {
	if o.Codecs != nil {
		return o.Codecs
	}
	return DefaultCodecs()
}

func (o WriteOptions) codecs() CodecTable {
	if o.Codecs != nil {
		return o.Codecs
	}
	return DefaultCodecs()
}

// Equal reports whether two payloads carry the same layers, masks and
// extension data. Name, Format and trailing filler are not compared, so
// a payload re-serialized to a different byte order compares equal to
// its source.
func (d *ImageSourceData) Equal(o *ImageSourceData) bool {
	if (d.Layers == nil) != (o.Layers == nil) {
		return false
	}
	if d.Layers != nil && !d.Layers.Equal(o.Layers) {
		return false
	}
	if !ptrEqual(d.GlobalMask, o.GlobalMask) {
		return false
	}
	if len(d.Info) != len(o.Info) {
		return false
	}
	for i := range d.Info {
		if !blockEqual(d.Info[i], o.Info[i]) {
			return false
		}
	}
	return true
}

type parseState struct {
	f        Format
	reg      *Registry
	codecs   CodecTable
	opaque   map[Key]bool
	strict   bool
	workers  int
	warned   map[Key]bool
	warnings []Warning
}

// warn records an unrecognized key, once per distinct key per parse.
func (ps *parseState) warn(key Key, offset int) error {
	if ps.strict {
		return formatError(offset, "unrecognized key %q", string(key))
	}
	if ps.warned[key] {
		return nil
	}
	ps.warned[key] = true
	ps.warnings = append(ps.warnings, Warning{Key: key, Offset: offset})
	return nil
}

// ParseImageSourceData decodes an ImageSourceData (TIFF tag 37724)
// payload. Warnings report sections and extension blocks that were
// preserved as opaque bytes because no decoder is registered.
func ParseImageSourceData(data []byte, opts ParseOptions) (*ImageSourceData, []Warning, error) {
	r := bin.NewReader(data)
	if !opts.SkipSignature {
		sig, err := r.ReadBytes(len(sourceDataSignature))
		if err != nil || !bytes.Equal(sig, sourceDataSignature) {
			return nil, nil, formatError(0, "missing document data block header")
		}
	}

	d := &ImageSourceData{}
	if r.Len() == 0 {
		return d, nil, nil
	}

	if r.Len() < 4 {
		return nil, nil, formatError(r.Pos(), "truncated format signature")
	}
	f, err := DetectFormat(data[r.Pos() : r.Pos()+4])
	if err != nil {
		return nil, nil, err
	}
	d.Format = f

	ps := &parseState{
		f:       f,
		reg:     opts.registry(),
		codecs:  opts.codecs(),
		opaque:  make(map[Key]bool, len(opts.Opaque)),
		strict:  opts.Strict,
		workers: opts.Workers,
		warned:  make(map[Key]bool),
	}
	for _, k := range opts.Opaque {
		ps.opaque[k] = true
	}

	for r.Len() >= 4 {
		mark := r.Mark()
		sig, _ := r.ReadBytes(4)
		if string(sig) != f.Signature() {
			// Trailing bytes after the last section are ignored, matching
			// writers that pad the tag value.
			r.SetPos(mark)
			break
		}
		key, err := f.readKey(r)
		if err != nil {
			return nil, nil, formatError(mark, "truncated section key")
		}
		size, err := f.readSize(r)
		if err != nil {
			return nil, nil, formatError(mark, "truncated section size")
		}
		start := r.Pos()
		payload, err := r.ReadBytes(size)
		if err != nil {
			return nil, nil, formatError(start, "section %q: declared %d bytes, %d remain",
				string(key), size, r.Len())
		}
		pad, err := r.ReadBytes(min(padding(size, 4), r.Len()))
		if err != nil {
			return nil, nil, err
		}

		switch {
		case !ps.opaque[key] && d.Layers == nil &&
			(key == KeyLayer || key == KeyLayer16 || key == KeyLayer32):
			li, err := parseLayerInfo(payload, key, ps, start)
			if err != nil {
				return nil, nil, err
			}
			d.Layers = li
		case !ps.opaque[key] && d.GlobalMask == nil && key == KeyUserMask:
			gm, err := parseGlobalMask(payload, f)
			if err != nil {
				return nil, nil, err
			}
			d.GlobalMask = gm
		case !ps.opaque[key] && key == KeyFilterMask:
			fm, err := parseFilterMask(payload, f)
			if err != nil {
				return nil, nil, err
			}
			d.Info = append(d.Info, fm)
		default:
			if !ps.opaque[key] {
				if err := ps.warn(key, mark); err != nil {
					return nil, nil, err
				}
			}
			d.Info = append(d.Info, &Opaque{Tag: key, Data: payload, Pad: pad})
		}
	}
	if r.Len() > 0 {
		d.Trailer, _ = r.ReadBytes(r.Len())
	}
	return d, ps.warnings, nil
}

// channelJob locates one channel's image data within a layer section.
type channelJob struct {
	layer, channel int
	payload        []byte
	ctx            CodecContext
}

func parseLayerInfo(data []byte, key Key, ps *parseState, base int) (*LayerInfo, error) {
	r := bin.NewReader(data)
	f := ps.f
	li := &LayerInfo{Key: key}
	count, err := r.ReadInt16(f.ByteOrder())
	if err != nil {
		return nil, formatError(base, "layer count: %v", err)
	}
	li.HasTransparency = count < 0
	if count < 0 {
		count = -count
	}

	li.Layers = make([]Layer, count)
	lengths := make([][]int, count)
	for i := range li.Layers {
		var err error
		lengths[i], err = parseLayerRecord(r, &li.Layers[i], ps, base)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}

	sampleSize := li.SampleSize()
	var jobs []channelJob
	for i := range li.Layers {
		l := &li.Layers[i]
		for c := range l.Channels {
			payload, err := r.ReadBytes(lengths[i][c])
			if err != nil {
				return nil, formatError(base+r.Pos(),
					"layer %d channel %d: declared %d bytes, %d remain",
					i, c, lengths[i][c], r.Len())
			}
			rows, cols := l.ChannelShape(l.Channels[c].ID)
			jobs = append(jobs, channelJob{
				layer: i, channel: c, payload: payload,
				ctx: CodecContext{Rows: rows, Cols: cols, SampleSize: sampleSize},
			})
		}
	}

	samples, err := parallelChunks(len(jobs), ps.workers, func(i int) ([]byte, error) {
		job := jobs[i]
		_, out, err := decodeChannelData(job.payload, f, job.ctx, ps.codecs)
		if err != nil {
			return nil, fmt.Errorf("layer %d channel %d: %w", job.layer, job.channel, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	for i, job := range jobs {
		ch := &li.Layers[job.layer].Channels[job.channel]
		ch.Compression = CompressionType(int16(f.ByteOrder().Uint16(job.payload)))
		ch.Data = samples[i]
	}
	return li, nil
}

// parseLayerRecord decodes one layer record, without channel image data.
// It returns the declared byte length of each channel's image data.
func parseLayerRecord(r *bin.Reader, l *Layer, ps *parseState, base int) ([]int, error) {
	f := ps.f
	bo := f.ByteOrder()

	var err error
	if l.Rectangle, err = readRectangle(r, bo); err != nil {
		return nil, formatError(base+r.Pos(), "rectangle: %v", err)
	}
	if err := checkRectangle(l.Rectangle, base+r.Pos(), "layer"); err != nil {
		return nil, err
	}
	count, err := r.ReadUint16(bo)
	if err != nil {
		return nil, formatError(base+r.Pos(), "channel count: %v", err)
	}
	l.Channels = make([]Channel, count)
	lengths := make([]int, count)
	for i := range l.Channels {
		id, err := r.ReadInt16(bo)
		if err != nil {
			return nil, formatError(base+r.Pos(), "channel info: %v", err)
		}
		l.Channels[i].ID = ChannelID(id)
		l.Channels[i].Compression = CompressionUnknown
		if lengths[i], err = f.readSize(r); err != nil {
			return nil, formatError(base+r.Pos(), "channel length: %v", err)
		}
	}

	if err := f.readSignature(r); err != nil {
		return nil, err
	}
	mode, err := f.readKey(r)
	if err != nil {
		return nil, formatError(base+r.Pos(), "blend mode: %v", err)
	}
	l.BlendMode = BlendMode(mode)
	if l.Opacity, err = r.ReadUint8(); err != nil {
		return nil, formatError(base+r.Pos(), "opacity: %v", err)
	}
	clip, err := r.ReadUint8()
	if err != nil {
		return nil, formatError(base+r.Pos(), "clipping: %v", err)
	}
	l.Clipping = ClippingType(clip)
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, formatError(base+r.Pos(), "flags: %v", err)
	}
	l.Flags = LayerFlags(flags)
	// Some writers put garbage in the filler byte; it is kept, not checked.
	if l.Filler, err = r.ReadUint8(); err != nil {
		return nil, formatError(base+r.Pos(), "filler: %v", err)
	}

	// The extra data length is 4 bytes in every format.
	extraSize, err := r.ReadUint32(bo)
	if err != nil {
		return nil, formatError(base+r.Pos(), "extra size: %v", err)
	}
	end := r.Pos() + int(extraSize)
	if end > r.Pos()+r.Len() {
		return nil, formatError(base+r.Pos(), "extra data: declared %d bytes, %d remain",
			extraSize, r.Len())
	}

	if l.Mask, err = parseMask(r, f, base); err != nil {
		return nil, err
	}

	nbytes, err := r.ReadUint32(bo)
	if err != nil {
		return nil, formatError(base+r.Pos(), "blending ranges: %v", err)
	}
	if nbytes%4 != 0 {
		return nil, formatError(base+r.Pos(), "blending ranges length %d not a multiple of 4", nbytes)
	}
	l.BlendingRanges = make(BlendingRanges, nbytes/4)
	for i := range l.BlendingRanges {
		if l.BlendingRanges[i], err = r.ReadInt32(bo); err != nil {
			return nil, formatError(base+r.Pos(), "blending ranges: %v", err)
		}
	}

	if l.Name, err = readPascalString(r, 4); err != nil {
		return nil, err
	}

	if err := parseLayerBlocks(r, l, ps, base, end); err != nil {
		return nil, err
	}
	if err := r.SetPos(end); err != nil {
		return nil, formatError(base+end, "layer record overruns extra data")
	}
	return lengths, nil
}

// parseLayerBlocks decodes the tagged extension blocks between the layer
// name and the end of the record's extra data.
func parseLayerBlocks(r *bin.Reader, l *Layer, ps *parseState, base, end int) error {
	f := ps.f
	for r.Pos() < end {
		mark := r.Mark()
		sig, err := r.ReadBytes(4)
		if end-mark < 12 || err != nil || string(sig) != f.Signature() {
			// Preserve whatever trails the last block.
			r.SetPos(mark)
			l.Extra, _ = r.ReadBytes(end - mark)
			return nil
		}
		key, err := f.readKey(r)
		if err != nil {
			return formatError(base+mark, "block key: %v", err)
		}
		size, err := f.readSize(r)
		if err != nil {
			return formatError(base+mark, "block %q size: %v", string(key), err)
		}
		payload, err := r.ReadBytes(size)
		if err != nil {
			return formatError(base+r.Pos(), "block %q: declared %d bytes, %d remain",
				string(key), size, end-r.Pos())
		}
		pad, err := r.ReadBytes(min(padding(size, 2), end-r.Pos()))
		if err != nil {
			return err
		}

		dec, known := ps.reg.lookup(key)
		if ps.opaque[key] || !known {
			if !ps.opaque[key] {
				if err := ps.warn(key, base+mark); err != nil {
					return err
				}
			}
			l.Info = append(l.Info, &Opaque{Tag: key, Data: payload, Pad: pad})
			continue
		}
		b, err := dec(key, payload, f)
		if err != nil {
			return err
		}
		l.Info = append(l.Info, b)
	}
	return nil
}

func parseMask(r *bin.Reader, f Format, base int) (*Mask, error) {
	bo := f.ByteOrder()
	size, err := r.ReadUint32(bo)
	if err != nil {
		return nil, formatError(base+r.Pos(), "mask size: %v", err)
	}
	if size == 0 {
		return nil, nil
	}
	m := &Mask{}
	if m.Rectangle, err = readRectangle(r, bo); err != nil {
		return nil, formatError(base+r.Pos(), "mask rectangle: %v", err)
	}
	if err := checkRectangle(m.Rectangle, base+r.Pos(), "mask"); err != nil {
		return nil, err
	}
	if m.DefaultColor, err = r.ReadUint8(); err != nil {
		return nil, formatError(base+r.Pos(), "mask default color: %v", err)
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, formatError(base+r.Pos(), "mask flags: %v", err)
	}
	m.Flags = MaskFlags(flags)

	if m.Flags&MaskRendered != 0 {
		pf, err := r.ReadUint8()
		if err != nil {
			return nil, formatError(base+r.Pos(), "mask parameters: %v", err)
		}
		params := MaskParameterFlags(pf)
		if params&MaskParamUserDensity != 0 {
			v, err := r.ReadUint8()
			if err != nil {
				return nil, formatError(base+r.Pos(), "user mask density: %v", err)
			}
			m.UserDensity = &v
		}
		if params&MaskParamUserFeather != 0 {
			v, err := r.ReadFloat64(bo)
			if err != nil {
				return nil, formatError(base+r.Pos(), "user mask feather: %v", err)
			}
			m.UserFeather = &v
		}
		if params&MaskParamVectorDensity != 0 {
			v, err := r.ReadUint8()
			if err != nil {
				return nil, formatError(base+r.Pos(), "vector mask density: %v", err)
			}
			m.VectorDensity = &v
		}
		if params&MaskParamVectorFeather != 0 {
			v, err := r.ReadFloat64(bo)
			if err != nil {
				return nil, formatError(base+r.Pos(), "vector mask feather: %v", err)
			}
			m.VectorFeather = &v
		}
	}

	if size == 20 {
		if err := r.Skip(2); err != nil {
			return nil, formatError(base+r.Pos(), "mask padding: %v", err)
		}
		return m, nil
	}
	rf, err := r.ReadUint8()
	if err != nil {
		return nil, formatError(base+r.Pos(), "real mask flags: %v", err)
	}
	realFlags := MaskFlags(rf)
	m.RealFlags = &realFlags
	bg, err := r.ReadUint8()
	if err != nil {
		return nil, formatError(base+r.Pos(), "real mask background: %v", err)
	}
	m.RealBackground = &bg
	rect, err := readRectangle(r, bo)
	if err != nil {
		return nil, formatError(base+r.Pos(), "real mask rectangle: %v", err)
	}
	if err := checkRectangle(rect, base+r.Pos(), "real mask"); err != nil {
		return nil, err
	}
	m.RealRectangle = &rect
	return m, nil
}

func parseGlobalMask(data []byte, f Format) (*GlobalMask, error) {
	r := bin.NewReader(data)
	bo := f.ByteOrder()
	m := &GlobalMask{}
	cs, err := r.ReadInt16(bo)
	if err != nil {
		return nil, formatError(0, "global mask: %v", err)
	}
	m.ColorSpace = ColorSpace(cs)
	for i := range m.Components {
		if m.Components[i], err = r.ReadUint16(bo); err != nil {
			return nil, formatError(r.Pos(), "global mask components: %v", err)
		}
	}
	if m.Opacity, err = r.ReadUint16(bo); err != nil {
		return nil, formatError(r.Pos(), "global mask opacity: %v", err)
	}
	if m.Flag, err = r.ReadUint8(); err != nil {
		return nil, formatError(r.Pos(), "global mask flag: %v", err)
	}
	return m, nil
}

func (m *GlobalMask) encode(w *bin.BufferWriter, f Format) {
	bo := f.ByteOrder()
	w.WriteInt16(int16(m.ColorSpace), bo)
	for _, c := range m.Components {
		w.WriteUint16(c, bo)
	}
	w.WriteUint16(m.Opacity, bo)
	w.WriteUint8(m.Flag)
	w.WriteZeros(1)
}

func parseFilterMask(data []byte, f Format) (*FilterMask, error) {
	r := bin.NewReader(data)
	bo := f.ByteOrder()
	m := &FilterMask{}
	cs, err := r.ReadInt16(bo)
	if err != nil {
		return nil, formatError(0, "filter mask: %v", err)
	}
	m.ColorSpace = ColorSpace(cs)
	for i := range m.Components {
		if m.Components[i], err = r.ReadUint16(bo); err != nil {
			return nil, formatError(r.Pos(), "filter mask components: %v", err)
		}
	}
	if m.Opacity, err = r.ReadUint16(bo); err != nil {
		return nil, formatError(r.Pos(), "filter mask opacity: %v", err)
	}
	return m, nil
}

// Key identifies the filter mask section so it can travel in Info.
func (m *FilterMask) Key() Key { return KeyFilterMask }

func (m *FilterMask) encode(w *bin.BufferWriter, f Format) {
	bo := f.ByteOrder()
	w.WriteInt16(int16(m.ColorSpace), bo)
	for _, c := range m.Components {
		w.WriteUint16(c, bo)
	}
	w.WriteUint16(m.Opacity, bo)
}

// checkRectangle rejects inverted rectangles, whose negative area would
// otherwise flow into channel buffer sizes.
func checkRectangle(rect Rectangle, offset int, what string) error {
	if rect.Bottom < rect.Top || rect.Right < rect.Left {
		return formatError(offset, "%s rectangle %s is inverted", what, rect)
	}
	return nil
}

func readRectangle(r *bin.Reader, bo binary.ByteOrder) (Rectangle, error) {
	var rect Rectangle
	var err error
	if rect.Top, err = r.ReadInt32(bo); err != nil {
		return rect, err
	}
	if rect.Left, err = r.ReadInt32(bo); err != nil {
		return rect, err
	}
	if rect.Bottom, err = r.ReadInt32(bo); err != nil {
		return rect, err
	}
	rect.Right, err = r.ReadInt32(bo)
	return rect, err
}

func writeRectangle(w *bin.BufferWriter, rect Rectangle, bo binary.ByteOrder) {
	w.WriteInt32(rect.Top, bo)
	w.WriteInt32(rect.Left, bo)
	w.WriteInt32(rect.Bottom, bo)
	w.WriteInt32(rect.Right, bo)
}

// Serialize encodes the payload, choosing the format and compression
// from opts. The output has every section rebuilt; opaque sections and
// blocks are emitted byte for byte.
func (d *ImageSourceData) Serialize(opts WriteOptions) ([]byte, error) {
	f := opts.Format
	if f == FormatUnknown {
		f = d.Format
	}
	empty := d.Layers == nil && d.GlobalMask == nil &&
		len(d.Info) == 0 && len(d.Trailer) == 0
	w := bin.NewBufferWriter(1024)
	if !opts.SkipSignature {
		w.WriteBytes(sourceDataSignature)
	}
	if empty {
		return w.Bytes(), nil
	}
	if f == FormatUnknown {
		f = BigEndian32
	}

	if d.Layers != nil {
		payload, err := serializeLayerInfo(d.Layers, f, opts)
		if err != nil {
			return nil, err
		}
		writeSection(w, f, d.Layers.Key, payload, nil)
	}
	if d.GlobalMask != nil {
		gw := bin.NewBufferWriter(16)
		d.GlobalMask.encode(gw, f)
		writeSection(w, f, KeyUserMask, gw.Bytes(), nil)
	}
	for _, b := range d.Info {
		bw := bin.NewBufferWriter(64)
		b.encode(bw, f)
		var pad []byte
		if o, ok := b.(*Opaque); ok {
			pad = o.Pad
		}
		writeSection(w, f, b.Key(), bw.Bytes(), pad)
	}
	w.WriteBytes(d.Trailer)
	return w.Bytes(), nil
}

func writeSection(w *bin.BufferWriter, f Format, key Key, payload, pad []byte) {
	w.WriteBytes([]byte(f.Signature()))
	f.writeKey(w, key)
	f.writeSize(w, len(payload))
	w.WriteBytes(payload)
	n := padding(len(payload), 4)
	if len(pad) == n {
		w.WriteBytes(pad)
	} else {
		w.WriteZeros(n)
	}
}

func serializeLayerInfo(li *LayerInfo, f Format, opts WriteOptions) ([]byte, error) {
	sampleSize := li.SampleSize()
	codecs := opts.codecs()

	var jobs []channelJob
	for i := range li.Layers {
		l := &li.Layers[i]
		for c := range l.Channels {
			rows, cols := l.ChannelShape(l.Channels[c].ID)
			jobs = append(jobs, channelJob{
				layer: i, channel: c,
				ctx: CodecContext{Rows: rows, Cols: cols, SampleSize: sampleSize},
			})
		}
	}
	encoded, err := parallelChunks(len(jobs), opts.Workers, func(i int) ([]byte, error) {
		job := jobs[i]
		ch := &li.Layers[job.layer].Channels[job.channel]
		comp := ch.Compression
		if opts.OverrideCompression {
			comp = opts.Compression
		}
		if comp == CompressionUnknown {
			comp = CompressionRaw
		}
		out, err := encodeChannelData(ch.Data, f, job.ctx, comp, codecs)
		if err != nil {
			return nil, fmt.Errorf("layer %d channel %d: %w", job.layer, job.channel, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	w := bin.NewBufferWriter(4096)
	count := int16(len(li.Layers))
	if li.HasTransparency {
		count = -count
	}
	w.WriteInt16(count, f.ByteOrder())

	next := 0
	for i := range li.Layers {
		l := &li.Layers[i]
		if err := writeLayerRecord(w, f, l, encoded[next:next+len(l.Channels)]); err != nil {
			return nil, err
		}
		next += len(l.Channels)
	}
	for _, data := range encoded {
		w.WriteBytes(data)
	}
	// The layer section length must be even.
	if w.Len()%2 != 0 {
		w.WriteZeros(1)
	}
	return w.Bytes(), nil
}

func writeLayerRecord(w *bin.BufferWriter, f Format, l *Layer, channelData [][]byte) error {
	bo := f.ByteOrder()
	writeRectangle(w, l.Rectangle, bo)
	w.WriteUint16(uint16(len(l.Channels)), bo)
	for i := range l.Channels {
		w.WriteInt16(int16(l.Channels[i].ID), bo)
		f.writeSize(w, len(channelData[i]))
	}
	w.WriteBytes([]byte(f.Signature()))
	f.writeKey(w, Key(l.BlendMode))
	w.WriteUint8(l.Opacity)
	w.WriteUint8(uint8(l.Clipping))
	w.WriteUint8(uint8(l.Flags))
	w.WriteUint8(l.Filler)

	ew := bin.NewBufferWriter(256)
	if err := writeMask(ew, f, l.Mask); err != nil {
		return err
	}
	ew.WriteUint32(uint32(len(l.BlendingRanges)*4), bo)
	for _, v := range l.BlendingRanges {
		ew.WriteInt32(v, bo)
	}
	writePascalString(ew, l.Name, 4)
	for _, b := range l.Info {
		bw := bin.NewBufferWriter(64)
		b.encode(bw, f)
		ew.WriteBytes([]byte(f.Signature()))
		f.writeKey(ew, b.Key())
		f.writeSize(ew, bw.Len())
		ew.WriteBytes(bw.Bytes())
		n := padding(bw.Len(), 2)
		if o, ok := b.(*Opaque); ok && len(o.Pad) == n {
			ew.WriteBytes(o.Pad)
		} else {
			ew.WriteZeros(n)
		}
	}
	ew.WriteBytes(l.Extra)

	w.WriteUint32(uint32(ew.Len()), bo)
	w.WriteBytes(ew.Bytes())
	return nil
}

func writeMask(w *bin.BufferWriter, f Format, m *Mask) error {
	bo := f.ByteOrder()
	if m == nil {
		w.WriteUint32(0, bo)
		return nil
	}
	params := m.params()
	flags := m.Flags
	if params != 0 {
		flags |= MaskRendered
	}

	mw := bin.NewBufferWriter(40)
	writeRectangle(mw, m.Rectangle, bo)
	if m.DefaultColor != 0 {
		mw.WriteUint8(255)
	} else {
		mw.WriteUint8(0)
	}
	mw.WriteUint8(uint8(flags))
	if params != 0 {
		mw.WriteUint8(uint8(params))
		if m.UserDensity != nil {
			mw.WriteUint8(*m.UserDensity)
		}
		if m.UserFeather != nil {
			mw.WriteFloat64(*m.UserFeather, bo)
		}
		if m.VectorDensity != nil {
			mw.WriteUint8(*m.VectorDensity)
		}
		if m.VectorFeather != nil {
			mw.WriteFloat64(*m.VectorFeather, bo)
		}
		if m.RealFlags == nil || m.RealBackground == nil || m.RealRectangle == nil {
			return fmt.Errorf("%w: mask parameters require real mask fields", ErrFormat)
		}
		mw.WriteUint8(uint8(*m.RealFlags))
		mw.WriteUint8(*m.RealBackground)
		writeRectangle(mw, *m.RealRectangle, bo)
	} else {
		mw.WriteZeros(2)
	}
	w.WriteUint32(uint32(mw.Len()), bo)
	w.WriteBytes(mw.Bytes())
	return nil
}
