package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
)

// DefaultChunkSize is the number of records Decode reads per DecodeSome call.
const DefaultChunkSize = 1024

// Record header bits.
const (
	compressedHeaderMask = 0x80
	definitionMask       = 0x40
	devDataMask          = 0x20
	localTypeMask        = 0x0F
	compressedTypeMask   = 0x60
	compressedTimeMask   = 0x1F
)

// ProgressFunc receives the stream position and total length after each
// decoded chunk.
type ProgressFunc func(pos, total int64)

// Option configures a Decoder.
type Option func(*options)

type options struct {
	skipCorrupt bool
	chunkSize   int
	progress    ProgressFunc
	logger      *slog.Logger
}

// WithSkipCorrupt makes Decode and DecodeSome skip corrupt records instead
// of returning a RecordDecodeError.
func WithSkipCorrupt() Option {
	return func(o *options) { o.skipCorrupt = true }
}

// WithChunkSize sets the number of records Decode reads per step.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithLogger sets the logger used for integrity warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{chunkSize: DefaultChunkSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Progress reports the state of a chunked decode.
type Progress struct {
	Position int64
	Total    int64
	Messages int
	Skipped  int
	Degraded bool
	Done     bool
}

// Decoder decodes one FIT file incrementally.
type Decoder struct {
	opts options
	data []byte
	base int64

	pos int
	end int

	rec      *recording.Recording
	locals   [recording.MaxLocalTypes]*message.Definition
	pending  [recording.MaxLocalTypes]bool
	lastTime uint32

	messages int
	skipped  int
	done     bool
}

// NewDecoder reads r to the end and prepares to decode the first FIT file in
// it. A stream without the ".FIT" marker fails with ErrFormatMismatch.
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	return newDecoder(data, 0, buildOptions(opts))
}

func newDecoder(data []byte, base int64, o options) (*Decoder, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		opts: o,
		data: data,
		base: base,
		pos:  int(h.Size),
		rec:  recording.New(),
	}
	d.rec.Header = recording.Header{
		Size:            h.Size,
		ProtocolVersion: h.ProtocolVersion,
		ProfileVersion:  h.ProfileVersion,
	}

	if err := h.verify(data); err != nil {
		d.opts.logger.Warn("decoding in degraded mode", "offset", base, "error", err)
		d.rec.Header.Degraded = true
		d.end = len(data)
		if len(data) >= int(h.Size)+crcSize {
			d.end = len(data) - crcSize
		}
	} else {
		d.end = int(h.Size) + int(h.DataSize)
	}
	return d, nil
}

// Recording returns the recording decoded so far.
func (d *Decoder) Recording() *recording.Recording {
	return d.rec
}

// consumed returns the number of stream bytes the file occupied.
func (d *Decoder) consumed() int {
	if d.rec.Header.Degraded {
		return len(d.data)
	}
	return d.end + crcSize
}

func (d *Decoder) progress() Progress {
	return Progress{
		Position: d.base + int64(d.pos),
		Total:    d.base + int64(len(d.data)),
		Messages: d.messages,
		Skipped:  d.skipped,
		Degraded: d.rec.Header.Degraded,
		Done:     d.done,
	}
}

// DecodeSome decodes at most limit records. A corrupt record ends the call
// with a *RecordDecodeError unless the decoder skips corrupt records; the
// next call resumes after it. The end of the stream is reported through
// Progress.Done.
func (d *Decoder) DecodeSome(limit int) (Progress, error) {
	if limit <= 0 {
		limit = d.opts.chunkSize
	}
	for n := 0; n < limit && !d.done; n++ {
		if d.pos >= d.end {
			d.done = true
			break
		}
		if err := d.next(); err != nil {
			var rde *RecordDecodeError
			if d.opts.skipCorrupt && errors.As(err, &rde) {
				d.skipped++
				d.opts.logger.Debug("skipping corrupt record", "offset", rde.Offset, "reason", rde.Reason)
				continue
			}
			d.report()
			return d.progress(), err
		}
	}
	d.report()
	return d.progress(), nil
}

func (d *Decoder) report() {
	if d.opts.progress != nil {
		p := d.progress()
		d.opts.progress(p.Position, p.Total)
	}
}

func (d *Decoder) corrupt(offset int, format string, args ...any) error {
	return &RecordDecodeError{Offset: d.base + int64(offset), Reason: fmt.Sprintf(format, args...)}
}

// next decodes one record. A record running past the end of the data marks
// the decoder done.
func (d *Decoder) next() error {
	start := d.pos
	hdr := d.data[d.pos]
	d.pos++

	switch {
	case hdr&compressedHeaderMask != 0:
		lt := (hdr & compressedTypeMask) >> 5
		offset := hdr & compressedTimeMask
		return d.readMessage(start, lt, true, offset)
	case hdr&definitionMask != 0:
		return d.readDefinition(start, hdr&localTypeMask, hdr&devDataMask != 0)
	default:
		if hdr&devDataMask != 0 || hdr&0x10 != 0 {
			return d.corrupt(start, "reserved bits set in record header 0x%02X", hdr)
		}
		return d.readMessage(start, hdr&localTypeMask, false, 0)
	}
}

func (d *Decoder) take(n int) ([]byte, bool) {
	if d.pos+n > d.end {
		d.pos = d.end
		d.done = true
		return nil, false
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, true
}

func (d *Decoder) readDefinition(start int, lt uint8, dev bool) error {
	fixed, ok := d.take(5)
	if !ok {
		return nil
	}
	arch := fixed[1]
	if arch > 1 {
		if _, ok := d.take(int(fixed[4]) * 3); ok && dev {
			if n, ok := d.take(1); ok {
				d.take(int(n[0]) * 3)
			}
		}
		return d.corrupt(start, "invalid architecture %d", arch)
	}

	def := &message.Definition{LocalType: lt, BigEndian: arch == 1}
	if def.BigEndian {
		def.Num = binary.BigEndian.Uint16(fixed[2:4])
	} else {
		def.Num = binary.LittleEndian.Uint16(fixed[2:4])
	}

	raw, ok := d.take(int(fixed[4]) * 3)
	if !ok {
		return nil
	}
	def.Fields = make([]message.FieldDefinition, 0, fixed[4])
	for i := 0; i < len(raw); i += 3 {
		def.Fields = append(def.Fields, message.FieldDefinition{
			Num:      raw[i],
			Size:     raw[i+1],
			BaseType: profile.BaseType(raw[i+2]),
		})
	}

	if dev {
		n, ok := d.take(1)
		if !ok {
			return nil
		}
		raw, ok := d.take(int(n[0]) * 3)
		if !ok {
			return nil
		}
		for i := 0; i < len(raw); i += 3 {
			def.DevFields = append(def.DevFields, message.DevFieldDefinition{
				Num:      raw[i],
				Size:     raw[i+1],
				DevIndex: raw[i+2],
			})
		}
	}

	d.locals[lt] = def
	d.pending[lt] = true
	d.rec.SetDefinition(def)
	return nil
}

func (d *Decoder) readMessage(start int, lt uint8, compressed bool, offset uint8) error {
	def := d.locals[lt]
	if def == nil {
		return d.corrupt(start, "local type %d used before its definition", lt)
	}
	payload, ok := d.take(def.Size())
	if !ok {
		return nil
	}

	m := &message.Message{
		Num:       def.Num,
		LocalType: lt,
		BigEndian: def.BigEndian,
		Fields:    make([]message.Field, 0, len(def.Fields)),
	}
	p := 0
	for _, fd := range def.Fields {
		m.Fields = append(m.Fields, message.Field{
			Num:      fd.Num,
			BaseType: fd.BaseType,
			Data:     append([]byte(nil), payload[p:p+int(fd.Size)]...),
		})
		p += int(fd.Size)
	}
	for _, fd := range def.DevFields {
		m.DevFields = append(m.DevFields, message.DevField{
			Num:      fd.Num,
			DevIndex: fd.DevIndex,
			Data:     append([]byte(nil), payload[p:p+int(fd.Size)]...),
		})
		p += int(fd.Size)
	}

	if compressed {
		ts := resolveCompressed(d.lastTime, offset)
		m.Compressed = true
		m.TimeOffset = offset
		m.CompressedTimestamp = ts
		d.lastTime = ts
	} else if f, ok := m.Field(message.FieldTimestamp); ok && len(f.Data) == 4 {
		var ts uint32
		if m.BigEndian {
			ts = binary.BigEndian.Uint32(f.Data)
		} else {
			ts = binary.LittleEndian.Uint32(f.Data)
		}
		if ts != uint32(profile.Uint32.Invalid()) {
			d.lastTime = ts
		}
	}

	var events []recording.Event
	if d.pending[lt] {
		events = append(events, recording.DefinitionEvent(def))
		d.pending[lt] = false
	}
	events = append(events, recording.MessageEvent(m))
	if err := d.rec.Append(events...); err != nil {
		return err
	}
	d.messages++
	return nil
}

// resolveCompressed applies a 5-bit time offset to the last full timestamp,
// rolling over when the offset is smaller than the low bits of last.
func resolveCompressed(last uint32, offset uint8) uint32 {
	o := uint32(offset)
	if o >= last&compressedTimeMask {
		return last&^compressedTimeMask + o
	}
	return last&^compressedTimeMask + o + 0x20
}

// Decode decodes the first FIT file of r.
func Decode(r io.Reader, opts ...Option) (*recording.Recording, error) {
	d, err := NewDecoder(r, opts...)
	if err != nil {
		return nil, err
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	return d.rec, nil
}

func (d *Decoder) run() error {
	for !d.done {
		if _, err := d.DecodeSome(d.opts.chunkSize); err != nil {
			return err
		}
	}
	return nil
}

// Next returns a decoder for the file that follows this one in the stream,
// or nil when this file is not fully decoded or nothing follows it. Trailing
// bytes that do not start another file are logged and ignored.
func (d *Decoder) Next() *Decoder {
	off := d.consumed()
	if !d.done || off >= len(d.data) {
		return nil
	}
	next, err := newDecoder(d.data[off:], d.base+int64(off), d.opts)
	if err != nil {
		d.opts.logger.Warn("ignoring trailing bytes after last file",
			"offset", d.base+int64(off), "bytes", len(d.data)-off, "error", err)
		return nil
	}
	return next
}

// DecodeChain decodes every FIT file of a concatenated stream.
func DecodeChain(r io.Reader, opts ...Option) ([]*recording.Recording, error) {
	d, err := NewDecoder(r, opts...)
	if err != nil {
		return nil, err
	}
	var recs []*recording.Recording
	for ; d != nil; d = d.Next() {
		if err := d.run(); err != nil {
			return nil, err
		}
		recs = append(recs, d.rec)
	}
	return recs, nil
}
