package message

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ssargent/fitedit/pkg/profile"
)

// LocalUnassigned marks a message that has not been given a local message
// type yet. The recording assigns one when the message enters an event log.
const LocalUnassigned uint8 = 0xFF

// Field numbers shared by every message that has them.
const (
	FieldTimestamp    uint8 = 253
	FieldMessageIndex uint8 = 254
)

var (
	ErrUnknownField    = errors.New("message: unknown field")
	ErrTypeMismatch    = errors.New("message: value does not fit field type")
	ErrUnresolvedValue = errors.New("message: unresolved symbolic value")
	ErrOutOfRange      = fmt.Errorf("%w: out of range", ErrTypeMismatch)
)

// Field is one raw field of a message. Data holds the bytes exactly as they
// appear on the wire, in the byte order of the owning message.
type Field struct {
	Num      uint8
	BaseType profile.BaseType
	Data     []byte
}

// Count returns the number of elements stored in the field.
func (f *Field) Count() int {
	return len(f.Data) / f.BaseType.Size()
}

// DevField is a developer data field. Its layout is described by
// field_description messages, so the bytes are carried opaquely.
type DevField struct {
	Num      uint8
	DevIndex uint8
	Data     []byte
}

// Message is one decoded record: a global message number and its fields.
type Message struct {
	Num       uint16
	LocalType uint8
	BigEndian bool
	Fields    []Field
	DevFields []DevField

	// Compressed is set when the message travelled with a compressed
	// timestamp header. TimeOffset is the 5-bit offset from that header and
	// CompressedTimestamp the resolved date_time value.
	Compressed          bool
	TimeOffset          uint8
	CompressedTimestamp uint32
}

// New returns an empty message of global number num.
func New(num uint16) *Message {
	return &Message{Num: num, LocalType: LocalUnassigned}
}

// Name returns the profile name of the message, or "unknown".
func (m *Message) Name() string {
	return profile.MesgName(m.Num)
}

// Field returns the field with number num.
func (m *Message) Field(num uint8) (*Field, bool) {
	for i := range m.Fields {
		if m.Fields[i].Num == num {
			return &m.Fields[i], true
		}
	}
	return nil, false
}

// FieldByName resolves name through the profile and returns the stored
// field together with its profile definition. When the definition names an
// alias that is present and valid, the alias wins.
func (m *Message) FieldByName(name string) (*Field, profile.FieldDef, bool) {
	def, ok := profile.FieldByName(m.Num, name)
	if !ok {
		return nil, profile.FieldDef{}, false
	}
	if def.Alias != "" {
		if alt, ok := profile.FieldByName(m.Num, def.Alias); ok {
			if f, ok := m.Field(alt.Num); ok && m.valid(f) {
				return f, alt, true
			}
		}
	}
	f, ok := m.Field(def.Num)
	return f, def, ok
}

// Has reports whether the message stores a valid value for name.
func (m *Message) Has(name string) bool {
	f, _, ok := m.FieldByName(name)
	return ok && m.valid(f)
}

// Remove deletes field num and reports whether it existed.
func (m *Message) Remove(num uint8) bool {
	for i := range m.Fields {
		if m.Fields[i].Num == num {
			m.Fields = append(m.Fields[:i], m.Fields[i+1:]...)
			return true
		}
	}
	return false
}

// put stores data as field num, replacing an existing field in place so the
// message layout only changes when the field is new or resized.
func (m *Message) put(num uint8, bt profile.BaseType, data []byte) {
	if f, ok := m.Field(num); ok {
		f.BaseType = bt
		f.Data = data
		return
	}
	m.Fields = append(m.Fields, Field{Num: num, BaseType: bt, Data: data})
}

func (m *Message) valid(f *Field) bool {
	if f == nil || len(f.Data) == 0 {
		return false
	}
	if f.BaseType == profile.String {
		return f.Data[0] != 0
	}
	inv := f.BaseType.Invalid()
	order := byteOrder(m.BigEndian)
	for i := 0; i < f.Count(); i++ {
		if readBits(f.Data, f.BaseType, order, i) != inv {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	c := *m
	c.Fields = make([]Field, len(m.Fields))
	for i, f := range m.Fields {
		c.Fields[i] = Field{Num: f.Num, BaseType: f.BaseType, Data: append([]byte(nil), f.Data...)}
	}
	if m.DevFields != nil {
		c.DevFields = make([]DevField, len(m.DevFields))
		for i, f := range m.DevFields {
			c.DevFields[i] = DevField{Num: f.Num, DevIndex: f.DevIndex, Data: append([]byte(nil), f.Data...)}
		}
	}
	return &c
}

// Equal reports whether both messages would encode to the same bytes.
func (m *Message) Equal(o *Message) bool {
	if m.Num != o.Num || m.LocalType != o.LocalType || m.BigEndian != o.BigEndian ||
		m.Compressed != o.Compressed || m.TimeOffset != o.TimeOffset ||
		len(m.Fields) != len(o.Fields) || len(m.DevFields) != len(o.DevFields) {
		return false
	}
	for i := range m.Fields {
		a, b := m.Fields[i], o.Fields[i]
		if a.Num != b.Num || a.BaseType != b.BaseType || !bytes.Equal(a.Data, b.Data) {
			return false
		}
	}
	for i := range m.DevFields {
		a, b := m.DevFields[i], o.DevFields[i]
		if a.Num != b.Num || a.DevIndex != b.DevIndex || !bytes.Equal(a.Data, b.Data) {
			return false
		}
	}
	return true
}

// Expand replaces a compressed timestamp header by an explicit timestamp
// field so the message can be placed anywhere in a stream.
func (m *Message) Expand() {
	if !m.Compressed {
		return
	}
	data, _ := encodeValue(profile.Uint32, m.BigEndian, uint64(m.CompressedTimestamp))
	m.put(FieldTimestamp, profile.Uint32, data)
	m.Compressed = false
	m.TimeOffset = 0
	m.CompressedTimestamp = 0
}

// Timestamp returns the instant the message represents.
func (m *Message) Timestamp() (time.Time, bool) {
	if f, ok := m.Field(FieldTimestamp); ok && m.valid(f) && len(f.Data) >= 4 {
		return profile.ToTime(uint32(readBits(f.Data, profile.Uint32, byteOrder(m.BigEndian), 0))), true
	}
	if m.Compressed {
		return profile.ToTime(m.CompressedTimestamp), true
	}
	return time.Time{}, false
}

// SetTimestamp writes field 253.
func (m *Message) SetTimestamp(t time.Time) {
	data, _ := encodeValue(profile.Uint32, m.BigEndian, uint64(profile.FromTime(t)))
	m.put(FieldTimestamp, profile.Uint32, data)
	m.Compressed = false
	m.TimeOffset = 0
	m.CompressedTimestamp = 0
}

// StartTime returns the start of a message that represents a duration,
// falling back to the instant for messages that do not.
func (m *Message) StartTime() (time.Time, bool) {
	if t, ok := m.Time("start_time"); ok {
		return t, true
	}
	return m.Timestamp()
}

// EndTime returns start_time plus total_elapsed_time when both are known and
// the message timestamp otherwise.
func (m *Message) EndTime() (time.Time, bool) {
	if start, ok := m.Time("start_time"); ok {
		if elapsed, ok := m.Float("total_elapsed_time"); ok {
			return start.Add(time.Duration(math.Round(elapsed*1000)) * time.Millisecond), true
		}
	}
	return m.Timestamp()
}
