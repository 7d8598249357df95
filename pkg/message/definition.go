package message

import (
	"github.com/ssargent/fitedit/pkg/profile"
)

// FieldDefinition is the layout of one field in a definition record.
type FieldDefinition struct {
	Num      uint8
	Size     uint8
	BaseType profile.BaseType
}

// DevFieldDefinition is the layout of one developer field.
type DevFieldDefinition struct {
	Num      uint8
	Size     uint8
	DevIndex uint8
}

// Definition describes the wire layout of the messages of one local type.
type Definition struct {
	LocalType uint8
	BigEndian bool
	Num       uint16
	Fields    []FieldDefinition
	DevFields []DevFieldDefinition
}

// HasDev reports whether the definition carries developer fields.
func (d *Definition) HasDev() bool {
	return len(d.DevFields) > 0
}

// Size returns the number of payload bytes of a message using d.
func (d *Definition) Size() int {
	n := 0
	for _, f := range d.Fields {
		n += int(f.Size)
	}
	for _, f := range d.DevFields {
		n += int(f.Size)
	}
	return n
}

// Equal reports whether both definitions describe the same layout.
func (d *Definition) Equal(o *Definition) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.LocalType != o.LocalType || d.BigEndian != o.BigEndian || d.Num != o.Num ||
		len(d.Fields) != len(o.Fields) || len(d.DevFields) != len(o.DevFields) {
		return false
	}
	for i := range d.Fields {
		if d.Fields[i] != o.Fields[i] {
			return false
		}
	}
	for i := range d.DevFields {
		if d.DevFields[i] != o.DevFields[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of d.
func (d *Definition) Clone() *Definition {
	c := *d
	c.Fields = append([]FieldDefinition(nil), d.Fields...)
	c.DevFields = append([]DevFieldDefinition(nil), d.DevFields...)
	return &c
}

// Definition derives the layout m is encoded with.
func (m *Message) Definition() *Definition {
	d := &Definition{
		LocalType: m.LocalType,
		BigEndian: m.BigEndian,
		Num:       m.Num,
		Fields:    make([]FieldDefinition, 0, len(m.Fields)),
	}
	for _, f := range m.Fields {
		d.Fields = append(d.Fields, FieldDefinition{Num: f.Num, Size: uint8(len(f.Data)), BaseType: f.BaseType})
	}
	for _, f := range m.DevFields {
		d.DevFields = append(d.DevFields, DevFieldDefinition{Num: f.Num, Size: uint8(len(f.Data)), DevIndex: f.DevIndex})
	}
	return d
}

// Matches reports whether m can be written with definition d.
func (m *Message) Matches(d *Definition) bool {
	if d == nil || d.Num != m.Num || d.BigEndian != m.BigEndian ||
		len(d.Fields) != len(m.Fields) || len(d.DevFields) != len(m.DevFields) {
		return false
	}
	for i, f := range m.Fields {
		fd := d.Fields[i]
		if fd.Num != f.Num || fd.BaseType != f.BaseType || int(fd.Size) != len(f.Data) {
			return false
		}
	}
	for i, f := range m.DevFields {
		fd := d.DevFields[i]
		if fd.Num != f.Num || fd.DevIndex != f.DevIndex || int(fd.Size) != len(f.Data) {
			return false
		}
	}
	return true
}
