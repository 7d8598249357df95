package profile

import "fmt"

// BaseType is the wire-level type tag carried by every field definition.
// Bit 7 marks multi-byte types that are sensitive to endianness.
type BaseType uint8

const (
	Enum    BaseType = 0x00
	Sint8   BaseType = 0x01
	Uint8   BaseType = 0x02
	Sint16  BaseType = 0x83
	Uint16  BaseType = 0x84
	Sint32  BaseType = 0x85
	Uint32  BaseType = 0x86
	String  BaseType = 0x07
	Float32 BaseType = 0x88
	Float64 BaseType = 0x89
	Uint8z  BaseType = 0x0A
	Uint16z BaseType = 0x8B
	Uint32z BaseType = 0x8C
	Byte    BaseType = 0x0D
	Sint64  BaseType = 0x8E
	Uint64  BaseType = 0x8F
	Uint64z BaseType = 0x90
)

type baseTypeInfo struct {
	name    string
	size    int
	invalid uint64
}

var baseTypes = map[BaseType]baseTypeInfo{
	Enum:    {"enum", 1, 0xFF},
	Sint8:   {"sint8", 1, 0x7F},
	Uint8:   {"uint8", 1, 0xFF},
	Sint16:  {"sint16", 2, 0x7FFF},
	Uint16:  {"uint16", 2, 0xFFFF},
	Sint32:  {"sint32", 4, 0x7FFFFFFF},
	Uint32:  {"uint32", 4, 0xFFFFFFFF},
	String:  {"string", 1, 0x00},
	Float32: {"float32", 4, 0xFFFFFFFF},
	Float64: {"float64", 8, 0xFFFFFFFFFFFFFFFF},
	Uint8z:  {"uint8z", 1, 0x00},
	Uint16z: {"uint16z", 2, 0x0000},
	Uint32z: {"uint32z", 4, 0x00000000},
	Byte:    {"byte", 1, 0xFF},
	Sint64:  {"sint64", 8, 0x7FFFFFFFFFFFFFFF},
	Uint64:  {"uint64", 8, 0xFFFFFFFFFFFFFFFF},
	Uint64z: {"uint64z", 8, 0x0000000000000000},
}

// Valid reports whether b is one of the base types defined by the protocol.
func (b BaseType) Valid() bool {
	_, ok := baseTypes[b]
	return ok
}

// Size returns the width in bytes of a single element of b.
func (b BaseType) Size() int {
	if info, ok := baseTypes[b]; ok {
		return info.size
	}
	return 1
}

// Invalid returns the raw bit pattern the protocol uses for "no value".
func (b BaseType) Invalid() uint64 {
	return baseTypes[b].invalid
}

// Signed reports whether b holds two's complement integers.
func (b BaseType) Signed() bool {
	switch b {
	case Sint8, Sint16, Sint32, Sint64:
		return true
	}
	return false
}

// Float reports whether b holds IEEE 754 values.
func (b BaseType) Float() bool {
	return b == Float32 || b == Float64
}

// Integer reports whether b is an integer-like type, enums and bytes included.
func (b BaseType) Integer() bool {
	return b.Valid() && !b.Float() && b != String
}

// Endian reports whether the byte order of the definition applies to b.
func (b BaseType) Endian() bool {
	return b&0x80 != 0
}

func (b BaseType) String() string {
	if info, ok := baseTypes[b]; ok {
		return info.name
	}
	return fmt.Sprintf("basetype(0x%02X)", uint8(b))
}
