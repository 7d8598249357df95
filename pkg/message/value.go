package message

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ssargent/fitedit/pkg/profile"
)

func byteOrder(bigEndian bool) binary.ByteOrder {
	if bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// readBits returns the i-th element of data as an unsigned bit pattern.
func readBits(data []byte, bt profile.BaseType, order binary.ByteOrder, i int) uint64 {
	size := bt.Size()
	b := data[i*size : (i+1)*size]
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	}
	return 0
}

func writeBits(data []byte, bt profile.BaseType, order binary.ByteOrder, i int, bits uint64) {
	size := bt.Size()
	b := data[i*size : (i+1)*size]
	switch size {
	case 1:
		b[0] = byte(bits)
	case 2:
		order.PutUint16(b, uint16(bits))
	case 4:
		order.PutUint32(b, uint32(bits))
	case 8:
		order.PutUint64(b, bits)
	}
}

// bitsToValue widens a raw bit pattern to uint64, int64 or float64.
func bitsToValue(bt profile.BaseType, bits uint64) any {
	switch bt {
	case profile.Sint8:
		return int64(int8(bits))
	case profile.Sint16:
		return int64(int16(bits))
	case profile.Sint32:
		return int64(int32(bits))
	case profile.Sint64:
		return int64(bits)
	case profile.Float32:
		return float64(math.Float32frombits(uint32(bits)))
	case profile.Float64:
		return math.Float64frombits(bits)
	}
	return bits
}

func valueToBits(bt profile.BaseType, v any) (uint64, error) {
	if bt.Float() {
		f, ok := toFloat(v)
		if !ok {
			return 0, fmt.Errorf("%w: %T into %s", ErrTypeMismatch, v, bt)
		}
		if bt == profile.Float32 {
			if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
				return 0, fmt.Errorf("%w: %v into %s", ErrOutOfRange, f, bt)
			}
			return uint64(math.Float32bits(float32(f))), nil
		}
		return math.Float64bits(f), nil
	}

	switch x := v.(type) {
	case float64:
		return floatBits(bt, x)
	case float32:
		return floatBits(bt, float64(x))
	case uint64:
		return uintBits(bt, x)
	case uint:
		return uintBits(bt, uint64(x))
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	if i, ok := toInt(v); ok {
		return intBits(bt, i)
	}
	return 0, fmt.Errorf("%w: %T into %s", ErrTypeMismatch, v, bt)
}

func floatBits(bt profile.BaseType, f float64) (uint64, error) {
	r := math.Round(f)
	switch {
	case math.IsNaN(r) || r < -0x1p63:
		return 0, fmt.Errorf("%w: %v into %s", ErrOutOfRange, f, bt)
	case r >= 0x1p63:
		if bt.Size() == 8 && !bt.Signed() && r < 0x1p64 {
			return uint64(r), nil
		}
		return 0, fmt.Errorf("%w: %v into %s", ErrOutOfRange, f, bt)
	}
	return intBits(bt, int64(r))
}

func intBits(bt profile.BaseType, i int64) (uint64, error) {
	lo, hi := intRange(bt)
	if i < lo || (i >= 0 && uint64(i) > hi) {
		return 0, fmt.Errorf("%w: %d into %s", ErrOutOfRange, i, bt)
	}
	return maskBits(bt, uint64(i)), nil
}

func uintBits(bt profile.BaseType, u uint64) (uint64, error) {
	if _, hi := intRange(bt); u > hi {
		return 0, fmt.Errorf("%w: %d into %s", ErrOutOfRange, u, bt)
	}
	return u, nil
}

// intRange returns the smallest and largest integer an element of bt holds.
func intRange(bt profile.BaseType) (int64, uint64) {
	bits := uint(bt.Size() * 8)
	if bt.Signed() {
		return -1 << (bits - 1), 1<<(bits-1) - 1
	}
	if bits == 64 {
		return 0, math.MaxUint64
	}
	return 0, 1<<bits - 1
}

func maskBits(bt profile.BaseType, bits uint64) uint64 {
	switch bt.Size() {
	case 1:
		return bits & 0xFF
	case 2:
		return bits & 0xFFFF
	case 4:
		return bits & 0xFFFFFFFF
	}
	return bits
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

// decodeString reads ASCII up to the first zero byte.
func decodeString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}

// encodeString appends the zero terminator, truncating to the largest size a
// field definition can declare.
func encodeString(s string) []byte {
	b := []byte(s)
	if len(b) > 254 {
		b = b[:254]
	}
	return append(b, 0)
}

// encodeValue lays v out as the bytes of a field of base type bt.
func encodeValue(bt profile.BaseType, bigEndian bool, v any) ([]byte, error) {
	order := byteOrder(bigEndian)

	if bt == profile.String {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %T into string", ErrTypeMismatch, v)
		}
		return encodeString(s), nil
	}

	var elems []any
	switch x := v.(type) {
	case []byte:
		if bt.Size() == 1 {
			return append([]byte(nil), x...), nil
		}
		for _, e := range x {
			elems = append(elems, e)
		}
	case []uint64:
		for _, e := range x {
			elems = append(elems, e)
		}
	case []int64:
		for _, e := range x {
			elems = append(elems, e)
		}
	case []float64:
		for _, e := range x {
			elems = append(elems, e)
		}
	default:
		elems = []any{v}
	}
	if len(elems) == 0 || len(elems)*bt.Size() > 255 {
		return nil, fmt.Errorf("%w: %d elements of %s", ErrTypeMismatch, len(elems), bt)
	}

	data := make([]byte, len(elems)*bt.Size())
	for i, e := range elems {
		bits, err := valueToBits(bt, e)
		if err != nil {
			return nil, err
		}
		writeBits(data, bt, order, i, bits)
	}
	return data, nil
}
