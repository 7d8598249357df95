package message

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ssargent/fitedit/pkg/profile"
)

// Mode selects between raw storage values and semantic values.
type Mode uint8

const (
	Raw Mode = iota
	Pretty
)

// Converter maps fields between raw storage and semantic values.
type Converter struct {
	Enums profile.Lookup
	Rules map[FieldKey]Rule
}

// Default converts with the built-in profile tables.
var Default = &Converter{Enums: profile.Enums, Rules: DispatchTable}

// Get reads field name of m with the default converter.
func Get(m *Message, name string, mode Mode) (any, bool) {
	return Default.Get(m, name, mode)
}

// Set writes field name of m with the default converter.
func Set(m *Message, name string, v any, mode Mode) error {
	return Default.Set(m, name, v, mode)
}

// Rule resolves the conversion rule of field name in m. Sibling rules are
// resolved against the current contents of m, so the result is always one
// of the terminal kinds.
func (c *Converter) Rule(m *Message, name string) Rule {
	if r, ok := c.Rules[FieldKey{m.Name(), name}]; ok {
		switch r.Kind {
		case RuleSiblingPrefix:
			sym := c.siblingSymbol(m, r.Sibling, r.Default)
			if renamed, ok := r.Rename[sym]; ok {
				sym = renamed
			}
			typ := sym + r.Suffix
			if sym != "" && c.Enums.Has(typ) {
				return Rule{Kind: RuleEnum, Type: typ}
			}
			return Rule{Kind: RuleRaw}
		case RuleSiblingSwitch:
			if typ, ok := r.Switch[c.siblingSymbol(m, r.Sibling, r.Default)]; ok {
				return Rule{Kind: RuleEnum, Type: typ}
			}
			return Rule{Kind: RuleRaw}
		}
		return r
	}

	f, def, ok := m.FieldByName(name)
	if !ok {
		if def, known := profile.FieldByName(m.Num, name); known {
			return genericRule(def, c.Enums)
		}
		return Rule{Kind: RuleRaw}
	}
	if f.BaseType == profile.String {
		return Rule{Kind: RuleString}
	}
	return genericRule(def, c.Enums)
}

func (c *Converter) siblingSymbol(m *Message, sibling, fallback string) string {
	v, ok := c.Get(m, sibling, Pretty)
	if !ok {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

// Get returns the value of field name. Raw mode returns the stored value
// widened to uint64, int64, float64, string or []byte (slices for arrays).
// Pretty mode converts it by rule and reports invalid values as absent.
// Values that cannot be converted are returned raw.
func (c *Converter) Get(m *Message, name string, mode Mode) (any, bool) {
	f, def, ok := m.FieldByName(name)
	if !ok {
		return nil, false
	}
	raw := rawValue(m, f)
	if mode == Raw {
		return raw, true
	}
	if !m.valid(f) {
		return nil, false
	}

	rule := c.Rule(m, name)
	switch rule.Kind {
	case RuleEnum:
		if bits, ok := raw.(uint64); ok {
			if sym, ok := c.Enums.Name(rule.Type, bits); ok {
				return sym, true
			}
		}
	case RuleString:
		if s, ok := raw.(string); ok {
			return s, true
		}
		if b, ok := raw.([]byte); ok {
			return decodeString(b), true
		}
	case RuleSemicircles:
		if i, ok := raw.(int64); ok {
			return profile.SemicirclesToDegrees(int32(i)), true
		}
	case RuleDateTime, RuleLocalDateTime:
		if bits, ok := raw.(uint64); ok {
			return profile.ToTime(uint32(bits)), true
		}
	case RuleScale:
		return scaleOut(def, raw), true
	}
	return raw, true
}

// Set stores v as field name. Fields the message does not carry yet are
// added with the base type the profile declares for them.
func (c *Converter) Set(m *Message, name string, v any, mode Mode) error {
	def, ok := profile.FieldByName(m.Num, name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, m.Name(), name)
	}
	target := def
	if def.Alias != "" {
		if alt, ok := profile.FieldByName(m.Num, def.Alias); ok {
			if _, present := m.Field(alt.Num); present {
				target = alt
			}
		}
	}
	bt := target.BaseType
	if f, present := m.Field(target.Num); present && f.BaseType.Valid() {
		bt = f.BaseType
	}

	if mode == Pretty {
		converted, err := c.toRaw(m, name, target, v)
		if err != nil {
			return err
		}
		v = converted
	}

	data, err := encodeValue(bt, m.BigEndian, v)
	if errors.Is(err, ErrOutOfRange) && target.Num == def.Num && def.Alias != "" {
		if alt, ok := profile.FieldByName(m.Num, def.Alias); ok {
			data, err = widen(m, def, alt, v)
			if err == nil {
				m.Remove(def.Num)
				m.put(alt.Num, alt.BaseType, data)
				return nil
			}
		}
	}
	if err != nil {
		return fmt.Errorf("%s.%s: %w", m.Name(), name, err)
	}
	m.put(target.Num, bt, data)
	return nil
}

// widen re-encodes raw, scaled for def, into the wider alias field alt.
func widen(m *Message, def, alt profile.FieldDef, raw any) ([]byte, error) {
	f, ok := toFloat(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %T into %s", ErrTypeMismatch, raw, alt.BaseType)
	}
	return encodeValue(alt.BaseType, m.BigEndian, scaleIn(alt, unscale(def, f)))
}

func (c *Converter) toRaw(m *Message, name string, def profile.FieldDef, v any) (any, error) {
	rule := c.Rule(m, name)
	switch rule.Kind {
	case RuleEnum:
		if s, ok := v.(string); ok {
			if bits, ok := c.Enums.Value(rule.Type, s); ok {
				return bits, nil
			}
			if n, err := strconv.ParseUint(s, 10, 64); err == nil {
				return n, nil
			}
			return nil, fmt.Errorf("%w: %q for %s.%s", ErrUnresolvedValue, s, m.Name(), name)
		}
	case RuleSemicircles:
		if deg, ok := v.(float64); ok {
			return int64(profile.DegreesToSemicircles(deg)), nil
		}
	case RuleDateTime, RuleLocalDateTime:
		if t, ok := v.(time.Time); ok {
			return uint64(profile.FromTime(t)), nil
		}
	case RuleScale:
		return scaleIn(def, v), nil
	}
	return v, nil
}

func scaleOut(def profile.FieldDef, raw any) any {
	conv := func(x float64) float64 { return unscale(def, x) }
	switch x := raw.(type) {
	case []uint64:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = conv(float64(e))
		}
		return out
	case []int64:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = conv(float64(e))
		}
		return out
	}
	if f, ok := toFloat(raw); ok {
		return conv(f)
	}
	return raw
}

func unscale(def profile.FieldDef, raw float64) float64 {
	scale := def.Scale
	if scale == 0 {
		scale = 1
	}
	return raw/scale - def.Offset
}

func scaleIn(def profile.FieldDef, v any) any {
	scale := def.Scale
	if scale == 0 {
		scale = 1
	}
	f, ok := toFloat(v)
	if !ok {
		return v
	}
	raw := (f + def.Offset) * scale
	if def.BaseType.Float() {
		return raw
	}
	return math.Round(raw)
}

// rawValue widens the stored bytes of f.
func rawValue(m *Message, f *Field) any {
	if f.BaseType == profile.String {
		return decodeString(f.Data)
	}
	if !f.BaseType.Valid() || len(f.Data)%f.BaseType.Size() != 0 {
		return append([]byte(nil), f.Data...)
	}
	order := byteOrder(m.BigEndian)
	n := f.Count()
	if n == 1 {
		return bitsToValue(f.BaseType, readBits(f.Data, f.BaseType, order, 0))
	}
	switch {
	case f.BaseType == profile.Byte:
		return append([]byte(nil), f.Data...)
	case f.BaseType.Float():
		out := make([]float64, n)
		for i := range out {
			out[i] = bitsToValue(f.BaseType, readBits(f.Data, f.BaseType, order, i)).(float64)
		}
		return out
	case f.BaseType.Signed():
		out := make([]int64, n)
		for i := range out {
			out[i] = bitsToValue(f.BaseType, readBits(f.Data, f.BaseType, order, i)).(int64)
		}
		return out
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = readBits(f.Data, f.BaseType, order, i)
	}
	return out
}

// Float returns the numeric value of name with scale and offset applied.
// Enumerations and unscaled integers come back as their raw number.
func (m *Message) Float(name string) (float64, bool) {
	f, def, ok := m.FieldByName(name)
	if !ok || !m.valid(f) || f.Count() != 1 || f.BaseType == profile.String {
		return 0, false
	}
	v := scaleOut(def, rawValue(m, f))
	x, ok := v.(float64)
	return x, ok
}

// SetFloat stores v into name, applying the inverse of the field scale.
func (m *Message) SetFloat(name string, v float64) error {
	def, ok := profile.FieldByName(m.Num, name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, m.Name(), name)
	}
	if def.Alias != "" {
		if alt, ok := profile.FieldByName(m.Num, def.Alias); ok {
			if _, present := m.Field(alt.Num); present {
				def = alt
			}
		}
	}
	return Set(m, name, scaleIn(def, v), Raw)
}

// Uint returns the raw unsigned value of name.
func (m *Message) Uint(name string) (uint64, bool) {
	f, _, ok := m.FieldByName(name)
	if !ok || !m.valid(f) || f.Count() != 1 {
		return 0, false
	}
	switch x := rawValue(m, f).(type) {
	case uint64:
		return x, true
	case int64:
		if x >= 0 {
			return uint64(x), true
		}
	}
	return 0, false
}

// Int returns the raw signed value of name.
func (m *Message) Int(name string) (int64, bool) {
	f, _, ok := m.FieldByName(name)
	if !ok || !m.valid(f) || f.Count() != 1 {
		return 0, false
	}
	switch x := rawValue(m, f).(type) {
	case int64:
		return x, true
	case uint64:
		return int64(x), true
	}
	return 0, false
}

// Time returns a date_time field as calendar time.
func (m *Message) Time(name string) (time.Time, bool) {
	if name == "timestamp" {
		return m.Timestamp()
	}
	raw, ok := m.Uint(name)
	if !ok {
		return time.Time{}, false
	}
	return profile.ToTime(uint32(raw)), true
}

// SetTime stores t into a date_time field.
func (m *Message) SetTime(name string, t time.Time) error {
	if name == "timestamp" {
		m.SetTimestamp(t)
		return nil
	}
	return Set(m, name, uint64(profile.FromTime(t)), Raw)
}

// String returns a string field, or the symbolic name of an enum field.
func (m *Message) String(name string) (string, bool) {
	v, ok := Get(m, name, Pretty)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// CopyField copies the stored bytes of name from src to dst. Both messages
// must share the field in their profile; the source base type is kept.
func CopyField(dst, src *Message, name string) bool {
	f, def, ok := src.FieldByName(name)
	if !ok || !src.valid(f) {
		return false
	}
	dstDef, ok := profile.FieldByName(dst.Num, def.Name)
	if !ok {
		return false
	}
	data := append([]byte(nil), f.Data...)
	if src.BigEndian != dst.BigEndian && f.BaseType.Endian() {
		size := f.BaseType.Size()
		for i := 0; i+size <= len(data); i += size {
			for a, b := i, i+size-1; a < b; a, b = a+1, b-1 {
				data[a], data[b] = data[b], data[a]
			}
		}
	}
	dst.put(dstDef.Num, f.BaseType, data)
	return true
}
