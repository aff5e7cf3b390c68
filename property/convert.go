package property

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind names a leaf value type as a conversion target.
type Kind int

// Conversion targets.
const (
	Int16Kind Kind = iota
	Uint16Kind
	Int32Kind
	Uint32Kind
	Int64Kind
	Float32Kind
	Float64Kind
	StringKind
	StringsKind
	Int32sKind
	Uint32sKind
	Float64sKind
	DateKind
	TimestampKind
	TimestampsKind
	Vector3Kind
	Vector4Kind
)

var kindNames = [...]string{
	"int16", "uint16", "int32", "uint32", "int64", "float32", "float64",
	"string", "[]string", "[]int32", "[]uint32", "[]float64",
	"date", "timestamp", "[]timestamp", "vector3", "vector4",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Convert converts `v` into the type named by `k`.
// Narrowing conversions fail when the value does not fit.
func Convert(v interface{}, k Kind) (interface{}, error) {
	fail := func() (interface{}, error) {
		return nil, fmt.Errorf("cannot convert %T(%s) to %s", v, FormatValue(v), k)
	}
	switch k {
	case Int16Kind, Uint16Kind, Int32Kind, Uint32Kind, Int64Kind:
		i, ok := AsInt64(v)
		if !ok {
			return fail()
		}
		switch k {
		case Int16Kind:
			if i < math.MinInt16 || i > math.MaxInt16 {
				return fail()
			}
			return int16(i), nil
		case Uint16Kind:
			if i < 0 || i > math.MaxUint16 {
				return fail()
			}
			return uint16(i), nil
		case Int32Kind:
			if i < math.MinInt32 || i > math.MaxInt32 {
				return fail()
			}
			return int32(i), nil
		case Uint32Kind:
			if i < 0 || i > math.MaxUint32 {
				return fail()
			}
			return uint32(i), nil
		}
		return i, nil
	case Float32Kind:
		f, ok := AsFloat64(v)
		if !ok {
			return fail()
		}
		return float32(f), nil
	case Float64Kind:
		f, ok := AsFloat64(v)
		if !ok {
			return fail()
		}
		return f, nil
	case StringKind:
		return AsString(v), nil
	case StringsKind:
		return AsStrings(v), nil
	case Int32sKind, Uint32sKind:
		fs, ok := AsFloats(v)
		if !ok {
			return fail()
		}
		if k == Int32sKind {
			out := make([]int32, len(fs))
			for i, f := range fs {
				if f < math.MinInt32 || f > math.MaxInt32 {
					return fail()
				}
				out[i] = int32(math.RoundToEven(f))
			}
			return out, nil
		}
		out := make([]uint32, len(fs))
		for i, f := range fs {
			if f < 0 || f > math.MaxUint32 {
				return fail()
			}
			out[i] = uint32(math.RoundToEven(f))
		}
		return out, nil
	case Float64sKind:
		fs, ok := AsFloats(v)
		if !ok {
			return fail()
		}
		return fs, nil
	case DateKind:
		d, ok := AsDate(v)
		if !ok {
			return fail()
		}
		return d, nil
	case TimestampKind:
		ts, ok := AsTimestamp(v)
		if !ok {
			return fail()
		}
		return ts, nil
	case TimestampsKind:
		if list, ok := v.([]Timestamp); ok {
			return list, nil
		}
		ts, ok := AsTimestamp(v)
		if !ok {
			return fail()
		}
		return []Timestamp{ts}, nil
	case Vector3Kind:
		vec, ok := AsVector3(v)
		if !ok {
			return fail()
		}
		return vec, nil
	case Vector4Kind:
		fs, ok := AsFloats(v)
		if !ok || len(fs) != 4 {
			return fail()
		}
		return Vector4{fs[0], fs[1], fs[2], fs[3]}, nil
	}
	return fail()
}

// AsFloat64 converts a scalar (or single element list) to float64.
// Strings are parsed.
func AsFloat64(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int16:
		return float64(x), true
	case uint16:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	if fs, ok := AsFloats(v); ok && len(fs) == 1 {
		return fs[0], true
	}
	return 0, false
}

// AsInt64 converts a scalar to int64, rounding floating point values half to even.
func AsInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int16:
		return int64(x), true
	case uint16:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint32:
		return int64(x), true
	case int64:
		return x, true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return i, true
		}
	}
	f, ok := AsFloat64(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(math.RoundToEven(f)), true
}

// AsFloats converts lists, vectors and scalars into a list of float64.
func AsFloats(v interface{}) ([]float64, bool) {
	switch x := v.(type) {
	case []float64:
		return append([]float64(nil), x...), true
	case []int32:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
		return out, true
	case []uint32:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
		return out, true
	case []string:
		out := make([]float64, len(x))
		for i, e := range x {
			f, err := strconv.ParseFloat(strings.TrimSpace(e), 64)
			if err != nil {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	case Vector3:
		return x[:], true
	case Vector4:
		return x[:], true
	case int16, uint16, int32, uint32, int64, float32, float64, string:
		f, ok := AsFloat64(v)
		if !ok {
			return nil, false
		}
		return []float64{f}, true
	}
	return nil, false
}

// AsVector3 converts a three element list or vector into a Vector3.
func AsVector3(v interface{}) (Vector3, bool) {
	if vec, ok := v.(Vector3); ok {
		return vec, true
	}
	fs, ok := AsFloats(v)
	if !ok || len(fs) != 3 {
		return Vector3{}, false
	}
	return Vector3{fs[0], fs[1], fs[2]}, true
}

// AsString renders any value as a string. Lists are joined with "\".
func AsString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []string:
		return strings.Join(x, `\`)
	}
	return FormatValue(v)
}

// AsStrings converts any value to a list of strings.
func AsStrings(v interface{}) []string {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case string:
		return []string{x}
	case []float64, []int32, []uint32, Vector3, Vector4:
		fs, _ := AsFloats(v)
		out := make([]string, len(fs))
		for i, f := range fs {
			out[i] = formatFloat(f)
		}
		return out
	case []Timestamp:
		out := make([]string, len(x))
		for i, ts := range x {
			out[i] = ts.String()
		}
		return out
	}
	return []string{FormatValue(v)}
}

// AsTimestamp converts dates, timestamps and DICOM date/time strings.
func AsTimestamp(v interface{}) (Timestamp, bool) {
	switch x := v.(type) {
	case Timestamp:
		return x, true
	case Date:
		return Timestamp{x.Time}, true
	case string:
		if ts, err := ParseTime(x); err == nil {
			return ts, true
		}
		if ts, err := ParseDateTime(x); err == nil {
			return ts, true
		}
	}
	return Timestamp{}, false
}

// AsDate converts dates, timestamps and DICOM date strings.
func AsDate(v interface{}) (Date, bool) {
	switch x := v.(type) {
	case Date:
		return x, true
	case Timestamp:
		y, m, d := x.UTC().Date()
		return NewDate(y, m, d), true
	case string:
		if d, err := ParseDate(x); err == nil {
			return d, true
		}
	}
	return Date{}, false
}
