package property

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Date is a calendar day (UTC midnight).
type Date struct {
	time.Time
}

// Timestamp is a point in time with sub-second precision.
// Times of day without a date are stored on 1970-01-01 UTC.
type Timestamp struct {
	time.Time
}

// Vector3 is a 3 component vector.
type Vector3 [3]float64

// Vector4 is a 4 component vector.
type Vector4 [4]float64

// IsValue reports whether `v` may be stored as a leaf.
func IsValue(v interface{}) bool {
	switch v.(type) {
	case int16, uint16, int32, uint32, int64, float32, float64,
		string, []string, []int32, []uint32, []float64,
		Date, Timestamp, []Timestamp, Vector3, Vector4:
		return true
	}
	return false
}

func cloneValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case []int32:
		return append([]int32(nil), x...)
	case []uint32:
		return append([]uint32(nil), x...)
	case []float64:
		return append([]float64(nil), x...)
	case []Timestamp:
		return append([]Timestamp(nil), x...)
	}
	return v
}

// NewDate returns the Date for the given day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// TimeOfDay returns the Timestamp of a time of day without a date.
func TimeOfDay(d time.Duration) Timestamp {
	return Timestamp{time.Unix(0, 0).UTC().Add(d)}
}

// SinceMidnight returns the offset of `t` from the start of its day.
func (t Timestamp) SinceMidnight() time.Duration {
	y, m, d := t.Date()
	return t.Sub(time.Date(y, m, d, 0, 0, 0, 0, t.Location()))
}

// Combine places the time of day of `t` on the day `d`.
func Combine(d Date, t Timestamp) Timestamp {
	return Timestamp{d.Time.Add(t.SinceMidnight())}
}

// Add returns the component wise sum.
func (v Vector3) Add(o Vector3) Vector3 {
	floats.Add(v[:], o[:])
	return v
}

// Mul returns the component wise product.
func (v Vector3) Mul(o Vector3) Vector3 {
	floats.Mul(v[:], o[:])
	return v
}

// Scale returns `v` multiplied by `f`.
func (v Vector3) Scale(f float64) Vector3 {
	floats.Scale(f, v[:])
	return v
}

// Dot returns the dot product.
func (v Vector3) Dot(o Vector3) float64 {
	return floats.Dot(v[:], o[:])
}

// EqualApprox reports whether all components are within `tol` (absolute or relative).
func (v Vector3) EqualApprox(o Vector3, tol float64) bool {
	return floats.EqualApprox(v[:], o[:], tol)
}

func (v Vector3) String() string {
	return fmt.Sprintf("<%s|%s|%s>", formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]))
}

func (v Vector4) String() string {
	return fmt.Sprintf("<%s|%s|%s|%s>", formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]), formatFloat(v[3]))
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (t Timestamp) String() string {
	if t.Year() == 1970 && t.YearDay() == 1 {
		return t.Format("15:04:05.000")
	}
	return t.Format("2006-01-02 15:04:05.000")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FormatValue renders a leaf value for display.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return formatFloat(x)
	case string:
		return x
	case []string:
		return "[" + strings.Join(x, ", ") + "]"
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = formatFloat(f)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []Timestamp:
		parts := make([]string, len(x))
		for i, ts := range x {
			parts[i] = ts.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []int32, []uint32:
		return strings.Replace(fmt.Sprint(x), " ", ", ", -1)
	}
	return fmt.Sprint(v)
}

// Equal compares two leaf values. Numeric values and lists compare by value
// regardless of their storage type.
func Equal(a, b interface{}) bool {
	fa, okA := AsFloats(a)
	fb, okB := AsFloats(b)
	if okA && okB && isNumeric(a) && isNumeric(b) {
		return floats.Equal(fa, fb)
	}
	return reflect.DeepEqual(a, b)
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int16, uint16, int32, uint32, int64, float32, float64,
		[]int32, []uint32, []float64, Vector3, Vector4:
		return true
	}
	return false
}
