package property

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConvertIntegers(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		in   interface{}
		kind Kind
		out  interface{}
		ok   bool
	}{
		{in: "12", kind: Int32Kind, out: int32(12), ok: true},
		{in: float64(2.5), kind: Uint16Kind, out: uint16(2), ok: true},
		{in: float64(3.5), kind: Uint16Kind, out: uint16(4), ok: true},
		{in: int32(-1), kind: Uint16Kind, ok: false},
		{in: int32(70000), kind: Int16Kind, ok: false},
		{in: "90", kind: Int16Kind, out: int16(90), ok: true},
		{in: uint16(7), kind: Uint32Kind, out: uint32(7), ok: true},
		{in: "seven", kind: Int32Kind, ok: false},
		{in: []float64{5}, kind: Int32Kind, out: int32(5), ok: true},
	}
	for _, testCase := range testCases {
		out, err := Convert(testCase.in, testCase.kind)
		if testCase.ok {
			assert.NoError(t, err, "%v -> %s", testCase.in, testCase.kind)
			assert.Equal(t, testCase.out, out)
		} else {
			assert.Error(t, err, "%v -> %s", testCase.in, testCase.kind)
		}
	}
}

func TestConvertOther(t *testing.T) {
	t.Parallel()
	out, err := Convert("2.5", Float32Kind)
	assert.NoError(t, err)
	assert.Equal(t, float32(2.5), out)

	out, err = Convert([]string{"1", "0", "0"}, Vector3Kind)
	assert.NoError(t, err)
	assert.Equal(t, Vector3{1, 0, 0}, out)

	_, err = Convert([]float64{1, 2}, Vector3Kind)
	assert.Error(t, err)

	out, err = Convert([]string{"DOE", "JOHN"}, StringKind)
	assert.NoError(t, err)
	assert.Equal(t, `DOE\JOHN`, out)

	out, err = Convert("19800131", DateKind)
	assert.NoError(t, err)
	assert.Equal(t, NewDate(1980, time.January, 31), out)

	out, err = Convert([]float64{1.4, 2.6}, Int32sKind)
	assert.NoError(t, err)
	assert.Equal(t, []int32{1, 3}, out)

	out, err = Convert([]int32{1, 2, 3, 4}, Vector4Kind)
	assert.NoError(t, err)
	assert.Equal(t, Vector4{1, 2, 3, 4}, out)
}

func TestAsFloats(t *testing.T) {
	t.Parallel()
	fs, ok := AsFloats([]string{"0.5", " 1.5"})
	assert.True(t, ok)
	assert.Equal(t, []float64{0.5, 1.5}, fs)

	_, ok = AsFloats([]string{"0.5", "x"})
	assert.False(t, ok)

	fs, ok = AsFloats(uint16(3))
	assert.True(t, ok)
	assert.Equal(t, []float64{3}, fs)

	_, ok = AsFloats(NewDate(2000, 1, 1))
	assert.False(t, ok)
}

func TestAsInt64(t *testing.T) {
	t.Parallel()
	i, ok := AsInt64(" 42 ")
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)
	_, ok = AsInt64(math.NaN())
	assert.False(t, ok)
}

// ensures that numeric values compare by value whatever their storage type
func TestEqual(t *testing.T) {
	t.Parallel()
	assert.True(t, Equal([]float64{1, 2}, []int32{1, 2}))
	assert.True(t, Equal(uint16(3), float64(3)))
	assert.False(t, Equal([]float64{1, 2}, []float64{1, 2, 3}))
	assert.True(t, Equal("a", "a"))
	// strings never compare numerically
	assert.False(t, Equal("3", uint16(3)))
}

func TestVector3(t *testing.T) {
	t.Parallel()
	v := Vector3{1, 2, 3}
	assert.Equal(t, Vector3{2, 4, 6}, v.Scale(2))
	assert.Equal(t, Vector3{1, 2, 3}, v, "receiver is a copy")
	assert.Equal(t, Vector3{2, 3, 4}, v.Add(Vector3{1, 1, 1}))
	assert.Equal(t, Vector3{1, 4, 9}, v.Mul(v))
	assert.Equal(t, float64(14), v.Dot(v))
	assert.True(t, v.EqualApprox(Vector3{1, 2, 3.0000001}, 1e-6))
	assert.False(t, v.EqualApprox(Vector3{1, 2, 3.1}, 1e-6))
}
