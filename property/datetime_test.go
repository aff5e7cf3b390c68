package property

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	t.Parallel()
	d, err := ParseDate("20190405")
	assert.NoError(t, err)
	assert.Equal(t, NewDate(2019, time.April, 5), d)

	// legacy ACR-NEMA spelling
	d, err = ParseDate("2019.04.05")
	assert.NoError(t, err)
	assert.Equal(t, NewDate(2019, time.April, 5), d)

	_, err = ParseDate("not a date")
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		in  string
		out time.Duration
	}{
		{"101010", 10*time.Hour + 10*time.Minute + 10*time.Second},
		{"101010.5", 10*time.Hour + 10*time.Minute + 10*time.Second + 500*time.Millisecond},
		{"101010.123456", 10*time.Hour + 10*time.Minute + 10*time.Second + 123456*time.Microsecond},
		{"1010", 10*time.Hour + 10*time.Minute},
		{"07", 7 * time.Hour},
		{"10:10:10", 10*time.Hour + 10*time.Minute + 10*time.Second},
	}
	for _, testCase := range testCases {
		ts, err := ParseTime(testCase.in)
		if assert.NoError(t, err, testCase.in) {
			assert.Equal(t, testCase.out, ts.SinceMidnight(), testCase.in)
			assert.Equal(t, 1970, ts.Year())
		}
	}
	for _, bad := range []string{"", "1", "250000", "106100", "1010.5", "ab"} {
		_, err := ParseTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDateTime(t *testing.T) {
	t.Parallel()
	ts, err := ParseDateTime("20190405101010.25")
	assert.NoError(t, err)
	assert.True(t, time.Date(2019, 4, 5, 10, 10, 10, 250000000, time.UTC).Equal(ts.Time))

	ts, err = ParseDateTime("20190405101010+0200")
	assert.NoError(t, err)
	assert.True(t, time.Date(2019, 4, 5, 8, 10, 10, 0, time.UTC).Equal(ts.Time))

	ts, err = ParseDateTime("20190405")
	assert.NoError(t, err)
	assert.True(t, time.Date(2019, 4, 5, 0, 0, 0, 0, time.UTC).Equal(ts.Time))
}

// ensures that a time of day lands on the given day
func TestCombine(t *testing.T) {
	t.Parallel()
	ts, _ := ParseTime("123000.5")
	combined := Combine(NewDate(2020, time.February, 29), ts)
	assert.True(t, time.Date(2020, 2, 29, 12, 30, 0, 500000000, time.UTC).Equal(combined.Time))
	assert.Equal(t, "2020-02-29 12:30:00.500", combined.String())
	assert.Equal(t, "12:30:00.500", ts.String())
}
