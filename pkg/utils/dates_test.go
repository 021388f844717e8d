package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLenient(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Time
	}{
		{input: "January 4th, 2021", expected: time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)},
		{input: "2022-05-03 11:04:17.397000", expected: time.Date(2022, 5, 3, 11, 4, 17, 397000000, time.UTC)},
		{input: "20210104", expected: time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)},
		{input: "3/7/2020", expected: time.Date(2020, 3, 7, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseLenient(tc.input)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "got %s", got)
		})
	}

	t.Run("should fail on garbage", func(t *testing.T) {
		_, err := ParseLenient("not a date")
		assert.Error(t, err)
		_, err = ParseLenient("  ")
		assert.Error(t, err)
	})
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2021, 1, 4, 11, 4, 17, 0, time.UTC)
	assert.Equal(t, "20210104", FormatTime("20060102", ts))
	assert.Equal(t, "20210104", FormatTime("%Y%m%d", ts))
	assert.Equal(t, "11:04:17", FormatTime("time", ts))
	assert.Equal(t, "2021-01-04", FormatTime("date", ts))
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("01022006", "03152020")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseTime("01022006", "2020-03-15")
	assert.Error(t, err)
}
