package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate_DayFirstStrings(t *testing.T) {
	cases := map[string]string{
		"15/3/2024":    "2024-03-15",
		"5-12-2023":    "2023-12-05",
		"01.01.2022":   "2022-01-01",
		" 29/02/2024 ": "2024-02-29",
		"\"7/6/2021\"": "2021-06-07",
	}
	for input, want := range cases {
		got, ok := NormalizeDate(input)
		assert.True(t, ok, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}
}

func TestNormalizeDate_SpreadsheetSerials(t *testing.T) {
	got, ok := NormalizeDate("1")
	assert.True(t, ok)
	assert.Equal(t, "1899-12-31", got)

	got, ok = NormalizeDate("2")
	assert.True(t, ok)
	assert.Equal(t, "1900-01-01", got)

	got, ok = NormalizeDate("366")
	assert.True(t, ok)
	assert.Equal(t, "1900-12-31", got)
}

func TestNormalizeDate_Rejects(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"not a date",
		"32/1/2024",  // no 32nd day
		"29/02/2023", // not a leap year
		"15/13/2024", // no 13th month
		"1/1/99",     // two-digit year
		"-9999999",   // serial far out of range
	} {
		_, ok := NormalizeDate(input)
		assert.False(t, ok, "input %q", input)
	}
}
