package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2023, time.January, 7, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{
		"2023-01-07",
		"01/07/2023",
		"1/7/2023",
		" 2023-01-07 00:00:00 ",
		"2023-01-07T18:30:00",
		"2023-01-07T23:00:00-06:00",
		"Jan 7, 2023",
		"January 7, 2023",
	} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDate(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "2023-13-01", "07.01.2023", "yesterday"} {
		_, err := ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2023-01-07", FormatDate(time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC)))
}
