package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-10-19T10:30:00Z", time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC)},
		{"2026-10-19T10:30:00-03:00", time.Date(2026, 10, 19, 13, 30, 0, 0, time.UTC)},
		{"2026-10-19T10:30:00", time.Date(2026, 10, 19, 10, 30, 0, 0, loc)},
		{"2026-10-19T10:30", time.Date(2026, 10, 19, 10, 30, 0, 0, loc)},
		{"2026-10-19 10:30:00", time.Date(2026, 10, 19, 10, 30, 0, 0, loc)},
		{"2026-10-19 10:30:00+00", time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in, loc)
		require.NoError(t, err, tc.in)
		assert.True(t, tc.want.Equal(got), "%s: want %s got %s", tc.in, tc.want, got)
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "2026-13-40T10:00", "10:30"} {
		_, err := ParseTimestamp(in, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, in)
	}
}

func TestParseOptionalDate(t *testing.T) {
	d, err := ParseOptionalDate("", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseOptionalDate("2024-02-29", time.UTC)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, time.February, d.Month())

	_, err = ParseOptionalDate("2023-02-29", time.UTC)
	assert.Error(t, err)
}
