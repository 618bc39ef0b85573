package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCalendarDate(t *testing.T) {
	t.Run("date-only string parses to local midnight", func(t *testing.T) {
		d, err := ToCalendarDate("2026-01-03")
		require.NoError(t, err)

		assert.Equal(t, 2026, d.Year())
		assert.Equal(t, time.January, d.Month())
		assert.Equal(t, 3, d.Day())
		assert.Equal(t, 0, d.Hour())
		assert.Equal(t, time.Local, d.Location())
	})

	t.Run("full timestamp truncates to its calendar day", func(t *testing.T) {
		d, err := ToCalendarDate("2026-01-03T14:22:05Z")
		require.NoError(t, err)

		assert.Equal(t, 3, d.Day())
		assert.Equal(t, 0, d.Hour())
		assert.Equal(t, 0, d.Minute())
	})

	t.Run("unparseable input returns error", func(t *testing.T) {
		_, err := ToCalendarDate("not-a-date")
		assert.Error(t, err)

		_, err = ToCalendarDate("")
		assert.Error(t, err)
	})
}

func TestEnumerateDays(t *testing.T) {
	t.Run("inclusive of both endpoints", func(t *testing.T) {
		r, err := NewRange("2026-01-01", "2026-01-03")
		require.NoError(t, err)

		days := EnumerateDays(r)
		assert.Equal(t, []string{"2026-01-01", "2026-01-02", "2026-01-03"}, days)
	})

	t.Run("single-day range yields one day", func(t *testing.T) {
		r, err := NewRange("2026-01-01", "2026-01-01")
		require.NoError(t, err)

		assert.Equal(t, []string{"2026-01-01"}, EnumerateDays(r))
	})

	t.Run("inverted range yields empty sequence", func(t *testing.T) {
		r, err := NewRange("2026-01-05", "2026-01-01")
		require.NoError(t, err)

		assert.Empty(t, EnumerateDays(r))
	})

	t.Run("crosses month boundary", func(t *testing.T) {
		r, err := NewRange("2026-01-30", "2026-02-02")
		require.NoError(t, err)

		days := EnumerateDays(r)
		assert.Equal(t, []string{"2026-01-30", "2026-01-31", "2026-02-01", "2026-02-02"}, days)
	})
}

func TestCalendarDayDifference(t *testing.T) {
	a := mustDate(t, "2026-01-01")
	b := mustDate(t, "2026-01-31")

	assert.Equal(t, 30, CalendarDayDifference(a, b))
	assert.Equal(t, -30, CalendarDayDifference(b, a))
	assert.Equal(t, 0, CalendarDayDifference(a, a))
}

func TestDateRangeDays(t *testing.T) {
	r, err := NewRange("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, 31, r.Days())

	inverted, err := NewRange("2026-01-31", "2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, inverted.Days())
}

func TestDateRangeContains(t *testing.T) {
	r, err := NewRange("2026-01-01", "2026-01-31")
	require.NoError(t, err)

	assert.True(t, r.Contains(mustDate(t, "2026-01-01")))
	assert.True(t, r.Contains(mustDate(t, "2026-01-31")))
	assert.True(t, r.Contains(mustDate(t, "2026-01-15")))
	assert.False(t, r.Contains(mustDate(t, "2026-02-01")))
	assert.False(t, r.Contains(mustDate(t, "2025-12-31")))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ToCalendarDate(s)
	require.NoError(t, err)
	return d
}
