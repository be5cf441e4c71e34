package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonths_ClampsDay(t *testing.T) {
	assert.Equal(t, day(2026, 2, 28), NextMonth(day(2026, 1, 31)))
	assert.Equal(t, day(2024, 2, 29), NextMonth(day(2024, 1, 31)))
	assert.Equal(t, day(2026, 4, 30), PrevMonth(day(2026, 5, 31)))
	assert.Equal(t, day(2027, 1, 15), NextMonth(day(2026, 12, 15)))
	assert.Equal(t, day(2025, 12, 31), PrevMonth(day(2026, 1, 31)))
}

func TestNavigation_RoundTripStaysInMonth(t *testing.T) {
	for y := 2023; y <= 2027; y++ {
		for m := time.January; m <= time.December; m++ {
			for _, d := range []int{1, 15, 28, DaysIn(y, m)} {
				ref := at(y, m, d, 13, 45)

				back := PrevMonth(NextMonth(ref))
				assert.True(t, SameMonth(ref, back), "next/prev from %s gave %s", ref, back)

				fwd := NextMonth(PrevMonth(ref))
				assert.True(t, SameMonth(ref, fwd), "prev/next from %s gave %s", ref, fwd)
			}
		}
	}
}

func TestAddMonths_KeepsTimeOfDay(t *testing.T) {
	got := NextMonth(at(2026, 10, 19, 13, 45))
	assert.Equal(t, at(2026, 11, 19, 13, 45), got)
}

func TestCurrentMonth(t *testing.T) {
	now := at(2026, 10, 19, 10, 0)
	assert.True(t, SameMonth(now, CurrentMonth(now)))
}

func TestWeekBounds(t *testing.T) {
	// 19/oct/2026 es lunes.
	assert.Equal(t, day(2026, 10, 18), StartOfWeek(at(2026, 10, 19, 10, 0), time.Sunday))
	assert.Equal(t, day(2026, 10, 24), EndOfWeek(at(2026, 10, 19, 10, 0), time.Sunday))
	assert.Equal(t, day(2026, 10, 19), StartOfWeek(at(2026, 10, 19, 10, 0), time.Monday))
	assert.Equal(t, day(2026, 10, 25), EndOfWeek(at(2026, 10, 19, 10, 0), time.Monday))
}

func TestWeekBounds_MidnightDSTStart(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	// 4/nov/2018 el reloj saltó de 00:00 a 01:00.
	wed := time.Date(2018, 11, 7, 15, 0, 0, 0, loc)
	start := StartOfWeek(wed, time.Sunday)
	assert.Equal(t, time.Date(2018, 11, 4, 1, 0, 0, 0, loc), start)
	assert.Equal(t, 4, start.Day())
	assert.Equal(t, time.Date(2018, 11, 10, 0, 0, 0, 0, loc), EndOfWeek(wed, time.Sunday))

	first := FirstOfMonth(wed)
	assert.Equal(t, time.Date(2018, 11, 1, 0, 0, 0, 0, loc), first)
	assert.Equal(t, 30, LastOfMonth(wed).Day())
}

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2026-10", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2026, 10, 1), got)
	assert.Equal(t, "2026-10", MonthKey(got))

	_, err = ParseMonth("2026-13", time.UTC)
	assert.Error(t, err)
}

func TestParseWeekStart(t *testing.T) {
	assert.Equal(t, time.Monday, ParseWeekStart("Monday", time.Sunday))
	assert.Equal(t, time.Monday, ParseWeekStart(" seg ", time.Sunday))
	assert.Equal(t, time.Sunday, ParseWeekStart("dom", time.Monday))
	assert.Equal(t, time.Monday, ParseWeekStart("", time.Monday))
	assert.Equal(t, time.Sunday, ParseWeekStart("friday", time.Sunday))
}
