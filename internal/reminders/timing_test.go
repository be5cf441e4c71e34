package reminders

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("08:05")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 8, Minute: 5}, got)
	assert.Equal(t, "08:05", got.String())

	got, err = ParseTimeOfDay(" 23:59:00 ")
	require.NoError(t, err)
	assert.Equal(t, "23:59", got.String())

	for _, in := range []string{"", "8:05", "08:5", "25:00", "-1:00", "08:05:1", "08", "08:05:00:00"} {
		_, err := ParseTimeOfDay(in)
		assert.ErrorIs(t, err, ErrInvalidTimeOfDay, in)
	}
}

func TestNextOccurrence_UsesNowLocation(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	now := time.Date(2026, 10, 19, 22, 0, 0, 0, brt)

	got := NextOccurrence(now, TimeOfDay{Hour: 8})
	assert.Equal(t, time.Date(2026, 10, 20, 8, 0, 0, 0, brt), got)
	assert.Equal(t, 10*time.Hour, got.Sub(now))
}

func TestNextOccurrence_CrossesMonthEnd(t *testing.T) {
	now := time.Date(2026, 10, 31, 23, 30, 0, 0, time.UTC)
	got := NextOccurrence(now, TimeOfDay{Hour: 6, Minute: 0})
	assert.Equal(t, time.Date(2026, 11, 1, 6, 0, 0, 0, time.UTC), got)
}

func TestNextOccurrence_MidnightDSTStart(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	// 4/nov/2018 el reloj saltó de 00:00 a 01:00 (-0300 => -0200).
	now := time.Date(2018, 11, 3, 22, 0, 0, 0, loc)

	got := NextOccurrence(now, TimeOfDay{Hour: 0, Minute: 30})
	assert.Equal(t, time.Date(2018, 11, 4, 1, 30, 0, 0, loc), got)
	assert.Equal(t, 4, got.Day())
	assert.Equal(t, 2*time.Hour+30*time.Minute, got.Sub(now))

	got = NextOccurrence(now, TimeOfDay{Hour: 8})
	assert.Equal(t, time.Date(2018, 11, 4, 8, 0, 0, 0, loc), got)
	assert.Equal(t, 9*time.Hour, got.Sub(now))

	// Ya pasado el salto, la toma de 00:30 de hoy sigue pendiente a la 01:30.
	after := time.Date(2018, 11, 4, 1, 10, 0, 0, loc)
	got = NextOccurrence(after, TimeOfDay{Hour: 0, Minute: 30})
	assert.Equal(t, time.Date(2018, 11, 4, 1, 30, 0, 0, loc), got)
}

func TestTimeOfDayOn_NormalizesDay(t *testing.T) {
	got := TimeOfDay{Hour: 9, Minute: 15}.On(2026, 12, 32, time.UTC)
	assert.Equal(t, time.Date(2027, 1, 1, 9, 15, 0, 0, time.UTC), got)
}

func TestAppointmentFireTime(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	fire, ok := AppointmentFireTime(now, now.Add(2*time.Hour))
	assert.True(t, ok)
	assert.Equal(t, now.Add(time.Hour), fire)

	_, ok = AppointmentFireTime(now, now.Add(-time.Hour))
	assert.False(t, ok)
}
