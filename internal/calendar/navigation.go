package calendar

import (
	"strings"
	"time"
)

const monthLayout = "2006-01"

// DaysIn devuelve la cantidad de días del mes (bisiestos incluidos).
func DaysIn(year int, month time.Month) int {
	// Día 0 del mes siguiente = último día de month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// startOfDay devuelve el primer instante de y-m-d en loc. Los días fuera de
// rango se normalizan como en time.Date. Si el DST arranca a medianoche,
// el día empieza a la 01:00.
func startOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	y, m, d = time.Date(y, m, d, 12, 0, 0, 0, time.UTC).Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	// time.Date lleva la medianoche inexistente al día anterior.
	for i := 0; i < 3 && t.Day() != d; i++ {
		t = t.Add(time.Hour)
	}
	return t
}

// daysBetween cuenta días de calendario de a a b, sin importar el largo
// real de cada día.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func FirstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return startOfDay(y, m, 1, t.Location())
}

func LastOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return startOfDay(y, m, DaysIn(y, m), t.Location())
}

// StartOfWeek devuelve el inicio del primer día de la semana que contiene t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	y, m, d := t.Date()
	diff := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return startOfDay(y, m, d-diff, t.Location())
}

// EndOfWeek devuelve el inicio del último día de la semana que contiene t.
func EndOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	s := StartOfWeek(t, weekStart)
	y, m, d := s.Date()
	return startOfDay(y, m, d+6, s.Location())
}

// AddMonths suma n meses recortando el día al largo del mes destino
// (31/ene + 1 => 28 o 29/feb), así nunca se "salta" un mes.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 12, 0, 0, 0, time.UTC)
	ty, tm := target.Year(), target.Month()
	if dim := DaysIn(ty, tm); d > dim {
		d = dim
	}
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func NextMonth(ref time.Time) time.Time { return AddMonths(ref, 1) }

func PrevMonth(ref time.Time) time.Time { return AddMonths(ref, -1) }

// CurrentMonth es el "ir a hoy": la nueva referencia es now.
func CurrentMonth(now time.Time) time.Time { return now }

// MonthKey formatea YYYY-MM.
func MonthKey(t time.Time) string { return t.Format(monthLayout) }

// ParseMonth parsea YYYY-MM como el día 1 en loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return startOfDay(t.Year(), t.Month(), 1, loc), nil
}

func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// ParseWeekStart acepta "sunday"/"monday" (o "dom"/"seg", "0"/"1");
// vacío o desconocido => fallback.
func ParseWeekStart(s string, fallback time.Weekday) time.Weekday {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun", "dom", "domingo", "0":
		return time.Sunday
	case "monday", "mon", "seg", "segunda", "1":
		return time.Monday
	default:
		return fallback
	}
}
