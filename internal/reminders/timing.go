package reminders

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AppointmentLead es la antelación con la que se avisa una cita.
const AppointmentLead = time.Hour

var ErrInvalidTimeOfDay = errors.New("invalid time of day (expected HH:MM)")

// TimeOfDay es una hora de toma (HH:MM) sin fecha ni zona.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay acepta "HH:MM" y también "HH:MM:SS" (como devuelve Postgres
// para columnas time); los segundos se descartan.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	for _, p := range parts {
		if len(p) != 2 {
			return TimeOfDay{}, ErrInvalidTimeOfDay
		}
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return TimeOfDay{}, ErrInvalidTimeOfDay
		}
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// On devuelve y-m-d a la hora t en loc. Si esa hora no existe por un salto de
// DST se corre lo que dura el salto (00:30 pasa a 01:30).
func (t TimeOfDay) On(y int, m time.Month, d int, loc *time.Location) time.Time {
	y, m, d = time.Date(y, m, d, 12, 0, 0, 0, time.UTC).Date()
	at := time.Date(y, m, d, t.Hour, t.Minute, 0, 0, loc)
	if at.Hour() != t.Hour || at.Minute() != t.Minute {
		_, before := at.Zone()
		_, after := at.Add(3 * time.Hour).Zone()
		at = at.Add(time.Duration(after-before) * time.Second)
	}
	return at
}

// NextOccurrence devuelve hoy a la hora tod (en la zona de now); si eso no es
// estrictamente futuro, el mismo horario de mañana.
func NextOccurrence(now time.Time, tod TimeOfDay) time.Time {
	y, m, d := now.Date()
	at := tod.On(y, m, d, now.Location())
	if !at.After(now) {
		at = tod.On(y, m, d+1, now.Location())
	}
	return at
}

// AppointmentFireTime es at menos AppointmentLead; ok=false si ya no es futuro.
func AppointmentFireTime(now, at time.Time) (time.Time, bool) {
	fire := at.Add(-AppointmentLead)
	return fire, fire.After(now)
}
