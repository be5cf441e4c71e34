package medications

import "time"

// Frequency define la periodicidad del tratamiento.
// @Enum daily, weekly, biweekly, monthly, as_needed
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyAsNeeded Frequency = "as_needed"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyAsNeeded:
		return true
	}
	return false
}

type Medication struct {
	ID             string
	FamilyMemberID string

	Name      string
	Dosage    string
	Frequency Frequency

	// Times son las horas de toma "HH:MM", únicas y ordenadas.
	Times []string

	StartDate time.Time
	EndDate   *time.Time // nil = uso continuo

	Instructions string
	Active       bool

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m Medication) Continuous() bool { return m.EndDate == nil }

// InEffectOn: activo y day dentro de [start, end].
func (m Medication) InEffectOn(day time.Time) bool {
	if !m.Active {
		return false
	}
	d := dateOnly(day)
	if d.Before(dateOnly(m.StartDate)) {
		return false
	}
	if m.EndDate != nil && d.After(dateOnly(*m.EndDate)) {
		return false
	}
	return true
}

// Log registra una toma confirmada. Solo se agregan, nunca se editan.
type Log struct {
	ID           string
	MedicationID string

	ScheduledTime time.Time
	TakenAt       time.Time
	ConfirmedBy   string
	Notes         string

	CreatedAt time.Time
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
