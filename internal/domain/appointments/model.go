package appointments

import "time"

// Appointment es una consulta médica agendada para un familiar.
type Appointment struct {
	ID             string
	FamilyMemberID string

	Title       string
	ScheduledAt time.Time

	DoctorName      string
	Specialty       string
	Location        string
	DurationMinutes int

	Notes string

	// ReminderSent: ya se agendó el aviso de 1 hora antes.
	ReminderSent bool

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
