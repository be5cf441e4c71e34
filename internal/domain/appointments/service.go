package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"family-care/internal/calendar"
	"family-care/internal/reminders"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("appointment not found")
)

const DefaultDurationMinutes = 60

// ReminderScheduler es lo que el módulo necesita del scheduler de recordatorios.
type ReminderScheduler interface {
	ScheduleAppointment(recipient, title string, at time.Time) (reminders.Reminder, error)
}

type Service struct {
	repo      Repository
	reminders ReminderScheduler
	now       func() time.Time
}

func NewService(repo Repository, sched ReminderScheduler) *Service {
	return &Service{
		repo:      repo,
		reminders: sched,
		now:       time.Now,
	}
}

type CreateInput struct {
	FamilyMemberID  string
	Title           string
	ScheduledAt     time.Time
	DoctorName      string
	Specialty       string
	Location        string
	DurationMinutes int
	Notes           string
}

func (s *Service) Create(ctx context.Context, createdBy string, in CreateInput) (Appointment, error) {
	if strings.TrimSpace(createdBy) == "" || strings.TrimSpace(in.FamilyMemberID) == "" {
		return Appointment{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Title) == "" || in.ScheduledAt.IsZero() {
		return Appointment{}, ErrInvalidInput
	}
	if in.DurationMinutes < 0 {
		return Appointment{}, ErrInvalidInput
	}
	dur := in.DurationMinutes
	if dur == 0 {
		dur = DefaultDurationMinutes
	}

	now := s.now()
	a := Appointment{
		ID:              uuid.NewString(),
		FamilyMemberID:  strings.TrimSpace(in.FamilyMemberID),
		Title:           strings.TrimSpace(in.Title),
		ScheduledAt:     in.ScheduledAt,
		DoctorName:      strings.TrimSpace(in.DoctorName),
		Specialty:       strings.TrimSpace(in.Specialty),
		Location:        strings.TrimSpace(in.Location),
		DurationMinutes: dur,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedBy:       strings.TrimSpace(createdBy),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Appointment{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	if len(filter.MemberIDs) == 0 {
		return []Appointment{}, nil
	}
	return s.repo.List(ctx, filter)
}

// CountUpcoming cuenta las citas desde ahora en adelante.
func (s *Service) CountUpcoming(ctx context.Context, memberIDs []string) (int, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}
	now := s.now()
	return s.repo.Count(ctx, ListFilter{MemberIDs: memberIDs, From: &now})
}

// UpdateInput: punteros para PATCH real, nil = no tocar.
type UpdateInput struct {
	Title           *string
	ScheduledAt     *time.Time
	DoctorName      *string
	Specialty       *string
	Location        *string
	DurationMinutes *int
	Notes           *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Appointment, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}

	if in.Title != nil {
		v := strings.TrimSpace(*in.Title)
		if v == "" {
			return Appointment{}, ErrInvalidInput
		}
		a.Title = v
	}
	if in.ScheduledAt != nil {
		if in.ScheduledAt.IsZero() {
			return Appointment{}, ErrInvalidInput
		}
		// Cambió la fecha: el aviso agendado ya no aplica.
		if !in.ScheduledAt.Equal(a.ScheduledAt) {
			a.ReminderSent = false
		}
		a.ScheduledAt = *in.ScheduledAt
	}
	if in.DoctorName != nil {
		a.DoctorName = strings.TrimSpace(*in.DoctorName)
	}
	if in.Specialty != nil {
		a.Specialty = strings.TrimSpace(*in.Specialty)
	}
	if in.Location != nil {
		a.Location = strings.TrimSpace(*in.Location)
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes <= 0 {
			return Appointment{}, ErrInvalidInput
		}
		a.DurationMinutes = *in.DurationMinutes
	}
	if in.Notes != nil {
		a.Notes = strings.TrimSpace(*in.Notes)
	}

	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

// ScheduleReminder agenda el aviso de la cita para recipient. Si quedó
// agendado, marca reminder_sent.
func (s *Service) ScheduleReminder(ctx context.Context, id, recipient string) (reminders.Reminder, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return reminders.Reminder{}, err
	}

	r, err := s.reminders.ScheduleAppointment(recipient, a.Title, a.ScheduledAt)
	if err != nil {
		return reminders.Reminder{}, err
	}
	if r.Scheduled && !a.ReminderSent {
		a.ReminderSent = true
		a.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, a); err != nil {
			return r, err
		}
	}
	return r, nil
}

// Calendar proyecta el mes de ref con las citas de memberIDs que caen en
// la grilla (incluye días de los meses vecinos).
func (s *Service) Calendar(ctx context.Context, memberIDs []string, ref time.Time, opts calendar.Options) (calendar.Month, error) {
	start, end := calendar.Bounds(ref, opts)

	items, err := s.List(ctx, ListFilter{MemberIDs: memberIDs, From: &start, To: &end})
	if err != nil {
		return calendar.Month{}, err
	}

	return calendar.Project(ref, s.now(), ToEntries(items), opts), nil
}

// ToEntries adapta citas al formato de la grilla, manteniendo el orden.
func ToEntries(items []Appointment) []calendar.Entry {
	out := make([]calendar.Entry, 0, len(items))
	for _, a := range items {
		out = append(out, calendar.Entry{ID: a.ID, Title: a.Title, At: a.ScheduledAt})
	}
	return out
}
