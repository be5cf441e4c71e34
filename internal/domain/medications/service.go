package medications

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"family-care/internal/reminders"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medication not found")
	// ErrNotInEffect: inactivo o fuera del período del tratamiento.
	ErrNotInEffect = errors.New("medication not in effect")
)

// ReminderScheduler es lo que el módulo necesita del scheduler de recordatorios.
type ReminderScheduler interface {
	ScheduleMedication(recipient, name, hhmm string) (reminders.Reminder, error)
}

type Service struct {
	repo      Repository
	reminders ReminderScheduler
	loc       *time.Location
	now       func() time.Time
}

// loc define "hoy" para start_date por defecto y para el scheduled_time de las tomas.
func NewService(repo Repository, sched ReminderScheduler, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:      repo,
		reminders: sched,
		loc:       loc,
		now:       time.Now,
	}
}

type CreateInput struct {
	FamilyMemberID string
	Name           string
	Dosage         string
	Frequency      string
	Times          []string
	StartDate      *time.Time // nil => hoy
	EndDate        *time.Time
	Instructions   string
}

func (s *Service) Create(ctx context.Context, createdBy string, in CreateInput) (Medication, error) {
	if strings.TrimSpace(createdBy) == "" || strings.TrimSpace(in.FamilyMemberID) == "" {
		return Medication{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Dosage) == "" {
		return Medication{}, ErrInvalidInput
	}

	freq := FrequencyDaily
	if v := strings.TrimSpace(in.Frequency); v != "" {
		freq = Frequency(strings.ToLower(v))
		if !freq.Valid() {
			return Medication{}, ErrInvalidInput
		}
	}

	times, err := normalizeTimes(in.Times)
	if err != nil {
		return Medication{}, err
	}
	if len(times) == 0 {
		return Medication{}, ErrInvalidInput
	}

	now := s.now()
	start := dateIn(now, s.loc)
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.EndDate != nil && in.EndDate.Before(start) {
		return Medication{}, ErrInvalidInput
	}

	m := Medication{
		ID:             uuid.NewString(),
		FamilyMemberID: strings.TrimSpace(in.FamilyMemberID),
		Name:           strings.TrimSpace(in.Name),
		Dosage:         strings.TrimSpace(in.Dosage),
		Frequency:      freq,
		Times:          times,
		StartDate:      start,
		EndDate:        in.EndDate,
		Instructions:   strings.TrimSpace(in.Instructions),
		Active:         true,
		CreatedBy:      strings.TrimSpace(createdBy),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Medication, error) {
	if len(filter.MemberIDs) == 0 {
		return []Medication{}, nil
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) CountActive(ctx context.Context, memberIDs []string) (int, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}
	active := true
	return s.repo.Count(ctx, ListFilter{MemberIDs: memberIDs, Active: &active})
}

// PatchDate distingue "no enviado" de "enviado null" (limpiar).
type PatchDate struct {
	Present bool
	Value   *time.Time
}

// UpdateInput: punteros para PATCH real, nil = no tocar.
type UpdateInput struct {
	Name         *string
	Dosage       *string
	Frequency    *string
	Times        *[]string
	StartDate    *time.Time
	EndDate      PatchDate
	Instructions *string
	Active       *bool
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Medication, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return Medication{}, err
	}

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return Medication{}, ErrInvalidInput
		}
		m.Name = v
	}
	if in.Dosage != nil {
		v := strings.TrimSpace(*in.Dosage)
		if v == "" {
			return Medication{}, ErrInvalidInput
		}
		m.Dosage = v
	}
	if in.Frequency != nil {
		f := Frequency(strings.ToLower(strings.TrimSpace(*in.Frequency)))
		if !f.Valid() {
			return Medication{}, ErrInvalidInput
		}
		m.Frequency = f
	}
	if in.Times != nil {
		times, err := normalizeTimes(*in.Times)
		if err != nil {
			return Medication{}, err
		}
		m.Times = times
	}
	if len(m.Times) == 0 {
		return Medication{}, ErrInvalidInput
	}
	if in.StartDate != nil {
		m.StartDate = *in.StartDate
	}
	if in.EndDate.Present {
		m.EndDate = in.EndDate.Value
	}
	if m.EndDate != nil && m.EndDate.Before(m.StartDate) {
		return Medication{}, ErrInvalidInput
	}
	if in.Instructions != nil {
		m.Instructions = strings.TrimSpace(*in.Instructions)
	}
	if in.Active != nil {
		m.Active = *in.Active
	}

	m.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

type LogInput struct {
	Time  string // HH:MM de la toma; debe ser una de las horas del medicamento
	Notes string
}

// LogDose confirma la toma de hoy a la hora indicada.
func (s *Service) LogDose(ctx context.Context, medicationID, confirmedBy string, in LogInput) (Log, error) {
	if strings.TrimSpace(confirmedBy) == "" {
		return Log{}, ErrInvalidInput
	}
	m, err := s.GetByID(ctx, medicationID)
	if err != nil {
		return Log{}, err
	}

	now := s.now()
	if !m.InEffectOn(now.In(s.loc)) {
		return Log{}, ErrNotInEffect
	}

	tod, err := reminders.ParseTimeOfDay(in.Time)
	if err != nil {
		return Log{}, ErrInvalidInput
	}
	if len(m.Times) > 0 && !containsTime(m.Times, tod.String()) {
		return Log{}, ErrInvalidInput
	}

	local := now.In(s.loc)
	y, mo, d := local.Date()
	l := Log{
		ID:            uuid.NewString(),
		MedicationID:  m.ID,
		ScheduledTime: tod.On(y, mo, d, s.loc),
		TakenAt:       now,
		ConfirmedBy:   strings.TrimSpace(confirmedBy),
		Notes:         strings.TrimSpace(in.Notes),
		CreatedAt:     now,
	}
	if err := s.repo.CreateLog(ctx, l); err != nil {
		return Log{}, err
	}
	return l, nil
}

func (s *Service) ListLogs(ctx context.Context, medicationID string, limit int) ([]Log, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListLogs(ctx, strings.TrimSpace(medicationID), limit)
}

// ScheduleReminders agenda un aviso por cada hora de toma (o solo onlyTime
// si viene). Cada aviso es de un solo disparo.
func (s *Service) ScheduleReminders(ctx context.Context, medicationID, recipient, onlyTime string) ([]reminders.Reminder, error) {
	m, err := s.GetByID(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if !m.InEffectOn(s.now().In(s.loc)) {
		return nil, ErrNotInEffect
	}

	times := m.Times
	if v := strings.TrimSpace(onlyTime); v != "" {
		tod, err := reminders.ParseTimeOfDay(v)
		if err != nil || !containsTime(m.Times, tod.String()) {
			return nil, ErrInvalidInput
		}
		times = []string{tod.String()}
	}
	if len(times) == 0 {
		return nil, ErrInvalidInput
	}

	out := make([]reminders.Reminder, 0, len(times))
	for _, t := range times {
		r, err := s.reminders.ScheduleMedication(recipient, m.Name, t)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// normalizeTimes valida HH:MM, deduplica y ordena.
func normalizeTimes(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tod, err := reminders.ParseTimeOfDay(raw)
		if err != nil {
			return nil, ErrInvalidInput
		}
		v := tod.String()
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func containsTime(times []string, t string) bool {
	for _, v := range times {
		if v == t {
			return true
		}
	}
	return false
}

// dateIn es la medianoche UTC de la fecha de t en loc (columna date).
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
