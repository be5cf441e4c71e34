// Package reminders agenda recordatorios locales de tomas y citas con timers
// de un solo disparo. Nada se persiste: si el proceso se reinicia, los
// recordatorios pendientes se pierden.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-care/internal/platform/logger"
	"family-care/internal/ports/notifications"
)

const (
	MedicationTitle  = "Hora do Medicamento! 💊"
	AppointmentTitle = "Lembrete de Consulta 📅"
	DefaultIcon      = "/favicon.ico"

	appointmentTagLayout = "2006-01-02T15:04:05.000Z"
	defaultEmitTimeout   = 5 * time.Second
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable: no hay capacidad de notificaciones configurada.
	ErrUnavailable = errors.New("notifications unavailable")
)

type Kind string

const (
	KindMedication  Kind = "medication"
	KindAppointment Kind = "appointment"
)

// Reminder describe lo que se agendó (o se habría agendado).
type Reminder struct {
	Kind      Kind          `json:"kind"`
	Recipient string        `json:"recipient"`
	Tag       string        `json:"tag"`
	FireAt    time.Time     `json:"fire_at"`
	Delay     time.Duration `json:"-"`
	// Scheduled=false: no hay timer (cita dentro de la próxima hora o sin capacidad).
	Scheduled bool `json:"scheduled"`
}

type Scheduler struct {
	notifier notifications.Notifier
	log      logger.Logger
	loc      *time.Location

	now         func() time.Time
	after       func(d time.Duration, f func())
	emitTimeout time.Duration
}

// NewScheduler con notifier nil deja al scheduler en modo no-op.
func NewScheduler(n notifications.Notifier, log logger.Logger, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		notifier: n,
		log:      logger.OrNop(log).With(map[string]any{"component": "reminders"}),
		loc:      loc,
		now:      time.Now,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		emitTimeout: defaultEmitTimeout,
	}
}

func (s *Scheduler) Available() bool {
	return s != nil && s.notifier != nil
}

func (s *Scheduler) Permission(ctx context.Context, recipient string) (notifications.Permission, error) {
	if !s.Available() {
		return "", ErrUnavailable
	}
	if strings.TrimSpace(recipient) == "" {
		return "", ErrInvalidInput
	}
	return s.notifier.Permission(ctx, recipient)
}

// RequestPermission solo pregunta si el estado es "default". Una vez
// concedido o denegado, devuelve el estado actual sin volver a preguntar.
func (s *Scheduler) RequestPermission(ctx context.Context, recipient string, answer notifications.Permission) (notifications.Permission, error) {
	current, err := s.Permission(ctx, recipient)
	if err != nil {
		return "", err
	}
	if current != notifications.PermissionDefault {
		return current, nil
	}
	switch answer {
	case notifications.PermissionGranted, notifications.PermissionDenied:
	case notifications.PermissionDefault:
		return current, nil
	default:
		return "", ErrInvalidInput
	}

	got, err := s.notifier.RequestPermission(ctx, recipient, answer)
	if err != nil {
		return "", err
	}
	s.log.Info("notification permission answered", map[string]any{
		"recipient":  recipient,
		"permission": string(got),
	})
	return got, nil
}

// ScheduleMedication arma un único aviso para la próxima ocurrencia de hhmm.
// No se re-arma para el día siguiente.
func (s *Scheduler) ScheduleMedication(recipient, name, hhmm string) (Reminder, error) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(recipient) == "" || name == "" {
		return Reminder{}, ErrInvalidInput
	}
	tod, err := ParseTimeOfDay(hhmm)
	if err != nil {
		s.log.Warn("medication reminder not scheduled", map[string]any{
			"medication": name,
			"time":       hhmm,
			"error":      err,
		})
		return Reminder{}, err
	}

	now := s.now().In(s.loc)
	fireAt := NextOccurrence(now, tod)

	n := notifications.Notification{
		Recipient:          recipient,
		Title:              MedicationTitle,
		Body:               fmt.Sprintf("É hora de tomar %s", name),
		Tag:                MedicationTag(name, tod),
		Icon:               DefaultIcon,
		RequireInteraction: true,
	}
	return s.arm(KindMedication, n, now, fireAt), nil
}

// ScheduleAppointment avisa AppointmentLead antes de at. Si ese momento ya
// pasó no agenda nada y devuelve Scheduled=false.
func (s *Scheduler) ScheduleAppointment(recipient, title string, at time.Time) (Reminder, error) {
	title = strings.TrimSpace(title)
	if strings.TrimSpace(recipient) == "" || title == "" || at.IsZero() {
		return Reminder{}, ErrInvalidInput
	}

	now := s.now().In(s.loc)
	n := notifications.Notification{
		Recipient:          recipient,
		Title:              AppointmentTitle,
		Body:               fmt.Sprintf("%s em 1 hora", title),
		Tag:                AppointmentTag(at),
		Icon:               DefaultIcon,
		RequireInteraction: true,
	}

	fireAt, ok := AppointmentFireTime(now, at)
	if !ok {
		s.log.Debug("appointment reminder skipped: less than lead time left", map[string]any{
			"tag":     n.Tag,
			"fire_at": fireAt,
		})
		return Reminder{
			Kind:      KindAppointment,
			Recipient: recipient,
			Tag:       n.Tag,
			FireAt:    fireAt.In(s.loc),
		}, nil
	}
	return s.arm(KindAppointment, n, now, fireAt.In(s.loc)), nil
}

func MedicationTag(name string, tod TimeOfDay) string {
	return fmt.Sprintf("medication-%s-%s", name, tod)
}

func AppointmentTag(at time.Time) string {
	return "appointment-" + at.UTC().Format(appointmentTagLayout)
}

func (s *Scheduler) arm(kind Kind, n notifications.Notification, now, fireAt time.Time) Reminder {
	r := Reminder{
		Kind:      kind,
		Recipient: n.Recipient,
		Tag:       n.Tag,
		FireAt:    fireAt,
		Delay:     fireAt.Sub(now),
	}

	if !s.Available() {
		s.log.Info("notifications unavailable, reminder ignored", map[string]any{
			"kind": string(kind),
			"tag":  n.Tag,
		})
		return r
	}

	s.after(r.Delay, func() { s.fire(kind, n) })
	r.Scheduled = true

	s.log.Debug("reminder scheduled", map[string]any{
		"kind":      string(kind),
		"tag":       n.Tag,
		"recipient": n.Recipient,
		"fire_at":   fireAt,
	})
	return r
}

// fire corre en la goroutine del timer. El permiso se consulta recién acá:
// si no está concedido, el disparo ocurre pero no se emite nada.
func (s *Scheduler) fire(kind Kind, n notifications.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), s.emitTimeout)
	defer cancel()

	fields := map[string]any{"kind": string(kind), "tag": n.Tag, "recipient": n.Recipient}

	perm, err := s.notifier.Permission(ctx, n.Recipient)
	if err != nil {
		s.log.Warn("reminder permission check failed", withErr(fields, err))
		return
	}
	if perm != notifications.PermissionGranted {
		s.log.Debug("reminder not emitted: permission "+string(perm), fields)
		return
	}

	n.EmittedAt = s.now()
	if _, err := s.notifier.Emit(ctx, n); err != nil {
		s.log.Warn("reminder emit failed", withErr(fields, err))
		return
	}
	s.log.Info("reminder emitted", fields)
}

func withErr(fields map[string]any, err error) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err
	return out
}
