package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"family-care/internal/platform/logger"
	"family-care/internal/ports/notifications"
)

// -------------------------
// Fakes
// -------------------------

type fakeHandle struct{ tag string }

func (h fakeHandle) Tag() string                     { return h.tag }
func (h fakeHandle) Focus(ctx context.Context) error { return nil }
func (h fakeHandle) Close(ctx context.Context) error { return nil }

type fakeNotifier struct {
	mu       sync.Mutex
	perm     map[string]notifications.Permission
	emitted  []notifications.Notification
	requests int
	permErr  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{perm: map[string]notifications.Permission{}}
}

func (f *fakeNotifier) Permission(ctx context.Context, recipient string) (notifications.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.permErr != nil {
		return "", f.permErr
	}
	p, ok := f.perm[recipient]
	if !ok {
		return notifications.PermissionDefault, nil
	}
	return p, nil
}

func (f *fakeNotifier) RequestPermission(ctx context.Context, recipient string, answer notifications.Permission) (notifications.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	f.perm[recipient] = answer
	return answer, nil
}

func (f *fakeNotifier) Emit(ctx context.Context, n notifications.Notification) (notifications.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitted = append(f.emitted, n)
	return fakeHandle{tag: n.Tag}, nil
}

type armedTimer struct {
	d time.Duration
	f func()
}

type fakeTimers struct {
	armed []armedTimer
}

func (ft *fakeTimers) after(d time.Duration, f func()) {
	ft.armed = append(ft.armed, armedTimer{d: d, f: f})
}

func (ft *fakeTimers) fireAll() {
	for _, a := range ft.armed {
		a.f()
	}
	ft.armed = nil
}

func newTestScheduler(n notifications.Notifier, now time.Time) (*Scheduler, *fakeTimers) {
	s := NewScheduler(n, logger.Nop(), time.UTC)
	ft := &fakeTimers{}
	s.now = func() time.Time { return now }
	s.after = ft.after
	return s, ft
}

func clock(hh, mm int) time.Time {
	return time.Date(2026, 10, 19, hh, mm, 0, 0, time.UTC)
}

// -------------------------
// Medication
// -------------------------

func TestScheduleMedication_PastTimeRollsToTomorrow(t *testing.T) {
	n := newFakeNotifier()
	s, ft := newTestScheduler(n, clock(10, 0))

	r, err := s.ScheduleMedication("u1", "Losartana", "09:00")
	require.NoError(t, err)

	assert.True(t, r.Scheduled)
	assert.Equal(t, time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC), r.FireAt)
	assert.Equal(t, 23*time.Hour, r.Delay)
	require.Len(t, ft.armed, 1)
	assert.Equal(t, 23*time.Hour, ft.armed[0].d)
}

func TestScheduleMedication_FutureTimeSameDay(t *testing.T) {
	n := newFakeNotifier()
	s, ft := newTestScheduler(n, clock(10, 0))

	r, err := s.ScheduleMedication("u1", "Losartana", "14:00")
	require.NoError(t, err)

	assert.Equal(t, clock(14, 0), r.FireAt)
	assert.Equal(t, 4*time.Hour, r.Delay)
	require.Len(t, ft.armed, 1)
}

func TestScheduleMedication_ExactlyNowIsTomorrow(t *testing.T) {
	s, _ := newTestScheduler(newFakeNotifier(), clock(10, 0))

	r, err := s.ScheduleMedication("u1", "Losartana", "10:00")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, r.Delay)
}

func TestScheduleMedication_FireTimeWithinADay(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 17, 42, 0, time.UTC)
	s, _ := newTestScheduler(newFakeNotifier(), now)

	for h := 0; h < 24; h++ {
		for _, m := range []int{0, 17, 18, 59} {
			tod := TimeOfDay{Hour: h, Minute: m}
			r, err := s.ScheduleMedication("u1", "X", tod.String())
			require.NoError(t, err)
			assert.True(t, r.FireAt.After(now), tod.String())
			assert.LessOrEqual(t, r.Delay, 24*time.Hour, tod.String())
		}
	}
}

func TestScheduleMedication_PayloadAndEmission(t *testing.T) {
	n := newFakeNotifier()
	n.perm["u1"] = notifications.PermissionGranted
	s, ft := newTestScheduler(n, clock(10, 0))

	_, err := s.ScheduleMedication("u1", "Losartana", "14:00")
	require.NoError(t, err)
	require.Len(t, ft.armed, 1)

	ft.fireAll()

	require.Len(t, n.emitted, 1)
	got := n.emitted[0]
	assert.Equal(t, "u1", got.Recipient)
	assert.Equal(t, MedicationTitle, got.Title)
	assert.Equal(t, "É hora de tomar Losartana", got.Body)
	assert.Equal(t, "medication-Losartana-14:00", got.Tag)
	assert.Equal(t, DefaultIcon, got.Icon)
	assert.True(t, got.RequireInteraction)
	assert.Equal(t, clock(10, 0), got.EmittedAt)
}

func TestScheduleMedication_InvalidTimeSchedulesNothing(t *testing.T) {
	n := newFakeNotifier()
	s, ft := newTestScheduler(n, clock(10, 0))

	for _, in := range []string{"", "9:00", "24:00", "12:60", "ab:cd", "12-30", "12:30:99"} {
		_, err := s.ScheduleMedication("u1", "Losartana", in)
		assert.ErrorIs(t, err, ErrInvalidTimeOfDay, in)
	}
	assert.Empty(t, ft.armed)
}

// -------------------------
// Appointment
// -------------------------

func TestScheduleAppointment_WithinLeadIsNoop(t *testing.T) {
	n := newFakeNotifier()
	s, ft := newTestScheduler(n, clock(10, 0))

	r, err := s.ScheduleAppointment("u1", "Cardiologista", clock(10, 30))
	require.NoError(t, err)

	assert.False(t, r.Scheduled)
	assert.Equal(t, clock(9, 30), r.FireAt)
	assert.Empty(t, ft.armed)
}

func TestScheduleAppointment_ExactlyOneHourAheadIsNoop(t *testing.T) {
	s, ft := newTestScheduler(newFakeNotifier(), clock(10, 0))

	r, err := s.ScheduleAppointment("u1", "Cardiologista", clock(11, 0))
	require.NoError(t, err)
	assert.False(t, r.Scheduled)
	assert.Empty(t, ft.armed)
}

func TestScheduleAppointment_FiresOneHourBefore(t *testing.T) {
	n := newFakeNotifier()
	n.perm["u1"] = notifications.PermissionGranted
	s, ft := newTestScheduler(n, clock(10, 0))

	r, err := s.ScheduleAppointment("u1", "Cardiologista", clock(12, 0))
	require.NoError(t, err)

	assert.True(t, r.Scheduled)
	assert.Equal(t, clock(11, 0), r.FireAt)
	assert.Equal(t, time.Hour, r.Delay)

	ft.fireAll()
	require.Len(t, n.emitted, 1)
	assert.Equal(t, AppointmentTitle, n.emitted[0].Title)
	assert.Equal(t, "Cardiologista em 1 hora", n.emitted[0].Body)
	assert.Equal(t, "appointment-2026-10-19T12:00:00.000Z", n.emitted[0].Tag)
}

func TestAppointmentTag_NormalizesToUTC(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, brt)
	assert.Equal(t, "appointment-2026-10-19T12:00:00.000Z", AppointmentTag(at))
}

// -------------------------
// Permission gating
// -------------------------

func TestFire_PermissionDeniedEmitsNothing(t *testing.T) {
	n := newFakeNotifier()
	n.perm["u1"] = notifications.PermissionDenied
	s, ft := newTestScheduler(n, clock(10, 0))

	r, err := s.ScheduleMedication("u1", "Losartana", "14:00")
	require.NoError(t, err)
	assert.True(t, r.Scheduled)

	ft.fireAll()
	assert.Empty(t, n.emitted)
}

func TestFire_PermissionDefaultEmitsNothing(t *testing.T) {
	n := newFakeNotifier()
	s, ft := newTestScheduler(n, clock(10, 0))

	_, err := s.ScheduleAppointment("u1", "Exame", clock(15, 0))
	require.NoError(t, err)

	ft.fireAll()
	assert.Empty(t, n.emitted)
	assert.Zero(t, n.requests, "scheduling must never ask for permission")
}

func TestFire_PermissionErrorIsLoggedNotPanicked(t *testing.T) {
	n := newFakeNotifier()
	n.permErr = errors.New("boom")
	s, ft := newTestScheduler(n, clock(10, 0))

	_, err := s.ScheduleMedication("u1", "Losartana", "14:00")
	require.NoError(t, err)

	assert.NotPanics(t, ft.fireAll)
	assert.Empty(t, n.emitted)
}

func TestNoCapability_IsNoop(t *testing.T) {
	s, ft := newTestScheduler(nil, clock(10, 0))

	r, err := s.ScheduleMedication("u1", "Losartana", "14:00")
	require.NoError(t, err)
	assert.False(t, r.Scheduled)
	assert.Equal(t, clock(14, 0), r.FireAt)

	r, err = s.ScheduleAppointment("u1", "Exame", clock(15, 0))
	require.NoError(t, err)
	assert.False(t, r.Scheduled)

	assert.Empty(t, ft.armed)
	assert.False(t, s.Available())

	_, err = s.Permission(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRequestPermission_OnlyFromDefault(t *testing.T) {
	ctx := context.Background()
	n := newFakeNotifier()
	s, _ := newTestScheduler(n, clock(10, 0))

	got, err := s.RequestPermission(ctx, "u1", notifications.PermissionDenied)
	require.NoError(t, err)
	assert.Equal(t, notifications.PermissionDenied, got)
	assert.Equal(t, 1, n.requests)

	// Una vez denegado no se vuelve a preguntar.
	got, err = s.RequestPermission(ctx, "u1", notifications.PermissionGranted)
	require.NoError(t, err)
	assert.Equal(t, notifications.PermissionDenied, got)
	assert.Equal(t, 1, n.requests)

	got, err = s.RequestPermission(ctx, "u2", notifications.PermissionGranted)
	require.NoError(t, err)
	assert.Equal(t, notifications.PermissionGranted, got)

	got, err = s.RequestPermission(ctx, "u2", notifications.PermissionDenied)
	require.NoError(t, err)
	assert.Equal(t, notifications.PermissionGranted, got)
	assert.Equal(t, 2, n.requests)
}

func TestRequestPermission_InvalidAnswer(t *testing.T) {
	s, _ := newTestScheduler(newFakeNotifier(), clock(10, 0))

	_, err := s.RequestPermission(context.Background(), "u1", notifications.Permission("maybe"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := s.RequestPermission(context.Background(), "u1", notifications.PermissionDefault)
	require.NoError(t, err)
	assert.Equal(t, notifications.PermissionDefault, got)
}
