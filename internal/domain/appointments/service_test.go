package appointments

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"family-care/internal/calendar"
	"family-care/internal/reminders"
)

type testRepo struct {
	byID    map[string]Appointment
	filters []ListFilter
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Appointment{}}
}

func (r *testRepo) Create(ctx context.Context, a Appointment) error {
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) Update(ctx context.Context, a Appointment) error {
	if _, ok := r.byID[a.ID]; !ok {
		return ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	r.filters = append(r.filters, f)
	members := map[string]bool{}
	for _, id := range f.MemberIDs {
		members[id] = true
	}
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		if !members[a.FamilyMemberID] {
			continue
		}
		if f.From != nil && a.ScheduledAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !a.ScheduledAt.Before(*f.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *testRepo) Count(ctx context.Context, f ListFilter) (int, error) {
	items, _ := r.List(ctx, f)
	return len(items), nil
}

type fakeScheduler struct {
	now   time.Time
	calls int
}

func (f *fakeScheduler) ScheduleAppointment(recipient, title string, at time.Time) (reminders.Reminder, error) {
	f.calls++
	fire, ok := reminders.AppointmentFireTime(f.now, at)
	return reminders.Reminder{
		Kind:      reminders.KindAppointment,
		Recipient: recipient,
		Tag:       reminders.AppointmentTag(at),
		FireAt:    fire,
		Scheduled: ok,
	}, nil
}

func newTestService(now time.Time) (*Service, *testRepo, *fakeScheduler) {
	repo := newTestRepo()
	sched := &fakeScheduler{now: now}
	svc := NewService(repo, sched)
	svc.now = func() time.Time { return now }
	return svc, repo, sched
}

func TestService_Create_DefaultsAndValidation(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", CreateInput{
		FamilyMemberID: "mom",
		Title:          " Cardiologista ",
		ScheduledAt:    now.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Cardiologista", a.Title)
	assert.Equal(t, DefaultDurationMinutes, a.DurationMinutes)
	assert.False(t, a.ReminderSent)

	_, err = svc.Create(ctx, "u1", CreateInput{FamilyMemberID: "mom", Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, "u1", CreateInput{FamilyMemberID: "mom", Title: "x", ScheduledAt: now, DurationMinutes: -5})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_ScheduleReminder_MarksSent(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	svc, repo, sched := newTestService(now)
	ctx := context.Background()

	soon, _ := svc.Create(ctx, "u1", CreateInput{FamilyMemberID: "mom", Title: "Exame", ScheduledAt: now.Add(30 * time.Minute)})
	later, _ := svc.Create(ctx, "u1", CreateInput{FamilyMemberID: "mom", Title: "Cardio", ScheduledAt: now.Add(2 * time.Hour)})

	r, err := svc.ScheduleReminder(ctx, soon.ID, "u1")
	require.NoError(t, err)
	assert.False(t, r.Scheduled)
	assert.False(t, repo.byID[soon.ID].ReminderSent)

	r, err = svc.ScheduleReminder(ctx, later.ID, "u1")
	require.NoError(t, err)
	assert.True(t, r.Scheduled)
	assert.Equal(t, now.Add(time.Hour), r.FireAt)
	assert.True(t, repo.byID[later.ID].ReminderSent)
	assert.Equal(t, 2, sched.calls)

	// Mover la cita resetea el flag.
	moved := now.Add(5 * time.Hour)
	updated, err := svc.Update(ctx, later.ID, UpdateInput{ScheduledAt: &moved})
	require.NoError(t, err)
	assert.False(t, updated.ReminderSent)

	_, err = svc.ScheduleReminder(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Calendar_FetchesOnlyGridRange(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(now)
	ctx := context.Background()

	mk := func(member, title string, at time.Time) {
		_, err := svc.Create(ctx, "u1", CreateInput{FamilyMemberID: member, Title: title, ScheduledAt: at})
		require.NoError(t, err)
	}
	mk("mom", "a", time.Date(2026, 10, 6, 8, 0, 0, 0, time.UTC))
	mk("mom", "b", time.Date(2026, 10, 6, 9, 0, 0, 0, time.UTC))
	mk("mom", "c", time.Date(2026, 10, 6, 10, 0, 0, 0, time.UTC))
	mk("mom", "sep", time.Date(2026, 9, 27, 10, 0, 0, 0, time.UTC))
	mk("mom", "out", time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC))
	mk("dad", "other", time.Date(2026, 10, 6, 11, 0, 0, 0, time.UTC))

	m, err := svc.Calendar(ctx, []string{"mom"}, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), calendar.Options{})
	require.NoError(t, err)

	require.Len(t, repo.filters, 1)
	f := repo.filters[0]
	assert.Equal(t, time.Date(2026, 9, 27, 0, 0, 0, 0, time.UTC), *f.From)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), *f.To)

	total := 0
	for _, c := range m.Cells {
		total += len(c.Entries)
		if c.Date.Equal(time.Date(2026, 10, 6, 0, 0, 0, 0, time.UTC)) {
			require.Len(t, c.Visible, 2)
			assert.Equal(t, "a", c.Visible[0].Title)
			assert.Equal(t, "+1 mais", c.OverflowLabel())
		}
		if c.Date.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) {
			assert.True(t, c.IsToday)
		}
	}
	assert.Equal(t, 4, total)
}

func TestService_CountUpcoming(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	ctx := context.Background()

	_, _ = svc.Create(ctx, "u1", CreateInput{FamilyMemberID: "mom", Title: "past", ScheduledAt: now.Add(-time.Hour)})
	_, _ = svc.Create(ctx, "u1", CreateInput{FamilyMemberID: "mom", Title: "now", ScheduledAt: now})
	_, _ = svc.Create(ctx, "u1", CreateInput{FamilyMemberID: "mom", Title: "next", ScheduledAt: now.Add(time.Hour)})

	n, err := svc.CountUpcoming(ctx, []string{"mom"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.CountUpcoming(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
