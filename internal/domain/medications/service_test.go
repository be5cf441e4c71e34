package medications

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"family-care/internal/reminders"
)

type testRepo struct {
	byID map[string]Medication
	logs []Log
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Medication{}}
}

func (r *testRepo) Create(ctx context.Context, m Medication) error {
	r.byID[m.ID] = m
	return nil
}

func (r *testRepo) Update(ctx context.Context, m Medication) error {
	if _, ok := r.byID[m.ID]; !ok {
		return ErrNotFound
	}
	r.byID[m.ID] = m
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Medication, error) {
	m, ok := r.byID[id]
	if !ok {
		return Medication{}, ErrNotFound
	}
	return m, nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Medication, error) {
	members := map[string]bool{}
	for _, id := range f.MemberIDs {
		members[id] = true
	}
	out := make([]Medication, 0)
	for _, m := range r.byID {
		if !members[m.FamilyMemberID] {
			continue
		}
		if f.Active != nil && m.Active != *f.Active {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *testRepo) Count(ctx context.Context, f ListFilter) (int, error) {
	items, _ := r.List(ctx, f)
	return len(items), nil
}

func (r *testRepo) CreateLog(ctx context.Context, l Log) error {
	r.logs = append(r.logs, l)
	return nil
}

func (r *testRepo) ListLogs(ctx context.Context, medicationID string, limit int) ([]Log, error) {
	out := make([]Log, 0)
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.logs[i].MedicationID == medicationID {
			out = append(out, r.logs[i])
		}
	}
	return out, nil
}

type fakeScheduler struct {
	calls []string
}

func (f *fakeScheduler) ScheduleMedication(recipient, name, hhmm string) (reminders.Reminder, error) {
	if _, err := reminders.ParseTimeOfDay(hhmm); err != nil {
		return reminders.Reminder{}, err
	}
	f.calls = append(f.calls, name+"@"+hhmm)
	return reminders.Reminder{
		Kind:      reminders.KindMedication,
		Recipient: recipient,
		Tag:       "medication-" + name + "-" + hhmm,
		Scheduled: true,
	}, nil
}

var brt = time.FixedZone("BRT", -3*3600)

func newTestService(now time.Time) (*Service, *testRepo, *fakeScheduler) {
	repo := newTestRepo()
	sched := &fakeScheduler{}
	svc := NewService(repo, sched, brt)
	svc.now = func() time.Time { return now }
	return svc, repo, sched
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCreate_DefaultsAndNormalization(t *testing.T) {
	// 01:30 UTC del 20/oct todavía es 19/oct en BRT.
	now := time.Date(2026, 10, 20, 1, 30, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)

	m, err := svc.Create(context.Background(), "u1", CreateInput{
		FamilyMemberID: "m1",
		Name:           "  Losartana ",
		Dosage:         "50mg",
		Times:          []string{"20:00", "08:00", "08:00:00", " "},
	})
	require.NoError(t, err)

	assert.Equal(t, "Losartana", m.Name)
	assert.Equal(t, FrequencyDaily, m.Frequency)
	assert.Equal(t, []string{"08:00", "20:00"}, m.Times)
	assert.Equal(t, *date(2026, 10, 19), m.StartDate)
	assert.True(t, m.Active)
	assert.True(t, m.Continuous())
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	base := CreateInput{FamilyMemberID: "m1", Name: "Dipirona", Dosage: "1g", Times: []string{"08:00"}}

	cases := map[string]func(in *CreateInput){
		"no member":        func(in *CreateInput) { in.FamilyMemberID = "" },
		"no name":          func(in *CreateInput) { in.Name = "" },
		"no dosage":        func(in *CreateInput) { in.Dosage = "" },
		"bad frequency":    func(in *CreateInput) { in.Frequency = "hourly" },
		"bad time":         func(in *CreateInput) { in.Times = []string{"8h"} },
		"no times daily":   func(in *CreateInput) { in.Times = nil },
		"end before start": func(in *CreateInput) { in.StartDate = date(2026, 10, 10); in.EndDate = date(2026, 10, 9) },
	}
	for name, mutate := range cases {
		in := base
		mutate(&in)
		_, err := svc.Create(ctx, "u1", in)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}

	// as_needed también exige al menos una hora.
	in := base
	in.Frequency = "AS_NEEDED"
	in.Times = nil
	_, err := svc.Create(ctx, "u1", in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in.Times = []string{"22:00"}
	m, err := svc.Create(ctx, "u1", in)
	require.NoError(t, err)
	assert.Equal(t, FrequencyAsNeeded, m.Frequency)
	assert.Equal(t, []string{"22:00"}, m.Times)
}

func TestUpdate_ClearsEndDateAndDeactivates(t *testing.T) {
	svc, _, _ := newTestService(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	m, err := svc.Create(ctx, "u1", CreateInput{
		FamilyMemberID: "m1", Name: "Amoxicilina", Dosage: "500mg",
		Times: []string{"08:00", "16:00", "00:00"}, EndDate: date(2026, 10, 26),
	})
	require.NoError(t, err)
	assert.False(t, m.Continuous())

	inactive := false
	got, err := svc.Update(ctx, m.ID, UpdateInput{EndDate: PatchDate{Present: true}, Active: &inactive})
	require.NoError(t, err)
	assert.True(t, got.Continuous())
	assert.False(t, got.Active)

	empty := []string{}
	_, err = svc.Update(ctx, m.ID, UpdateInput{Times: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	asNeeded := "as_needed"
	_, err = svc.Update(ctx, m.ID, UpdateInput{Frequency: &asNeeded, Times: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(ctx, "missing", UpdateInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogDose(t *testing.T) {
	now := time.Date(2026, 10, 19, 11, 5, 0, 0, time.UTC) // 08:05 BRT
	svc, repo, _ := newTestService(now)
	ctx := context.Background()

	m, err := svc.Create(ctx, "u1", CreateInput{
		FamilyMemberID: "m1", Name: "Losartana", Dosage: "50mg", Times: []string{"08:00", "20:00"},
	})
	require.NoError(t, err)

	l, err := svc.LogDose(ctx, m.ID, "u2", LogInput{Time: "08:00", Notes: " ok "})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 19, 8, 0, 0, 0, brt), l.ScheduledTime)
	assert.Equal(t, now, l.TakenAt)
	assert.Equal(t, "u2", l.ConfirmedBy)
	assert.Equal(t, "ok", l.Notes)
	assert.Len(t, repo.logs, 1)

	_, err = svc.LogDose(ctx, m.ID, "u2", LogInput{Time: "12:00"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	logs, err := svc.ListLogs(ctx, m.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, l.ID, logs[0].ID)
}

func TestLogDose_NotInEffect(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	ctx := context.Background()

	future, err := svc.Create(ctx, "u1", CreateInput{
		FamilyMemberID: "m1", Name: "Vitamina D", Dosage: "1 gota", Times: []string{"09:00"},
		StartDate: date(2026, 11, 1),
	})
	require.NoError(t, err)
	_, err = svc.LogDose(ctx, future.ID, "u1", LogInput{Time: "09:00"})
	assert.ErrorIs(t, err, ErrNotInEffect)

	ended, err := svc.Create(ctx, "u1", CreateInput{
		FamilyMemberID: "m1", Name: "Amoxicilina", Dosage: "500mg", Times: []string{"09:00"},
		StartDate: date(2026, 10, 1), EndDate: date(2026, 10, 18),
	})
	require.NoError(t, err)
	_, err = svc.ScheduleReminders(ctx, ended.ID, "u1", "")
	assert.ErrorIs(t, err, ErrNotInEffect)
}

func TestScheduleReminders(t *testing.T) {
	svc, _, sched := newTestService(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	m, err := svc.Create(ctx, "u1", CreateInput{
		FamilyMemberID: "m1", Name: "Losartana", Dosage: "50mg", Times: []string{"20:00", "08:00"},
	})
	require.NoError(t, err)

	got, err := svc.ScheduleReminders(ctx, m.ID, "u1", "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Losartana@08:00", "Losartana@20:00"}, sched.calls)

	got, err = svc.ScheduleReminders(ctx, m.ID, "u1", "20:00")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "medication-Losartana-20:00", got[0].Tag)

	_, err = svc.ScheduleReminders(ctx, m.ID, "u1", "13:00")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInEffectOn(t *testing.T) {
	m := Medication{Active: true, StartDate: *date(2026, 10, 1), EndDate: date(2026, 10, 31)}

	assert.False(t, m.InEffectOn(time.Date(2026, 9, 30, 23, 0, 0, 0, time.UTC)))
	assert.True(t, m.InEffectOn(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, m.InEffectOn(time.Date(2026, 10, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, m.InEffectOn(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)))

	m.Active = false
	assert.False(t, m.InEffectOn(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)))
}

func TestCountActive_EmptyMembers(t *testing.T) {
	svc, _, _ := newTestService(time.Now())
	n, err := svc.CountActive(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
