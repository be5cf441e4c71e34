package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"family-care/internal/domain/appointments"
	"family-care/internal/domain/documents"
	"family-care/internal/domain/familymembers"
	"family-care/internal/domain/familyroles"
	"family-care/internal/domain/medications"
)

func TestFamilyMemberRepo(t *testing.T) {
	ctx := context.Background()
	r := NewFamilyMemberRepo()
	t0 := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, familymembers.FamilyMember{ID: "m1", CreatedBy: "u1", FullName: "Zélia", CreatedAt: t0, Allergies: []string{"dipirona"}}))
	require.NoError(t, r.Create(ctx, familymembers.FamilyMember{ID: "m2", CreatedBy: "u1", FullName: "ana", CreatedAt: t0.Add(time.Minute)}))
	require.NoError(t, r.Create(ctx, familymembers.FamilyMember{ID: "m3", CreatedBy: "u2", FullName: "Bruno", CreatedAt: t0}))
	assert.Error(t, r.Create(ctx, familymembers.FamilyMember{ID: "m1"}))

	ids, err := r.ListIDsByCreator(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)

	list, err := r.ListByIDs(ctx, []string{"m1", "m3", "m2", "m1", "missing"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "ana", list[0].FullName)
	assert.Equal(t, "Bruno", list[1].FullName)

	// Las listas se copian: mutar el resultado no toca el repo.
	list[2].Allergies[0] = "x"
	got, err := r.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"dipirona"}, got.Allergies)

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, familymembers.ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, familymembers.FamilyMember{ID: "missing"}), familymembers.ErrNotFound)
	require.NoError(t, r.Delete(ctx, "m1"))
	assert.ErrorIs(t, r.Delete(ctx, "m1"), familymembers.ErrNotFound)
}

func TestFamilyRoleRepo_UniquePerMemberAndUser(t *testing.T) {
	ctx := context.Background()
	r := NewFamilyRoleRepo()

	require.NoError(t, r.Create(ctx, familyroles.UserRole{ID: "r1", FamilyMemberID: "m1", UserID: "u2", Role: familyroles.RoleViewer}))
	assert.Error(t, r.Create(ctx, familyroles.UserRole{ID: "r2", FamilyMemberID: "m1", UserID: "u2", Role: familyroles.RoleAdmin}))

	got, err := r.GetByMemberAndUser(ctx, "m1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)

	_, err = r.GetByMemberAndUser(ctx, "m1", "u3")
	assert.ErrorIs(t, err, familyroles.ErrNotFound)

	byUser, err := r.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, byUser, 1)
}

func TestAppointmentRepo_RangeIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	r := NewAppointmentRepo()
	at := func(d int) time.Time { return time.Date(2026, 10, d, 9, 0, 0, 0, time.UTC) }

	for i, d := range []int{1, 15, 31} {
		require.NoError(t, r.Create(ctx, appointments.Appointment{ID: string(rune('a' + i)), FamilyMemberID: "m1", ScheduledAt: at(d)}))
	}
	require.NoError(t, r.Create(ctx, appointments.Appointment{ID: "z", FamilyMemberID: "m2", ScheduledAt: at(2)}))

	from, to := at(1), at(31)
	items, err := r.List(ctx, appointments.ListFilter{MemberIDs: []string{"m1"}, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)

	n, err := r.Count(ctx, appointments.ListFilter{MemberIDs: []string{"m1", "m2"}, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	items, err = r.List(ctx, appointments.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMedicationRepo_LogsNewestFirstAndCascade(t *testing.T) {
	ctx := context.Background()
	r := NewMedicationRepo()
	t0 := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, medications.Medication{ID: "med1", FamilyMemberID: "m1", Name: "Losartana", Active: true}))
	require.NoError(t, r.Create(ctx, medications.Medication{ID: "med2", FamilyMemberID: "m1", Name: "amoxicilina", Active: false}))

	active := true
	items, err := r.List(ctx, medications.ListFilter{MemberIDs: []string{"m1"}, Active: &active})
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = r.List(ctx, medications.ListFilter{MemberIDs: []string{"m1"}})
	require.NoError(t, err)
	assert.Equal(t, "amoxicilina", items[0].Name)

	require.NoError(t, r.CreateLog(ctx, medications.Log{ID: "l1", MedicationID: "med1", TakenAt: t0}))
	require.NoError(t, r.CreateLog(ctx, medications.Log{ID: "l2", MedicationID: "med1", TakenAt: t0.Add(12 * time.Hour)}))
	assert.ErrorIs(t, r.CreateLog(ctx, medications.Log{ID: "l3", MedicationID: "nope"}), medications.ErrNotFound)

	logs, err := r.ListLogs(ctx, "med1", 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "l2", logs[0].ID)

	require.NoError(t, r.Delete(ctx, "med1"))
	logs, err = r.ListLogs(ctx, "med1", 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestDocumentRepo_NewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewDocumentRepo()
	t0 := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, documents.Document{ID: "d1", FamilyMemberID: "m1", DocumentType: documents.TypeExam, CreatedAt: t0}))
	require.NoError(t, r.Create(ctx, documents.Document{ID: "d2", FamilyMemberID: "m1", DocumentType: documents.TypeReport, CreatedAt: t0.Add(time.Hour)}))

	items, err := r.List(ctx, documents.ListFilter{MemberIDs: []string{"m1"}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "d2", items[0].ID)

	exam := documents.TypeExam
	n, err := r.Count(ctx, documents.ListFilter{MemberIDs: []string{"m1"}, DocumentType: &exam})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, r.Delete(ctx, "nope"), documents.ErrNotFound)
}
