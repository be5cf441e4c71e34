package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"family-care/internal/domain/medications"
	"family-care/internal/reminders"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

const medicationColumns = `
	id, family_member_id, name, dosage, frequency, times,
	start_date, end_date, instructions, active,
	created_by, created_at, updated_at`

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		m.ID,
		m.FamilyMemberID,
		m.Name,
		m.Dosage,
		string(m.Frequency),
		pq.Array(m.Times),
		dateValue(m.StartDate),
		nullTime(m.EndDate),
		nullString(m.Instructions),
		m.Active,
		m.CreatedBy,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicationsRepo) Update(ctx context.Context, m medications.Medication) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications SET
			name = $2,
			dosage = $3,
			frequency = $4,
			times = $5,
			start_date = $6,
			end_date = $7,
			instructions = $8,
			active = $9,
			updated_at = $10
		WHERE id = $1
	`,
		m.ID,
		m.Name,
		m.Dosage,
		string(m.Frequency),
		pq.Array(m.Times),
		dateValue(m.StartDate),
		nullTime(m.EndDate),
		nullString(m.Instructions),
		m.Active,
		m.UpdatedAt,
	)
	return expectOne(res, err, medications.ErrNotFound)
}

func (r *MedicationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	return expectOne(res, err, medications.ErrNotFound)
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, medications.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id)
	m, err := scanMedication(row)
	if err != nil {
		return medications.Medication{}, noRows(err, medications.ErrNotFound)
	}
	return m, nil
}

func (r *MedicationsRepo) List(ctx context.Context, filter medications.ListFilter) ([]medications.Medication, error) {
	if len(filter.MemberIDs) == 0 {
		return []medications.Medication{}, nil
	}
	where, args := medicationWhere(filter)

	rows, err := r.db.QueryContext(ctx, `SELECT `+medicationColumns+` FROM medications`+where+` ORDER BY name ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MedicationsRepo) Count(ctx context.Context, filter medications.ListFilter) (int, error) {
	if len(filter.MemberIDs) == 0 {
		return 0, nil
	}
	where, args := medicationWhere(filter)

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM medications`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *MedicationsRepo) CreateLog(ctx context.Context, l medications.Log) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medication_logs (id, medication_id, scheduled_time, taken_at, confirmed_by, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		l.ID,
		l.MedicationID,
		l.ScheduledTime,
		l.TakenAt,
		nullString(l.ConfirmedBy),
		nullString(l.Notes),
		l.CreatedAt,
	)
	return foreignKeyNotFound(err, medications.ErrNotFound)
}

func (r *MedicationsRepo) ListLogs(ctx context.Context, medicationID string, limit int) ([]medications.Log, error) {
	q := `
		SELECT id, medication_id, scheduled_time, taken_at, confirmed_by, notes, created_at
		FROM medication_logs
		WHERE medication_id = $1
		ORDER BY taken_at DESC NULLS LAST, created_at DESC`
	args := []any{medicationID}
	if limit > 0 {
		q += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Log, 0)
	for rows.Next() {
		var (
			l           medications.Log
			takenAt     sql.NullTime
			confirmedBy sql.NullString
			notes       sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.MedicationID, &l.ScheduledTime, &takenAt, &confirmedBy, &notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.TakenAt = takenAt.Time
		l.ConfirmedBy = confirmedBy.String
		l.Notes = notes.String
		out = append(out, l)
	}
	return out, rows.Err()
}

func medicationWhere(filter medications.ListFilter) (string, []any) {
	where := " WHERE family_member_id = ANY($1::uuid[])"
	args := []any{pq.Array(filter.MemberIDs)}
	if filter.Active != nil {
		where += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	return where, args
}

func scanMedication(s rowScanner) (medications.Medication, error) {
	var (
		m            medications.Medication
		frequency    string
		times        pq.StringArray
		endDate      sql.NullTime
		instructions sql.NullString
	)
	if err := s.Scan(
		&m.ID,
		&m.FamilyMemberID,
		&m.Name,
		&m.Dosage,
		&frequency,
		&times,
		&m.StartDate,
		&endDate,
		&instructions,
		&m.Active,
		&m.CreatedBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medications.Medication{}, err
	}

	m.Frequency = medications.Frequency(frequency)
	m.StartDate = dateValue(m.StartDate)
	if endDate.Valid {
		d := dateValue(endDate.Time)
		m.EndDate = &d
	}
	m.Instructions = instructions.String

	// Columnas time[] de instalaciones viejas vuelven como HH:MM:SS.
	m.Times = make([]string, 0, len(times))
	for _, t := range times {
		if tod, err := reminders.ParseTimeOfDay(t); err == nil {
			m.Times = append(m.Times, tod.String())
		}
	}
	return m, nil
}
