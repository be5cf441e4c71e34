package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"family-care/internal/domain/appointments"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

const appointmentColumns = `
	id, family_member_id, title, appointment_date,
	doctor_name, specialty, location, duration_minutes,
	notes, reminder_sent,
	created_by, created_at, updated_at`

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		a.ID,
		a.FamilyMemberID,
		a.Title,
		a.ScheduledAt,
		nullString(a.DoctorName),
		nullString(a.Specialty),
		nullString(a.Location),
		a.DurationMinutes,
		nullString(a.Notes),
		a.ReminderSent,
		a.CreatedBy,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments SET
			title = $2,
			appointment_date = $3,
			doctor_name = $4,
			specialty = $5,
			location = $6,
			duration_minutes = $7,
			notes = $8,
			reminder_sent = $9,
			updated_at = $10
		WHERE id = $1
	`,
		a.ID,
		a.Title,
		a.ScheduledAt,
		nullString(a.DoctorName),
		nullString(a.Specialty),
		nullString(a.Location),
		a.DurationMinutes,
		nullString(a.Notes),
		a.ReminderSent,
		a.UpdatedAt,
	)
	return expectOne(res, err, appointments.ErrNotFound)
}

func (r *AppointmentsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return expectOne(res, err, appointments.ErrNotFound)
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return appointments.Appointment{}, appointments.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		return appointments.Appointment{}, noRows(err, appointments.ErrNotFound)
	}
	return a, nil
}

func (r *AppointmentsRepo) List(ctx context.Context, filter appointments.ListFilter) ([]appointments.Appointment, error) {
	if len(filter.MemberIDs) == 0 {
		return []appointments.Appointment{}, nil
	}

	where, args := appointmentWhere(filter)
	q := `SELECT ` + appointmentColumns + ` FROM appointments` + where + ` ORDER BY appointment_date ASC, id ASC`
	if filter.Limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AppointmentsRepo) Count(ctx context.Context, filter appointments.ListFilter) (int, error) {
	if len(filter.MemberIDs) == 0 {
		return 0, nil
	}
	where, args := appointmentWhere(filter)

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM appointments`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// appointmentWhere arma el WHERE con placeholders $n; To es exclusivo.
func appointmentWhere(filter appointments.ListFilter) (string, []any) {
	sb := strings.Builder{}
	sb.WriteString(" WHERE family_member_id = ANY($1::uuid[])")
	args := []any{pq.Array(filter.MemberIDs)}
	argN := 2

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND appointment_date >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND appointment_date < $%d", argN))
		args = append(args, *filter.To)
	}
	return sb.String(), args
}

func scanAppointment(s rowScanner) (appointments.Appointment, error) {
	var (
		a                                  appointments.Appointment
		doctor, specialty, location, notes sql.NullString
		duration                           sql.NullInt64
	)
	if err := s.Scan(
		&a.ID,
		&a.FamilyMemberID,
		&a.Title,
		&a.ScheduledAt,
		&doctor,
		&specialty,
		&location,
		&duration,
		&notes,
		&a.ReminderSent,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return appointments.Appointment{}, err
	}

	a.DoctorName = doctor.String
	a.Specialty = specialty.String
	a.Location = location.String
	a.DurationMinutes = int(duration.Int64)
	a.Notes = notes.String
	return a, nil
}
