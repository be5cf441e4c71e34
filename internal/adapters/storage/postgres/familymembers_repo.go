package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"family-care/internal/domain/familymembers"
)

type FamilyMembersRepo struct {
	db *sql.DB
}

func NewFamilyMembersRepo(db *sql.DB) *FamilyMembersRepo {
	return &FamilyMembersRepo{db: db}
}

const familyMemberColumns = `
	id, created_by, full_name, date_of_birth, blood_type,
	allergies, chronic_conditions,
	emergency_contact, emergency_phone,
	notes, avatar_url,
	created_at, updated_at`

func (r *FamilyMembersRepo) Create(ctx context.Context, m familymembers.FamilyMember) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO family_members (`+familyMemberColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		m.ID,
		m.CreatedBy,
		m.FullName,
		nullTime(m.DateOfBirth),
		nullString(string(m.BloodType)),
		pq.Array(m.Allergies),
		pq.Array(m.ChronicConditions),
		nullString(m.EmergencyContact),
		nullString(m.EmergencyPhone),
		nullString(m.Notes),
		nullString(m.AvatarURL),
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *FamilyMembersRepo) Update(ctx context.Context, m familymembers.FamilyMember) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE family_members SET
			full_name = $2,
			date_of_birth = $3,
			blood_type = $4,
			allergies = $5,
			chronic_conditions = $6,
			emergency_contact = $7,
			emergency_phone = $8,
			notes = $9,
			avatar_url = $10,
			updated_at = $11
		WHERE id = $1
	`,
		m.ID,
		m.FullName,
		nullTime(m.DateOfBirth),
		nullString(string(m.BloodType)),
		pq.Array(m.Allergies),
		pq.Array(m.ChronicConditions),
		nullString(m.EmergencyContact),
		nullString(m.EmergencyPhone),
		nullString(m.Notes),
		nullString(m.AvatarURL),
		m.UpdatedAt,
	)
	return expectOne(res, err, familymembers.ErrNotFound)
}

// Delete: citas, medicamentos, documentos y roles caen por ON DELETE CASCADE.
func (r *FamilyMembersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM family_members WHERE id = $1`, id)
	return expectOne(res, err, familymembers.ErrNotFound)
}

func (r *FamilyMembersRepo) GetByID(ctx context.Context, id string) (familymembers.FamilyMember, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return familymembers.FamilyMember{}, familymembers.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+familyMemberColumns+` FROM family_members WHERE id = $1`, id)
	m, err := scanFamilyMember(row)
	if err != nil {
		return familymembers.FamilyMember{}, noRows(err, familymembers.ErrNotFound)
	}
	return m, nil
}

func (r *FamilyMembersRepo) ListByIDs(ctx context.Context, ids []string) ([]familymembers.FamilyMember, error) {
	if len(ids) == 0 {
		return []familymembers.FamilyMember{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+familyMemberColumns+`
		FROM family_members
		WHERE id = ANY($1::uuid[])
		ORDER BY full_name ASC
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]familymembers.FamilyMember, 0)
	for rows.Next() {
		m, err := scanFamilyMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *FamilyMembersRepo) ListIDsByCreator(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM family_members
		WHERE created_by = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanFamilyMember(s rowScanner) (familymembers.FamilyMember, error) {
	var (
		m                                    familymembers.FamilyMember
		dob                                  sql.NullTime
		blood, contact, phone, notes, avatar sql.NullString
		allergies, conditions                pq.StringArray
	)
	if err := s.Scan(
		&m.ID,
		&m.CreatedBy,
		&m.FullName,
		&dob,
		&blood,
		&allergies,
		&conditions,
		&contact,
		&phone,
		&notes,
		&avatar,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return familymembers.FamilyMember{}, err
	}

	if dob.Valid {
		d := dateValue(dob.Time)
		m.DateOfBirth = &d
	}
	m.BloodType = familymembers.BloodType(blood.String)
	m.Allergies = []string(allergies)
	m.ChronicConditions = []string(conditions)
	m.EmergencyContact = contact.String
	m.EmergencyPhone = phone.String
	m.Notes = notes.String
	m.AvatarURL = avatar.String
	return m, nil
}
