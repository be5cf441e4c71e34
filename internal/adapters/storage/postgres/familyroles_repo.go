package postgres

import (
	"context"
	"database/sql"

	"family-care/internal/domain/familyroles"
)

type FamilyRolesRepo struct {
	db *sql.DB
}

func NewFamilyRolesRepo(db *sql.DB) *FamilyRolesRepo {
	return &FamilyRolesRepo{db: db}
}

const userRoleColumns = `id, family_member_id, user_id, role, granted_by, created_at, updated_at`

func (r *FamilyRolesRepo) Create(ctx context.Context, ur familyroles.UserRole) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_roles (`+userRoleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		ur.ID,
		ur.FamilyMemberID,
		ur.UserID,
		string(ur.Role),
		nullString(ur.GrantedBy),
		ur.CreatedAt,
		ur.UpdatedAt,
	)
	return err
}

func (r *FamilyRolesRepo) Update(ctx context.Context, ur familyroles.UserRole) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_roles SET role = $2, granted_by = $3, updated_at = $4
		WHERE id = $1
	`, ur.ID, string(ur.Role), nullString(ur.GrantedBy), ur.UpdatedAt)
	return expectOne(res, err, familyroles.ErrNotFound)
}

func (r *FamilyRolesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE id = $1`, id)
	return expectOne(res, err, familyroles.ErrNotFound)
}

func (r *FamilyRolesRepo) GetByMemberAndUser(ctx context.Context, memberID, userID string) (familyroles.UserRole, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userRoleColumns+` FROM user_roles
		WHERE family_member_id = $1 AND user_id = $2
	`, memberID, userID)

	ur, err := scanUserRole(row)
	if err != nil {
		return familyroles.UserRole{}, noRows(err, familyroles.ErrNotFound)
	}
	return ur, nil
}

func (r *FamilyRolesRepo) ListByMember(ctx context.Context, memberID string) ([]familyroles.UserRole, error) {
	return r.list(ctx, `WHERE family_member_id = $1`, memberID)
}

func (r *FamilyRolesRepo) ListByUser(ctx context.Context, userID string) ([]familyroles.UserRole, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

func (r *FamilyRolesRepo) list(ctx context.Context, where string, arg string) ([]familyroles.UserRole, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userRoleColumns+` FROM user_roles `+where+` ORDER BY created_at ASC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]familyroles.UserRole, 0)
	for rows.Next() {
		ur, err := scanUserRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ur)
	}
	return out, rows.Err()
}

func scanUserRole(s rowScanner) (familyroles.UserRole, error) {
	var (
		ur        familyroles.UserRole
		role      string
		grantedBy sql.NullString
	)
	if err := s.Scan(&ur.ID, &ur.FamilyMemberID, &ur.UserID, &role, &grantedBy, &ur.CreatedAt, &ur.UpdatedAt); err != nil {
		return familyroles.UserRole{}, err
	}
	ur.Role = familyroles.Role(role)
	ur.GrantedBy = grantedBy.String
	return ur, nil
}
