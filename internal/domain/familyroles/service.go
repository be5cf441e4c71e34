package familyroles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo  Repository
	guard *Guard
	now   func() time.Time
}

func NewService(repo Repository, guard *Guard) *Service {
	return &Service{
		repo:  repo,
		guard: guard,
		now:   time.Now,
	}
}

func (s *Service) Guard() *Guard { return s.guard }

type AssignInput struct {
	MemberID  string
	UserID    string
	Role      Role
	GrantedBy string
}

// Assign crea o actualiza el rol de UserID sobre el familiar.
// Solo el owner o un admin pueden asignar roles.
func (s *Service) Assign(ctx context.Context, in AssignInput) (UserRole, error) {
	memberID := strings.TrimSpace(in.MemberID)
	userID := strings.TrimSpace(in.UserID)
	grantedBy := strings.TrimSpace(in.GrantedBy)
	role := Role(strings.ToLower(strings.TrimSpace(string(in.Role))))

	if memberID == "" || userID == "" || grantedBy == "" || !role.Valid() {
		return UserRole{}, ErrInvalidInput
	}

	if err := s.guard.Authorize(ctx, memberID, grantedBy, ActionManage); err != nil {
		return UserRole{}, err
	}

	// El owner no necesita rol.
	owner, err := s.guard.owners.OwnerOf(ctx, memberID)
	if err != nil {
		return UserRole{}, err
	}
	if owner == userID {
		return UserRole{}, ErrInvalidInput
	}

	now := s.now()

	existing, err := s.repo.GetByMemberAndUser(ctx, memberID, userID)
	switch {
	case err == nil:
		existing.Role = role
		existing.GrantedBy = grantedBy
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return UserRole{}, err
		}
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return UserRole{}, err
	}

	r := UserRole{
		ID:             uuid.NewString(),
		FamilyMemberID: memberID,
		UserID:         userID,
		Role:           role,
		GrantedBy:      grantedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return UserRole{}, err
	}
	return r, nil
}

func (s *Service) ListByMember(ctx context.Context, memberID, requesterID string) ([]UserRole, error) {
	if err := s.guard.Authorize(ctx, memberID, requesterID, ActionRead); err != nil {
		return nil, err
	}
	return s.repo.ListByMember(ctx, strings.TrimSpace(memberID))
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]UserRole, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByUser(ctx, userID)
}

// Revoke quita el rol. Cualquiera puede quitarse su propio rol; para
// quitar el de otro hace falta manage.
func (s *Service) Revoke(ctx context.Context, memberID, userID, requesterID string) error {
	memberID = strings.TrimSpace(memberID)
	userID = strings.TrimSpace(userID)
	requesterID = strings.TrimSpace(requesterID)
	if memberID == "" || userID == "" || requesterID == "" {
		return ErrInvalidInput
	}

	if requesterID != userID {
		if err := s.guard.Authorize(ctx, memberID, requesterID, ActionManage); err != nil {
			return err
		}
	}

	r, err := s.repo.GetByMemberAndUser(ctx, memberID, userID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, r.ID)
}
