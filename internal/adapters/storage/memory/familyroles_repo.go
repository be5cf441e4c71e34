package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"family-care/internal/domain/familyroles"
)

type familyRoleRepo struct {
	mu   sync.RWMutex
	byID map[string]familyroles.UserRole
}

func NewFamilyRoleRepo() familyroles.Repository {
	return &familyRoleRepo{
		byID: make(map[string]familyroles.UserRole),
	}
}

// Create respeta la unicidad (family_member_id, user_id) de la tabla.
func (r *familyRoleRepo) Create(ctx context.Context, ur familyroles.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[ur.ID]; exists {
		return errors.New("user role already exists")
	}
	for _, existing := range r.byID {
		if existing.FamilyMemberID == ur.FamilyMemberID && existing.UserID == ur.UserID {
			return errors.New("user already has a role for this family member")
		}
	}
	r.byID[ur.ID] = ur
	return nil
}

func (r *familyRoleRepo) Update(ctx context.Context, ur familyroles.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[ur.ID]; !exists {
		return familyroles.ErrNotFound
	}
	r.byID[ur.ID] = ur
	return nil
}

func (r *familyRoleRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return familyroles.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *familyRoleRepo) GetByMemberAndUser(ctx context.Context, memberID, userID string) (familyroles.UserRole, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ur := range r.byID {
		if ur.FamilyMemberID == memberID && ur.UserID == userID {
			return ur, nil
		}
	}
	return familyroles.UserRole{}, familyroles.ErrNotFound
}

func (r *familyRoleRepo) ListByMember(ctx context.Context, memberID string) ([]familyroles.UserRole, error) {
	return r.list(func(ur familyroles.UserRole) bool { return ur.FamilyMemberID == memberID }), nil
}

func (r *familyRoleRepo) ListByUser(ctx context.Context, userID string) ([]familyroles.UserRole, error) {
	return r.list(func(ur familyroles.UserRole) bool { return ur.UserID == userID }), nil
}

func (r *familyRoleRepo) list(match func(familyroles.UserRole) bool) []familyroles.UserRole {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]familyroles.UserRole, 0)
	for _, ur := range r.byID {
		if match(ur) {
			out = append(out, ur)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
