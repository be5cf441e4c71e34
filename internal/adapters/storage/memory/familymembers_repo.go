package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"family-care/internal/domain/familymembers"
)

type familyMemberRepo struct {
	mu   sync.RWMutex
	byID map[string]familymembers.FamilyMember
}

func NewFamilyMemberRepo() familymembers.Repository {
	return &familyMemberRepo{
		byID: make(map[string]familymembers.FamilyMember),
	}
}

func (r *familyMemberRepo) Create(ctx context.Context, m familymembers.FamilyMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("family member id required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return errors.New("family member already exists")
	}
	r.byID[m.ID] = cloneMember(m)
	return nil
}

func (r *familyMemberRepo) Update(ctx context.Context, m familymembers.FamilyMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[m.ID]; !exists {
		return familymembers.ErrNotFound
	}
	r.byID[m.ID] = cloneMember(m)
	return nil
}

func (r *familyMemberRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return familymembers.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *familyMemberRepo) GetByID(ctx context.Context, id string) (familymembers.FamilyMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return familymembers.FamilyMember{}, familymembers.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *familyMemberRepo) ListByIDs(ctx context.Context, ids []string) ([]familymembers.FamilyMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]familymembers.FamilyMember, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if m, ok := r.byID[id]; ok {
			out = append(out, cloneMember(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].FullName) < strings.ToLower(out[j].FullName)
	})
	return out, nil
}

func (r *familyMemberRepo) ListIDsByCreator(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := make([]familymembers.FamilyMember, 0)
	for _, m := range r.byID {
		if m.CreatedBy == userID {
			owned = append(owned, m)
		}
	}
	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.Before(owned[j].CreatedAt) })

	out := make([]string, 0, len(owned))
	for _, m := range owned {
		out = append(out, m.ID)
	}
	return out, nil
}

func cloneMember(m familymembers.FamilyMember) familymembers.FamilyMember {
	m.Allergies = append([]string(nil), m.Allergies...)
	m.ChronicConditions = append([]string(nil), m.ChronicConditions...)
	return m
}
