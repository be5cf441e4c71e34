package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"family-care/internal/domain/medications"
)

type medicationRepo struct {
	mu   sync.RWMutex
	byID map[string]medications.Medication
	logs []medications.Log // append-only
}

func NewMedicationRepo() medications.Repository {
	return &medicationRepo{
		byID: make(map[string]medications.Medication),
	}
}

func (r *medicationRepo) Create(ctx context.Context, m medications.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medication id required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return errors.New("medication already exists")
	}
	m.Times = append([]string(nil), m.Times...)
	r.byID[m.ID] = m
	return nil
}

func (r *medicationRepo) Update(ctx context.Context, m medications.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[m.ID]; !exists {
		return medications.ErrNotFound
	}
	m.Times = append([]string(nil), m.Times...)
	r.byID[m.ID] = m
	return nil
}

// Delete también borra las tomas, como el ON DELETE CASCADE de la tabla.
func (r *medicationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return medications.ErrNotFound
	}
	delete(r.byID, id)

	kept := r.logs[:0]
	for _, l := range r.logs {
		if l.MedicationID != id {
			kept = append(kept, l)
		}
	}
	r.logs = kept
	return nil
}

func (r *medicationRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return medications.Medication{}, medications.ErrNotFound
	}
	m.Times = append([]string(nil), m.Times...)
	return m, nil
}

func (r *medicationRepo) List(ctx context.Context, filter medications.ListFilter) ([]medications.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := toSet(filter.MemberIDs)
	out := make([]medications.Medication, 0)
	for _, m := range r.byID {
		if _, ok := members[m.FamilyMemberID]; !ok {
			continue
		}
		if filter.Active != nil && m.Active != *filter.Active {
			continue
		}
		m.Times = append([]string(nil), m.Times...)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a == b {
			return out[i].ID < out[j].ID
		}
		return a < b
	})
	return out, nil
}

func (r *medicationRepo) Count(ctx context.Context, filter medications.ListFilter) (int, error) {
	items, err := r.List(ctx, filter)
	return len(items), err
}

func (r *medicationRepo) CreateLog(ctx context.Context, l medications.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[l.MedicationID]; !ok {
		return medications.ErrNotFound
	}
	r.logs = append(r.logs, l)
	return nil
}

func (r *medicationRepo) ListLogs(ctx context.Context, medicationID string, limit int) ([]medications.Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medications.Log, 0)
	for _, l := range r.logs {
		if l.MedicationID == medicationID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TakenAt.After(out[j].TakenAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
