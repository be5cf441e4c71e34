package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"family-care/internal/domain/documents"
)

type documentRepo struct {
	mu   sync.RWMutex
	byID map[string]documents.Document
}

func NewDocumentRepo() documents.Repository {
	return &documentRepo{
		byID: make(map[string]documents.Document),
	}
}

func (r *documentRepo) Create(ctx context.Context, d documents.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("document id required")
	}
	if _, exists := r.byID[d.ID]; exists {
		return errors.New("document already exists")
	}
	r.byID[d.ID] = d
	return nil
}

func (r *documentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return documents.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return documents.Document{}, documents.ErrNotFound
	}
	return d, nil
}

func (r *documentRepo) List(ctx context.Context, filter documents.ListFilter) ([]documents.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := toSet(filter.MemberIDs)
	out := make([]documents.Document, 0)
	for _, d := range r.byID {
		if _, ok := members[d.FamilyMemberID]; !ok {
			continue
		}
		if filter.DocumentType != nil && d.DocumentType != *filter.DocumentType {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *documentRepo) Count(ctx context.Context, filter documents.ListFilter) (int, error) {
	filter.Limit = 0
	items, err := r.List(ctx, filter)
	return len(items), err
}
