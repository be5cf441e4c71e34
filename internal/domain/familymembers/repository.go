package familymembers

import "context"

type Repository interface {
	Create(ctx context.Context, m FamilyMember) error
	Update(ctx context.Context, m FamilyMember) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (FamilyMember, error)
	// ListByIDs ordena por full_name.
	ListByIDs(ctx context.Context, ids []string) ([]FamilyMember, error)
	ListIDsByCreator(ctx context.Context, userID string) ([]string, error)
}
