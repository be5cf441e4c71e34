package familyroles

import "context"

type Repository interface {
	Create(ctx context.Context, r UserRole) error
	Update(ctx context.Context, r UserRole) error
	Delete(ctx context.Context, id string) error
	GetByMemberAndUser(ctx context.Context, memberID, userID string) (UserRole, error)
	ListByMember(ctx context.Context, memberID string) ([]UserRole, error)
	ListByUser(ctx context.Context, userID string) ([]UserRole, error)
}
