package documents

import "context"

type Repository interface {
	Create(ctx context.Context, d Document) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Document, error)
	// List ordena por created_at desc.
	List(ctx context.Context, filter ListFilter) ([]Document, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

type ListFilter struct {
	MemberIDs    []string // vacío => nada
	DocumentType *DocumentType
	Limit        int // <= 0 => sin límite
}
