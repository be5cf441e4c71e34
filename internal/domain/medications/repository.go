package medications

import "context"

type Repository interface {
	Create(ctx context.Context, m Medication) error
	Update(ctx context.Context, m Medication) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Medication, error)
	// List ordena por name.
	List(ctx context.Context, filter ListFilter) ([]Medication, error)
	Count(ctx context.Context, filter ListFilter) (int, error)

	CreateLog(ctx context.Context, l Log) error
	// ListLogs devuelve las más recientes primero.
	ListLogs(ctx context.Context, medicationID string, limit int) ([]Log, error)
}

type ListFilter struct {
	MemberIDs []string // vacío => nada
	Active    *bool
}
