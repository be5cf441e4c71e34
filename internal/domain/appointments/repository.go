package appointments

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a Appointment) error
	Update(ctx context.Context, a Appointment) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Appointment, error)
	// List ordena por scheduled_at ASC.
	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

type ListFilter struct {
	MemberIDs []string // vacío => nada
	From      *time.Time
	To        *time.Time // exclusivo
	Limit     int        // <=0 => sin límite
}
