// Package dashboard arma los contadores de la pantalla inicial sobre los
// familiares a los que el usuario tiene acceso.
package dashboard

import (
	"context"
	"errors"
	"strings"

	"family-care/internal/domain/familyroles"
)

var ErrInvalidInput = errors.New("invalid input")

type MedicationCounter interface {
	CountActive(ctx context.Context, memberIDs []string) (int, error)
}

type AppointmentCounter interface {
	CountUpcoming(ctx context.Context, memberIDs []string) (int, error)
}

type DocumentCounter interface {
	Count(ctx context.Context, memberIDs []string) (int, error)
}

type MemberScope interface {
	AccessibleMemberIDs(ctx context.Context, userID string, act familyroles.Action) ([]string, error)
}

type Stats struct {
	Medications   int `json:"medications"`
	Appointments  int `json:"appointments"`
	Documents     int `json:"documents"`
	FamilyMembers int `json:"family_members"`
}

type Service struct {
	scope        MemberScope
	medications  MedicationCounter
	appointments AppointmentCounter
	documents    DocumentCounter
}

func NewService(scope MemberScope, meds MedicationCounter, appts AppointmentCounter, docs DocumentCounter) *Service {
	return &Service{scope: scope, medications: meds, appointments: appts, documents: docs}
}

// Stats: medicamentos activos, citas desde ahora, documentos y familiares.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	if strings.TrimSpace(userID) == "" {
		return Stats{}, ErrInvalidInput
	}

	ids, err := s.scope.AccessibleMemberIDs(ctx, userID, familyroles.ActionRead)
	if err != nil {
		return Stats{}, err
	}
	out := Stats{FamilyMembers: len(ids)}
	if len(ids) == 0 {
		return out, nil
	}

	if out.Medications, err = s.medications.CountActive(ctx, ids); err != nil {
		return Stats{}, err
	}
	if out.Appointments, err = s.appointments.CountUpcoming(ctx, ids); err != nil {
		return Stats{}, err
	}
	if out.Documents, err = s.documents.Count(ctx, ids); err != nil {
		return Stats{}, err
	}
	return out, nil
}
