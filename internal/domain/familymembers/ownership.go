package familymembers

import (
	"context"
	"errors"

	"family-care/internal/domain/familyroles"
)

// OwnerOf expone quién registró al familiar.
// Se usa para evitar ciclos de imports entre módulos (familymembers <-> familyroles).
func (s *Service) OwnerOf(ctx context.Context, memberID string) (string, error) {
	m, err := s.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
			return "", familyroles.ErrMemberNotFound
		}
		return "", err
	}
	return m.CreatedBy, nil
}

func (s *Service) ListOwnedIDs(ctx context.Context, userID string) ([]string, error) {
	return s.repo.ListIDsByCreator(ctx, userID)
}
