package familyroles

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("role not found")
	ErrMemberNotFound = errors.New("family member not found")
)

// MemberOwnerLookup evita importar el paquete familymembers (rompe ciclos).
// OwnerOf debe devolver ErrMemberNotFound si el familiar no existe.
type MemberOwnerLookup interface {
	OwnerOf(ctx context.Context, memberID string) (string, error)
	ListOwnedIDs(ctx context.Context, userID string) ([]string, error)
}

// Access resume qué puede hacer un usuario sobre un familiar.
type Access struct {
	Owner bool
	Role  Role // vacío si no tiene rol
}

func (a Access) Allows(act Action) bool {
	return a.Owner || a.Role.Allows(act)
}

// Guard centraliza la autorización por familiar: quien lo creó es owner
// (puede todo); el resto depende de su rol.
type Guard struct {
	roles  Repository
	owners MemberOwnerLookup
}

func NewGuard(roles Repository, owners MemberOwnerLookup) *Guard {
	return &Guard{roles: roles, owners: owners}
}

func (g *Guard) AccessOf(ctx context.Context, memberID, userID string) (Access, error) {
	memberID = strings.TrimSpace(memberID)
	userID = strings.TrimSpace(userID)
	if memberID == "" || userID == "" {
		return Access{}, ErrInvalidInput
	}

	owner, err := g.owners.OwnerOf(ctx, memberID)
	if err != nil {
		return Access{}, err
	}
	if owner == userID {
		return Access{Owner: true}, nil
	}

	r, err := g.roles.GetByMemberAndUser(ctx, memberID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Access{}, nil
		}
		return Access{}, err
	}
	return Access{Role: r.Role}, nil
}

// Authorize devuelve nil, ErrMemberNotFound, ErrForbidden o un error interno.
func (g *Guard) Authorize(ctx context.Context, memberID, userID string, act Action) error {
	a, err := g.AccessOf(ctx, memberID, userID)
	if err != nil {
		return err
	}
	if !a.Allows(act) {
		return ErrForbidden
	}
	return nil
}

// AccessibleMemberIDs: familiares propios primero, después los compartidos
// cuyo rol permite act. Sin duplicados.
func (g *Guard) AccessibleMemberIDs(ctx context.Context, userID string, act Action) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	owned, err := g.owners.ListOwnedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := g.roles.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(owned)+len(roles))
	out := make([]string, 0, len(owned)+len(roles))
	for _, id := range owned {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, r := range roles {
		if !r.Role.Allows(act) {
			continue
		}
		if _, ok := seen[r.FamilyMemberID]; ok {
			continue
		}
		seen[r.FamilyMemberID] = struct{}{}
		out = append(out, r.FamilyMemberID)
	}
	return out, nil
}

// Scope resuelve el filtro de listados: si se pidió un familiar puntual se
// autoriza ese; si no, todos los accesibles.
func (g *Guard) Scope(ctx context.Context, userID, requestedMemberID string, act Action) ([]string, error) {
	if id := strings.TrimSpace(requestedMemberID); id != "" {
		if err := g.Authorize(ctx, id, userID, act); err != nil {
			return nil, err
		}
		return []string{id}, nil
	}
	return g.AccessibleMemberIDs(ctx, userID, act)
}
