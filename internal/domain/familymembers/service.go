package familymembers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("family member not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	FullName          string
	DateOfBirth       *time.Time
	BloodType         string
	Allergies         []string
	ChronicConditions []string
	EmergencyContact  string
	EmergencyPhone    string
	Notes             string
	AvatarURL         string
}

func (s *Service) Create(ctx context.Context, createdBy string, in CreateInput) (FamilyMember, error) {
	if strings.TrimSpace(createdBy) == "" {
		return FamilyMember{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.FullName) == "" {
		return FamilyMember{}, ErrInvalidInput
	}
	bt, err := normalizeBloodType(in.BloodType)
	if err != nil {
		return FamilyMember{}, err
	}

	now := s.now()
	if in.DateOfBirth != nil && in.DateOfBirth.After(now) {
		return FamilyMember{}, ErrInvalidInput
	}

	m := FamilyMember{
		ID:                uuid.NewString(),
		CreatedBy:         strings.TrimSpace(createdBy),
		FullName:          strings.TrimSpace(in.FullName),
		DateOfBirth:       in.DateOfBirth,
		BloodType:         bt,
		Allergies:         normalizeList(in.Allergies),
		ChronicConditions: normalizeList(in.ChronicConditions),
		EmergencyContact:  strings.TrimSpace(in.EmergencyContact),
		EmergencyPhone:    strings.TrimSpace(in.EmergencyPhone),
		Notes:             strings.TrimSpace(in.Notes),
		AvatarURL:         strings.TrimSpace(in.AvatarURL),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return FamilyMember{}, err
	}
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (FamilyMember, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return FamilyMember{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]FamilyMember, error) {
	if len(ids) == 0 {
		return []FamilyMember{}, nil
	}
	return s.repo.ListByIDs(ctx, ids)
}

// PatchDate distingue "no enviado" de "enviado null" (limpiar).
type PatchDate struct {
	Present bool
	Value   *time.Time
}

// UpdateInput: punteros para PATCH real, nil = no tocar.
type UpdateInput struct {
	FullName          *string
	DateOfBirth       PatchDate
	BloodType         *string
	Allergies         *[]string
	ChronicConditions *[]string
	EmergencyContact  *string
	EmergencyPhone    *string
	Notes             *string
	AvatarURL         *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (FamilyMember, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return FamilyMember{}, err
	}
	now := s.now()

	if in.FullName != nil {
		v := strings.TrimSpace(*in.FullName)
		if v == "" {
			return FamilyMember{}, ErrInvalidInput
		}
		m.FullName = v
	}
	if in.DateOfBirth.Present {
		if in.DateOfBirth.Value != nil && in.DateOfBirth.Value.After(now) {
			return FamilyMember{}, ErrInvalidInput
		}
		m.DateOfBirth = in.DateOfBirth.Value
	}
	if in.BloodType != nil {
		bt, err := normalizeBloodType(*in.BloodType)
		if err != nil {
			return FamilyMember{}, err
		}
		m.BloodType = bt
	}
	if in.Allergies != nil {
		m.Allergies = normalizeList(*in.Allergies)
	}
	if in.ChronicConditions != nil {
		m.ChronicConditions = normalizeList(*in.ChronicConditions)
	}
	if in.EmergencyContact != nil {
		m.EmergencyContact = strings.TrimSpace(*in.EmergencyContact)
	}
	if in.EmergencyPhone != nil {
		m.EmergencyPhone = strings.TrimSpace(*in.EmergencyPhone)
	}
	if in.Notes != nil {
		m.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.AvatarURL != nil {
		m.AvatarURL = strings.TrimSpace(*in.AvatarURL)
	}

	m.UpdatedAt = now
	if err := s.repo.Update(ctx, m); err != nil {
		return FamilyMember{}, err
	}
	return m, nil
}

// Delete borra el familiar. En Postgres las FK borran en cascada
// medicamentos, citas, documentos y roles.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

func normalizeBloodType(raw string) (BloodType, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return "", nil
	}
	bt := BloodType(v)
	if !bt.Valid() {
		return "", ErrInvalidInput
	}
	return bt, nil
}

// normalizeList recorta, descarta vacíos y deduplica (case-insensitive),
// conservando el orden de carga.
func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
