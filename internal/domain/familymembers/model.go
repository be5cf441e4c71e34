package familymembers

import "time"

// BloodType define los tipos sanguíneos aceptados.
// @Enum A+, A-, B+, B-, AB+, AB-, O+, O-
type BloodType string

const (
	BloodAPos  BloodType = "A+"
	BloodANeg  BloodType = "A-"
	BloodBPos  BloodType = "B+"
	BloodBNeg  BloodType = "B-"
	BloodABPos BloodType = "AB+"
	BloodABNeg BloodType = "AB-"
	BloodOPos  BloodType = "O+"
	BloodONeg  BloodType = "O-"
)

func (b BloodType) Valid() bool {
	switch b {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

// FamilyMember es el familiar cuidado: medicamentos, citas y documentos
// cuelgan de él.
type FamilyMember struct {
	ID        string
	CreatedBy string // owner

	FullName    string
	DateOfBirth *time.Time
	BloodType   BloodType // vacío = no informado

	Allergies         []string
	ChronicConditions []string

	EmergencyContact string
	EmergencyPhone   string

	Notes     string
	AvatarURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}
