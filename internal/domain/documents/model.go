package documents

import "time"

// DocumentType clasifica el documento médico.
// @Enum exam, prescription, report, imaging, other
type DocumentType string

const (
	TypeExam         DocumentType = "exam"
	TypePrescription DocumentType = "prescription"
	TypeReport       DocumentType = "report"
	TypeImaging      DocumentType = "imaging"
	TypeOther        DocumentType = "other"
)

func (t DocumentType) Valid() bool {
	switch t {
	case TypeExam, TypePrescription, TypeReport, TypeImaging, TypeOther:
		return true
	}
	return false
}

type Document struct {
	ID             string
	FamilyMemberID string

	Title        string
	DocumentType DocumentType
	DocumentDate *time.Time

	// FilePath es la clave en el object store: {member}/{unixmillis}_{rand}.{ext}
	FilePath string
	MimeType string
	FileSize int64

	Notes      string
	UploadedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}
