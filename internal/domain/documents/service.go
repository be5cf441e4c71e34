package documents

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"family-care/internal/platform/logger"
	"family-care/internal/ports/objectstore"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	MaxFileSize  = 10 << 20
	SignedURLTTL = time.Hour
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("document not found")
	ErrTooLarge        = errors.New("file exceeds 10MB")
	ErrUnsupportedType = errors.New("only PDF, JPEG and PNG files are accepted")
)

// allowedTypes: mime detectado -> extensiones aceptadas en el nombre original.
var allowedTypes = map[string][]string{
	"application/pdf": {".pdf"},
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/png":       {".png"},
}

type Service struct {
	repo  Repository
	store objectstore.Store
	log   logger.Logger
	now   func() time.Time
	rand  func() string
}

func NewService(repo Repository, store objectstore.Store, log logger.Logger) *Service {
	return &Service{
		repo:  repo,
		store: store,
		log:   logger.OrNop(log).With(map[string]any{"component": "documents"}),
		now:   time.Now,
		rand: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		},
	}
}

type UploadInput struct {
	FamilyMemberID string
	Title          string
	DocumentType   string
	DocumentDate   *time.Time
	Notes          string

	FileName string
	Data     []byte
}

// Upload valida el contenido real del archivo (no el Content-Type declarado),
// lo sube al store y recién después crea el registro.
func (s *Service) Upload(ctx context.Context, uploadedBy string, in UploadInput) (Document, error) {
	if strings.TrimSpace(uploadedBy) == "" || strings.TrimSpace(in.FamilyMemberID) == "" {
		return Document{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Title) == "" {
		return Document{}, ErrInvalidInput
	}

	docType := TypeOther
	if v := strings.TrimSpace(in.DocumentType); v != "" {
		docType = DocumentType(strings.ToLower(v))
		if !docType.Valid() {
			return Document{}, ErrInvalidInput
		}
	}

	if len(in.Data) == 0 {
		return Document{}, ErrInvalidInput
	}
	if len(in.Data) > MaxFileSize {
		return Document{}, ErrTooLarge
	}

	mime, ext, err := detect(in.Data, in.FileName)
	if err != nil {
		return Document{}, err
	}

	now := s.now()
	memberID := strings.TrimSpace(in.FamilyMemberID)
	d := Document{
		ID:             uuid.NewString(),
		FamilyMemberID: memberID,
		Title:          strings.TrimSpace(in.Title),
		DocumentType:   docType,
		DocumentDate:   in.DocumentDate,
		FilePath:       fmt.Sprintf("%s/%d_%s%s", memberID, now.UnixMilli(), s.rand(), ext),
		MimeType:       mime,
		FileSize:       int64(len(in.Data)),
		Notes:          strings.TrimSpace(in.Notes),
		UploadedBy:     strings.TrimSpace(uploadedBy),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Put(ctx, d.FilePath, d.MimeType, in.Data); err != nil {
		return Document{}, fmt.Errorf("upload %s: %w", d.FilePath, err)
	}
	if err := s.repo.Create(ctx, d); err != nil {
		// El archivo queda huérfano si esto falla; se intenta limpiar.
		if derr := s.store.Delete(ctx, d.FilePath); derr != nil {
			s.log.Warn("orphan document file", map[string]any{"path": d.FilePath, "error": derr})
		}
		return Document{}, err
	}

	s.log.Info("document uploaded", map[string]any{
		"document_id": d.ID,
		"member_id":   d.FamilyMemberID,
		"mime":        d.MimeType,
		"size":        d.FileSize,
	})
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Document{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	if len(filter.MemberIDs) == 0 {
		return []Document{}, nil
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Count(ctx context.Context, memberIDs []string) (int, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}
	return s.repo.Count(ctx, ListFilter{MemberIDs: memberIDs})
}

// Delete borra el registro y después el archivo. Un archivo ya inexistente
// no es error.
func (s *Service) Delete(ctx context.Context, id string) error {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, d.ID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, d.FilePath); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		s.log.Warn("document file not deleted", map[string]any{"path": d.FilePath, "error": err})
	}
	return nil
}

// Download: URL firmada si el store la soporta; si no, el contenido.
type Download struct {
	URL    string
	Object objectstore.Object
}

func (s *Service) Download(ctx context.Context, d Document) (Download, error) {
	url, err := s.store.SignedURL(ctx, d.FilePath, SignedURLTTL)
	if err == nil {
		return Download{URL: url}, nil
	}
	if !errors.Is(err, objectstore.ErrNotSupported) {
		return Download{}, err
	}

	obj, err := s.store.Get(ctx, d.FilePath)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return Download{}, ErrNotFound
		}
		return Download{}, err
	}
	if obj.ContentType == "" {
		obj.ContentType = d.MimeType
	}
	return Download{Object: obj}, nil
}

// FileName arma un nombre de descarga a partir del título.
func FileName(d Document) string {
	return strings.ReplaceAll(d.Title, "\"", "") + path.Ext(d.FilePath)
}

func detect(data []byte, fileName string) (string, string, error) {
	m := mimetype.Detect(data)
	var (
		mime string
		exts []string
	)
	for candidate, e := range allowedTypes {
		if m.Is(candidate) {
			mime, exts = candidate, e
			break
		}
	}
	if mime == "" {
		return "", "", ErrUnsupportedType
	}

	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		return mime, exts[0], nil
	}
	for _, e := range exts {
		if e == ext {
			return mime, ext, nil
		}
	}
	return "", "", ErrUnsupportedType
}
