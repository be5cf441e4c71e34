package documents

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"family-care/internal/domain/familyroles"
	"family-care/internal/middleware"
	"family-care/internal/platform/timeutil"

	"github.com/go-chi/chi/v5"
)

// multipartOverhead cubre los campos de texto del form además del archivo.
const multipartOverhead = 1 << 20

func RegisterRoutes(r chi.Router, svc *Service, guard *familyroles.Guard) {
	r.Route("/documents", func(dr chi.Router) {
		dr.Post("/", uploadDocumentHandler(svc, guard))
		dr.Get("/", listDocumentsHandler(svc, guard))

		dr.Get("/{documentID}", getDocumentHandler(svc, guard))
		dr.Get("/{documentID}/file", downloadDocumentHandler(svc, guard))
		dr.Delete("/{documentID}", deleteDocumentHandler(svc, guard))
	})
}

type documentResponse struct {
	ID             string       `json:"id"`
	FamilyMemberID string       `json:"family_member_id"`
	Title          string       `json:"title"`
	DocumentType   DocumentType `json:"document_type"`
	DocumentDate   *string      `json:"document_date"`
	FilePath       string       `json:"file_path"`
	MimeType       string       `json:"mime_type"`
	FileSize       int64        `json:"file_size"`
	Notes          string       `json:"notes"`
	UploadedBy     string       `json:"uploaded_by"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// uploadDocumentHandler godoc
// @Summary Subir documento médico
// @Description multipart/form-data. Solo PDF, JPEG o PNG (se detecta por contenido), máximo 10MB.
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param family_member_id formData string true "Familiar"
// @Param title formData string true "Título"
// @Param document_type formData string false "exam|prescription|report|imaging|other (default other)"
// @Param document_date formData string false "YYYY-MM-DD"
// @Param notes formData string false "Notas"
// @Param file formData file true "Archivo"
// @Success 201 {object} documentResponse
// @Failure 400 {string} string "datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "family member not found"
// @Failure 413 {string} string "file exceeds 10MB"
// @Failure 415 {string} string "only PDF, JPEG and PNG files are accepted"
// @Router /documents [post]
func uploadDocumentHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize+multipartOverhead)
		if err := r.ParseMultipartForm(MaxFileSize); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, ErrTooLarge.Error(), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		memberID := r.FormValue("family_member_id")
		claims, ok := guard.RequireAccess(w, r, memberID, familyroles.ActionWrite)
		if !ok {
			return
		}

		docDate, err := timeutil.ParseOptionalDate(r.FormValue("document_date"), time.UTC)
		if err != nil {
			http.Error(w, "document_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
		if err != nil {
			http.Error(w, "could not read file", http.StatusBadRequest)
			return
		}

		d, err := svc.Upload(r.Context(), claims.UserID, UploadInput{
			FamilyMemberID: memberID,
			Title:          r.FormValue("title"),
			DocumentType:   r.FormValue("document_type"),
			DocumentDate:   docDate,
			Notes:          r.FormValue("notes"),
			FileName:       header.Filename,
			Data:           data,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDocumentResponse(d))
	}
}

// listDocumentsHandler godoc
// @Summary Listar documentos
// @Description Más recientes primero.
// @Tags documents
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param family_member_id query string false "Filtrar por familiar"
// @Param document_type query string false "Filtrar por tipo"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Success 200 {array} documentResponse
// @Failure 400 {string} string "document_type inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /documents [get]
func listDocumentsHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		ids, err := guard.Scope(r.Context(), claims.UserID, q.Get("family_member_id"), familyroles.ActionRead)
		if err != nil {
			familyroles.WriteError(w, err)
			return
		}

		filter := ListFilter{MemberIDs: ids, Limit: 50}
		if v := strings.TrimSpace(q.Get("document_type")); v != "" {
			t := DocumentType(strings.ToLower(v))
			if !t.Valid() {
				http.Error(w, "invalid document_type", http.StatusBadRequest)
				return
			}
			filter.DocumentType = &t
		}
		if v := strings.TrimSpace(q.Get("limit")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 200 {
				http.Error(w, "limit must be between 1 and 200", http.StatusBadRequest)
				return
			}
			filter.Limit = n
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]documentResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDocumentResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getDocumentHandler godoc
// @Summary Ver documento
// @Tags documents
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param documentID path string true "ID del documento"
// @Success 200 {object} documentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Router /documents/{documentID} [get]
func getDocumentHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionRead)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toDocumentResponse(d))
	}
}

// downloadDocumentHandler godoc
// @Summary Descargar archivo
// @Description Redirige a una URL firmada (1 hora) si el storage la soporta; si no, devuelve el archivo.
// @Tags documents
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param documentID path string true "ID del documento"
// @Success 200 {file} file
// @Success 302 {string} string "redirect a URL firmada"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Router /documents/{documentID}/file [get]
func downloadDocumentHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionRead)
		if !ok {
			return
		}

		dl, err := svc.Download(r.Context(), d)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if dl.URL != "" {
			http.Redirect(w, r, dl.URL, http.StatusFound)
			return
		}

		w.Header().Set("Content-Type", dl.Object.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(dl.Object.Data)))
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", FileName(d)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(dl.Object.Data)
	}
}

// deleteDocumentHandler godoc
// @Summary Borrar documento
// @Description Borra el registro y el archivo.
// @Tags documents
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param documentID path string true "ID del documento"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Router /documents/{documentID} [delete]
func deleteDocumentHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionWrite)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), d.ID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func loadAuthorized(w http.ResponseWriter, r *http.Request, svc *Service, guard *familyroles.Guard, act familyroles.Action) (Document, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Document{}, false
	}

	d, err := svc.GetByID(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeServiceError(w, err)
		return Document{}, false
	}
	if _, ok := guard.RequireAccess(w, r, d.FamilyMemberID, act); !ok {
		return Document{}, false
	}
	return d, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, ErrTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrUnsupportedType):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toDocumentResponse(d Document) documentResponse {
	var date *string
	if d.DocumentDate != nil {
		s := d.DocumentDate.Format(timeutil.DateLayout)
		date = &s
	}
	return documentResponse{
		ID:             d.ID,
		FamilyMemberID: d.FamilyMemberID,
		Title:          d.Title,
		DocumentType:   d.DocumentType,
		DocumentDate:   date,
		FilePath:       d.FilePath,
		MimeType:       d.MimeType,
		FileSize:       d.FileSize,
		Notes:          d.Notes,
		UploadedBy:     d.UploadedBy,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
