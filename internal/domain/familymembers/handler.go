package familymembers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"family-care/internal/domain/familyroles"
	"family-care/internal/middleware"
	"family-care/internal/platform/timeutil"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, guard *familyroles.Guard) {
	r.Route("/family-members", func(fr chi.Router) {
		fr.Post("/", createMemberHandler(svc))
		fr.Get("/", listMembersHandler(svc, guard))

		fr.Get("/{memberID}", getMemberHandler(svc, guard))
		fr.Patch("/{memberID}", updateMemberHandler(svc, guard))
		fr.Delete("/{memberID}", deleteMemberHandler(svc, guard))
	})
}

type createMemberRequest struct {
	FullName          string   `json:"full_name"`
	DateOfBirth       string   `json:"date_of_birth"` // YYYY-MM-DD opcional
	BloodType         string   `json:"blood_type" enums:"A+,A-,B+,B-,AB+,AB-,O+,O-"`
	Allergies         []string `json:"allergies"`
	ChronicConditions []string `json:"chronic_conditions"`
	EmergencyContact  string   `json:"emergency_contact"`
	EmergencyPhone    string   `json:"emergency_phone"`
	Notes             string   `json:"notes"`
	AvatarURL         string   `json:"avatar_url"`
}

type updateMemberRequest struct {
	FullName          *string   `json:"full_name"`
	BloodType         *string   `json:"blood_type"`
	Allergies         *[]string `json:"allergies"`
	ChronicConditions *[]string `json:"chronic_conditions"`
	EmergencyContact  *string   `json:"emergency_contact"`
	EmergencyPhone    *string   `json:"emergency_phone"`
	Notes             *string   `json:"notes"`
	AvatarURL         *string   `json:"avatar_url"`
	// date_of_birth se detecta aparte para permitir null = limpiar
}

type memberResponse struct {
	ID                string    `json:"id"`
	CreatedBy         string    `json:"created_by"`
	FullName          string    `json:"full_name"`
	DateOfBirth       *string   `json:"date_of_birth"`
	BloodType         BloodType `json:"blood_type,omitempty"`
	Allergies         []string  `json:"allergies"`
	ChronicConditions []string  `json:"chronic_conditions"`
	EmergencyContact  string    `json:"emergency_contact"`
	EmergencyPhone    string    `json:"emergency_phone"`
	Notes             string    `json:"notes"`
	AvatarURL         string    `json:"avatar_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// createMemberHandler godoc
// @Summary Registrar familiar
// @Description Registra un familiar cuidado. Quien lo registra queda como owner con acceso total.
// @Tags family-members
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createMemberRequest true "Datos del familiar"
// @Success 201 {object} memberResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /family-members [post]
func createMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		dob, err := timeutil.ParseOptionalDate(req.DateOfBirth, time.UTC)
		if err != nil {
			http.Error(w, "date_of_birth must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		m, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			FullName:          req.FullName,
			DateOfBirth:       dob,
			BloodType:         req.BloodType,
			Allergies:         req.Allergies,
			ChronicConditions: req.ChronicConditions,
			EmergencyContact:  req.EmergencyContact,
			EmergencyPhone:    req.EmergencyPhone,
			Notes:             req.Notes,
			AvatarURL:         req.AvatarURL,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toMemberResponse(m))
	}
}

// listMembersHandler godoc
// @Summary Listar familiares
// @Description Familiares propios y compartidos conmigo, ordenados por nombre.
// @Tags family-members
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} memberResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /family-members [get]
func listMembersHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ids, err := guard.AccessibleMemberIDs(r.Context(), claims.UserID, familyroles.ActionRead)
		if err != nil {
			familyroles.WriteError(w, err)
			return
		}

		items, err := svc.ListByIDs(r.Context(), ids)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]memberResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMemberResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getMemberHandler godoc
// @Summary Ver familiar
// @Tags family-members
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param memberID path string true "ID del familiar"
// @Success 200 {object} memberResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "family member not found"
// @Router /family-members/{memberID} [get]
func getMemberHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := chi.URLParam(r, "memberID")
		if _, ok := guard.RequireAccess(w, r, memberID, familyroles.ActionRead); !ok {
			return
		}

		m, err := svc.GetByID(r.Context(), memberID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMemberResponse(m))
	}
}

// updateMemberHandler godoc
// @Summary Actualizar familiar
// @Description PATCH parcial. `date_of_birth: null` limpia la fecha. Requiere rol member o admin.
// @Tags family-members
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param memberID path string true "ID del familiar"
// @Param payload body updateMemberRequest true "Campos a modificar"
// @Success 200 {object} memberResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "family member not found"
// @Router /family-members/{memberID} [patch]
func updateMemberHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := chi.URLParam(r, "memberID")
		if _, ok := guard.RequireAccess(w, r, memberID, familyroles.ActionWrite); !ok {
			return
		}

		// Decodificamos a map primero para detectar presencia de date_of_birth.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updateMemberRequest
		{
			b, _ := json.Marshal(raw)
			if err := json.Unmarshal(b, &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		var dob PatchDate
		if v, exists := raw["date_of_birth"]; exists {
			dob.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "date_of_birth must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				t, err := timeutil.ParseOptionalDate(s, time.UTC)
				if err != nil {
					http.Error(w, "date_of_birth must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				dob.Value = t
			}
		}

		updated, err := svc.Update(r.Context(), memberID, UpdateInput{
			FullName:          req.FullName,
			DateOfBirth:       dob,
			BloodType:         req.BloodType,
			Allergies:         req.Allergies,
			ChronicConditions: req.ChronicConditions,
			EmergencyContact:  req.EmergencyContact,
			EmergencyPhone:    req.EmergencyPhone,
			Notes:             req.Notes,
			AvatarURL:         req.AvatarURL,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMemberResponse(updated))
	}
}

// deleteMemberHandler godoc
// @Summary Borrar familiar
// @Description Borra el familiar y, en Postgres, todo lo que cuelga de él. Requiere ser owner o admin.
// @Tags family-members
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param memberID path string true "ID del familiar"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "family member not found"
// @Router /family-members/{memberID} [delete]
func deleteMemberHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := chi.URLParam(r, "memberID")
		if _, ok := guard.RequireAccess(w, r, memberID, familyroles.ActionManage); !ok {
			return
		}

		if err := svc.Delete(r.Context(), memberID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "family member not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toMemberResponse(m FamilyMember) memberResponse {
	var dob *string
	if m.DateOfBirth != nil {
		s := m.DateOfBirth.Format(timeutil.DateLayout)
		dob = &s
	}
	allergies := m.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	conditions := m.ChronicConditions
	if conditions == nil {
		conditions = []string{}
	}
	return memberResponse{
		ID:                m.ID,
		CreatedBy:         m.CreatedBy,
		FullName:          m.FullName,
		DateOfBirth:       dob,
		BloodType:         m.BloodType,
		Allergies:         allergies,
		ChronicConditions: conditions,
		EmergencyContact:  m.EmergencyContact,
		EmergencyPhone:    m.EmergencyPhone,
		Notes:             m.Notes,
		AvatarURL:         m.AvatarURL,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
