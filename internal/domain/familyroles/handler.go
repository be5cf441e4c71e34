package familyroles

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"family-care/internal/middleware"
	"family-care/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/family-members/{memberID}/roles", func(rr chi.Router) {
		rr.Post("/", assignRoleHandler(svc))
		rr.Get("/", listRolesByMemberHandler(svc))
		rr.Delete("/{userID}", revokeRoleHandler(svc))
	})

	r.Get("/me/roles", listMyRolesHandler(svc))
}

type assignRoleRequest struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role" enums:"admin,member,viewer"`
}

type roleResponse struct {
	ID             string    `json:"id"`
	FamilyMemberID string    `json:"family_member_id"`
	UserID         string    `json:"user_id"`
	Role           Role      `json:"role"`
	GrantedBy      string    `json:"granted_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// assignRoleHandler godoc
// @Summary Asignar rol sobre un familiar
// @Description Crea o actualiza el rol (admin, member, viewer) de un usuario sobre el familiar. Requiere ser quien lo registró o tener rol admin.
// @Tags roles
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param memberID path string true "ID del familiar"
// @Param payload body assignRoleRequest true "Usuario y rol"
// @Success 201 {object} roleResponse
// @Failure 400 {string} string "invalid json / rol inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "family member not found"
// @Router /family-members/{memberID}/roles [post]
func assignRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req assignRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		ur, err := svc.Assign(r.Context(), AssignInput{
			MemberID:  chi.URLParam(r, "memberID"),
			UserID:    req.UserID,
			Role:      req.Role,
			GrantedBy: claims.UserID,
		})
		if err != nil {
			WriteError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRoleResponse(ur))
	}
}

// listRolesByMemberHandler godoc
// @Summary Listar roles de un familiar
// @Tags roles
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param memberID path string true "ID del familiar"
// @Success 200 {array} roleResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "family member not found"
// @Router /family-members/{memberID}/roles [get]
func listRolesByMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		items, err := svc.ListByMember(r.Context(), chi.URLParam(r, "memberID"), claims.UserID)
		if err != nil {
			WriteError(w, err)
			return
		}

		out := make([]roleResponse, 0, len(items))
		for _, ur := range items {
			out = append(out, toRoleResponse(ur))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// revokeRoleHandler godoc
// @Summary Quitar rol
// @Description Quita el rol de un usuario. Un usuario siempre puede quitarse su propio rol.
// @Tags roles
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param memberID path string true "ID del familiar"
// @Param userID path string true "ID del usuario"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /family-members/{memberID}/roles/{userID} [delete]
func revokeRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		err := svc.Revoke(r.Context(), chi.URLParam(r, "memberID"), chi.URLParam(r, "userID"), claims.UserID)
		if err != nil {
			WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// listMyRolesHandler godoc
// @Summary Mis roles
// @Description Familiares compartidos conmigo y el rol que tengo en cada uno.
// @Tags roles
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} roleResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/roles [get]
func listMyRolesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		items, err := svc.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			WriteError(w, err)
			return
		}

		out := make([]roleResponse, 0, len(items))
		for _, ur := range items {
			out = append(out, toRoleResponse(ur))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// RequireAccess autoriza act sobre memberID para el usuario del request.
// Si no corresponde, ya escribió la respuesta de error y devuelve false.
func (g *Guard) RequireAccess(w http.ResponseWriter, r *http.Request, memberID string, act Action) (auth.Claims, bool) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return auth.Claims{}, false
	}
	if err := g.Authorize(r.Context(), memberID, claims.UserID, act); err != nil {
		WriteError(w, err)
		return auth.Claims{}, false
	}
	return claims, true
}

// WriteError traduce errores de autorización a status HTTP.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrMemberNotFound):
		http.Error(w, "family member not found", http.StatusNotFound)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "role not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func requireClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return auth.Claims{}, false
	}
	return claims, true
}

func toRoleResponse(ur UserRole) roleResponse {
	return roleResponse{
		ID:             ur.ID,
		FamilyMemberID: ur.FamilyMemberID,
		UserID:         ur.UserID,
		Role:           ur.Role,
		GrantedBy:      ur.GrantedBy,
		CreatedAt:      ur.CreatedAt,
		UpdatedAt:      ur.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
