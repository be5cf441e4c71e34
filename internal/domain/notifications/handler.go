// Package notifications expone por HTTP el permiso de notificaciones y la
// bandeja de notificaciones visibles de cada usuario.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"family-care/internal/middleware"
	"family-care/internal/ports/notifications"
	"family-care/internal/reminders"

	"github.com/go-chi/chi/v5"
)

// Permissions es lo que se usa del scheduler de recordatorios.
type Permissions interface {
	Available() bool
	Permission(ctx context.Context, recipient string) (notifications.Permission, error)
	RequestPermission(ctx context.Context, recipient string, answer notifications.Permission) (notifications.Permission, error)
}

// inbox puede ser nil: en ese caso la bandeja responde 503.
func RegisterRoutes(r chi.Router, perms Permissions, inbox notifications.Inbox) {
	r.Route("/notifications", func(nr chi.Router) {
		nr.Get("/permission", getPermissionHandler(perms))
		nr.Post("/permission", requestPermissionHandler(perms))

		nr.Get("/", listInboxHandler(inbox))
		nr.Post("/{tag}/focus", focusHandler(inbox))
		nr.Delete("/{tag}", dismissHandler(inbox))
	})
}

type permissionResponse struct {
	Available  bool                     `json:"available"`
	Permission notifications.Permission `json:"permission"`
}

type requestPermissionRequest struct {
	Answer string `json:"answer" enums:"granted,denied"`
}

type notificationResponse struct {
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	Tag                string    `json:"tag"`
	Icon               string    `json:"icon"`
	RequireInteraction bool      `json:"require_interaction"`
	EmittedAt          time.Time `json:"emitted_at"`
}

// getPermissionHandler godoc
// @Summary Estado del permiso de notificaciones
// @Description default (nunca preguntado), granted o denied. available=false si no hay capacidad de notificaciones.
// @Tags notifications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} permissionResponse
// @Failure 401 {string} string "unauthorized"
// @Router /notifications/permission [get]
func getPermissionHandler(perms Permissions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		if !perms.Available() {
			writeJSON(w, http.StatusOK, permissionResponse{Available: false, Permission: notifications.PermissionDenied})
			return
		}

		p, err := perms.Permission(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, permissionResponse{Available: true, Permission: p})
	}
}

// requestPermissionHandler godoc
// @Summary Responder el pedido de permiso
// @Description Solo cambia el estado si todavía es default. Una vez denied no se vuelve a preguntar.
// @Tags notifications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body requestPermissionRequest true "Respuesta del usuario"
// @Success 200 {object} permissionResponse
// @Failure 400 {string} string "answer must be granted or denied"
// @Failure 401 {string} string "unauthorized"
// @Failure 503 {string} string "notifications unavailable"
// @Router /notifications/permission [post]
func requestPermissionHandler(perms Permissions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req requestPermissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		answer := notifications.Permission(strings.ToLower(strings.TrimSpace(req.Answer)))
		if answer != notifications.PermissionGranted && answer != notifications.PermissionDenied {
			http.Error(w, "answer must be granted or denied", http.StatusBadRequest)
			return
		}

		p, err := perms.RequestPermission(r.Context(), userID, answer)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, permissionResponse{Available: true, Permission: p})
	}
}

// listInboxHandler godoc
// @Summary Notificaciones visibles
// @Description Las emitidas por los recordatorios que el usuario todavía no abrió ni descartó.
// @Tags notifications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} notificationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 503 {string} string "notifications unavailable"
// @Router /notifications [get]
func listInboxHandler(inbox notifications.Inbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		if inbox == nil {
			writeError(w, reminders.ErrUnavailable)
			return
		}

		items, err := inbox.List(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]notificationResponse, 0, len(items))
		for _, n := range items {
			out = append(out, notificationResponse{
				Title:              n.Title,
				Body:               n.Body,
				Tag:                n.Tag,
				Icon:               n.Icon,
				RequireInteraction: n.RequireInteraction,
				EmittedAt:          n.EmittedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// focusHandler godoc
// @Summary Abrir notificación
// @Description Registra el click: la app toma foco y la notificación se cierra.
// @Tags notifications
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param tag path string true "Tag de la notificación"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "notification not found"
// @Router /notifications/{tag}/focus [post]
func focusHandler(inbox notifications.Inbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		if inbox == nil {
			writeError(w, reminders.ErrUnavailable)
			return
		}
		if err := inbox.Focus(r.Context(), userID, chi.URLParam(r, "tag")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// dismissHandler godoc
// @Summary Descartar notificación
// @Tags notifications
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param tag path string true "Tag de la notificación"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "notification not found"
// @Router /notifications/{tag} [delete]
func dismissHandler(inbox notifications.Inbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		if inbox == nil {
			writeError(w, reminders.ErrUnavailable)
			return
		}
		if err := inbox.Dismiss(r.Context(), userID, chi.URLParam(r, "tag")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reminders.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, notifications.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, reminders.ErrUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
