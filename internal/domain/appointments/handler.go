package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"family-care/internal/domain/familyroles"
	"family-care/internal/middleware"
	"family-care/internal/platform/timeutil"
	"family-care/internal/reminders"

	"github.com/go-chi/chi/v5"
)

// Settings son los parámetros de presentación que dependen de la configuración.
type Settings struct {
	// Location interpreta timestamps sin zona y define los días del calendario.
	Location  *time.Location
	WeekStart time.Weekday
}

func RegisterRoutes(r chi.Router, svc *Service, guard *familyroles.Guard, settings Settings) {
	if settings.Location == nil {
		settings.Location = time.UTC
	}

	r.Route("/appointments", func(ar chi.Router) {
		ar.Post("/", createAppointmentHandler(svc, guard, settings))
		ar.Get("/", listAppointmentsHandler(svc, guard, settings))

		ar.Get("/{appointmentID}", getAppointmentHandler(svc, guard))
		ar.Patch("/{appointmentID}", updateAppointmentHandler(svc, guard, settings))
		ar.Delete("/{appointmentID}", deleteAppointmentHandler(svc, guard))

		// Aviso local 1 hora antes, para quien lo pide.
		ar.Post("/{appointmentID}/reminder", scheduleReminderHandler(svc, guard))
	})

	r.Get("/calendar", calendarHandler(svc, guard, settings))
}

type createAppointmentRequest struct {
	FamilyMemberID  string `json:"family_member_id"`
	Title           string `json:"title"`
	ScheduledAt     string `json:"scheduled_at"` // RFC3339 o sin zona (zona de la app)
	DoctorName      string `json:"doctor_name"`
	Specialty       string `json:"specialty"`
	Location        string `json:"location"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

type updateAppointmentRequest struct {
	Title           *string `json:"title"`
	ScheduledAt     *string `json:"scheduled_at"`
	DoctorName      *string `json:"doctor_name"`
	Specialty       *string `json:"specialty"`
	Location        *string `json:"location"`
	DurationMinutes *int    `json:"duration_minutes"`
	Notes           *string `json:"notes"`
}

type appointmentResponse struct {
	ID              string    `json:"id"`
	FamilyMemberID  string    `json:"family_member_id"`
	Title           string    `json:"title"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DoctorName      string    `json:"doctor_name"`
	Specialty       string    `json:"specialty"`
	Location        string    `json:"location"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
	ReminderSent    bool      `json:"reminder_sent"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// createAppointmentHandler godoc
// @Summary Crear cita
// @Description Agenda una consulta para un familiar. Requiere rol member o admin (o ser owner).
// @Tags appointments
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createAppointmentRequest true "Datos de la cita"
// @Success 201 {object} appointmentResponse
// @Failure 400 {string} string "invalid json / scheduled_at inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "family member not found"
// @Router /appointments [post]
func createAppointmentHandler(svc *Service, guard *familyroles.Guard, settings Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		claims, ok := guard.RequireAccess(w, r, req.FamilyMemberID, familyroles.ActionWrite)
		if !ok {
			return
		}

		at, err := timeutil.ParseTimestamp(req.ScheduledAt, settings.Location)
		if err != nil {
			http.Error(w, "scheduled_at must be RFC3339 or YYYY-MM-DDTHH:MM", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			FamilyMemberID:  req.FamilyMemberID,
			Title:           req.Title,
			ScheduledAt:     at,
			DoctorName:      req.DoctorName,
			Specialty:       req.Specialty,
			Location:        req.Location,
			DurationMinutes: req.DurationMinutes,
			Notes:           req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(a))
	}
}

// listAppointmentsHandler godoc
// @Summary Listar citas
// @Description Citas de los familiares accesibles (o de uno puntual), por fecha ascendente.
// @Tags appointments
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param family_member_id query string false "Filtrar por familiar"
// @Param from query string false "scheduled_at mínimo (inclusive)"
// @Param to query string false "scheduled_at máximo (exclusivo)"
// @Param limit query int false "Máximo de citas (1-200). Por defecto 50"
// @Success 200 {array} appointmentResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /appointments [get]
func listAppointmentsHandler(svc *Service, guard *familyroles.Guard, settings Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ids, err := guard.Scope(r.Context(), claims.UserID, r.URL.Query().Get("family_member_id"), familyroles.ActionRead)
		if err != nil {
			familyroles.WriteError(w, err)
			return
		}

		filter, err := parseListFilter(r, settings.Location)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.MemberIDs = ids

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getAppointmentHandler godoc
// @Summary Ver cita
// @Tags appointments
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param appointmentID path string true "ID de la cita"
// @Success 200 {object} appointmentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "appointment not found"
// @Router /appointments/{appointmentID} [get]
func getAppointmentHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionRead)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(a))
	}
}

// updateAppointmentHandler godoc
// @Summary Actualizar cita
// @Description PATCH parcial. Si cambia scheduled_at, reminder_sent vuelve a false.
// @Tags appointments
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param appointmentID path string true "ID de la cita"
// @Param payload body updateAppointmentRequest true "Campos a modificar"
// @Success 200 {object} appointmentResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "appointment not found"
// @Router /appointments/{appointmentID} [patch]
func updateAppointmentHandler(svc *Service, guard *familyroles.Guard, settings Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionWrite)
		if !ok {
			return
		}

		var req updateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Title:           req.Title,
			DoctorName:      req.DoctorName,
			Specialty:       req.Specialty,
			Location:        req.Location,
			DurationMinutes: req.DurationMinutes,
			Notes:           req.Notes,
		}
		if req.ScheduledAt != nil {
			at, err := timeutil.ParseTimestamp(*req.ScheduledAt, settings.Location)
			if err != nil {
				http.Error(w, "scheduled_at must be RFC3339 or YYYY-MM-DDTHH:MM", http.StatusBadRequest)
				return
			}
			in.ScheduledAt = &at
		}

		updated, err := svc.Update(r.Context(), a.ID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
	}
}

// deleteAppointmentHandler godoc
// @Summary Borrar cita
// @Tags appointments
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param appointmentID path string true "ID de la cita"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "appointment not found"
// @Router /appointments/{appointmentID} [delete]
func deleteAppointmentHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionWrite)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), a.ID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// scheduleReminderHandler godoc
// @Summary Agendar aviso de cita
// @Description Agenda una notificación local 1 hora antes de la cita para el usuario actual. Si falta menos de 1 hora no agenda nada (scheduled=false). La notificación solo se emite si el permiso está concedido al momento de disparar.
// @Tags appointments
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param appointmentID path string true "ID de la cita"
// @Success 202 {object} reminderResponse "agendado"
// @Success 200 {object} reminderResponse "no agendado"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "appointment not found"
// @Router /appointments/{appointmentID}/reminder [post]
func scheduleReminderHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionRead)
		if !ok {
			return
		}
		claims, _ := middleware.GetClaims(r.Context())

		rem, err := svc.ScheduleReminder(r.Context(), a.ID, claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		status := http.StatusOK
		if rem.Scheduled {
			status = http.StatusAccepted
		}
		writeJSON(w, status, toReminderResponse(rem))
	}
}

type reminderResponse struct {
	Kind         reminders.Kind `json:"kind"`
	Tag          string         `json:"tag"`
	FireAt       time.Time      `json:"fire_at"`
	DelaySeconds int64          `json:"delay_seconds"`
	Scheduled    bool           `json:"scheduled"`
}

func toReminderResponse(r reminders.Reminder) reminderResponse {
	return reminderResponse{
		Kind:         r.Kind,
		Tag:          r.Tag,
		FireAt:       r.FireAt,
		DelaySeconds: int64(r.Delay / time.Second),
		Scheduled:    r.Scheduled,
	}
}

// loadAuthorized busca la cita y autoriza act sobre su familiar.
func loadAuthorized(w http.ResponseWriter, r *http.Request, svc *Service, guard *familyroles.Guard, act familyroles.Action) (Appointment, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Appointment{}, false
	}

	a, err := svc.GetByID(r.Context(), chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeServiceError(w, err)
		return Appointment{}, false
	}
	if _, ok := guard.RequireAccess(w, r, a.FamilyMemberID, act); !ok {
		return Appointment{}, false
	}
	return a, true
}

func parseListFilter(r *http.Request, loc *time.Location) (ListFilter, error) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	filter := ListFilter{Limit: limit}

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := timeutil.ParseTimestamp(v, loc)
		if err != nil {
			return ListFilter{}, errors.New("from must be a timestamp")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := timeutil.ParseTimestamp(v, loc)
		if err != nil {
			return ListFilter{}, errors.New("to must be a timestamp")
		}
		filter.To = &t
	}
	return filter, nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, reminders.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		FamilyMemberID:  a.FamilyMemberID,
		Title:           a.Title,
		ScheduledAt:     a.ScheduledAt,
		DoctorName:      a.DoctorName,
		Specialty:       a.Specialty,
		Location:        a.Location,
		DurationMinutes: a.DurationMinutes,
		Notes:           a.Notes,
		ReminderSent:    a.ReminderSent,
		CreatedBy:       a.CreatedBy,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
