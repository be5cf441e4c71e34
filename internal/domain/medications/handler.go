package medications

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

func RegisterRoutes(r chi.Router, svc *Service, guard *familyroles.Guard) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Post("/", createMedicationHandler(svc, guard))
		mr.Get("/", listMedicationsHandler(svc, guard))

		mr.Get("/{medicationID}", getMedicationHandler(svc, guard))
		mr.Patch("/{medicationID}", updateMedicationHandler(svc, guard))
		mr.Delete("/{medicationID}", deleteMedicationHandler(svc, guard))

		// Confirmación de tomas
		mr.Post("/{medicationID}/logs", logDoseHandler(svc, guard))
		mr.Get("/{medicationID}/logs", listLogsHandler(svc, guard))

		// Avisos locales por hora de toma
		mr.Post("/{medicationID}/reminders", scheduleRemindersHandler(svc, guard))
	})
}

type createMedicationRequest struct {
	FamilyMemberID string   `json:"family_member_id"`
	Name           string   `json:"name"`
	Dosage         string   `json:"dosage"`
	Frequency      string   `json:"frequency" enums:"daily,weekly,biweekly,monthly,as_needed"`
	Times          []string `json:"times"`      // HH:MM
	StartDate      string   `json:"start_date"` // YYYY-MM-DD, por defecto hoy
	EndDate        string   `json:"end_date"`   // YYYY-MM-DD, vacío = uso continuo
	Instructions   string   `json:"instructions"`
}

type updateMedicationRequest struct {
	Name         *string   `json:"name"`
	Dosage       *string   `json:"dosage"`
	Frequency    *string   `json:"frequency"`
	Times        *[]string `json:"times"`
	StartDate    *string   `json:"start_date"`
	Instructions *string   `json:"instructions"`
	Active       *bool     `json:"active"`
	// end_date se detecta aparte para permitir null = uso continuo
}

type medicationResponse struct {
	ID             string    `json:"id"`
	FamilyMemberID string    `json:"family_member_id"`
	Name           string    `json:"name"`
	Dosage         string    `json:"dosage"`
	Frequency      Frequency `json:"frequency"`
	Times          []string  `json:"times"`
	StartDate      string    `json:"start_date"`
	EndDate        *string   `json:"end_date"`
	Continuous     bool      `json:"continuous"`
	Instructions   string    `json:"instructions"`
	Active         bool      `json:"active"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type logDoseRequest struct {
	Time  string `json:"time"` // HH:MM
	Notes string `json:"notes"`
}

type logResponse struct {
	ID            string    `json:"id"`
	MedicationID  string    `json:"medication_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	TakenAt       time.Time `json:"taken_at"`
	ConfirmedBy   string    `json:"confirmed_by"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

type scheduleRemindersRequest struct {
	Time string `json:"time"` // opcional: solo esa hora
}

type reminderResponse struct {
	Kind         reminders.Kind `json:"kind"`
	Tag          string         `json:"tag"`
	FireAt       time.Time      `json:"fire_at"`
	DelaySeconds int64          `json:"delay_seconds"`
	Scheduled    bool           `json:"scheduled"`
}

// createMedicationHandler godoc
// @Summary Registrar medicamento
// @Description Registra un medicamento con sus horas de toma. Requiere rol member o admin (o ser owner).
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createMedicationRequest true "Datos del medicamento"
// @Success 201 {object} medicationResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "family member not found"
// @Router /medications [post]
func createMedicationHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		claims, ok := guard.RequireAccess(w, r, req.FamilyMemberID, familyroles.ActionWrite)
		if !ok {
			return
		}

		start, err := timeutil.ParseOptionalDate(req.StartDate, time.UTC)
		if err != nil {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end, err := timeutil.ParseOptionalDate(req.EndDate, time.UTC)
		if err != nil {
			http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		m, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			FamilyMemberID: req.FamilyMemberID,
			Name:           req.Name,
			Dosage:         req.Dosage,
			Frequency:      req.Frequency,
			Times:          req.Times,
			StartDate:      start,
			EndDate:        end,
			Instructions:   req.Instructions,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicationResponse(m))
	}
}

// listMedicationsHandler godoc
// @Summary Listar medicamentos
// @Description Medicamentos de los familiares accesibles (o de uno puntual), por nombre.
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param family_member_id query string false "Filtrar por familiar"
// @Param active query bool false "Filtrar por activos/inactivos"
// @Success 200 {array} medicationResponse
// @Failure 400 {string} string "active must be true or false"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /medications [get]
func listMedicationsHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
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

		filter := ListFilter{MemberIDs: ids}
		if v := strings.TrimSpace(r.URL.Query().Get("active")); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				http.Error(w, "active must be true or false", http.StatusBadRequest)
				return
			}
			filter.Active = &b
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]medicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicationResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getMedicationHandler godoc
// @Summary Ver medicamento
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID del medicamento"
// @Success 200 {object} medicationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID} [get]
func getMedicationHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionRead)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(m))
	}
}

// updateMedicationHandler godoc
// @Summary Actualizar medicamento
// @Description PATCH parcial. `end_date: null` lo vuelve de uso continuo; `active: false` lo suspende.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID del medicamento"
// @Param payload body updateMedicationRequest true "Campos a modificar"
// @Success 200 {object} medicationResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID} [patch]
func updateMedicationHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionWrite)
		if !ok {
			return
		}

		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		var req updateMedicationRequest
		{
			b, _ := json.Marshal(raw)
			if err := json.Unmarshal(b, &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		in := UpdateInput{
			Name:         req.Name,
			Dosage:       req.Dosage,
			Frequency:    req.Frequency,
			Times:        req.Times,
			Instructions: req.Instructions,
			Active:       req.Active,
		}
		if req.StartDate != nil {
			t, err := timeutil.ParseDate(*req.StartDate, time.UTC)
			if err != nil {
				http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.StartDate = &t
		}
		if v, exists := raw["end_date"]; exists {
			in.EndDate.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "end_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				t, err := timeutil.ParseOptionalDate(s, time.UTC)
				if err != nil {
					http.Error(w, "end_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				in.EndDate.Value = t
			}
		}

		updated, err := svc.Update(r.Context(), m.ID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(updated))
	}
}

// deleteMedicationHandler godoc
// @Summary Borrar medicamento
// @Tags medications
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID del medicamento"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID} [delete]
func deleteMedicationHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionWrite)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), m.ID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// logDoseHandler godoc
// @Summary Confirmar toma
// @Description Registra que la dosis de hoy a la hora indicada fue tomada. Cualquier usuario con acceso de lectura puede confirmar.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID del medicamento"
// @Param payload body logDoseRequest true "Hora de la toma"
// @Success 201 {object} logResponse
// @Failure 400 {string} string "hora inválida o no pertenece al medicamento"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Failure 409 {string} string "medication not in effect"
// @Router /medications/{medicationID}/logs [post]
func logDoseHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionRead)
		if !ok {
			return
		}
		claims, _ := middleware.GetClaims(r.Context())

		var req logDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		l, err := svc.LogDose(r.Context(), m.ID, claims.UserID, LogInput{Time: req.Time, Notes: req.Notes})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toLogResponse(l))
	}
}

// listLogsHandler godoc
// @Summary Historial de tomas
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID del medicamento"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Success 200 {array} logResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID}/logs [get]
func listLogsHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionRead)
		if !ok {
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := svc.ListLogs(r.Context(), m.ID, limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]logResponse, 0, len(items))
		for _, l := range items {
			out = append(out, toLogResponse(l))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// scheduleRemindersHandler godoc
// @Summary Agendar avisos de toma
// @Description Agenda una notificación local para la próxima ocurrencia de cada hora de toma (o solo de `time`). No se re-arma al día siguiente. La notificación solo se emite si el permiso está concedido al momento de disparar.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID del medicamento"
// @Param payload body scheduleRemindersRequest false "Hora puntual opcional"
// @Success 202 {array} reminderResponse
// @Failure 400 {string} string "hora inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Failure 409 {string} string "medication not in effect"
// @Router /medications/{medicationID}/reminders [post]
func scheduleRemindersHandler(svc *Service, guard *familyroles.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := loadAuthorized(w, r, svc, guard, familyroles.ActionRead)
		if !ok {
			return
		}
		claims, _ := middleware.GetClaims(r.Context())

		var req scheduleRemindersRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		items, err := svc.ScheduleReminders(r.Context(), m.ID, claims.UserID, req.Time)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]reminderResponse, 0, len(items))
		for _, rem := range items {
			out = append(out, reminderResponse{
				Kind:         rem.Kind,
				Tag:          rem.Tag,
				FireAt:       rem.FireAt,
				DelaySeconds: int64(rem.Delay / time.Second),
				Scheduled:    rem.Scheduled,
			})
		}
		writeJSON(w, http.StatusAccepted, out)
	}
}

// loadAuthorized busca el medicamento y autoriza act sobre su familiar.
func loadAuthorized(w http.ResponseWriter, r *http.Request, svc *Service, guard *familyroles.Guard, act familyroles.Action) (Medication, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Medication{}, false
	}

	m, err := svc.GetByID(r.Context(), chi.URLParam(r, "medicationID"))
	if err != nil {
		writeServiceError(w, err)
		return Medication{}, false
	}
	if _, ok := guard.RequireAccess(w, r, m.FamilyMemberID, act); !ok {
		return Medication{}, false
	}
	return m, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, reminders.ErrInvalidInput), errors.Is(err, reminders.ErrInvalidTimeOfDay):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "medication not found", http.StatusNotFound)
	case errors.Is(err, ErrNotInEffect):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toMedicationResponse(m Medication) medicationResponse {
	var end *string
	if m.EndDate != nil {
		s := m.EndDate.Format(timeutil.DateLayout)
		end = &s
	}
	times := m.Times
	if times == nil {
		times = []string{}
	}
	return medicationResponse{
		ID:             m.ID,
		FamilyMemberID: m.FamilyMemberID,
		Name:           m.Name,
		Dosage:         m.Dosage,
		Frequency:      m.Frequency,
		Times:          times,
		StartDate:      m.StartDate.Format(timeutil.DateLayout),
		EndDate:        end,
		Continuous:     m.Continuous(),
		Instructions:   m.Instructions,
		Active:         m.Active,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toLogResponse(l Log) logResponse {
	return logResponse{
		ID:            l.ID,
		MedicationID:  l.MedicationID,
		ScheduledTime: l.ScheduledTime,
		TakenAt:       l.TakenAt,
		ConfirmedBy:   l.ConfirmedBy,
		Notes:         l.Notes,
		CreatedAt:     l.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
