package appointments

import (
	"net/http"
	"strings"
	"time"

	"family-care/internal/calendar"
	"family-care/internal/domain/familyroles"
	"family-care/internal/middleware"
	"family-care/internal/platform/timeutil"
)

type calendarEntryResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

type calendarCellResponse struct {
	Date          string                  `json:"date"` // YYYY-MM-DD
	InMonth       bool                    `json:"in_month"`
	IsToday       bool                    `json:"is_today"`
	Appointments  []calendarEntryResponse `json:"appointments"` // visibles (máx. 2)
	Total         int                     `json:"total"`
	Overflow      int                     `json:"overflow"`
	OverflowLabel string                  `json:"overflow_label,omitempty"`
}

type calendarResponse struct {
	Month      string                   `json:"month"` // YYYY-MM
	WeekStart  string                   `json:"week_start"`
	GridStart  string                   `json:"grid_start"`
	GridEnd    string                   `json:"grid_end"`
	PrevMonth  string                   `json:"prev_month"`
	NextMonth  string                   `json:"next_month"`
	TodayMonth string                   `json:"today_month"`
	Skipped    int                      `json:"skipped"`
	Weeks      [][]calendarCellResponse `json:"weeks"`
}

// calendarHandler godoc
// @Summary Calendario mensual de citas
// @Description Grilla del mes en semanas completas (incluye días de meses vecinos), con hasta 2 citas visibles por día y un indicador "+N mais" para el resto. Devuelve también los meses anterior, siguiente y actual para navegar.
// @Tags calendar
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param month query string false "Mes a proyectar (YYYY-MM). Por defecto el mes actual"
// @Param family_member_id query string false "Filtrar por familiar"
// @Param week_start query string false "sunday o monday. Por defecto según configuración"
// @Success 200 {object} calendarResponse
// @Failure 400 {string} string "month must be YYYY-MM"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /calendar [get]
func calendarHandler(svc *Service, guard *familyroles.Guard, settings Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		now := svc.now().In(settings.Location)

		ref := calendar.CurrentMonth(now)
		if v := strings.TrimSpace(q.Get("month")); v != "" {
			t, err := calendar.ParseMonth(v, settings.Location)
			if err != nil {
				http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
				return
			}
			ref = t
		}

		opts := calendar.Options{
			WeekStart: calendar.ParseWeekStart(q.Get("week_start"), settings.WeekStart),
			Location:  settings.Location,
		}

		ids, err := guard.Scope(r.Context(), claims.UserID, q.Get("family_member_id"), familyroles.ActionRead)
		if err != nil {
			familyroles.WriteError(w, err)
			return
		}

		month, err := svc.Calendar(r.Context(), ids, ref, opts)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toCalendarResponse(month, opts, now))
	}
}

func toCalendarResponse(m calendar.Month, opts calendar.Options, now time.Time) calendarResponse {
	weeks := make([][]calendarCellResponse, 0, len(m.Cells)/7)
	for _, row := range m.Weeks() {
		cells := make([]calendarCellResponse, 0, len(row))
		for _, c := range row {
			visible := make([]calendarEntryResponse, 0, len(c.Visible))
			for _, e := range c.Visible {
				visible = append(visible, calendarEntryResponse{ID: e.ID, Title: e.Title, ScheduledAt: e.At})
			}
			cells = append(cells, calendarCellResponse{
				Date:          c.Date.Format(timeutil.DateLayout),
				InMonth:       c.InMonth,
				IsToday:       c.IsToday,
				Appointments:  visible,
				Total:         len(c.Entries),
				Overflow:      c.Overflow,
				OverflowLabel: c.OverflowLabel(),
			})
		}
		weeks = append(weeks, cells)
	}

	return calendarResponse{
		Month:      calendar.MonthKey(m.Reference),
		WeekStart:  strings.ToLower(opts.WeekStart.String()),
		GridStart:  m.GridStart.Format(timeutil.DateLayout),
		GridEnd:    m.GridEnd.Format(timeutil.DateLayout),
		PrevMonth:  calendar.MonthKey(calendar.PrevMonth(m.Reference)),
		NextMonth:  calendar.MonthKey(calendar.NextMonth(m.Reference)),
		TodayMonth: calendar.MonthKey(calendar.CurrentMonth(now)),
		Skipped:    m.Skipped,
		Weeks:      weeks,
	}
}
