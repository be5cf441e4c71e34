package router

import (
	"database/sql"
	"net/http"
	"time"

	_ "family-care/docs"

	objmemory "family-care/internal/adapters/objectstore/memory"
	mem "family-care/internal/adapters/storage/memory"
	pg "family-care/internal/adapters/storage/postgres"
	"family-care/internal/domain/appointments"
	"family-care/internal/domain/dashboard"
	"family-care/internal/domain/documents"
	"family-care/internal/domain/familymembers"
	"family-care/internal/domain/familyroles"
	"family-care/internal/domain/medications"
	notifyhttp "family-care/internal/domain/notifications"
	"family-care/internal/middleware"
	"family-care/internal/platform/logger"
	"family-care/internal/ports/auth"
	"family-care/internal/ports/notifications"
	"family-care/internal/ports/objectstore"
	"family-care/internal/reminders"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.Verifier // puede ser nil (modo dev)
	Logger       logger.Logger

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Files guarda los archivos de documentos. nil => in-memory.
	Files objectstore.Store

	// Notifier nil deja los recordatorios en no-op. Inbox nil => la bandeja responde 503.
	Notifier notifications.Notifier
	Inbox    notifications.Inbox

	Location  *time.Location
	WeekStart time.Weekday
}

type repos struct {
	members      familymembers.Repository
	roles        familyroles.Repository
	appointments appointments.Repository
	medications  medications.Repository
	documents    documents.Repository
}

func NewRouter(opts Options) http.Handler {
	log := logger.OrNop(opts.Logger)
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	rp := newRepos(opts.DB)

	files := opts.Files
	if files == nil {
		files = objmemory.NewStore()
	}

	sched := reminders.NewScheduler(opts.Notifier, log, loc)

	// Services por módulo
	membersSvc := familymembers.NewService(rp.members)
	guard := familyroles.NewGuard(rp.roles, membersSvc)
	rolesSvc := familyroles.NewService(rp.roles, guard)
	appointmentsSvc := appointments.NewService(rp.appointments, sched)
	medicationsSvc := medications.NewService(rp.medications, sched, loc)
	documentsSvc := documents.NewService(rp.documents, files, log)
	dashboardSvc := dashboard.NewService(guard, medicationsSvc, appointmentsSvc, documentsSvc)

	// Rutas por módulo
	familymembers.RegisterRoutes(r, membersSvc, guard)
	familyroles.RegisterRoutes(r, rolesSvc)
	appointments.RegisterRoutes(r, appointmentsSvc, guard, appointments.Settings{
		Location:  loc,
		WeekStart: opts.WeekStart,
	})
	medications.RegisterRoutes(r, medicationsSvc, guard)
	documents.RegisterRoutes(r, documentsSvc, guard)
	dashboard.RegisterRoutes(r, dashboardSvc)
	notifyhttp.RegisterRoutes(r, sched, opts.Inbox)

	return r
}

func newRepos(db *sql.DB) repos {
	if db != nil {
		return repos{
			members:      pg.NewFamilyMembersRepo(db),
			roles:        pg.NewFamilyRolesRepo(db),
			appointments: pg.NewAppointmentsRepo(db),
			medications:  pg.NewMedicationsRepo(db),
			documents:    pg.NewDocumentsRepo(db),
		}
	}
	return repos{
		members:      mem.NewFamilyMemberRepo(),
		roles:        mem.NewFamilyRoleRepo(),
		appointments: mem.NewAppointmentRepo(),
		medications:  mem.NewMedicationRepo(),
		documents:    mem.NewDocumentRepo(),
	}
}
