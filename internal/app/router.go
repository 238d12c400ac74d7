package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campushub/campushub/internal/auth"
	"github.com/campushub/campushub/internal/authz"
	"github.com/campushub/campushub/internal/club"
	"github.com/campushub/campushub/internal/event"
	"github.com/campushub/campushub/internal/flag"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/membership"
	"github.com/campushub/campushub/internal/moderation"
	"github.com/campushub/campushub/internal/observability"
	"github.com/campushub/campushub/internal/shared"
	"github.com/campushub/campushub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler       *auth.Handler
	IdentityHandler   *identity.Handler
	ClubHandler       *club.Handler
	MembershipHandler *membership.Handler
	EventHandler      *event.Handler
	FlagHandler       *flag.Handler
	ModerationHandler *moderation.Handler
	JobHandler        *jobs.Handler

	Principal authz.Middleware
	Metrics   *observability.Metrics
}

// NewRouter constructs the chi.Router with platform defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(params.Principal.RequirePrincipal)

		r.Route("/clubs", func(r chi.Router) {
			params.ClubHandler.MountRoutes(r)
			r.Route("/{clubID}/members", params.MembershipHandler.MountRoutes)
			r.Route("/{clubID}/events", params.EventHandler.MountClubRoutes)
		})
		r.Route("/events", params.EventHandler.MountRoutes)
		r.Route("/flags", params.FlagHandler.MountRoutes)
		r.Route("/moderation-logs", params.ModerationHandler.MountRoutes)

		r.Route("/users", func(r chi.Router) {
			r.Use(params.Principal.RequireAdmin)
			params.IdentityHandler.MountRoutes(r)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
