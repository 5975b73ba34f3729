package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/liftledger/internal/attendance"
	"github.com/claude/liftledger/internal/ledger"
	"github.com/claude/liftledger/internal/models"
	"github.com/claude/liftledger/internal/roles"
	"github.com/go-chi/chi/v5"
)

// ProfileStore persists athlete profiles.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p *models.AthleteProfile) error
	GetProfile(ctx context.Context, athleteID string) (*models.AthleteProfile, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	profiles ProfileStore
	ledger   *ledger.Ledger
	sheets   *attendance.Manager
	registry *roles.Registry
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(profiles ProfileStore, led *ledger.Ledger, sheets *attendance.Manager, registry *roles.Registry, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		profiles: profiles,
		ledger:   led,
		sheets:   sheets,
		registry: registry,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(Identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Get("/me", s.handleMe)

		r.Route("/athletes/{id}", func(r chi.Router) {
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handlePutProfile)
			r.Get("/prescription", s.handleGetPrescription)
			r.Post("/sessions", s.handlePostSession)
			r.Get("/sessions", s.handleRecentSessions)
			r.Get("/sessions/best", s.handleBestEstimate)
			r.Get("/sessions/today", s.handleCompletedToday)
		})

		// Active-athlete selection (coach scope checked by the resolver).
		r.Get("/active-athlete", s.handleGetActive)
		r.Put("/active-athlete", s.handlePutActive)
		r.Delete("/active-athlete", s.handleDeleteActive)

		// Attendance is coach-only.
		r.Route("/attendance/{team}", func(r chi.Router) {
			r.Use(s.RequireCoach)
			r.Get("/", s.handleGetSheet)
			r.Post("/dates", s.handleAddDate)
			r.Delete("/dates/{date}", s.handleRemoveDate)
			r.Put("/dates/{date}", s.handleRenameDate)
			r.Post("/toggle", s.handleToggle)
			r.Post("/athletes", s.handleAddAthlete)
			r.Delete("/athletes/{rowID}", s.handleRemoveAthlete)
		})
	})
}
