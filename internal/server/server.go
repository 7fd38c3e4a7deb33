package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cellhub/admin/config"
	"github.com/cellhub/admin/internal/handlers"
	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/storage"
	"github.com/cellhub/admin/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/cors"
)

const uploadsBucket = "cellhub-devserver"

// Options tune a development server. Zero values are fine.
type Options struct {
	Logger logger.Logger
	Now    func() time.Time
	Auth   handlers.AuthOptions
	// BcryptCost is used for the seeded accounts; zero means the
	// bcrypt default.
	BcryptCost int
	// SkipSeed starts with empty repositories.
	SkipSeed bool
	// Quiet drops the request log middleware.
	Quiet bool
}

// Server is the development API server: every endpoint the dashboard
// calls, backed by in-memory repositories.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	store      *store.Store
	files      *storage.Storage
}

// New builds a server and seeds it with an administrator and sample
// data.
func New(ctx context.Context, cfg config.DevServerConfig, opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		jwtSecret = uuid.NewString()
		log.Warn("DEVSERVER_JWT_SECRET not set, using a random secret")
	}

	repos := store.New()
	if !opts.SkipSeed {
		err := repos.Seed(ctx, store.SeedOptions{
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
			Now:           now(),
			Cost:          opts.BcryptCost,
		})
		if err != nil {
			return nil, errors.Wrap(err, "seed development data")
		}
	}

	files := storage.NewStorage(storage.NewMemory(uploadsBucket), "")
	if err := files.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	authOpts := opts.Auth
	if authOpts.Now == nil {
		authOpts.Now = now
	}
	auth := handlers.NewAuthHandler(repos.Users, jwtSecret, log, authOpts)
	deps := handlers.Deps{Store: repos, Files: files, Log: log, Now: now}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
	)
	if !opts.Quiet {
		router.Use(middleware.Logger)
	}
	router.Use(
		middleware.Timeout(60*time.Second),
		corsHandler(cfg.AllowedOrigins),
	)

	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, auth)
	router.Route(strings.TrimSuffix(handlers.UploadsPrefix, "/"), func(r chi.Router) {
		handlers.FilesRouter(r, files)
	})
	router.Route("/API", func(r chi.Router) {
		r.Use(auth.RequireAuth, auth.RequireAdmin)
		r.Route("/events", func(r chi.Router) { handlers.EventRouter(r, deps) })
		r.Route("/users", func(r chi.Router) { handlers.UserRouter(r, deps) })
		r.Route("/cellules", func(r chi.Router) { handlers.CelluleRouter(r, deps) })
		r.Route("/documents", func(r chi.Router) { handlers.DocumentRouter(r, deps) })
		r.Route("/announcements", func(r chi.Router) { handlers.AnnouncementRouter(r, deps) })
		r.Route("/attendance", func(r chi.Router) { handlers.AttendanceRouter(r, deps) })
	})

	port := cfg.Port
	if port == 0 {
		port = 3500
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		store:      repos,
		files:      files,
	}, nil
}

// corsHandler allows the configured origins with credentials, so a
// browser front end can send the refresh cookie.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}).Handler
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler is the root handler, for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store exposes the repositories.
func (s *Server) Store() *store.Store {
	return s.store
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
