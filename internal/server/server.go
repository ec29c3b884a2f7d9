// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It decides:
// - Which store backs the repositories (SQLite or MongoDB)
// - Where session records live (memory, the SQLite file, or Redis)
// - Which URL patterns map to which handler functions
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → New() → repositories → services → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes) rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/config"
	"github.com/sakif/social-network/internal/handler"
	"github.com/sakif/social-network/internal/middleware"
	"github.com/sakif/social-network/internal/service"
	"github.com/sakif/social-network/internal/session"
)

// sweepInterval is how often expired session records are purged from stores
// that don't expire them on their own.
const sweepInterval = time.Minute

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store connection and the session store. Close releases
// them in reverse order of opening; Start calls it on shutdown.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	store    *store
	sessions session.Store
	closers  []func() error
}

// New creates a Server from cfg. It connects to the configured store and
// session backend, so it fails fast when either is unreachable.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.store = st
	s.closers = append(s.closers, st.close)

	sessions, closeSessions, err := openSessions(ctx, cfg, st)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.sessions = sessions
	if closeSessions != nil {
		s.closers = append(s.closers, closeSessions)
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE (under BasePath, default /api):
// POST   /users            → register
// GET    /users            → list users (?q= search)
// GET    /users/{id}       → get user
// DELETE /users/{id}       → delete user
// POST   /login            → log in
// GET    /login            → session status
// DELETE /login            → log out
// POST   /follow           → follow
// DELETE /follow           → unfollow
// GET    /feed             → personalised feed
// POST   /contents         → create content
// GET    /contents         → list content (?q= search)
// GET    /contents/{id}    → get content
// DELETE /contents/{id}    → delete own content
// GET    /healthz          → store health (outside BasePath)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique id to each request (for tracing)
// 2. RealIP: extracts the client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger: logs each request with timing info and the request id
// 5. Identify (API routes only): resolves the session cookie into an identity
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	passwords, err := auth.NewPasswordChecker(s.config.PasswordMode)
	if err != nil {
		return err
	}
	signer, err := auth.NewCookieSigner(s.config.SessionSecret)
	if err != nil {
		return err
	}
	gate := auth.NewGate(signer, s.sessions, session.CookieOptions{
		Path:   "/",
		Secure: s.config.CookieSecure,
	}, s.logger)

	// DEPENDENCY CHAIN:
	//   store → repository interfaces → services → handlers
	// The handler never touches the store directly; the service never touches HTTP.
	authService := service.NewAuthService(s.store.users, s.sessions, passwords, s.config.SessionTTL, s.logger)
	userService := service.NewUserService(s.store.users, s.logger)
	contentService := service.NewContentService(s.store.contents, s.logger)
	feedService := service.NewFeedService(s.store.users, s.store.contents, s.logger)

	authHandler := handler.NewAuthHandler(authService, gate, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	contentHandler := handler.NewContentHandler(contentService, s.logger)
	socialHandler := handler.NewSocialHandler(feedService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	api := func(r chi.Router) {
		r.Use(auth.Identify(gate))

		r.Post("/users", authHandler.HandleRegister)
		r.Get("/users", userHandler.HandleList)
		r.Get("/users/{id}", userHandler.HandleGet)
		r.Delete("/users/{id}", userHandler.HandleDelete)

		r.Post("/login", authHandler.HandleLogin)
		r.Get("/login", authHandler.HandleStatus)
		r.Delete("/login", authHandler.HandleLogout)

		r.Post("/follow", socialHandler.HandleFollow)
		r.Delete("/follow", socialHandler.HandleUnfollow)
		r.Get("/feed", socialHandler.HandleFeed)

		r.Post("/contents", contentHandler.HandleCreate)
		r.Get("/contents", contentHandler.HandleList)
		r.Get("/contents/{id}", contentHandler.HandleGet)
		r.Delete("/contents/{id}", contentHandler.HandleDelete)
	}

	if base := s.config.BasePath; base != "" && base != "/" {
		s.router.Route(base, api)
	} else {
		s.router.Group(api)
	}

	s.logger.Info("routes configured",
		slog.String("basePath", s.config.BasePath),
		slog.String("store", s.config.StoreDriver),
		slog.String("sessions", s.config.SessionStore),
		slog.String("passwords", s.config.PasswordMode),
	)
	return nil
}

// Handler returns the root HTTP handler. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the session store and the data store.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// sweepSessions purges expired session records until ctx is cancelled.
// Redis expires keys itself, so it is not a Sweeper and this never runs for it.
func (s *Server) sweepSessions(ctx context.Context, sweeper session.Sweeper) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := sweeper.DeleteExpired(ctx, now)
			if err != nil {
				s.logger.Warn("session sweep failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				s.logger.Debug("expired sessions removed", slog.Int("count", n))
			}
		}
	}
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Stop the session sweeper
// 4. Close the session store and the data store
func (s *Server) Start() error {
	defer s.Close()

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if sweeper, ok := s.sessions.(session.Sweeper); ok {
		go s.sweepSessions(sweepCtx, sweeper)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d%s", s.config.Port, s.config.BasePath)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
