// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — it connects handlers, middleware,
// and routes. It is also the COMPOSITION ROOT: the one place where the
// whole dependency graph is assembled:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs. Services get repository
// interfaces, not the concrete stores; handlers get services, never the
// database. main.go stays minimal — load config, build the server, Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dailybite/dailybite/internal/auth"
	"github.com/dailybite/dailybite/internal/config"
	"github.com/dailybite/dailybite/internal/handler"
	"github.com/dailybite/dailybite/internal/middleware"
	"github.com/dailybite/dailybite/internal/recognition"
	sqliteRepo "github.com/dailybite/dailybite/internal/repository/sqlite"
	"github.com/dailybite/dailybite/internal/service"
	"github.com/dailybite/dailybite/internal/storage"
)

// Server owns the router, the database connection, and the image store's
// retention sweep. The database is closed during graceful shutdown so the
// WAL is flushed and the file lock released.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	images *storage.ImageStore
}

// New builds the full dependency graph and wires every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	images, err := storage.NewImageStore(cfg.UploadDir, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
		images: images,
	}

	if err := s.setupRoutes(location); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// setupRoutes configures middleware, builds the service layer, and maps
// every route.
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
//  1. RequestID — assigns a unique ID for tracing
//  2. RealIP — extracts the client IP from proxy headers
//  3. Recoverer — catches panics, returns 500 instead of crashing
//  4. Logger — logs each request with timing info
func (s *Server) setupRoutes(location *time.Location) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === SHARED AUTH PLUMBING ===
	tokens, err := auth.NewTokenService(s.cfg.JWTSecret, s.cfg.JWTTTL)
	if err != nil {
		return fmt.Errorf("building token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	requireAuth := auth.RequireAuth(tokens)

	// === SERVICES ===
	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)

	recognizer := recognition.NewMock(rand.NewSource(time.Now().UnixNano()))
	mealService := service.NewMealService(
		s.db.Meals(),
		s.db.Users(),
		recognizer,
		s.images,
		service.MealConfig{
			AllowedImageTypes: s.cfg.AllowedImageTypes,
			MaxUploadBytes:    s.cfg.MaxUploadBytes,
			AutoDeleteImages:  s.cfg.AutoDeleteImages,
			Location:          location,
		},
		s.logger,
	)

	postService := service.NewPostService(s.db.Posts(), s.logger)
	partnerService := service.NewPartnerService(s.db.Partners(), s.logger)

	// === HANDLERS ===
	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authService, s.logger)
	mealHandler := handler.NewMealHandler(mealService, s.cfg.MaxUploadBytes, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	partnerHandler := handler.NewPartnerHandler(partnerService, s.logger)

	// === ROUTES ===
	s.router.Get("/", healthHandler.HandleRoot)
	s.router.Get("/health", healthHandler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/token", authHandler.HandleToken)
		r.Post("/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Put("/me", authHandler.HandleUpdateMe)
		})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/photos/upload", mealHandler.HandleUpload)
		r.Get("/meals", mealHandler.HandleList)
		r.Get("/meals/{id}", mealHandler.HandleGet)
		r.Post("/meals/{id}/confirm", mealHandler.HandleConfirm)
		r.Delete("/meals/{id}", mealHandler.HandleDelete)
		r.Get("/summary", mealHandler.HandleSummary)
		r.Get("/users/{id}/summary", mealHandler.HandleUserSummary)
	})

	// Legacy CRUD kept public — it predates accounts.
	s.router.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.HandleList)
		r.Post("/", postHandler.HandleCreate)
		r.Get("/{id}", postHandler.HandleGet)
		r.Put("/{id}", postHandler.HandleUpdate)
		r.Delete("/{id}", postHandler.HandleDelete)
	})

	s.router.Route("/partners", func(r chi.Router) {
		r.Get("/", partnerHandler.HandleList)
		r.Post("/", partnerHandler.HandleCreate)
		r.Get("/{id}", partnerHandler.HandleGet)
		r.Patch("/{id}", partnerHandler.HandlePatch)
		r.Delete("/{id}", partnerHandler.HandleDelete)
	})

	return nil
}

// Handler exposes the router for tests that drive the server with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and the image retention sweep, then handles
// graceful shutdown:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Stop the sweep and close the database (flushes the WAL)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// The retention sweep runs hourly until shutdown. Auto-deleted photos
	// never reach it; this catches the ones users chose to keep but that
	// have outlived the retention window.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go s.runRetentionSweep(sweepCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
			slog.String("timezone", s.cfg.Timezone),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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

func (s *Server) runRetentionSweep(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.images.SweepExpired(s.cfg.ImageRetention); err != nil {
				s.logger.Error("image retention sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
