// Package server wires the application together: store, AI client, services,
// handlers and routes. It is the composition root; nothing else in the
// codebase constructs cross-layer dependencies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/stemly/backend/internal/ai"
	"github.com/stemly/backend/internal/auth"
	"github.com/stemly/backend/internal/config"
	"github.com/stemly/backend/internal/handler"
	"github.com/stemly/backend/internal/middleware"
	"github.com/stemly/backend/internal/repository"
	nullRepo "github.com/stemly/backend/internal/repository/null"
	sqliteRepo "github.com/stemly/backend/internal/repository/sqlite"
	"github.com/stemly/backend/internal/service"
	"github.com/stemly/backend/internal/storage"
)

// Server owns the router and the process-lifetime resources (the store).
type Server struct {
	router *chi.Mux
	cfg    config.Config
	logger *slog.Logger
	store  repository.Store
}

// New assembles the full dependency chain from configuration.
//
// Optional capabilities degrade rather than fail: no DB path means the null
// store, no API key means AI components run with a nil generator and serve
// their documented fallbacks.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	var gen ai.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("server: creating AI client: %w", err)
		}
		gen = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, AI features are disabled")
	}

	verifier, err := buildVerifier(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes(gen, verifier)
	return s, nil
}

func openStore(cfg config.Config, logger *slog.Logger) (repository.Store, error) {
	if cfg.DBPath == "" {
		logger.Warn("DB_PATH not set, running without persistence")
		return nullRepo.New(), nil
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("server: opening database: %w", err)
	}
	return db, nil
}

func buildVerifier(cfg config.Config, logger *slog.Logger) (auth.Verifier, error) {
	var chain auth.Chain
	if cfg.DevAuthToken != "" {
		logger.Warn("DEV_AUTH_TOKEN is set, development bypass credential is active")
		chain = append(chain, auth.NewStaticVerifier(cfg.DevAuthToken))
	}
	if cfg.FirebaseProjectID != "" {
		firebase, err := auth.NewFirebaseVerifier(cfg.FirebaseProjectID)
		if err != nil {
			return nil, fmt.Errorf("server: creating token verifier: %w", err)
		}
		chain = append(chain, firebase)
	}
	return chain, nil
}

func (s *Server) setupRoutes(gen ai.Generator, verifier auth.Verifier) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Uploaded scans are served back to the app from here.
	fileServer := http.FileServer(http.Dir(s.cfg.StaticDir()))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	files := storage.New(s.cfg.DataDir, s.logger)

	scanService := service.NewScanService(files, ai.NewDetector(gen, s.logger), s.store.Scans(), s.logger)
	notesService := service.NewNotesService(files, ai.NewNotesGenerator(gen, s.logger), s.store.Notes(), s.logger)
	chatService := service.NewChatService(files, ai.NewChat(gen, s.logger), s.logger)
	visualiserService := service.NewVisualiserService(ai.NewAdjuster(gen, s.logger), s.store.Visualiser(), s.logger)

	scanHandler := handler.NewScanHandler(scanService, s.logger)
	notesHandler := handler.NewNotesHandler(notesService, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.logger)
	visualiserHandler := handler.NewVisualiserHandler(visualiserService, s.logger)
	authHandler := handler.NewAuthHandler(s.store.Users(), s.logger)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"backend is running"}`))
	})
	s.router.Get("/scan/ping", scanHandler.HandlePing)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier, s.store.Users(), s.logger))

		r.Get("/auth/me", authHandler.HandleMe)

		r.Post("/scan/upload", scanHandler.HandleUpload)
		r.Get("/scan/history", scanHandler.HandleHistory)

		r.Post("/notes/generate", notesHandler.HandleGenerate)
		r.Post("/notes/ask", notesHandler.HandleAsk)
		r.Get("/notes/history", notesHandler.HandleHistory)

		r.Post("/chat/ask", chatHandler.HandleAsk)

		r.Post("/visualiser/states", visualiserHandler.HandleSaveState)
		r.Get("/visualiser/states", visualiserHandler.HandleHistory)
		r.Post("/visualiser/generate", visualiserHandler.HandleGenerate)
		r.Post("/visualiser/update", visualiserHandler.HandleUpdate)
		r.Get("/visualiser/history", visualiserHandler.HandleHistory)
	})
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully and
// closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("data_dir", s.cfg.DataDir),
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
