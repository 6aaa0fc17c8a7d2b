// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and
// routes. It is the composition root: every service and handler is
// constructed here, in one place, rather than scattered across the codebase.
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "read config, start the server")
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

	"github.com/akozlova/foodgram/internal/auth"
	"github.com/akozlova/foodgram/internal/handler"
	"github.com/akozlova/foodgram/internal/middleware"
	sqliteRepo "github.com/akozlova/foodgram/internal/repository/sqlite"
	"github.com/akozlova/foodgram/internal/service"
	"github.com/akozlova/foodgram/internal/storage"
)

// Config holds server configuration, loaded from the environment by main.
type Config struct {
	Port      int
	DBPath    string // path to the SQLite database file
	MediaDir  string // root directory for uploaded images
	BaseURL   string // public base URL, used to mint short links
	JWTSecret string
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB // closed during graceful shutdown
}

// New assembles the full dependency chain:
//
//	sqlite.DB → repositories (interfaces) → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services. No layer reaches past its neighbour.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS — ours is:
// 1. RequestID — assigns a unique ID to each request (for tracing)
// 2. RealIP — extracts the real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. StripSlashes — "/api/recipes/" and "/api/recipes" hit the same route
// 5. Logger — logs each request with timing info
//
// AUTH GROUPS:
// Routes are grouped by auth requirement, not by resource. OptionalAuth
// wraps public reads whose representation depends on who is asking
// (is_favorited, is_subscribed); RequireAuth wraps everything that writes
// on behalf of an identity.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.StripSlashes)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	images, err := storage.NewImageStore(s.config.MediaDir)
	if err != nil {
		return fmt.Errorf("creating image store: %w", err)
	}

	// The single sqlite.DB satisfies every repository interface; each
	// service only sees the slices it needs.
	userService := service.NewUserService(s.db, s.db, s.db, tokens, passwords, images, s.logger)
	recipeService := service.NewRecipeService(s.db, s.db, s.db, s.db, s.db, s.db, images, s.logger)
	catalogService := service.NewCatalogService(s.db, s.db, s.logger)
	shortLinkService := service.NewShortLinkService(s.db, s.db, s.config.BaseURL, s.logger)

	authHandler := handler.NewAuthHandler(userService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	recipeHandler := handler.NewRecipeHandler(recipeService, s.logger)
	catalogHandler := handler.NewCatalogHandler(catalogService, s.logger)
	shortLinkHandler := handler.NewShortLinkHandler(shortLinkService, s.logger)

	// Uploaded images. GET /media/recipe_images/abc.png serves
	// {MediaDir}/recipe_images/abc.png.
	fileServer := http.FileServer(http.Dir(images.Root()))
	s.router.Handle("/media/*", http.StripPrefix("/media/", fileServer))

	// Short link redirects live at the root — these are the URLs people
	// paste into chats, so they must be as short as possible.
	s.router.Get("/s/{token}", shortLinkHandler.HandleRedirect)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/token/login", authHandler.HandleLogin)
		r.Post("/auth/token/logout", authHandler.HandleLogout)

		// Reference data: public, identity-independent.
		r.Get("/tags", catalogHandler.HandleListTags)
		r.Get("/tags/{id}", catalogHandler.HandleGetTag)
		r.Get("/ingredients", catalogHandler.HandleListIngredients)
		r.Get("/ingredients/{id}", catalogHandler.HandleGetIngredient)

		// Registration is the one open write.
		r.Post("/users", userHandler.HandleRegister)

		// Short link minting is public and idempotent.
		r.Get("/recipes/{id}/get-link", shortLinkHandler.HandleGetLink)

		// Public reads whose output depends on the (optional) caller.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))

			r.Get("/users", userHandler.HandleList)
			r.Get("/users/{id}", userHandler.HandleGet)
			r.Get("/recipes", recipeHandler.HandleList)
			r.Get("/recipes/{id}", recipeHandler.HandleGet)
		})

		// Everything below writes (or reads private data) on behalf of an
		// authenticated identity.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/users/me", userHandler.HandleMe)
			r.Patch("/users/me", userHandler.HandleUpdateMe)
			r.Put("/users/me/avatar", userHandler.HandleSetAvatar)
			r.Delete("/users/me/avatar", userHandler.HandleDeleteAvatar)
			r.Post("/users/set_password", userHandler.HandleSetPassword)
			r.Get("/users/subscriptions", userHandler.HandleSubscriptions)
			r.Post("/users/{id}/subscribe", userHandler.HandleSubscribe)
			r.Delete("/users/{id}/subscribe", userHandler.HandleUnsubscribe)

			r.Post("/recipes", recipeHandler.HandleCreate)
			r.Patch("/recipes/{id}", recipeHandler.HandleUpdate)
			r.Delete("/recipes/{id}", recipeHandler.HandleDelete)

			r.Post("/recipes/{id}/favorite", recipeHandler.HandleFavorite)
			r.Delete("/recipes/{id}/favorite", recipeHandler.HandleUnfavorite)
			r.Post("/recipes/{id}/shopping_cart", recipeHandler.HandleAddToCart)
			r.Delete("/recipes/{id}/shopping_cart", recipeHandler.HandleRemoveFromCart)
			r.Get("/recipes/download_shopping_cart", recipeHandler.HandleDownloadCart)
		})
	})

	return nil
}

// ServeHTTP makes the server usable directly with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start runs the HTTP server and handles graceful shutdown:
// 1. Stop accepting new connections on SIGINT/SIGTERM
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

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
			slog.String("base_url", s.config.BaseURL),
			slog.String("database", s.config.DBPath),
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
