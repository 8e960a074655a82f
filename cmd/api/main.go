package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/peluchemania/backend/internal/auth"
	"github.com/peluchemania/backend/internal/config"
	"github.com/peluchemania/backend/internal/database"
	"github.com/peluchemania/backend/internal/models"
	"github.com/peluchemania/backend/internal/seed"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "peluchemania-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET must be set")
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	logger.Info().Msg("connected to database")

	if cfg.SeedData {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := seed.Run(ctx, db, logger); err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("seed data")
		}
		cancel()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newRouter(db, cfg, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func newRouter(db *sql.DB, cfg *config.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(corsAllowAll)

	authed := auth.RequireAuth(cfg.Auth.JWTSecret)
	adminOnly := auth.RequireRole(models.RoleAdmin)
	staffOnly := auth.RequireRole(models.RoleAdmin, models.RoleVendedor)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", handleRegister(db, cfg))
		r.Post("/auth/login", handleLogin(db, cfg))

		r.Get("/productos", handleListProducts(db))
		r.Get("/productos/low-stock", handleListLowStock(db))
		r.Get("/productos/categoria/{id}", handleListProductsByCategory(db))
		r.Get("/productos/{id}", handleGetProduct(db))
		r.Get("/categorias", handleListCategories(db))

		r.Group(func(r chi.Router) {
			r.Use(authed, adminOnly)
			r.Post("/productos", handleCreateProduct(db))
			r.Put("/productos/{id}", handleUpdateProduct(db))
			r.Delete("/productos/{id}", handleDeleteProduct(db))
			r.Post("/categorias", handleCreateCategory(db))
			r.Put("/categorias/{id}", handleUpdateCategory(db))
			r.Delete("/categorias/{id}", handleDeleteCategory(db))
			r.Get("/users", handleListUsers(db))
			r.Post("/users", handleCreateUser(db))
			r.Put("/users/{id}", handleUpdateUser(db))
			r.Delete("/users/{id}", handleDeleteUser(db))
		})

		r.Group(func(r chi.Router) {
			r.Use(authed, staffOnly)
			r.Get("/boletas", handleListReceipts(db))
		})

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Post("/checkout/purchase", handlePurchase(db, logger))
			r.Get("/boletas/{id}/detalles", handleReceiptDetails(db))
			r.Get("/users/{id}/boletas", handleUserReceipts(db))
		})
	})

	return r
}
