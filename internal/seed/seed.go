// Package seed loads the demo catalog and accounts the web client expects on
// a fresh database. Each section only runs when its table is empty, so
// re-running on boot is safe.
package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/peluchemania/backend/internal/auth"
	"github.com/peluchemania/backend/internal/models"
	"github.com/peluchemania/backend/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func Run(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	seededUsers, err := seedUsers(ctx, db)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	seededCatalog, err := seedCatalog(ctx, db)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	logger.Info().
		Bool("users", seededUsers).
		Bool("catalog", seededCatalog).
		Msg("seed finished")

	return nil
}

func seedUsers(ctx context.Context, db *sql.DB) (bool, error) {
	var count int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	users := []struct {
		name, email, password, role  string
		region, comuna, calle, depto string
	}{
		{"Super Admin", "admin@duoc.cl", "admin123", models.RoleAdmin,
			"Metropolitana", "Santiago Centro", "Av. Siempreviva 742", "Oficina 1"},
		{"Vendedor Estrella", "vendedor@duoc.cl", "vendedor123", models.RoleVendedor, "", "", "", ""},
		{"Cliente Feliz", "cliente@gmail.cl", "cliente23", models.RoleCliente, "", "", "", ""},
	}

	for _, u := range users {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return false, err
		}

		in := store.UserInput{
			Name:         u.name,
			Email:        u.email,
			PasswordHash: hash,
			Role:         u.role,
		}
		if u.region != "" {
			in.AddressRegion = &u.region
			in.AddressComuna = &u.comuna
			in.AddressCalle = &u.calle
			in.AddressDepto = &u.depto
		}

		if _, err := store.CreateUser(ctx, db, in); err != nil {
			return false, err
		}
	}

	return true, nil
}

func seedCatalog(ctx context.Context, db *sql.DB) (bool, error) {
	var count int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	categories := map[string]int64{}
	for _, name := range []string{"Osos", "Fantasía", "Animales"} {
		category, err := store.CreateCategory(ctx, db, name)
		if err != nil {
			return false, err
		}
		categories[name] = category.ID
	}

	products := []struct {
		name, description string
		price             int64
		stock             int
		image, category   string
		onSale            bool
		discount          float64
	}{
		{"Oso Cariñoso", "El clásico osito de peluche suave y tierno.", 15990, 10, "/osito.jpg", "Osos", true, 0.20},
		{"Panda Dormilón", "Perfecto para abrazar a la hora de la siesta.", 12990, 5, "/panda.jpg", "Osos", true, 0.15},
		{"Oso Gigante", "Un gran amigo para decorar tu habitación.", 29990, 3, "/osobig.jpg", "Osos", false, 0},
		{"Unicornio Mágico", "Con cuerno brillante y colores mágicos.", 22990, 15, "/unicornio.jpg", "Fantasía", true, 0.30},
		{"Dino Rex", "El rey de los dinosaurios en versión tierna.", 14500, 8, "/dinosaurio.jpg", "Fantasía", false, 0},
		{"Dragón Verde", "Pequeño guardián de tus sueños.", 16990, 7, "/dragon.jpg", "Fantasía", false, 0},
		{"Conejo Orejón", "Orejas largas y pelaje extra suave.", 9990, 20, "/conejo.jpg", "Animales", false, 0},
		{"Perezoso Relax", "Se toma la vida con calma y suavidad.", 11990, 12, "/peresozo.jpg", "Animales", false, 0},
		{"Pochita", "Tu mejor amigo demonio de peluche.", 18990, 6, "/pochita.jpg", "Animales", false, 0},
	}

	for _, p := range products {
		categoryID := categories[p.category]
		_, err := store.CreateProduct(ctx, db, store.ProductInput{
			Name:        p.name,
			Description: p.description,
			Price:       decimal.NewFromInt(p.price),
			Stock:       p.stock,
			OnSale:      p.onSale,
			Discount:    p.discount,
			CategoryID:  &categoryID,
			ImageURL:    p.image,
		})
		if err != nil {
			return false, err
		}
	}

	return true, nil
}
