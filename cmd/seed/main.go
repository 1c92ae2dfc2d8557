package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/operantis/backoffice-api/internal/config"
	"github.com/operantis/backoffice-api/internal/database"
	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/repository"
	"github.com/operantis/backoffice-api/internal/utils"
)

// main seeds the database with an admin user and sample products.
// Safe to run repeatedly: existing rows are left alone.
func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)

	if err := seedAdmin(userRepo); err != nil {
		log.Fatal().Err(err).Msg("admin seed failed")
	}
	if err := seedProducts(productRepo); err != nil {
		log.Fatal().Err(err).Msg("product seed failed")
	}

	log.Info().Msg("seed completed")
}

func seedAdmin(userRepo *repository.UserRepository) error {
	const adminEmail = "admin@operantis.com"

	if _, err := userRepo.GetByEmail(adminEmail); err == nil {
		log.Info().Str("email", adminEmail).Msg("admin user already exists")
		return nil
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Email:        adminEmail,
		PasswordHash: string(hash),
		FirstName:    "Admin",
		LastName:     "Operantis",
		IsActive:     true,
	}
	if err := userRepo.Create(user); err != nil {
		return err
	}
	log.Info().Str("email", adminEmail).Msg("admin user created")
	return nil
}

func seedProducts(productRepo *repository.ProductRepository) error {
	desc := func(s string) *string { return &s }

	products := []models.Product{
		{
			SKU:         "LAP-001",
			Name:        "Laptop HP",
			Description: desc(`Laptop HP 15.6" Intel Core i5`),
			Price:       decimal.RequireFromString("899.99"),
			Stock:       10,
			IsActive:    true,
		},
		{
			SKU:         "MON-001",
			Name:        "Monitor Dell",
			Description: desc(`Monitor Dell 24" Full HD`),
			Price:       decimal.RequireFromString("199.99"),
			Stock:       15,
			IsActive:    true,
		},
		{
			SKU:         "TEC-001",
			Name:        "Teclado Mecanico",
			Description: desc("Teclado mecanico RGB"),
			Price:       decimal.RequireFromString("79.99"),
			Stock:       20,
			IsActive:    true,
		},
	}

	for i := range products {
		p := &products[i]
		if err := productRepo.Create(p); err != nil {
			if err == utils.ErrDuplicateSKU {
				log.Info().Str("sku", p.SKU).Msg("product already exists")
				continue
			}
			return err
		}
		log.Info().Str("sku", p.SKU).Msg("product created")
	}
	return nil
}
