package main

import (
	"context"
	"os"

	"github.com/ridloal/toko-storefront/internal/platform/auth"
	"github.com/ridloal/toko-storefront/internal/platform/config"
	"github.com/ridloal/toko-storefront/internal/platform/database"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
	productRepo "github.com/ridloal/toko-storefront/internal/product/repository"
	productService "github.com/ridloal/toko-storefront/internal/product/service"
	userRepo "github.com/ridloal/toko-storefront/internal/user/repository"
	userService "github.com/ridloal/toko-storefront/internal/user/service"
)

// init_db prepares a fresh database: schema, bootstrap admin and the sample catalog.
func main() {
	cfg := config.Load()
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	db, dialect, err := database.Connect(cfg.DB)
	if err != nil {
		logger.Error("Failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db, dialect); err != nil {
		logger.Error("Failed to run migrations", err)
		os.Exit(1)
	}
	logger.Info("Schema is up to date (%s)", dialect)

	ctx := context.Background()
	if cfg.Admin.Email == "" {
		logger.Warn("ADMIN_EMAIL not set, skipping admin bootstrap")
	} else {
		users := userService.NewUserService(userRepo.NewUserRepository(db), auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
		if _, err := users.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Phone); err != nil {
			logger.Error("Failed to bootstrap admin user", err)
			os.Exit(1)
		}
	}

	products := productService.NewProductService(productRepo.NewProductRepository(db))
	n, err := products.SeedSampleProducts(ctx)
	if err != nil {
		logger.Error("Failed to seed sample products", err)
		os.Exit(1)
	}
	if n == 0 {
		logger.Info("Catalog already has products, nothing seeded")
	} else {
		logger.Info("Seeded %d sample products", n)
	}
}
