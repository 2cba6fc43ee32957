package main

import (
	"context" // Request-scoped cancellation
	"flag"    // Command-line flags

	"tutor_market/internal/config"     // Configuration
	"tutor_market/internal/db"         // Database connection and seed data
	"tutor_market/internal/logging"    // Logger setup
	"tutor_market/internal/repository" // Stores

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Loads reference subjects and a sample approved tutor into Postgres
func main() {
	adminEmail := flag.String("admin-email", "", "also create an admin account with this email")
	adminPassword := flag.String("admin-password", "", "password for -admin-email")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.IsProd); err != nil {
		logrus.Fatalf("failed to set up logger: %v", err)
	}
	if cfg.DatabaseURL == "" {
		logrus.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	store := repository.NewGormStore(gdb)
	if err := db.Seed(ctx, store, db.SeedOptions{AdminEmail: *adminEmail, AdminPassword: *adminPassword}); err != nil {
		logrus.Fatalf("seed failed: %v", err)
	}
}
