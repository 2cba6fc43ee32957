package main

import (
	"context" // Context for migrations
	"flag"    // Command selection

	"tutor_market/internal/config"  // Custom import path (Config)
	"tutor_market/internal/db"      // Custom import path (Database)
	"tutor_market/internal/logging" // Logger setup

	"github.com/sirupsen/logrus"
)

// Main entry point for migration
func main() {
	down := flag.Bool("down", false, "roll back the latest migration")
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

	m, err := db.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("failed to open database: %v", err)
	}
	defer m.Close()

	ctx := context.Background()
	if *down {
		err = m.Down(ctx)
	} else {
		err = m.Up(ctx)
	}
	if err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	v, err := m.Version(ctx)
	if err != nil {
		logrus.Fatalf("read schema version: %v", err)
	}
	logrus.WithField("version", v).Info("Schema is current")
}
