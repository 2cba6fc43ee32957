package db

import (
	"context" // Request-scoped cancellation
	"fmt"     // Error wrapping
	"time"    // Time handling

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/driver/postgres"    // GORM Postgres driver
	"gorm.io/gorm"               // GORM ORM
	"gorm.io/gorm/logger"        // GORM query logging
)

// Open connects gorm to Postgres and verifies the connection
func Open(ctx context.Context, databaseURL string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logrus.Info("Connected to Postgres")
	return gdb, nil
}
