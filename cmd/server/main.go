package main

import (
	"context"   // Context for startup and shutdown
	"errors"    // Server close detection
	"fmt"       // Error wrapping
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Shutdown deadline

	"tutor_market/internal/api"        // HTTP handlers and router
	"tutor_market/internal/config"     // Configuration
	"tutor_market/internal/db"         // Database connection and seed data
	"tutor_market/internal/events"     // Booking event publisher
	"tutor_market/internal/logging"    // Logger setup
	"tutor_market/internal/middleware" // CORS
	"tutor_market/internal/payment"    // Payment gateways
	"tutor_market/internal/repository" // Stores
	"tutor_market/internal/service"    // Business services
	"tutor_market/internal/utils"      // Redis cache
	"tutor_market/internal/worker"     // Hold sweeper

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	if err := run(); err != nil {
		logrus.Fatalf("server: %v", err)
	}
}

// run serves until a signal arrives or the listener fails. Every deferred
// cleanup runs before it returns.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.IsProd); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg)

	// Redis is optional; without it the tutor listing is read straight from the store
	var cache *utils.Cache
	if cfg.RedisAddr != "" {
		rdb, err := utils.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, tutor cache disabled")
		} else {
			defer rdb.Close()
			cache = utils.NewCache(rdb)
		}
	}

	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}
	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	auth, err := service.NewAuthService(store.Users, cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to build auth service: %w", err)
	}
	tutors := service.NewTutorService(store, cache)
	bookings := service.NewBookingService(store, gateway, publisher, service.BookingConfig{
		HoldTTL:        cfg.HoldTTL,
		PaymentTimeout: cfg.PaymentTimeout,
		Currency:       cfg.PaymentCurrency,
	}, nil)
	meetings := service.NewMeetingService(bookings, cfg.MeetingBaseURL)

	sweeper := worker.NewSweeper(bookings, cfg.SweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(api.Deps{
		Auth:     auth,
		Tutors:   tutors,
		Bookings: bookings,
		Meetings: meetings,
		Backend:  store.Backend,
	})
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.CORSOrigins())(r),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{"port": cfg.Port, "store": store.Backend}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// openStore connects to Postgres. Outside production a missing or unreachable
// database falls back to a seeded in-memory store.
func openStore(ctx context.Context, cfg *config.Config) *repository.Store {
	if cfg.DatabaseURL != "" {
		gdb, err := db.Open(ctx, cfg.DatabaseURL)
		if err == nil {
			return repository.NewGormStore(gdb)
		}
		if cfg.IsProd {
			logrus.Fatalf("failed to connect to DB: %v", err)
		}
		logrus.WithError(err).Warn("Database unavailable, serving from in-memory store")
	} else {
		if cfg.IsProd {
			logrus.Fatal("DATABASE_URL is required in production")
		}
		logrus.Warn("DATABASE_URL not set, serving from in-memory store")
	}
	store := repository.NewMemoryStore()
	if err := db.Seed(ctx, store, db.SeedOptions{}); err != nil {
		logrus.WithError(err).Warn("Seeding in-memory store failed")
	}
	return store
}

// newGateway uses Omise when keys are configured, the sandbox otherwise
func newGateway(cfg *config.Config) (payment.Gateway, error) {
	if cfg.OmiseSecretKey == "" {
		if cfg.IsProd {
			logrus.Warn("Omise keys not set, payments use the sandbox gateway")
		}
		return &payment.Sandbox{}, nil
	}
	gw, err := payment.NewOmise(cfg.OmisePublicKey, cfg.OmiseSecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment gateway: %w", err)
	}
	return gw, nil
}

// newPublisher connects to RabbitMQ when RABBIT_URL is set
func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.RabbitURL == "" {
		return events.Noop{}, nil
	}
	pub, err := events.NewAMQP(cfg.RabbitURL, cfg.EventsExchange)
	if err != nil {
		if cfg.IsProd {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		logrus.WithError(err).Warn("RabbitMQ unavailable, booking events disabled")
		return events.Noop{}, nil
	}
	return pub, nil
}
