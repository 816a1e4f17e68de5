package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/example/meeting-scheduler/internal/application"
	"github.com/example/meeting-scheduler/internal/config"
	httptransport "github.com/example/meeting-scheduler/internal/http"
	"github.com/example/meeting-scheduler/internal/lock"
	"github.com/example/meeting-scheduler/internal/metrics"
	"github.com/example/meeting-scheduler/internal/persistence/sqlite"
)

// app holds the long lived dependencies shared by every subcommand.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	storage *sqlite.Storage
	redis   *redis.Client
	locker  lock.Locker

	availability *application.AvailabilityService
	bookings     *application.BookingService
	organizers   *application.OrganizerService
}

// newApp opens and migrates storage, then builds the services.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	opts := sqlite.DefaultOptions(cfg.DBDSN)
	opts.Driver = cfg.DBDriver

	storage, err := sqlite.OpenWithLogger(opts, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, storage: storage}

	switch cfg.LockBackend {
	case config.LockBackendMemory:
		a.locker = lock.NewMemoryLocker(cfg.LockTTL)
	default:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.locker = lock.NewRedisLocker(a.redis, cfg.LockTTL)
	}

	now := time.Now
	store := newStorageAdapter(storage, now)
	directory, err := newOrganizerCache(store, cfg.OrganizerCacheSize)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("build organizer cache: %w", err)
	}

	a.availability = application.NewAvailabilityServiceWithLogger(directory, store, store, now, logger)
	a.bookings = application.NewBookingServiceWithLogger(directory, store, store, a.availability, a.locker, uuid.NewString, now, logger)
	a.organizers = application.NewOrganizerServiceWithLogger(store, uuid.NewString, now, logger)

	return a, nil
}

// Close releases the redis client and the database pool.
func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := a.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}

func (a *app) healthChecks() map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{
		"database": a.storage.Ping,
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}
	}
	return checks
}

// handler assembles the HTTP surface. Middleware order: panic recovery,
// request logging, then caller identification.
func (a *app) handler() http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Availability: httptransport.NewAvailabilityHandler(a.availability, a.logger),
		Bookings:     httptransport.NewBookingHandler(a.bookings, a.logger),
		Health:       a.healthChecks(),
		Metrics:      metrics.Handler(),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.Recover(a.logger),
			httptransport.RequestLogger(a.logger),
			httptransport.IdentifyPrincipal(),
		},
	})
}
