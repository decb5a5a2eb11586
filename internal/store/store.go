// Package store selects and opens the configured data store backend.
package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/config"
	"vpn_store_bot/internal/domain"
	"vpn_store_bot/internal/store/mongostore"
	"vpn_store_bot/internal/store/pgstore"
)

// Backend is a connected data store holding the plans and orders collections.
type Backend interface {
	domain.PlanStore
	domain.OrderStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	openMongo = func(ctx context.Context, cfg config.Config, _ *logrus.Entry) (Backend, error) {
		return mongostore.Open(ctx, cfg.StoreURI, cfg.StoreName)
	}
	openPostgres = func(ctx context.Context, cfg config.Config, logger *logrus.Entry) (Backend, error) {
		return pgstore.Open(ctx, cfg.StoreURI, cfg.StoreName, logger)
	}
)

// Open connects to the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config, logger *logrus.Entry) (Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo, "":
		backend, err := openMongo(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		return backend, nil
	case config.DriverPostgres:
		backend, err := openPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
