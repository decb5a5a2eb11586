package mongostore

import (
	"context"
	"fmt"
)

// Backend couples the Mongo client manager with the Store built on it.
type Backend struct {
	*Store
	manager *Manager
}

// Open connects to Mongo, ensures indexes, and returns a ready Backend.
func Open(ctx context.Context, uri, database string) (*Backend, error) {
	manager, err := NewManager(ctx, uri, database)
	if err != nil {
		return nil, err
	}

	if err := manager.EnsureIndexes(ctx); err != nil {
		_ = manager.Close(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return &Backend{Store: manager.Store(), manager: manager}, nil
}

// Ping verifies the primary is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	return b.manager.Ping(ctx)
}

// Close disconnects the Mongo client.
func (b *Backend) Close(ctx context.Context) error {
	return b.manager.Close(ctx)
}
