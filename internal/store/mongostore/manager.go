// Package mongostore implements the plan catalog and order ledger storage on
// MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names used by the storefront.
const (
	CollectionPlans  = "plans"
	CollectionOrders = "orders"
)

// mongoClient captures the subset of mongo.Client behavior we rely on to allow
// lightweight stubbing in tests without a live Mongo deployment.
type mongoClient interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

// connectMongo is overridable for tests.
var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (mongoClient, error) {
	return mongo.Connect(ctx, opts)
}

// createIndexes is overridable for tests.
var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

// Manager owns a MongoDB client and the configured database handle.
type Manager struct {
	client mongoClient
	db     *mongo.Database
}

// NewManager connects to uri, selects database, and verifies connectivity
// with a ping.
func NewManager(ctx context.Context, uri, database string) (*Manager, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if database == "" {
		return nil, errors.New("database name is required")
	}

	client, err := connectMongo(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Manager{
		client: client,
		db:     client.Database(database),
	}, nil
}

// Database returns the configured database handle.
func (m *Manager) Database() *mongo.Database {
	return m.db
}

// Collection returns a collection handle for the given name.
func (m *Manager) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Plans returns the plans collection handle.
func (m *Manager) Plans() *mongo.Collection {
	return m.Collection(CollectionPlans)
}

// Orders returns the orders collection handle.
func (m *Manager) Orders() *mongo.Collection {
	return m.Collection(CollectionOrders)
}

// Store builds the plan/order store over this manager's collections.
func (m *Manager) Store() *Store {
	return NewStore(m.Plans(), m.Orders())
}

// Ping verifies the primary is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}

	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	return nil
}

// EnsureIndexes creates the plan id uniqueness index and the index backing the
// latest-order-per-user lookup. Collections are created implicitly.
func (m *Manager) EnsureIndexes(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.db == nil {
		return errors.New("store manager is not initialized")
	}

	planIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "plan_id", Value: 1}},
			Options: options.Index().
				SetName("plan_id_unique").
				SetUnique(true),
		},
	}

	if _, err := createIndexes(ctx, m.Plans(), planIndexes); err != nil {
		return fmt.Errorf("create plans indexes: %w", err)
	}

	orderIndexes := []mongo.IndexModel{
		{
			Keys:    append(bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}, latestOrderSort...),
			Options: options.Index().SetName("user_status_created_at"),
		},
	}

	if _, err := createIndexes(ctx, m.Orders(), orderIndexes); err != nil {
		return fmt.Errorf("create orders indexes: %w", err)
	}

	return nil
}

// Close disconnects the Mongo client.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Disconnect(ctx)
}
