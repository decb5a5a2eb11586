package mongostore

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func TestNewManagerConnectsAndExposesCollections(t *testing.T) {
	fake := newFakeMongoClient(t)
	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	uri := "mongodb://stub-host:27017"
	database := "vpn_store_test"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	manager, err := NewManager(ctx, uri, database)
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	if manager.Database().Name() != database {
		t.Fatalf("expected database %s, got %s", database, manager.Database().Name())
	}

	if len(fake.databaseRequests) != 1 || fake.databaseRequests[0] != database {
		t.Fatalf("expected database request for %s, got %v", database, fake.databaseRequests)
	}

	if manager.Plans().Name() != CollectionPlans {
		t.Fatalf("expected plans collection name %s, got %s", CollectionPlans, manager.Plans().Name())
	}

	if manager.Orders().Name() != CollectionOrders {
		t.Fatalf("expected orders collection name %s, got %s", CollectionOrders, manager.Orders().Name())
	}

	if err := manager.Close(ctx); err != nil {
		t.Fatalf("expected clean disconnect, got %v", err)
	}

	if !fake.disconnectCalled {
		t.Fatalf("expected disconnect to be called")
	}
}

func TestNewManagerErrors(t *testing.T) {
	tests := []struct {
		name           string
		ctx            context.Context
		database       string
		connectErr     error
		pingErr        error
		wantDisconnect bool
	}{
		{name: "nil context", ctx: nil, database: "vpn_store_test"},
		{name: "empty database", ctx: context.Background()},
		{name: "connect fails", ctx: context.Background(), database: "vpn_store_test", connectErr: errors.New("connect failed")},
		{name: "ping fails", ctx: context.Background(), database: "vpn_store_test", pingErr: errors.New("ping failed"), wantDisconnect: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeMongoClient(t)
			fake.pingErr = tt.pingErr
			var client mongoClient = fake
			if tt.connectErr != nil {
				client = nil
			}
			t.Cleanup(stubConnect(client, tt.connectErr))

			manager, err := NewManager(tt.ctx, "mongodb://stub", tt.database)
			if err == nil {
				t.Fatalf("expected error, got manager %+v", manager)
			}
			if tt.connectErr != nil && !errors.Is(err, tt.connectErr) {
				t.Fatalf("expected connect error to be wrapped, got %v", err)
			}
			if fake.disconnectCalled != tt.wantDisconnect {
				t.Fatalf("expected disconnect=%v, got %v", tt.wantDisconnect, fake.disconnectCalled)
			}
		})
	}
}

func TestManagerStoreUsesOrderCollection(t *testing.T) {
	fake := newFakeMongoClient(t)
	t.Cleanup(stubConnect(fake, nil))

	manager, err := NewManager(context.Background(), "mongodb://stub", "vpn_store_test")
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	store := manager.Store()
	coll, ok := store.orders.(*mongo.Collection)
	if !ok || coll.Name() != CollectionOrders {
		t.Fatalf("expected orders collection, got %#v", store.orders)
	}
}

func TestManagerCloseRequiresContext(t *testing.T) {
	fake := newFakeMongoClient(t)
	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	manager, err := NewManager(context.Background(), "mongodb://stub", "vpn_store_test")
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	if err := manager.Close(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestManagerPingChecksConnectivity(t *testing.T) {
	fake := newFakeMongoClient(t)
	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	manager, err := NewManager(context.Background(), "mongodb://stub", "vpn_store_test")
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := manager.Ping(ctx); err != nil {
		t.Fatalf("expected ping to succeed, got error: %v", err)
	}

	if fake.pingCalls < 2 {
		t.Fatalf("expected ping to be invoked at least twice (init + explicit), got %d", fake.pingCalls)
	}
	if fake.lastReadPref != "primary" {
		t.Fatalf("expected ping to use primary read preference, got %q", fake.lastReadPref)
	}
}

func TestManagerPingPropagatesErrors(t *testing.T) {
	fake := newFakeMongoClient(t)
	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	manager, err := NewManager(context.Background(), "mongodb://stub", "vpn_store_test")
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	errPing := errors.New("ping failed")
	fake.pingErr = errPing

	if err := manager.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail")
	} else if !errors.Is(err, errPing) {
		t.Fatalf("expected ping error to wrap ping failed, got %v", err)
	}
}

func TestManagerPingValidatesContext(t *testing.T) {
	fake := newFakeMongoClient(t)
	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	manager, err := NewManager(context.Background(), "mongodb://stub", "vpn_store_test")
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	if err := manager.Ping(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestEnsureIndexesCreatesPlanAndOrderIndexes(t *testing.T) {
	fake := newFakeMongoClient(t)
	restoreConnect := stubConnect(fake, nil)
	t.Cleanup(restoreConnect)

	manager, err := NewManager(context.Background(), "mongodb://stub", "vpn_store_test")
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	recorder := newIndexRecorder(t, "")
	restoreIndexes := recorder.stub()
	t.Cleanup(restoreIndexes)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := manager.EnsureIndexes(ctx); err != nil {
		t.Fatalf("expected indexes to be created, got error: %v", err)
	}

	if len(recorder.calls) != 2 {
		t.Fatalf("expected 2 index creation calls, got %d", len(recorder.calls))
	}

	planCall := recorder.calls[0]
	if planCall.collection != CollectionPlans {
		t.Fatalf("expected first collection %s, got %s", CollectionPlans, planCall.collection)
	}
	assertUniqueIndex(t, planCall.models, "plan_id", "plan_id_unique")

	orderCall := recorder.calls[1]
	if orderCall.collection != CollectionOrders {
		t.Fatalf("expected second collection %s, got %s", CollectionOrders, orderCall.collection)
	}
	assertLatestOrderIndex(t, orderCall.models)
}

func TestEnsureIndexesFailsFastOnErrors(t *testing.T) {
	fake := newFakeMongoClient(t)
	restoreConnect := stubConnect(fake, nil)
	t.Cleanup(restoreConnect)

	manager, err := NewManager(context.Background(), "mongodb://stub", "vpn_store_test")
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	recorder := newIndexRecorder(t, CollectionPlans)
	restoreIndexes := recorder.stub()
	t.Cleanup(restoreIndexes)

	err = manager.EnsureIndexes(context.Background())
	if err == nil {
		t.Fatalf("expected error from index creation")
	}
	if len(recorder.calls) != 1 {
		t.Fatalf("expected to stop after first failure, got %d calls", len(recorder.calls))
	}
	if !errors.Is(err, errIndexFailure) {
		t.Fatalf("expected error to wrap index failure, got %v", err)
	}
}

func TestEnsureIndexesValidatesContext(t *testing.T) {
	fake := newFakeMongoClient(t)
	restoreConnect := stubConnect(fake, nil)
	t.Cleanup(restoreConnect)

	manager, err := NewManager(context.Background(), "mongodb://stub", "vpn_store_test")
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	if err := manager.EnsureIndexes(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

type fakeMongoClient struct {
	client           *mongo.Client
	pingErr          error
	disconnectErr    error
	disconnectCalled bool
	databaseRequests []string
	pingCalls        int
	lastReadPref     string
}

func newFakeMongoClient(t *testing.T) *fakeMongoClient {
	t.Helper()

	client, err := mongo.NewClient(options.Client().ApplyURI("mongodb://example.com:27017"))
	if err != nil {
		t.Fatalf("failed to build fake client: %v", err)
	}

	return &fakeMongoClient{client: client}
}

func (f *fakeMongoClient) Ping(_ context.Context, rp *readpref.ReadPref) error {
	f.pingCalls++
	if rp != nil {
		f.lastReadPref = rp.String()
	}
	return f.pingErr
}

func (f *fakeMongoClient) Database(name string, opts ...*options.DatabaseOptions) *mongo.Database {
	f.databaseRequests = append(f.databaseRequests, name)
	return f.client.Database(name, opts...)
}

func (f *fakeMongoClient) Disconnect(context.Context) error {
	f.disconnectCalled = true
	return f.disconnectErr
}

func stubConnect(fake mongoClient, err error) func() {
	prev := connectMongo
	connectMongo = func(context.Context, *options.ClientOptions) (mongoClient, error) {
		return fake, err
	}

	return func() {
		connectMongo = prev
	}
}

var errIndexFailure = errors.New("index failure")

type indexCall struct {
	collection string
	models     []mongo.IndexModel
}

type indexRecorder struct {
	t               *testing.T
	calls           []indexCall
	errorCollection string
}

func newIndexRecorder(t *testing.T, errorCollection string) *indexRecorder {
	t.Helper()
	return &indexRecorder{t: t, errorCollection: errorCollection}
}

func (r *indexRecorder) stub() func() {
	prev := createIndexes
	createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
		r.calls = append(r.calls, indexCall{collection: coll.Name(), models: models})
		if r.errorCollection == coll.Name() {
			return nil, errIndexFailure
		}
		return []string{coll.Name() + "_idx"}, nil
	}

	return func() {
		createIndexes = prev
	}
}

func assertUniqueIndex(t *testing.T, models []mongo.IndexModel, key, name string) {
	t.Helper()

	if len(models) != 1 {
		t.Fatalf("expected 1 index model, got %d", len(models))
	}

	keysDoc, ok := models[0].Keys.(bson.D)
	if !ok {
		t.Fatalf("expected bson.D keys, got %T", models[0].Keys)
	}

	if len(keysDoc) != 1 || keysDoc[0].Key != key {
		t.Fatalf("expected index key %s, got %v", key, keysDoc)
	}

	if models[0].Options == nil || models[0].Options.Unique == nil || !*models[0].Options.Unique {
		t.Fatalf("expected unique option for %s", key)
	}

	if models[0].Options.Name == nil || *models[0].Options.Name != name {
		t.Fatalf("expected index name %s, got %v", name, models[0].Options.Name)
	}
}

func assertLatestOrderIndex(t *testing.T, models []mongo.IndexModel) {
	t.Helper()

	if len(models) != 1 {
		t.Fatalf("expected 1 order index model, got %d", len(models))
	}

	keysDoc, ok := models[0].Keys.(bson.D)
	if !ok {
		t.Fatalf("expected bson.D keys, got %T", models[0].Keys)
	}

	// Equality prefix for the filter, then the exact sort FindLatestOrder uses.
	want := bson.D{
		{Key: "user_id", Value: 1},
		{Key: "status", Value: 1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}
	if !reflect.DeepEqual(keysDoc, want) {
		t.Fatalf("expected index keys %v, got %v", want, keysDoc)
	}
	if !reflect.DeepEqual(keysDoc[2:], latestOrderSort) {
		t.Fatalf("expected index suffix to match latest order sort %v, got %v", latestOrderSort, keysDoc[2:])
	}

	if models[0].Options == nil || models[0].Options.Name == nil || *models[0].Options.Name != "user_status_created_at" {
		t.Fatalf("expected user_status_created_at index name, got %+v", models[0].Options)
	}
	if models[0].Options.Unique != nil && *models[0].Options.Unique {
		t.Fatalf("expected latest order index to allow duplicates")
	}
}
