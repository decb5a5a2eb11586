package mongostore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vpn_store_bot/internal/domain"
)

func TestListPlansDecodesAndSorts(t *testing.T) {
	plans := &fakePlanCollection{docs: []interface{}{
		bson.M{"plan_id": int64(1), "name": "Bronze", "details": "1 month", "price": int64(50000)},
		bson.M{"plan_id": int64(7), "name": "Gold", "details": "3 months", "price": int64(100000)},
	}}
	store := NewStore(plans, newFakeOrderCollection(t))

	got, err := store.ListPlans(context.Background())
	if err != nil {
		t.Fatalf("ListPlans returned error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(got))
	}
	if got[1].ID != 7 || got[1].Name != "Gold" || got[1].Price != 100000 {
		t.Fatalf("unexpected plan decoded: %+v", got[1])
	}

	if len(plans.findOpts) != 1 || plans.findOpts[0].Sort == nil {
		t.Fatalf("expected sort option on find, got %v", plans.findOpts)
	}
}

func TestListPlansEmptyCatalog(t *testing.T) {
	store := NewStore(&fakePlanCollection{}, newFakeOrderCollection(t))

	got, err := store.ListPlans(context.Background())
	if err != nil {
		t.Fatalf("ListPlans returned error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestListPlansWrapsFindError(t *testing.T) {
	store := NewStore(&fakePlanCollection{findErr: errors.New("socket closed")}, newFakeOrderCollection(t))

	if _, err := store.ListPlans(context.Background()); !domain.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestFindPlan(t *testing.T) {
	plans := &fakePlanCollection{docs: []interface{}{
		bson.M{"plan_id": int64(7), "name": "Gold", "details": "3 months", "price": int64(100000)},
	}}
	store := NewStore(plans, newFakeOrderCollection(t))

	plan, err := store.FindPlan(context.Background(), 7)
	if err != nil {
		t.Fatalf("FindPlan returned error: %v", err)
	}
	if plan.Name != "Gold" || plan.Details != "3 months" {
		t.Fatalf("unexpected plan: %+v", plan)
	}

	if _, err := store.FindPlan(context.Background(), 8); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing plan, got %v", err)
	}
}

func TestInsertAndFindOrder(t *testing.T) {
	orders := newFakeOrderCollection(t)
	store := NewStore(&fakePlanCollection{}, orders)

	createdAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	created, err := store.InsertOrder(context.Background(), domain.Order{
		UserID:    "555",
		PlanID:    7,
		Status:    domain.StatusPending,
		Amount:    100000,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("InsertOrder returned error: %v", err)
	}

	if _, err := primitive.ObjectIDFromHex(created.ID); err != nil {
		t.Fatalf("expected hex object id, got %q", created.ID)
	}

	doc := orders.docs[0]
	if doc["user_id"] != "555" || doc["status"] != "pending" || doc["amount"] != int64(100000) {
		t.Fatalf("unexpected stored document: %v", doc)
	}

	found, err := store.FindOrder(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("FindOrder returned error: %v", err)
	}
	if found.ID != created.ID || found.PlanID != 7 || !found.CreatedAt.Equal(createdAt) {
		t.Fatalf("unexpected order found: %+v", found)
	}
}

func TestInsertOrderWrapsWriteError(t *testing.T) {
	orders := newFakeOrderCollection(t)
	orders.insertErr = errors.New("write concern failed")
	store := NewStore(&fakePlanCollection{}, orders)

	_, err := store.InsertOrder(context.Background(), domain.Order{UserID: "1", PlanID: 1, Status: domain.StatusPending})
	if !domain.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestFindOrderRejectsMalformedID(t *testing.T) {
	store := NewStore(&fakePlanCollection{}, newFakeOrderCollection(t))

	if _, err := store.FindOrder(context.Background(), "not-an-object-id"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindLatestOrderPicksNewestMatching(t *testing.T) {
	orders := newFakeOrderCollection(t)
	store := NewStore(&fakePlanCollection{}, orders)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	insert := func(userID string, status domain.OrderStatus, offset time.Duration) domain.Order {
		t.Helper()
		order, err := store.InsertOrder(ctx, domain.Order{
			UserID:    userID,
			PlanID:    1,
			Status:    status,
			Amount:    10,
			CreatedAt: base.Add(offset),
		})
		if err != nil {
			t.Fatalf("InsertOrder returned error: %v", err)
		}
		return order
	}

	insert("42", domain.StatusPending, 0)
	newestPending := insert("42", domain.StatusPending, time.Minute)
	newestAny := insert("42", domain.StatusCompleted, 2*time.Minute)
	insert("43", domain.StatusPending, 3*time.Minute)

	got, err := store.FindLatestOrder(ctx, domain.OrderFilter{UserID: "42", Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("FindLatestOrder returned error: %v", err)
	}
	if got.ID != newestPending.ID {
		t.Fatalf("expected newest pending order %s, got %s", newestPending.ID, got.ID)
	}

	got, err = store.FindLatestOrder(ctx, domain.OrderFilter{UserID: "42"})
	if err != nil {
		t.Fatalf("FindLatestOrder returned error: %v", err)
	}
	if got.ID != newestAny.ID {
		t.Fatalf("expected newest order %s, got %s", newestAny.ID, got.ID)
	}

	if _, err := store.FindLatestOrder(ctx, domain.OrderFilter{UserID: "99", Status: domain.StatusPending}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for user without orders, got %v", err)
	}
}

func TestFindLatestOrderBreaksTiesByID(t *testing.T) {
	orders := newFakeOrderCollection(t)
	store := NewStore(&fakePlanCollection{}, orders)
	ctx := context.Background()

	createdAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	var last domain.Order
	for i := 0; i < 3; i++ {
		order, err := store.InsertOrder(ctx, domain.Order{
			UserID:    "42",
			PlanID:    1,
			Status:    domain.StatusPending,
			Amount:    10,
			CreatedAt: createdAt,
		})
		if err != nil {
			t.Fatalf("InsertOrder returned error: %v", err)
		}
		last = order
	}

	got, err := store.FindLatestOrder(ctx, domain.OrderFilter{UserID: "42", Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("FindLatestOrder returned error: %v", err)
	}
	if got.ID != last.ID {
		t.Fatalf("expected last inserted order %s, got %s", last.ID, got.ID)
	}

	if len(orders.findOneOpts) != 1 {
		t.Fatalf("expected one find option, got %d", len(orders.findOneOpts))
	}
	want := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	if !reflect.DeepEqual(orders.findOneOpts[0].Sort, want) {
		t.Fatalf("expected sort %v, got %v", want, orders.findOneOpts[0].Sort)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	orders := newFakeOrderCollection(t)
	store := NewStore(&fakePlanCollection{}, orders)
	ctx := context.Background()

	order, err := store.InsertOrder(ctx, domain.Order{UserID: "1", PlanID: 1, Status: domain.StatusPending, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("InsertOrder returned error: %v", err)
	}

	if err := store.UpdateOrderStatus(ctx, order.ID, domain.StatusCompleted); err != nil {
		t.Fatalf("UpdateOrderStatus returned error: %v", err)
	}

	found, err := store.FindOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindOrder returned error: %v", err)
	}
	if found.Status != domain.StatusCompleted {
		t.Fatalf("expected completed status, got %s", found.Status)
	}

	missing := primitive.NewObjectID().Hex()
	if err := store.UpdateOrderStatus(ctx, missing, domain.StatusCompleted); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown order, got %v", err)
	}
}

func TestStoreRequiresInitialization(t *testing.T) {
	var store *Store
	ctx := context.Background()

	if _, err := store.ListPlans(ctx); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := store.InsertOrder(ctx, domain.Order{}); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := NewStore(&fakePlanCollection{}, nil).FindOrder(ctx, "x"); err == nil {
		t.Fatalf("expected error for missing orders collection")
	}
}

type fakePlanCollection struct {
	docs     []interface{}
	findErr  error
	findOpts []*options.FindOptions
}

func (f *fakePlanCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	f.findOpts = append(f.findOpts, opts...)
	if f.findErr != nil {
		return nil, f.findErr
	}
	return mongo.NewCursorFromDocuments(f.docs, nil, nil)
}

func (f *fakePlanCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	filterDoc, ok := filter.(bson.M)
	if !ok {
		return mongo.NewSingleResultFromDocument(nil, fmt.Errorf("unexpected filter type %T", filter), nil)
	}

	for _, raw := range f.docs {
		doc := raw.(bson.M)
		if doc["plan_id"] == filterDoc["plan_id"] {
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		}
	}

	return mongo.NewSingleResultFromDocument(nil, mongo.ErrNoDocuments, nil)
}

type fakeOrderCollection struct {
	t           *testing.T
	docs        []bson.M
	insertErr   error
	findOneOpts []*options.FindOneOptions
}

func newFakeOrderCollection(t *testing.T) *fakeOrderCollection {
	t.Helper()
	return &fakeOrderCollection{t: t}
}

func (f *fakeOrderCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}

	doc := marshalDoc(f.t, document)
	f.docs = append(f.docs, doc)
	return &mongo.InsertOneResult{InsertedID: doc["_id"]}, nil
}

func (f *fakeOrderCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	filterDoc, ok := filter.(bson.M)
	if !ok {
		return mongo.NewSingleResultFromDocument(nil, fmt.Errorf("unexpected filter type %T", filter), nil)
	}

	f.findOneOpts = opts

	matches := f.matching(filterDoc)
	if len(matches) == 0 {
		return mongo.NewSingleResultFromDocument(nil, mongo.ErrNoDocuments, nil)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		ti, tj := timeOf(matches[i]), timeOf(matches[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return objectIDOf(matches[i]).Hex() > objectIDOf(matches[j]).Hex()
	})

	return mongo.NewSingleResultFromDocument(matches[0], nil, nil)
}

func (f *fakeOrderCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	filterDoc := filter.(bson.M)
	set := update.(bson.M)["$set"].(bson.M)

	matches := f.matching(filterDoc)
	for _, doc := range matches {
		for key, value := range set {
			doc[key] = value
		}
	}

	return &mongo.UpdateResult{MatchedCount: int64(len(matches)), ModifiedCount: int64(len(matches))}, nil
}

func (f *fakeOrderCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return int64(len(f.matching(filter.(bson.M)))), nil
}

func (f *fakeOrderCollection) matching(filter bson.M) []bson.M {
	var out []bson.M
	for _, doc := range f.docs {
		matched := true
		for key, value := range filter {
			if doc[key] != value {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, doc)
		}
	}
	return out
}

func marshalDoc(t *testing.T, document interface{}) bson.M {
	t.Helper()

	raw, err := bson.Marshal(document)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	return out
}

func objectIDOf(doc bson.M) primitive.ObjectID {
	id, _ := doc["_id"].(primitive.ObjectID)
	return id
}

func timeOf(doc bson.M) time.Time {
	switch v := doc["created_at"].(type) {
	case primitive.DateTime:
		return v.Time()
	case time.Time:
		return v
	default:
		return time.Time{}
	}
}
