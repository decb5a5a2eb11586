package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vpn_store_bot/internal/domain"
)

type planCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

type orderCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type planDocument struct {
	PlanID  int64  `bson:"plan_id"`
	Name    string `bson:"name"`
	Details string `bson:"details"`
	Price   int64  `bson:"price"`
}

func (d planDocument) toDomain() domain.Plan {
	return domain.Plan{
		ID:      d.PlanID,
		Name:    d.Name,
		Details: d.Details,
		Price:   d.Price,
	}
}

type orderDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"user_id"`
	PlanID    int64              `bson:"plan_id"`
	Status    string             `bson:"status"`
	Amount    int64              `bson:"amount"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d orderDocument) toDomain() domain.Order {
	return domain.Order{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		PlanID:    d.PlanID,
		Status:    domain.OrderStatus(d.Status),
		Amount:    d.Amount,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// Store implements domain.PlanStore and domain.OrderStore over MongoDB
// collections.
type Store struct {
	plans  planCollection
	orders orderCollection
}

// NewStore constructs a Store.
func NewStore(plans planCollection, orders orderCollection) *Store {
	return &Store{plans: plans, orders: orders}
}

// ListPlans returns every plan ordered by plan id.
func (s *Store) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	if err := s.checkPlans(ctx); err != nil {
		return nil, err
	}

	cursor, err := s.plans.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "plan_id", Value: 1}}))
	if err != nil {
		return nil, domain.Persistence("find plans", err)
	}

	var docs []planDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, domain.Persistence("decode plans", err)
	}

	plans := make([]domain.Plan, 0, len(docs))
	for _, doc := range docs {
		plans = append(plans, doc.toDomain())
	}

	return plans, nil
}

// FindPlan fetches a plan by id.
func (s *Store) FindPlan(ctx context.Context, planID int64) (domain.Plan, error) {
	if err := s.checkPlans(ctx); err != nil {
		return domain.Plan{}, err
	}

	result := s.plans.FindOne(ctx, bson.M{"plan_id": planID})
	if result == nil {
		return domain.Plan{}, domain.Persistence("find plan", errors.New("find plan returned no result"))
	}

	var doc planDocument
	if err := result.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Plan{}, fmt.Errorf("plan %d: %w", planID, domain.ErrNotFound)
		}
		return domain.Plan{}, domain.Persistence("find plan", err)
	}

	return doc.toDomain(), nil
}

// InsertOrder stores order under a freshly generated ObjectID and returns it
// with the ID populated.
func (s *Store) InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := s.checkOrders(ctx); err != nil {
		return domain.Order{}, err
	}

	doc := orderDocument{
		ID:        primitive.NewObjectID(),
		UserID:    order.UserID,
		PlanID:    order.PlanID,
		Status:    string(order.Status),
		Amount:    order.Amount,
		CreatedAt: order.CreatedAt,
	}

	if _, err := s.orders.InsertOne(ctx, doc); err != nil {
		return domain.Order{}, domain.Persistence("insert order", err)
	}

	return doc.toDomain(), nil
}

// FindOrder fetches an order by its hex ObjectID.
func (s *Store) FindOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if err := s.checkOrders(ctx); err != nil {
		return domain.Order{}, err
	}

	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %q: %w", orderID, domain.ErrNotFound)
	}

	return s.findOneOrder(ctx, "find order", bson.M{"_id": id})
}

// latestOrderSort orders newest first. ObjectIDs break ties between orders
// created in the same millisecond.
var latestOrderSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// FindLatestOrder returns the newest order matching filter.
func (s *Store) FindLatestOrder(ctx context.Context, filter domain.OrderFilter) (domain.Order, error) {
	if err := s.checkOrders(ctx); err != nil {
		return domain.Order{}, err
	}

	query := bson.M{"user_id": filter.UserID}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	return s.findOneOrder(ctx, "find latest order", query,
		options.FindOne().SetSort(latestOrderSort))
}

// UpdateOrderStatus sets the status of an order. Concurrent writers are not
// coordinated; the last write wins.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if err := s.checkOrders(ctx); err != nil {
		return err
	}

	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return fmt.Errorf("order %q: %w", orderID, domain.ErrNotFound)
	}

	result, err := s.orders.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return domain.Persistence("update order status", err)
	}
	if result != nil && result.MatchedCount == 0 {
		return fmt.Errorf("order %q: %w", orderID, domain.ErrNotFound)
	}

	return nil
}

func (s *Store) findOneOrder(ctx context.Context, op string, filter bson.M, opts ...*options.FindOneOptions) (domain.Order, error) {
	result := s.orders.FindOne(ctx, filter, opts...)
	if result == nil {
		return domain.Order{}, domain.Persistence(op, errors.New("find returned no result"))
	}

	var doc orderDocument
	if err := result.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Order{}, domain.Persistence(op, err)
	}

	return doc.toDomain(), nil
}

func (s *Store) checkPlans(ctx context.Context) error {
	if s == nil || s.plans == nil {
		return errors.New("plan store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	return nil
}

func (s *Store) checkOrders(ctx context.Context) error {
	if s == nil || s.orders == nil {
		return errors.New("order store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	return nil
}
