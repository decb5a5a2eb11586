package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"vpn_store_bot/internal/domain"
)

// CountOrders returns the number of orders in status, or every order when
// status is empty.
func (s *Store) CountOrders(ctx context.Context, status domain.OrderStatus) (int64, error) {
	if err := s.checkOrders(ctx); err != nil {
		return 0, err
	}

	filter := bson.M{}
	if status != "" {
		filter["status"] = string(status)
	}

	count, err := s.orders.CountDocuments(ctx, filter)
	if err != nil {
		return 0, domain.Persistence("count orders", err)
	}

	return count, nil
}
