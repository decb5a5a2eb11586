package domain

import "context"

// PlanStore is the read side of the plan catalog.
type PlanStore interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	FindPlan(ctx context.Context, planID int64) (Plan, error)
}

// OrderStore persists orders. Implementations return ErrNotFound for missing
// records and PersistenceError for backend failures.
type OrderStore interface {
	InsertOrder(ctx context.Context, order Order) (Order, error)
	FindOrder(ctx context.Context, orderID string) (Order, error)
	FindLatestOrder(ctx context.Context, filter OrderFilter) (Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus) error
	CountOrders(ctx context.Context, status OrderStatus) (int64, error)
}
