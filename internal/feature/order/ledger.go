// Package order owns every mutation of order records and enforces the
// pending -> completed lifecycle.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/domain"
	"vpn_store_bot/internal/logging"
)

// now is overridable for tests.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Ledger creates, looks up, and completes orders.
type Ledger struct {
	orders domain.OrderStore
	logger *logrus.Entry
}

// NewLedger constructs a Ledger over orders.
func NewLedger(orders domain.OrderStore, logger *logrus.Entry) *Ledger {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Ledger{
		orders: orders,
		logger: logger,
	}
}

// CreateOrder records a pending order. The order exists only once this call
// returns without error.
func (l *Ledger) CreateOrder(ctx context.Context, userID string, planID int64, amount int64) (domain.Order, error) {
	if err := l.check(ctx); err != nil {
		return domain.Order{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return domain.Order{}, errors.New("user id is required")
	}
	if planID <= 0 {
		return domain.Order{}, fmt.Errorf("plan id %d: %w", planID, domain.ErrInvalidID)
	}
	if amount < 0 {
		return domain.Order{}, fmt.Errorf("amount must not be negative, got %d", amount)
	}

	created, err := l.orders.InsertOrder(ctx, domain.Order{
		UserID:    strings.TrimSpace(userID),
		PlanID:    planID,
		Status:    domain.StatusPending,
		Amount:    amount,
		CreatedAt: now(),
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"event":    "order_created",
		"order_id": created.ID,
		"user_id":  created.UserID,
		"plan_id":  created.PlanID,
		"amount":   created.Amount,
	}).Info("created pending order")

	return created, nil
}

// LatestPendingOrder returns the user's newest pending order, or
// domain.ErrNotFound when there is none.
func (l *Ledger) LatestPendingOrder(ctx context.Context, userID string) (domain.Order, error) {
	return l.latest(ctx, domain.OrderFilter{UserID: userID, Status: domain.StatusPending})
}

// LatestOrder returns the user's newest order in any status.
func (l *Ledger) LatestOrder(ctx context.Context, userID string) (domain.Order, error) {
	return l.latest(ctx, domain.OrderFilter{UserID: userID})
}

func (l *Ledger) latest(ctx context.Context, filter domain.OrderFilter) (domain.Order, error) {
	if err := l.check(ctx); err != nil {
		return domain.Order{}, err
	}
	if strings.TrimSpace(filter.UserID) == "" {
		return domain.Order{}, errors.New("user id is required")
	}

	found, err := l.orders.FindLatestOrder(ctx, filter)
	if err != nil {
		return domain.Order{}, fmt.Errorf("latest order: %w", err)
	}

	return found, nil
}

// CompleteOrder moves a pending order to completed. Completing an order that
// is already completed writes nothing and returns the order together with
// domain.ErrAlreadyCompleted. Concurrent completions are not coordinated.
func (l *Ledger) CompleteOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if err := l.check(ctx); err != nil {
		return domain.Order{}, err
	}

	current, err := l.orders.FindOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("complete order: %w", err)
	}

	next, err := current.Transition(domain.StatusCompleted)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyCompleted) {
			l.logger.WithFields(logging.Fields{
				"event":    "order_already_completed",
				"order_id": current.ID,
			}).Info("order was already completed")
		}
		return current, err
	}

	if err := l.orders.UpdateOrderStatus(ctx, next.ID, next.Status); err != nil {
		return domain.Order{}, fmt.Errorf("complete order: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"event":    "order_completed",
		"order_id": next.ID,
		"user_id":  next.UserID,
	}).Info("completed order")

	return next, nil
}

// CountOrders returns the number of orders in status; empty status counts all.
func (l *Ledger) CountOrders(ctx context.Context, status domain.OrderStatus) (int64, error) {
	if err := l.check(ctx); err != nil {
		return 0, err
	}

	count, err := l.orders.CountOrders(ctx, status)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (l *Ledger) check(ctx context.Context) error {
	if l == nil || l.orders == nil {
		return errors.New("order ledger is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	return nil
}
