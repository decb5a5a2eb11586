package domain

import (
	"fmt"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// CanTransitionTo reports whether moving from s to next is legal. The only
// legal transition is pending -> completed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == StatusPending && next == StatusCompleted
}

// Order records one purchase attempt. Amount is copied from the plan price at
// creation and never re-derived.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	PlanID    int64       `json:"plan_id"`
	Status    OrderStatus `json:"status"`
	Amount    int64       `json:"amount"`
	CreatedAt time.Time   `json:"created_at"`
}

// Transition returns a copy of o moved to next, or ErrInvalidTransition
// (or ErrAlreadyCompleted when o is already completed).
func (o Order) Transition(next OrderStatus) (Order, error) {
	if o.Status == StatusCompleted && next == StatusCompleted {
		return o, ErrAlreadyCompleted
	}
	if !o.Status.CanTransitionTo(next) {
		return o, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}

	o.Status = next
	return o, nil
}

// OrderFilter narrows order lookups. A zero Status matches any status.
type OrderFilter struct {
	UserID string
	Status OrderStatus
}
