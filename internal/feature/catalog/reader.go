// Package catalog serves the read-only plan catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/domain"
	"vpn_store_bot/internal/logging"
)

// Reader lists and fetches plans. It never writes to the store.
type Reader struct {
	plans  domain.PlanStore
	logger *logrus.Entry
}

// NewReader constructs a Reader over plans.
func NewReader(plans domain.PlanStore, logger *logrus.Entry) *Reader {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Reader{
		plans:  plans,
		logger: logger,
	}
}

// ListPlans returns the catalog. An empty catalog is not an error.
func (r *Reader) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	if r == nil || r.plans == nil {
		return nil, errors.New("catalog reader is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	plans, err := r.plans.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event": "catalog_listed",
		"plans": len(plans),
	}).Debug("listed plans")

	return plans, nil
}

// GetPlan fetches one plan. Non-positive ids fail with domain.ErrInvalidID
// before the store is consulted.
func (r *Reader) GetPlan(ctx context.Context, planID int64) (domain.Plan, error) {
	if r == nil || r.plans == nil {
		return domain.Plan{}, errors.New("catalog reader is not initialized")
	}
	if ctx == nil {
		return domain.Plan{}, errors.New("context is required")
	}
	if planID <= 0 {
		return domain.Plan{}, fmt.Errorf("plan id %d: %w", planID, domain.ErrInvalidID)
	}

	plan, err := r.plans.FindPlan(ctx, planID)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("get plan: %w", err)
	}

	return plan, nil
}
