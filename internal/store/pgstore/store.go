package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"vpn_store_bot/internal/domain"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	listPlansSQL   = `SELECT id, name, details, price FROM plans ORDER BY id`
	findPlanSQL    = `SELECT id, name, details, price FROM plans WHERE id = $1`
	orderColumns   = `id, user_id, plan_id, status, amount, created_at`
	insertOrderSQL = `INSERT INTO orders (user_id, plan_id, status, amount, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + orderColumns
	findOrderSQL         = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	findLatestOrderSQL   = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND ($2 = '' OR status = $2) ORDER BY created_at DESC, id DESC LIMIT 1`
	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
	countOrdersSQL       = `SELECT count(*) FROM orders WHERE ($1 = '' OR status = $1)`
)

// Store implements domain.PlanStore and domain.OrderStore with plain SQL.
type Store struct {
	db querier
}

// NewStore constructs a Store over a pool, connection, or transaction.
func NewStore(db querier) *Store {
	return &Store{db: db}
}

// ListPlans returns every plan ordered by id.
func (s *Store) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, listPlansSQL)
	if err != nil {
		return nil, domain.Persistence("query plans", err)
	}
	defer rows.Close()

	plans := make([]domain.Plan, 0)
	for rows.Next() {
		var plan domain.Plan
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.Details, &plan.Price); err != nil {
			return nil, domain.Persistence("scan plan", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("iterate plans", err)
	}

	return plans, nil
}

// FindPlan fetches a plan by id.
func (s *Store) FindPlan(ctx context.Context, planID int64) (domain.Plan, error) {
	if err := s.check(ctx); err != nil {
		return domain.Plan{}, err
	}

	var plan domain.Plan
	err := s.db.QueryRow(ctx, findPlanSQL, planID).Scan(&plan.ID, &plan.Name, &plan.Details, &plan.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Plan{}, fmt.Errorf("plan %d: %w", planID, domain.ErrNotFound)
		}
		return domain.Plan{}, domain.Persistence("find plan", err)
	}

	return plan, nil
}

// InsertOrder inserts order and returns the stored row with its assigned id.
func (s *Store) InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := s.check(ctx); err != nil {
		return domain.Order{}, err
	}

	row := s.db.QueryRow(ctx, insertOrderSQL,
		order.UserID, order.PlanID, string(order.Status), order.Amount, order.CreatedAt)

	created, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, domain.Persistence("insert order", err)
	}

	return created, nil
}

// FindOrder fetches an order by its numeric id.
func (s *Store) FindOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if err := s.check(ctx); err != nil {
		return domain.Order{}, err
	}

	id, err := parseOrderID(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	return s.queryOrder(ctx, "find order", findOrderSQL, id)
}

// FindLatestOrder returns the newest order matching filter.
func (s *Store) FindLatestOrder(ctx context.Context, filter domain.OrderFilter) (domain.Order, error) {
	if err := s.check(ctx); err != nil {
		return domain.Order{}, err
	}

	return s.queryOrder(ctx, "find latest order", findLatestOrderSQL, filter.UserID, string(filter.Status))
}

// UpdateOrderStatus sets the status of an order; the last write wins.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	id, err := parseOrderID(orderID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return domain.Persistence("update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %q: %w", orderID, domain.ErrNotFound)
	}

	return nil
}

// CountOrders counts orders in status, or all orders when status is empty.
func (s *Store) CountOrders(ctx context.Context, status domain.OrderStatus) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	var count int64
	if err := s.db.QueryRow(ctx, countOrdersSQL, string(status)).Scan(&count); err != nil {
		return 0, domain.Persistence("count orders", err)
	}

	return count, nil
}

func (s *Store) queryOrder(ctx context.Context, op, sql string, args ...any) (domain.Order, error) {
	order, err := scanOrder(s.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Order{}, domain.Persistence(op, err)
	}

	return order, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		order  domain.Order
		id     int64
		status string
	)

	if err := row.Scan(&id, &order.UserID, &order.PlanID, &status, &order.Amount, &order.CreatedAt); err != nil {
		return domain.Order{}, err
	}

	order.ID = strconv.FormatInt(id, 10)
	order.Status = domain.OrderStatus(status)
	order.CreatedAt = order.CreatedAt.UTC()

	return order, nil
}

func parseOrderID(orderID string) (int64, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("order %q: %w", orderID, domain.ErrNotFound)
	}
	return id, nil
}

func (s *Store) check(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("postgres store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	return nil
}
