package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/topupbot/core/logger"
)

const orderColumns = `order_id, user_id, user_name, product_code, product_name, product_price,
	uid, transaction_id, screenshot_id, created_at, status, decided_at`

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PgStore keeps orders in the PostgreSQL "orders" table.
type PgStore struct {
	db *sqlx.DB
}

var _ Store = (*PgStore)(nil)

// NewPgStore wraps an open connection. The schema comes from migrations.
func NewPgStore(db *sqlx.DB) *PgStore {
	return &PgStore{db: db}
}

// Create inserts o.
func (s *PgStore) Create(ctx context.Context, o Order) error {
	if err := validateNew(o); err != nil {
		return err
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (:order_id, :user_id, :user_name, :product_code, :product_name, :product_price,
			:uid, :transaction_id, :screenshot_id, :created_at, :status, :decided_at)`, o)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateID, o.ID)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "order.create",
		slog.String("status", "ok"),
		slog.String("order_id", o.ID),
		slog.String("driver", "postgres"),
	)
	return nil
}

// Get returns the order with id.
func (s *PgStore) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	err := s.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

// List returns orders by creation time, optionally filtered by status.
func (s *PgStore) List(ctx context.Context, status Status) ([]Order, error) {
	list := []Order{}
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &list, `SELECT `+orderColumns+` FROM orders ORDER BY created_at, order_id`)
	} else {
		err = s.db.SelectContext(ctx, &list, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at, order_id`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}

// Decide updates the row only while it is still Pending.
func (s *PgStore) Decide(ctx context.Context, id string, to Status) (Order, error) {
	if err := validateDecision(to); err != nil {
		return Order{}, err
	}
	var o Order
	err := s.db.GetContext(ctx, &o, `
		UPDATE orders SET status = $1, decided_at = now()
		WHERE order_id = $2 AND status = $3
		RETURNING `+orderColumns, to, id, StatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return Order{}, getErr
		}
		return current, ErrAlreadyProcessed
	}
	if err != nil {
		return Order{}, fmt.Errorf("update order: %w", err)
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "order.decide",
		slog.String("status", "ok"),
		slog.String("order_id", id),
		slog.String("decision", string(to)),
		slog.String("driver", "postgres"),
	)
	return o, nil
}

// Ping checks the connection.
func (s *PgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (s *PgStore) Close() error {
	return s.db.Close()
}
