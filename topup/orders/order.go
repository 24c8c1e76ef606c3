// Package orders persists submitted top-up orders and their review outcome.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the review state of an order.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseStatus matches a status name case-insensitively.
func ParseStatus(v string) (Status, error) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected} {
		if strings.EqualFold(string(s), strings.TrimSpace(v)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", v)
}

var (
	// ErrNotFound is returned when no order has the requested id.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyProcessed is returned by Decide when the order left Pending earlier.
	ErrAlreadyProcessed = errors.New("order already processed")
	// ErrDuplicateID is returned by Create when the id is taken.
	ErrDuplicateID = errors.New("duplicate order id")
)

// Order is one submitted purchase. Field names in JSON match the order log file.
type Order struct {
	ID            string          `json:"orderId" db:"order_id"`
	UserID        int64           `json:"userId" db:"user_id"`
	UserName      string          `json:"userName" db:"user_name"`
	ProductCode   string          `json:"productCode" db:"product_code"`
	ProductName   string          `json:"productName" db:"product_name"`
	ProductPrice  decimal.Decimal `json:"productPrice" db:"product_price"`
	UID           string          `json:"uid" db:"uid"`
	TransactionID string          `json:"transactionId" db:"transaction_id"`
	ScreenshotID  string          `json:"screenshotId" db:"screenshot_id"`
	Timestamp     time.Time       `json:"timestamp" db:"created_at"`
	Status        Status          `json:"status" db:"status"`
	DecidedAt     *time.Time      `json:"decidedAt,omitempty" db:"decided_at"`
}

// MarshalJSON writes productPrice as a bare JSON number, the way the order log
// has always stored it.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		ProductPrice json.Number `json:"productPrice"`
	}{plain: plain(o), ProductPrice: json.Number(o.ProductPrice.String())})
}

// Store is the durable order log.
type Store interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	// List returns orders in creation order. An empty status lists everything.
	List(ctx context.Context, status Status) ([]Order, error)
	// Decide moves a Pending order to Approved or Rejected. On ErrAlreadyProcessed
	// the returned order carries the stored status.
	Decide(ctx context.Context, id string, to Status) (Order, error)
	Ping(ctx context.Context) error
	Close() error
}

// NewID returns a time-ordered unique order id.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate order id: %w", err)
	}
	return id.String(), nil
}

func validateDecision(to Status) error {
	if to != StatusApproved && to != StatusRejected {
		return fmt.Errorf("invalid decision %q", to)
	}
	return nil
}

func validateNew(o Order) error {
	if o.ID == "" {
		return errors.New("order id is required")
	}
	if o.Status != StatusPending {
		return fmt.Errorf("new order must be %s, got %q", StatusPending, o.Status)
	}
	return nil
}
