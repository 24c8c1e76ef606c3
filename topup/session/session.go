// Package session keeps per-user conversation state for the order flow.
package session

import (
	"time"

	"github.com/shopspring/decimal"
)

// Step is the position of a user inside the order flow.
type Step int

const (
	// AwaitingUID waits for the in-game player id.
	AwaitingUID Step = iota + 1
	// AwaitingPaymentDetails waits for the payment transaction id.
	AwaitingPaymentDetails
	// AwaitingScreenshot waits for the payment screenshot photo.
	AwaitingScreenshot
)

func (s Step) String() string {
	switch s {
	case AwaitingUID:
		return "awaiting_uid"
	case AwaitingPaymentDetails:
		return "awaiting_payment_details"
	case AwaitingScreenshot:
		return "awaiting_screenshot"
	default:
		return "none"
	}
}

// Session is the in-progress order of one user.
type Session struct {
	Step          Step
	ProductCode   string
	ProductName   string
	ProductPrice  decimal.Decimal
	UID           string
	TransactionID string
	ScreenshotID  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
