package review

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topupbot/core/telegram/keyboard"
	"github.com/m3rciful/topupbot/topup/orders"
)

// Callback unique keys of the admin order buttons.
const (
	UniqueApprove = "approve"
	UniqueReject  = "reject"
	// UniqueNoop marks the disabled button shown once an order is decided.
	UniqueNoop = "noop"
)

// Keyboard returns the Approve/Reject controls bound to orderID.
func Keyboard(orderID string) *tele.ReplyMarkup {
	return keyboard.Inline(
		[]keyboard.InlineBtn{{Text: "✅ Approve", Unique: UniqueApprove, Data: orderID}},
		[]keyboard.InlineBtn{{Text: "❌ Reject", Unique: UniqueReject, Data: orderID}},
	)
}

// DoneKeyboard returns the single inert button that replaces the controls.
func DoneKeyboard(status orders.Status) *tele.ReplyMarkup {
	label := "✅ Approved"
	if status == orders.StatusRejected {
		label = "❌ Rejected"
	}
	return keyboard.Single(label, UniqueNoop)
}
