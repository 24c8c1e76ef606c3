// Package review applies administrator decisions to pending orders.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topupbot/core/logger"
	"github.com/m3rciful/topupbot/core/telegram/format"
	"github.com/m3rciful/topupbot/topup/orders"
)

// Action is an administrator decision.
type Action string

const (
	ActionApprove Action = UniqueApprove
	ActionReject  Action = UniqueReject
)

// Status maps the action to the order status it sets.
func (a Action) Status() (orders.Status, bool) {
	switch a {
	case ActionApprove:
		return orders.StatusApproved, true
	case ActionReject:
		return orders.StatusRejected, true
	}
	return "", false
}

// Result classifies how a decision request ended.
type Result int

const (
	ResultFailed Result = iota
	ResultDenied
	ResultNotFound
	ResultAlreadyProcessed
	ResultDone
)

func (r Result) String() string {
	switch r {
	case ResultDenied:
		return "denied"
	case ResultNotFound:
		return "not_found"
	case ResultAlreadyProcessed:
		return "already_processed"
	case ResultDone:
		return "done"
	default:
		return "failed"
	}
}

// Messenger is the outbound side used by the review service.
type Messenger interface {
	SendText(ctx context.Context, to int64, text string, markup *tele.ReplyMarkup) error
	EditMarkup(ctx context.Context, msg tele.Editable, markup *tele.ReplyMarkup) error
	Notify(ctx context.Context, to int64, text string) error
}

// Options configures a Service.
type Options struct {
	Orders    orders.Store
	Messenger Messenger
	AdminID   int64
	GameName  string
	Currency  string
}

// Service handles approve/reject presses on admin order messages.
type Service struct {
	orders  orders.Store
	msg     Messenger
	adminID int64
	game    string
	cur     string
}

// New returns a Service.
func New(opts Options) *Service {
	return &Service{
		orders:  opts.Orders,
		msg:     opts.Messenger,
		adminID: opts.AdminID,
		game:    opts.GameName,
		cur:     opts.Currency,
	}
}

// Request is one button press.
type Request struct {
	OrderID string
	ActorID int64
	// ChatID receives the textual replies.
	ChatID int64
	Action Action
	// Message is the admin order message whose buttons get replaced. May be nil.
	Message tele.Editable
}

// Decide authorizes the actor and moves the order out of Pending at most once.
// The returned error is set only for storage failures; every outcome has already
// been reported to the chat.
func (s *Service) Decide(ctx context.Context, req Request) (Result, error) {
	to, ok := req.Action.Status()
	if !ok {
		return ResultFailed, fmt.Errorf("unknown review action %q", req.Action)
	}
	attrs := []slog.Attr{
		slog.String("order_id", req.OrderID),
		slog.String("action", string(req.Action)),
		slog.Int64("actor_id", req.ActorID),
	}

	if req.ActorID != s.adminID {
		logger.Info(ctx, logger.CompReview, "order.decide",
			append(attrs, slog.String("status", "ok"), slog.String("result", ResultDenied.String()))...)
		s.reply(ctx, req.ChatID, textDenied)
		return ResultDenied, nil
	}

	order, err := s.orders.Decide(ctx, strings.TrimSpace(req.OrderID), to)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		logger.Info(ctx, logger.CompReview, "order.decide",
			append(attrs, slog.String("status", "ok"), slog.String("result", ResultNotFound.String()))...)
		s.reply(ctx, req.ChatID, textNotFound)
		return ResultNotFound, nil
	case errors.Is(err, orders.ErrAlreadyProcessed):
		logger.Info(ctx, logger.CompReview, "order.decide",
			append(attrs,
				slog.String("status", "ok"),
				slog.String("result", ResultAlreadyProcessed.String()),
				slog.String("order_status", string(order.Status)),
			)...)
		s.refreshControls(ctx, req.Message, order.Status)
		s.reply(ctx, req.ChatID, fmt.Sprintf(textAlreadyProcessed, order.Status))
		return ResultAlreadyProcessed, nil
	case err != nil:
		logger.Error(ctx, logger.CompReview, "order.decide",
			append(attrs, slog.String("status", "fail"), logger.Err(err))...)
		s.reply(ctx, req.ChatID, textStoreFailed)
		return ResultFailed, err
	}

	s.refreshControls(ctx, req.Message, order.Status)
	if err := s.msg.Notify(ctx, order.UserID, s.userNotice(order)); err != nil {
		logger.Warn(ctx, logger.CompReview, "order.notify",
			slog.String("status", "fail"),
			slog.String("order_id", order.ID),
			slog.Int64("target_user_id", order.UserID),
			logger.Err(err),
		)
	}
	logger.Info(ctx, logger.CompReview, "order.decide",
		append(attrs,
			slog.String("status", "ok"),
			slog.String("result", ResultDone.String()),
			slog.String("order_status", string(order.Status)),
		)...)
	return ResultDone, nil
}

func (s *Service) refreshControls(ctx context.Context, msg tele.Editable, status orders.Status) {
	if msg == nil {
		return
	}
	if err := s.msg.EditMarkup(ctx, msg, DoneKeyboard(status)); err != nil {
		logger.Warn(ctx, logger.CompReview, "order.controls",
			slog.String("status", "fail"),
			logger.Err(err),
		)
	}
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	if err := s.msg.SendText(ctx, chatID, text, nil); err != nil {
		logger.Warn(ctx, logger.CompReview, "reply.send",
			slog.String("status", "fail"),
			logger.Err(err),
		)
	}
}

func (s *Service) userNotice(o orders.Order) string {
	if o.Status == orders.StatusApproved {
		return fmt.Sprintf(textUserApproved, format.MD(s.game), format.MD(o.ID))
	}
	return fmt.Sprintf(textUserRejected, format.MD(s.game), format.MD(o.ID))
}

// PendingReport lists orders still waiting for a decision.
func (s *Service) PendingReport(ctx context.Context) (string, error) {
	list, err := s.orders.List(ctx, orders.StatusPending)
	if err != nil {
		return "", fmt.Errorf("list pending orders: %w", err)
	}
	if len(list) == 0 {
		return textNoPending, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*Pending orders (%d)*\n", len(list))
	for _, o := range list {
		fmt.Fprintf(&b, "\n• `%s`\n  %s (%s) %s%s\n  UID: %s, TxID: %s\n  %s (%d)\n",
			o.ID,
			format.MD(o.ProductName), format.MD(o.ProductCode), o.ProductPrice.String(), format.MD(s.cur),
			format.MD(o.UID), format.MD(o.TransactionID),
			format.MD(o.UserName), o.UserID,
		)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

const (
	textDenied           = "You are not allowed to perform this action."
	textNotFound         = "Order not found."
	textAlreadyProcessed = "This order was already processed (%s)."
	textStoreFailed      = "Could not update the order right now. Please try again."
	textUserApproved     = "Thank you! Your %s top-up order (ID: %s) has been completed."
	textUserRejected     = "Sorry! Your %s top-up order (ID: %s) was rejected. Please contact the admin if something is wrong."
	textNoPending        = "No pending orders."
)
