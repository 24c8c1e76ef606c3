// Package flow runs the per-user order conversation: product code, UID,
// transaction id, then the payment screenshot that turns into an order.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topupbot/core/logger"
	"github.com/m3rciful/topupbot/core/telegram/format"
	"github.com/m3rciful/topupbot/topup/catalog"
	"github.com/m3rciful/topupbot/topup/orders"
	"github.com/m3rciful/topupbot/topup/review"
	"github.com/m3rciful/topupbot/topup/session"
)

// Messenger is the outbound side used by the conversation.
type Messenger interface {
	SendText(ctx context.Context, to int64, text string, markup *tele.ReplyMarkup) error
	SendPhoto(ctx context.Context, to int64, fileID, caption string, markup *tele.ReplyMarkup) error
	EditText(ctx context.Context, msg tele.Editable, text string, markup *tele.ReplyMarkup) error
}

// Asker answers free-form questions.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// PaymentChannel is shown to users as a place to send money to.
type PaymentChannel struct {
	Name   string
	Number string
}

// Shop carries storefront details used in replies.
type Shop struct {
	Currency string
	GameName string
	Location *time.Location
	Channels []PaymentChannel
}

// Options configures a Service.
type Options struct {
	Sessions  *session.Table
	Catalog   *catalog.Catalog
	Orders    orders.Store
	Messenger Messenger
	Assistant Asker
	AdminID   int64
	Shop      Shop
	Now       func() time.Time
	NewID     func() (string, error)
}

// Service drives the order conversation.
type Service struct {
	sessions *session.Table
	catalog  *catalog.Catalog
	orders   orders.Store
	msg      Messenger
	asker    Asker
	adminID  int64
	shop     Shop
	now      func() time.Time
	newID    func() (string, error)
}

// New returns a Service. Missing Catalog, Now and NewID get defaults.
func New(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Empty()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = orders.NewID
	}
	if opts.Shop.Location == nil {
		opts.Shop.Location = time.UTC
	}
	return &Service{
		sessions: opts.Sessions,
		catalog:  opts.Catalog,
		orders:   opts.Orders,
		msg:      opts.Messenger,
		asker:    opts.Assistant,
		adminID:  opts.AdminID,
		shop:     opts.Shop,
		now:      opts.Now,
		newID:    opts.NewID,
	}
}

// turn is the state of one Handle call.
type turn struct {
	ctx context.Context
	ev  Event
	// sess is a copy of the session at the start of the turn.
	sess session.Session
	has  bool
}

// Handle applies one inbound text or photo event. Events of the same user are
// processed one at a time.
func (s *Service) Handle(ctx context.Context, ev Event) error {
	unlock := s.sessions.Lock(ev.UserID)
	defer unlock()

	t := &turn{ctx: ctx, ev: ev}
	t.sess, t.has = s.sessions.Get(ev.UserID)
	state := noSession
	if t.has {
		state = t.sess.Step
	}

	next, ok := transitions[transitionKey{state: state, kind: ev.Kind}]
	if !ok {
		return fmt.Errorf("no transition for state %s on %s", state, ev.Kind)
	}
	logger.Debug(ctx, logger.CompFlow, "flow.event",
		slog.String("state", state.String()),
		slog.String("kind", ev.Kind.String()),
	)
	return next(s, t)
}

func (s *Service) reply(t *turn, text string, markup *tele.ReplyMarkup) error {
	if err := s.msg.SendText(t.ctx, t.ev.ChatID, text, markup); err != nil {
		logger.Warn(t.ctx, logger.CompFlow, "reply.send",
			slog.String("status", "fail"),
			logger.Err(err),
		)
		return err
	}
	return nil
}

func (s *Service) selectProduct(t *turn) error {
	p, ok := s.catalog.Lookup(t.ev.Text)
	if !ok {
		logger.Info(t.ctx, logger.CompFlow, "product.unknown",
			slog.String("input", logger.SanitizeLimit(t.ev.Text, 32)),
		)
		return s.reply(t, textInvalidCode, nil)
	}
	s.sessions.Set(t.ev.UserID, session.Session{
		Step:         session.AwaitingUID,
		ProductCode:  p.Code,
		ProductName:  p.Name,
		ProductPrice: p.Price,
		CreatedAt:    s.now(),
	})
	logger.Info(t.ctx, logger.CompFlow, "session.start",
		slog.String("status", "ok"),
		slog.String("product_code", p.Code),
		slog.Bool("restart", t.has),
	)
	return s.reply(t, s.textProductSelected(p), nil)
}

func (s *Service) acceptUID(t *turn) error {
	uid := strings.TrimSpace(t.ev.Text)
	if uid == "" {
		return s.reply(t, s.textAskUID(), nil)
	}
	s.sessions.Update(t.ev.UserID, func(sess *session.Session) {
		sess.UID = uid
		sess.Step = session.AwaitingPaymentDetails
	})
	return s.reply(t, s.textPaymentInstructions(uid), nil)
}

func (s *Service) acceptTransaction(t *turn) error {
	txID := strings.TrimSpace(t.ev.Text)
	if txID == "" {
		return s.reply(t, textAskTransaction, nil)
	}
	s.sessions.Update(t.ev.UserID, func(sess *session.Session) {
		sess.TransactionID = txID
		sess.Step = session.AwaitingScreenshot
	})
	return s.reply(t, textAskScreenshot, nil)
}

// restartOrRemind starts over on a known code and otherwise reminds the user
// that a screenshot is expected. It never drops the session.
func (s *Service) restartOrRemind(t *turn) error {
	if _, ok := s.catalog.Lookup(t.ev.Text); ok {
		return s.selectProduct(t)
	}
	return s.reply(t, textAwaitingScreenshot, nil)
}

func (s *Service) rejectPhoto(t *turn) error {
	return s.reply(t, textUnexpectedPhoto, nil)
}

func (s *Service) submitOrder(t *turn) error {
	sess := t.sess
	order := orders.Order{
		UserID:        t.ev.UserID,
		UserName:      t.ev.UserName,
		ProductCode:   sess.ProductCode,
		ProductName:   sess.ProductName,
		ProductPrice:  sess.ProductPrice,
		UID:           sess.UID,
		TransactionID: sess.TransactionID,
		ScreenshotID:  t.ev.PhotoID,
		Timestamp:     sess.CreatedAt.UTC(),
		Status:        orders.StatusPending,
	}

	id, err := s.newID()
	if err == nil {
		order.ID = id
		err = s.orders.Create(t.ctx, order)
	}
	if err != nil {
		logger.Error(t.ctx, logger.CompFlow, "order.submit",
			slog.String("status", "fail"),
			slog.String("product_code", order.ProductCode),
			logger.Err(err),
		)
		s.sessions.Update(t.ev.UserID, func(sess *session.Session) {
			sess.ScreenshotID = t.ev.PhotoID
		})
		if alertErr := s.msg.SendText(t.ctx, s.adminID, s.textAdminStoreFailure(order), nil); alertErr != nil {
			logger.Warn(t.ctx, logger.CompFlow, "admin.alert",
				slog.String("status", "fail"),
				logger.Err(alertErr),
			)
		}
		return errors.Join(err, s.reply(t, textStoreFailed, nil))
	}

	s.sessions.Clear(t.ev.UserID)
	logger.Info(t.ctx, logger.CompFlow, "order.submit",
		slog.String("status", "ok"),
		slog.String("order_id", order.ID),
		slog.String("product_code", order.ProductCode),
	)

	if err := s.msg.SendPhoto(t.ctx, s.adminID, order.ScreenshotID, s.adminCaption(order), review.Keyboard(order.ID)); err != nil {
		logger.Error(t.ctx, logger.CompFlow, "admin.notify",
			slog.String("status", "fail"),
			slog.String("order_id", order.ID),
			logger.Err(err),
		)
	}
	return s.reply(t, textOrderReceived, nil)
}

// Ask forwards question to the assistant and replies in chatID. It never
// touches the sender's session.
func (s *Service) Ask(ctx context.Context, chatID int64, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return s.msg.SendText(ctx, chatID, textAskUsage, nil)
	}
	if s.asker == nil {
		return s.msg.SendText(ctx, chatID, textAskFailed, nil)
	}
	answer, err := s.asker.Ask(ctx, question)
	if err != nil {
		return s.msg.SendText(ctx, chatID, textAskFailed, nil)
	}
	return s.msg.SendText(ctx, chatID, textAnswerPrefix+format.MD(answer), nil)
}

// Cancel drops the in-progress order of userID.
func (s *Service) Cancel(ctx context.Context, userID, chatID int64) error {
	unlock := s.sessions.Lock(userID)
	defer unlock()
	if _, ok := s.sessions.Get(userID); !ok {
		return s.msg.SendText(ctx, chatID, textNothingToCancel, nil)
	}
	s.sessions.Clear(userID)
	logger.Info(ctx, logger.CompFlow, "session.cancel", slog.String("status", "ok"))
	return s.msg.SendText(ctx, chatID, textCancelled, nil)
}
