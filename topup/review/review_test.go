package review

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topupbot/topup/internal/chattest"
	"github.com/m3rciful/topupbot/topup/orders"
)

const (
	adminID int64 = 1000
	buyerID int64 = 42
)

type brokenStore struct {
	orders.Store
}

func (brokenStore) Decide(context.Context, string, orders.Status) (orders.Order, error) {
	return orders.Order{}, errors.New("read orders: permission denied")
}

func setup(t *testing.T) (*Service, *chattest.Recorder, orders.Store, orders.Order) {
	t.Helper()
	store, err := orders.NewFileStore(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)
	id, err := orders.NewID()
	require.NoError(t, err)
	o := orders.Order{
		ID:            id,
		UserID:        buyerID,
		UserName:      "Rafi",
		ProductCode:   "FX1",
		ProductName:   "100 Diamonds",
		ProductPrice:  decimal.NewFromInt(120),
		UID:           "123456789",
		TransactionID: "TXN001",
		ScreenshotID:  "shot",
		Timestamp:     time.Now().UTC(),
		Status:        orders.StatusPending,
	}
	require.NoError(t, store.Create(context.Background(), o))

	rec := &chattest.Recorder{}
	svc := New(Options{Orders: store, Messenger: rec, AdminID: adminID, GameName: "Free Fire", Currency: "৳"})
	return svc, rec, store, o
}

func adminMessage() tele.Editable {
	return &tele.Message{ID: 7, Chat: &tele.Chat{ID: adminID}}
}

func TestApproveNotifiesOnce(t *testing.T) {
	svc, rec, store, o := setup(t)
	ctx := context.Background()
	req := Request{OrderID: o.ID, ActorID: adminID, ChatID: adminID, Action: ActionApprove, Message: adminMessage()}

	res, err := svc.Decide(ctx, req)
	require.NoError(t, err)
	require.Equal(t, ResultDone, res)

	stored, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusApproved, stored.Status)

	edits := rec.OfKind(chattest.KindEditMarkup)
	require.Len(t, edits, 1)
	btn := edits[0].Markup.InlineKeyboard[0][0]
	require.Equal(t, UniqueNoop, btn.Unique)
	require.Equal(t, "✅ Approved", btn.Text)

	notes := rec.OfKind(chattest.KindNotify)
	require.Len(t, notes, 1)
	require.Equal(t, buyerID, notes[0].To)
	require.Contains(t, notes[0].Text, o.ID)
	require.Contains(t, notes[0].Text, "completed")

	rec.Reset()
	res, err = svc.Decide(ctx, req)
	require.NoError(t, err)
	require.Equal(t, ResultAlreadyProcessed, res)
	require.Empty(t, rec.OfKind(chattest.KindNotify), "replay must not notify the user again")
	replies := rec.OfKind(chattest.KindText)
	require.Len(t, replies, 1)
	require.Contains(t, replies[0].Text, "Approved")

	res, err = svc.Decide(ctx, Request{OrderID: o.ID, ActorID: adminID, ChatID: adminID, Action: ActionReject})
	require.NoError(t, err)
	require.Equal(t, ResultAlreadyProcessed, res)
	stored, _ = store.Get(ctx, o.ID)
	require.Equal(t, orders.StatusApproved, stored.Status)
}

func TestRejectUsesRejectedButton(t *testing.T) {
	svc, rec, _, o := setup(t)
	res, err := svc.Decide(context.Background(), Request{
		OrderID: o.ID, ActorID: adminID, ChatID: adminID, Action: ActionReject, Message: adminMessage(),
	})
	require.NoError(t, err)
	require.Equal(t, ResultDone, res)
	require.Equal(t, "❌ Rejected", rec.OfKind(chattest.KindEditMarkup)[0].Markup.InlineKeyboard[0][0].Text)
	require.Contains(t, rec.OfKind(chattest.KindNotify)[0].Text, "rejected")
}

func TestNonAdminIsDenied(t *testing.T) {
	svc, rec, store, o := setup(t)
	res, err := svc.Decide(context.Background(), Request{
		OrderID: o.ID, ActorID: buyerID, ChatID: buyerID, Action: ActionApprove, Message: adminMessage(),
	})
	require.NoError(t, err)
	require.Equal(t, ResultDenied, res)

	stored, err := store.Get(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusPending, stored.Status)

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, buyerID, msgs[0].To)
	require.Equal(t, textDenied, msgs[0].Text)
}

func TestUnknownOrder(t *testing.T) {
	svc, rec, _, _ := setup(t)
	res, err := svc.Decide(context.Background(), Request{
		OrderID: "does-not-exist", ActorID: adminID, ChatID: adminID, Action: ActionApprove,
	})
	require.NoError(t, err)
	require.Equal(t, ResultNotFound, res)
	last, _ := rec.Last()
	require.Equal(t, textNotFound, last.Text)
	require.Empty(t, rec.OfKind(chattest.KindNotify))
}

func TestStorageFailure(t *testing.T) {
	rec := &chattest.Recorder{}
	svc := New(Options{Orders: brokenStore{}, Messenger: rec, AdminID: adminID})
	res, err := svc.Decide(context.Background(), Request{OrderID: "x", ActorID: adminID, ChatID: adminID, Action: ActionApprove})
	require.Error(t, err)
	require.Equal(t, ResultFailed, res)
	last, _ := rec.Last()
	require.Equal(t, textStoreFailed, last.Text)
	require.NotContains(t, last.Text, "permission denied")
}

func TestUnknownAction(t *testing.T) {
	svc, rec, _, o := setup(t)
	_, err := svc.Decide(context.Background(), Request{OrderID: o.ID, ActorID: adminID, Action: "refund"})
	require.Error(t, err)
	require.Empty(t, rec.Messages())
}

func TestPendingReport(t *testing.T) {
	svc, _, store, o := setup(t)
	ctx := context.Background()

	report, err := svc.PendingReport(ctx)
	require.NoError(t, err)
	require.Contains(t, report, "Pending orders (1)")
	require.Contains(t, report, o.ID)
	require.Contains(t, report, "100 Diamonds (FX1) 120৳")

	_, err = store.Decide(ctx, o.ID, orders.StatusRejected)
	require.NoError(t, err)
	report, err = svc.PendingReport(ctx)
	require.NoError(t, err)
	require.Equal(t, textNoPending, report)
}

func TestKeyboard(t *testing.T) {
	kb := Keyboard("order-1").InlineKeyboard
	require.Len(t, kb, 2)
	require.Equal(t, UniqueApprove, kb[0][0].Unique)
	require.Equal(t, "order-1", kb[0][0].Data)
	require.Equal(t, UniqueReject, kb[1][0].Unique)
	require.Equal(t, "order-1", kb[1][0].Data)
}
