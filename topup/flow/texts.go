package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topupbot/core/logger"
	"github.com/m3rciful/topupbot/core/telegram/format"
	"github.com/m3rciful/topupbot/core/telegram/keyboard"
	"github.com/m3rciful/topupbot/topup/catalog"
	"github.com/m3rciful/topupbot/topup/orders"
)

// UniqueBuyNow is the callback key of the welcome button.
const UniqueBuyNow = "buy_now"

const (
	textInvalidCode        = "Sorry, that is not a valid plan code. Send a code from the list or type /start to begin."
	textAskTransaction     = "Please send the payment Transaction ID."
	textAskScreenshot      = "Thank you! Now send the payment screenshot."
	textAwaitingScreenshot = "Waiting for your payment screenshot. Send it as a photo, send another plan code to start over, or /cancel."
	textUnexpectedPhoto    = "I am not expecting a screenshot right now. Please follow the order steps."
	textOrderReceived      = "Your order has been received! The admin will review it and let you know shortly."
	textStoreFailed        = "Sorry, we could not record your order. Please send the screenshot again in a moment."
	textAskUsage           = "Please write your question after /ask, for example: `/ask how long does delivery take?`"
	textAskFailed          = "Sorry, I could not answer your question."
	textAnswerPrefix       = "Answer to your question:\n\n"
	textCancelled          = "Your order was cancelled. Send a plan code to start again."
	textNothingToCancel    = "You have no order in progress."
	textCatalogEmpty       = "No plans are available right now. Please try again later."
	textCatalogHeader      = "Here are our plans:"
	textCatalogFooter      = "Type the code of the plan you want and send it."
	adminTimeLayout        = "02 Jan 2006 15:04"
)

func (s *Service) price(p fmt.Stringer) string {
	return p.String() + format.MD(s.shop.Currency)
}

func (s *Service) textProductSelected(p catalog.Product) string {
	return fmt.Sprintf("You selected \"%s\" (%s).\n\n%s",
		format.MD(p.Name), s.price(p.Price), s.textAskUID())
}

func (s *Service) textAskUID() string {
	return fmt.Sprintf("Now send your %s Player ID (UID):", format.MD(s.shop.GameName))
}

func (s *Service) textPaymentInstructions(uid string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your %s UID: %s\n\nNow make the payment:\n\n", format.MD(s.shop.GameName), format.MD(uid))
	for _, ch := range s.shop.Channels {
		fmt.Fprintf(&b, "💰 %s: %s\n", format.MD(ch.Name), format.MD(ch.Number))
	}
	b.WriteString("\nAfter paying, send the Transaction ID first and then the payment screenshot.")
	return b.String()
}

func (s *Service) adminCaption(o orders.Order) string {
	var b strings.Builder
	b.WriteString("*New order!*\n---\n")
	fmt.Fprintf(&b, "*Order ID:* %s\n", format.MD(o.ID))
	fmt.Fprintf(&b, "*User ID:* %d\n", o.UserID)
	fmt.Fprintf(&b, "*User name:* %s\n", format.MD(o.UserName))
	fmt.Fprintf(&b, "*Plan:* %s (%s)\n", format.MD(o.ProductName), format.MD(o.ProductCode))
	fmt.Fprintf(&b, "*Price:* %s\n", s.price(o.ProductPrice))
	fmt.Fprintf(&b, "*UID:* %s\n", format.MD(o.UID))
	fmt.Fprintf(&b, "*Transaction ID:* %s\n", format.MD(o.TransactionID))
	fmt.Fprintf(&b, "*Time:* %s\n---", o.Timestamp.In(s.shop.Location).Format(adminTimeLayout))
	return b.String()
}

func (s *Service) textAdminStoreFailure(o orders.Order) string {
	return fmt.Sprintf("⚠️ Failed to record an order.\nUser ID: %d\nPlan: %s\nTransaction ID: %s\nThe user was asked to resend the screenshot.",
		o.UserID, format.MD(o.ProductCode), format.MD(o.TransactionID))
}

// WelcomeText greets firstName and explains the order steps.
func (s *Service) WelcomeText(firstName string) string {
	game := format.MD(s.shop.GameName)
	return fmt.Sprintf("Welcome, %s!\n\n"+
		"We top up your %s account manually.\n\n"+
		"How it works:\n"+
		"1. Tap \"Buy Now\" to see the plan list.\n"+
		"2. Send the code of the plan you want.\n"+
		"3. Send your %s UID.\n"+
		"4. Pay and send the Transaction ID and a screenshot of the payment.\n"+
		"5. Once the admin confirms your order, the top-up is delivered.\n\n"+
		"Questions? Write `/ask your question`.",
		format.MD(firstName), game, game)
}

// Welcome sends the greeting with the Buy Now button.
func (s *Service) Welcome(ctx context.Context, chatID int64, firstName string) error {
	return s.msg.SendText(ctx, chatID, s.WelcomeText(firstName), keyboard.Single("Buy Now", UniqueBuyNow))
}

// CatalogText renders the plan list.
func (s *Service) CatalogText() string {
	return s.catalog.Render(catalog.RenderOptions{
		Currency: format.MD(s.shop.Currency),
		Header:   textCatalogHeader,
		Footer:   textCatalogFooter,
		Empty:    textCatalogEmpty,
		Escape:   format.MD,
	})
}

// ShowCatalog replaces msg with the plan list, sending a new message when the edit fails.
func (s *Service) ShowCatalog(ctx context.Context, chatID int64, msg tele.Editable) error {
	text := s.CatalogText()
	if msg != nil {
		err := s.msg.EditText(ctx, msg, text, nil)
		if err == nil {
			return nil
		}
		logger.Warn(ctx, logger.CompFlow, "catalog.edit",
			slog.String("status", "fail"),
			logger.Err(err),
		)
	}
	return s.msg.SendText(ctx, chatID, text, nil)
}
