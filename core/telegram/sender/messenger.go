package sender

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/topupbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// BotAPI is the subset of *tele.Bot used to deliver messages.
type BotAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error)
}

// Messenger sends Markdown messages on behalf of domain services.
// Direct calls are synchronous; Notify goes through the Dispatcher when one is set.
type Messenger struct {
	bot  BotAPI
	disp *Dispatcher
}

// NewMessenger returns a Messenger over bot. disp may be nil.
func NewMessenger(bot BotAPI, disp *Dispatcher) *Messenger {
	return &Messenger{bot: bot, disp: disp}
}

func sendOptions(markup *tele.ReplyMarkup) *tele.SendOptions {
	return &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markup}
}

// SendText sends a Markdown text message to chat to.
func (m *Messenger) SendText(ctx context.Context, to int64, text string, markup *tele.ReplyMarkup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.Send(tele.ChatID(to), text, sendOptions(markup))
	return err
}

// SendPhoto re-sends an already uploaded photo by file id with a Markdown caption.
func (m *Messenger) SendPhoto(ctx context.Context, to int64, fileID, caption string, markup *tele.ReplyMarkup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	_, err := m.bot.Send(tele.ChatID(to), photo, sendOptions(markup))
	return err
}

// EditMarkup replaces the inline keyboard of msg.
func (m *Messenger) EditMarkup(ctx context.Context, msg tele.Editable, markup *tele.ReplyMarkup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.EditReplyMarkup(msg, markup)
	return err
}

// EditText replaces the text and keyboard of msg.
func (m *Messenger) EditText(ctx context.Context, msg tele.Editable, text string, markup *tele.ReplyMarkup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.Edit(msg, text, sendOptions(markup))
	return err
}

// Notify delivers text to chat to in the background with retries. It falls
// back to a synchronous send when the queue is unavailable.
func (m *Messenger) Notify(ctx context.Context, to int64, text string) error {
	run := func() error {
		_, err := m.bot.Send(tele.ChatID(to), text, sendOptions(nil))
		return err
	}
	if m.disp == nil {
		return run()
	}
	err := m.disp.Enqueue(ctx, "notify", "sendMessage", run)
	if errors.Is(err, ErrQueueFull) || errors.Is(err, ErrQueueClosed) {
		logger.Warn(ctx, component, "queue.fallback",
			slog.String("action", "notify"),
			logger.Err(err),
		)
		return run()
	}
	return err
}
