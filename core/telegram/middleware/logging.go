package middleware

import (
	"log/slog"

	"github.com/m3rciful/topupbot/core/logger"
	"github.com/m3rciful/topupbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/topupbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware attaches the correlation context to the update and logs a
// sampled debug receipt line describing it.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if !logger.ShouldSampleDebug() {
			return next(c)
		}

		upd := c.Update()
		attrs := []slog.Attr{slog.String("status", "ok")}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if user := c.Sender(); user != nil {
			if user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			if user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
		}

		switch {
		case upd.Callback != nil:
			key, payload := callbacks.Parse(upd.Callback)
			attrs = append(attrs,
				slog.String("cb_key", logger.SanitizeLimit(key, 64)),
				slog.String("payload", logger.SanitizeLimit(payload, 128)),
			)
		case upd.Message != nil:
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
			if upd.Message.Photo != nil {
				attrs = append(attrs, slog.Bool("photo", true))
			}
		}
		logger.LogEvent(ctx, nil, slog.LevelDebug, "update.received", attrs...)
		return next(c)
	}
}
