package router

import (
	"log/slog"

	tg "github.com/m3rciful/topupbot/core/telegram"
	"github.com/m3rciful/topupbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute routes every inline button press through the registry by its unique key.
// Handlers are expected to answer the callback themselves.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.Parse(cb)
		extras := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.GetCallback(key)
		if !ok {
			h = reg.CallbackNotFound()
			extras = append(extras, slog.String("reason", "not_found"))
		}
		return summarized(c, "callback."+normalizeHandlerName(key), h, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
