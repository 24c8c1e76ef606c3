package router

import (
	tg "github.com/m3rciful/topupbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// MessageHandlers lists the handlers for non-command messages. Nil entries
// leave the corresponding update kind unrouted.
type MessageHandlers struct {
	Text     tele.HandlerFunc
	Photo    tele.HandlerFunc
	Document tele.HandlerFunc
}

// MessageRoutes builds routes for plain text, photo and document messages.
func MessageRoutes(h MessageHandlers) []tg.Route {
	var routes []tg.Route
	add := func(endpoint, name string, fn tele.HandlerFunc) {
		if fn == nil {
			return
		}
		routes = append(routes, tg.Route{
			Endpoint: endpoint,
			Handler: func(c tele.Context) error {
				return summarized(c, name, fn)
			},
		})
	}
	add(tele.OnText, "message.text", h.Text)
	add(tele.OnPhoto, "message.photo", h.Photo)
	add(tele.OnDocument, "message.document", h.Document)
	return routes
}
