// Package callbacks decodes inline button data produced by telebot.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData splits telebot's "\f<unique>|<payload>" encoding.
// Data without the leading form feed is treated as a bare unique key.
func ParseCallbackData(data string) (unique, payload string) {
	raw := strings.TrimPrefix(data, "\f")
	unique, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Parse returns the unique key and payload of cb. When telebot already
// resolved a button handler, cb.Unique is set and cb.Data holds only the payload.
func Parse(cb *tele.Callback) (unique, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return ParseCallbackData(cb.Data)
}

// CallbackPayload returns the payload of the current callback.
func CallbackPayload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}
