package callbacks

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ErrEmptyPayload is returned when a button carries no payload.
var ErrEmptyPayload = errors.New("callbacks: empty payload")

// PayloadID returns the trimmed payload, typically an entity identifier bound to the button.
func PayloadID(c tele.Context) (string, error) {
	p := strings.TrimSpace(CallbackPayload(c))
	if p == "" {
		return "", ErrEmptyPayload
	}
	return p, nil
}
