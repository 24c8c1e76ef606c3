// Package keyboard builds inline keyboards from plain button descriptions.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// Inline builds an inline keyboard from rows of InlineBtn.
// Telebot encodes each button as "\f<unique>|<data>" when the markup is sent.
func Inline(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	teleRows := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		btns := make([]tele.Btn, 0, len(row))
		for _, b := range row {
			if b.Data == "" {
				btns = append(btns, markup.Data(b.Text, b.Unique))
				continue
			}
			btns = append(btns, markup.Data(b.Text, b.Unique, b.Data))
		}
		teleRows = append(teleRows, markup.Row(btns...))
	}
	markup.Inline(teleRows...)
	return markup
}

// Single returns an inline keyboard with one button.
func Single(text, unique string, data ...string) *tele.ReplyMarkup {
	b := InlineBtn{Text: text, Unique: unique}
	if len(data) > 0 {
		b.Data = data[0]
	}
	return Inline([]InlineBtn{b})
}
