// Package chattest provides an in-memory messenger for service tests.
package chattest

import (
	"context"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Kind names the outbound operation that produced a Message.
type Kind string

const (
	KindText       Kind = "text"
	KindPhoto      Kind = "photo"
	KindEditText   Kind = "edit_text"
	KindEditMarkup Kind = "edit_markup"
	KindNotify     Kind = "notify"
)

// Message is one recorded outbound call.
type Message struct {
	Kind   Kind
	To     int64
	Text   string
	FileID string
	Markup *tele.ReplyMarkup
	Target tele.Editable
}

// Recorder records outbound calls instead of talking to Telegram.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
	fail map[Kind]error
}

// FailOn makes every call of kind return err. A nil err clears the failure.
func (r *Recorder) FailOn(kind Kind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail == nil {
		r.fail = make(map[Kind]error)
	}
	if err == nil {
		delete(r.fail, kind)
		return
	}
	r.fail[kind] = err
}

func (r *Recorder) record(m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[m.Kind]; err != nil {
		return err
	}
	r.msgs = append(r.msgs, m)
	return nil
}

func (r *Recorder) SendText(_ context.Context, to int64, text string, markup *tele.ReplyMarkup) error {
	return r.record(Message{Kind: KindText, To: to, Text: text, Markup: markup})
}

func (r *Recorder) SendPhoto(_ context.Context, to int64, fileID, caption string, markup *tele.ReplyMarkup) error {
	return r.record(Message{Kind: KindPhoto, To: to, FileID: fileID, Text: caption, Markup: markup})
}

func (r *Recorder) EditText(_ context.Context, msg tele.Editable, text string, markup *tele.ReplyMarkup) error {
	return r.record(Message{Kind: KindEditText, Target: msg, Text: text, Markup: markup})
}

func (r *Recorder) EditMarkup(_ context.Context, msg tele.Editable, markup *tele.ReplyMarkup) error {
	return r.record(Message{Kind: KindEditMarkup, Target: msg, Markup: markup})
}

func (r *Recorder) Notify(_ context.Context, to int64, text string) error {
	return r.record(Message{Kind: KindNotify, To: to, Text: text})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// To returns messages addressed to chat id.
func (r *Recorder) To(id int64) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.To == id {
			out = append(out, m)
		}
	}
	return out
}

// OfKind returns messages of kind.
func (r *Recorder) OfKind(kind Kind) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return Message{}, false
	}
	return r.msgs[len(r.msgs)-1], true
}

// Reset forgets recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}
