package sender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

var errTransient = errors.New("transient")

func retryTransient(err error) bool { return errors.Is(err, errTransient) }

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	d := NewDispatcher(Options{
		Workers:      1,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Retryable:    retryTransient,
	})
	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "notify", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return errTransient
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed")
	}
	d.Close()
	if calls.Load() != 3 || d.ErrorCount() != 0 {
		t.Fatalf("calls=%d errors=%d", calls.Load(), d.ErrorCount())
	}
}

func TestDispatcherCountsPermanentFailure(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond, Retryable: retryTransient})
	var calls atomic.Int32
	_ = d.Enqueue(context.Background(), "notify", "sendMessage", func() error {
		calls.Add(1)
		return errors.New("chat not found")
	})
	d.Close()
	if calls.Load() != 1 || d.ErrorCount() != 1 {
		t.Fatalf("calls=%d errors=%d", calls.Load(), d.ErrorCount())
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	d.Close()
	if err := d.Enqueue(context.Background(), "x", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(context.Background(), "block", "", func() error {
		close(started)
		<-release
		return nil
	})
	<-started
	_ = d.Enqueue(context.Background(), "fill", "", func() error { return nil })
	if err := d.Enqueue(context.Background(), "overflow", "", func() error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	close(release)
	d.Close()
}

type fakeBot struct {
	mu    sync.Mutex
	sent  []interface{}
	to    []tele.Recipient
	edits int
}

func (f *fakeBot) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	f.sent = append(f.sent, what)
	return &tele.Message{}, nil
}

func (f *fakeBot) Edit(tele.Editable, interface{}, ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	return &tele.Message{}, nil
}

func (f *fakeBot) EditReplyMarkup(tele.Editable, *tele.ReplyMarkup) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	return &tele.Message{}, nil
}

func TestMessengerSendsPhotoByFileID(t *testing.T) {
	bot := &fakeBot{}
	m := NewMessenger(bot, nil)
	if err := m.SendPhoto(context.Background(), 42, "file-1", "caption", nil); err != nil {
		t.Fatalf("send photo: %v", err)
	}
	photo, ok := bot.sent[0].(*tele.Photo)
	if !ok || photo.FileID != "file-1" || photo.Caption != "caption" {
		t.Fatalf("unexpected payload: %#v", bot.sent[0])
	}
	if bot.to[0].Recipient() != "42" {
		t.Fatalf("recipient = %s", bot.to[0].Recipient())
	}
}

func TestMessengerNotifyThroughDispatcher(t *testing.T) {
	bot := &fakeBot{}
	d := NewDispatcher(Options{Workers: 1})
	m := NewMessenger(bot, d)
	if err := m.Notify(context.Background(), 7, "approved"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	d.Close()
	if len(bot.sent) != 1 || bot.sent[0] != "approved" {
		t.Fatalf("sent = %#v", bot.sent)
	}

	if err := m.Notify(context.Background(), 7, "after close"); err != nil {
		t.Fatalf("fallback notify: %v", err)
	}
	if len(bot.sent) != 2 {
		t.Fatalf("fallback send missing: %#v", bot.sent)
	}
}

func TestMessengerHonoursCanceledContext(t *testing.T) {
	bot := &fakeBot{}
	m := NewMessenger(bot, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.SendText(ctx, 1, "x", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(bot.sent) != 0 {
		t.Fatal("message sent despite canceled context")
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAH-x_y/sendMessage": timeout`)
	if got := sanitizeErrorMessage(err); got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout` {
		t.Fatalf("got %q", got)
	}
	if got := classifyError(&tele.Error{Code: 403}); got != "http_4xx" {
		t.Fatalf("classify 403 = %q", got)
	}
}
