package middleware

import (
	"errors"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/topupbot/core/config"

	tele "gopkg.in/telebot.v4"
)

func textFrom(userID int64) tele.Context {
	return tele.NewContext(nil, tele.Update{Message: &tele.Message{
		Text:   "hello",
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
	}})
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Second,
		Now:      func() time.Time { return now },
		OnLimited: func(tele.Context) error {
			limited++
			return nil
		},
	})
	passed := 0
	h := mw(func(tele.Context) error {
		passed++
		return nil
	})

	_ = h(textFrom(1))
	_ = h(textFrom(1))
	_ = h(textFrom(2))
	now = now.Add(1500 * time.Millisecond)
	_ = h(textFrom(1))

	if passed != 3 || limited != 1 {
		t.Fatalf("passed=%d limited=%d", passed, limited)
	}
}

func TestRateLimitExcludesCallbacks(t *testing.T) {
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{coreconfig.UpdateCallback: {}},
	})
	passed := 0
	h := mw(func(tele.Context) error {
		passed++
		return nil
	})
	cb := func() tele.Context {
		return tele.NewContext(nil, tele.Update{Callback: &tele.Callback{Sender: &tele.User{ID: 9}}})
	}
	_ = h(cb())
	_ = h(cb())
	if passed != 2 {
		t.Fatalf("passed = %d, want 2", passed)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("kaboom") })
	if err := h(textFrom(1)); err == nil {
		t.Fatal("expected panic converted to error")
	}

	want := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return want })
	if err := h(textFrom(1)); !errors.Is(err, want) {
		t.Fatalf("got %v", err)
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		AdminID: 42,
		OnReject: func(tele.Context) error {
			rejected++
			return nil
		},
	})
	passed := 0
	h := mw(func(tele.Context) error {
		passed++
		return nil
	})
	_ = h(textFrom(7))
	_ = h(textFrom(42))
	if passed != 1 || rejected != 1 {
		t.Fatalf("passed=%d rejected=%d", passed, rejected)
	}
}

func TestMessageMetricsCounters(t *testing.T) {
	c := textFrom(1)
	_ = MessageMetricsMiddleware(func(tele.Context) error { return nil })(c)
	msgs, kb := GetCounters(c)
	if msgs != 0 || kb {
		t.Fatalf("msgs=%d kb=%v", msgs, kb)
	}
}
