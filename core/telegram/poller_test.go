package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(PollerOptions{
		RunMode: "Webhook",
		Webhook: WebhookOptions{URL: "https://bot.example.com"},
	})
	wh, ok := p.(*tele.Webhook)
	if !ok {
		t.Fatalf("expected webhook poller, got %T", p)
	}
	if wh.Listen != ":3000" {
		t.Fatalf("listen = %q", wh.Listen)
	}
	if wh.Endpoint.PublicURL != "https://bot.example.com" {
		t.Fatalf("public url = %q", wh.Endpoint.PublicURL)
	}
}

func TestBuildPollerLongpoll(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "longpoll", LongPollTimeoutSeconds: 25})
	lp, ok := p.(*tele.LongPoller)
	if !ok {
		t.Fatalf("expected long poller, got %T", p)
	}
	if lp.Timeout != 25*time.Second {
		t.Fatalf("timeout = %s", lp.Timeout)
	}

	lp = BuildPoller(PollerOptions{}).(*tele.LongPoller)
	if lp.Timeout != defaultLongPollTimeout {
		t.Fatalf("default timeout = %s", lp.Timeout)
	}
}
