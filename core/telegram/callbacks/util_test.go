package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data, unique, payload string
	}{
		{"\fapprove|0192f0c4-7a1b-7c3e-9d2a-1b2c3d4e5f60", "approve", "0192f0c4-7a1b-7c3e-9d2a-1b2c3d4e5f60"},
		{"\fbuy_now", "buy_now", ""},
		{"\freject|a|b", "reject", "a|b"},
		{"noop", "noop", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		u, p := ParseCallbackData(tc.data)
		if u != tc.unique || p != tc.payload {
			t.Fatalf("ParseCallbackData(%q) = (%q, %q), want (%q, %q)", tc.data, u, p, tc.unique, tc.payload)
		}
	}
}

func TestParsePrefersResolvedUnique(t *testing.T) {
	u, p := Parse(&tele.Callback{Unique: "approve", Data: "order-1"})
	if u != "approve" || p != "order-1" {
		t.Fatalf("got (%q, %q)", u, p)
	}
	u, p = Parse(nil)
	if u != "" || p != "" {
		t.Fatalf("nil callback parsed as (%q, %q)", u, p)
	}
}
