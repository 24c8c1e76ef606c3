package format

import "testing"

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("john_doe *vip* [x] `uid`", MarkdownV1)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	want := "john\\_doe \\*vip\\* \\[x] \\`uid\\`"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if MD("plain 123") != "plain 123" {
		t.Fatal("plain text must be unchanged")
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got, err := EscapeMarkdown("a.b-c!(d)", MarkdownV2)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	if want := `a\.b\-c\!\(d\)`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeMarkdownUnknownVersion(t *testing.T) {
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error")
	}
}
