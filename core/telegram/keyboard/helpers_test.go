package keyboard

import "testing"

func TestInlineEncodesUniqueAndPayload(t *testing.T) {
	m := Inline(
		[]InlineBtn{{Text: "Approve", Unique: "approve", Data: "o-1"}, {Text: "Reject", Unique: "reject", Data: "o-1"}},
	)
	if len(m.InlineKeyboard) != 1 || len(m.InlineKeyboard[0]) != 2 {
		t.Fatalf("unexpected layout: %+v", m.InlineKeyboard)
	}
	approve := m.InlineKeyboard[0][0]
	if approve.Unique != "approve" || approve.Data != "o-1" {
		t.Fatalf("approve button = %+v", approve)
	}
	if got := m.InlineKeyboard[0][1].Text; got != "Reject" {
		t.Fatalf("reject text = %q", got)
	}
}

func TestSingleWithoutPayload(t *testing.T) {
	m := Single("Buy Now", "buy_now")
	btn := m.InlineKeyboard[0][0]
	if btn.Unique != "buy_now" || btn.Data != "" {
		t.Fatalf("button = %+v", btn)
	}
}
