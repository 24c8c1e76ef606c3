package session

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTableLifecycle(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tbl := NewTable(Options{Now: clk.Now})

	_, ok := tbl.Get(7)
	require.False(t, ok)
	require.False(t, tbl.Update(7, func(s *Session) { s.UID = "x" }))

	tbl.Set(7, Session{Step: AwaitingUID, ProductCode: "FX1", ProductPrice: decimal.NewFromInt(22)})
	s, ok := tbl.Get(7)
	require.True(t, ok)
	require.Equal(t, AwaitingUID, s.Step)
	require.Equal(t, clk.Now(), s.CreatedAt)

	clk.Advance(time.Minute)
	require.True(t, tbl.Update(7, func(s *Session) {
		s.UID = "123456789"
		s.Step = AwaitingPaymentDetails
	}))
	s, _ = tbl.Get(7)
	require.Equal(t, "123456789", s.UID)
	require.Equal(t, "awaiting_payment_details", s.Step.String())
	require.True(t, s.UpdatedAt.After(s.CreatedAt))

	s.UID = "mutated copy"
	again, _ := tbl.Get(7)
	require.Equal(t, "123456789", again.UID)

	tbl.Clear(7)
	require.Equal(t, 0, tbl.Len())
}

func TestSweepDropsIdleSessions(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tbl := NewTable(Options{TTL: time.Hour, Now: clk.Now})

	tbl.Set(1, Session{Step: AwaitingUID})
	clk.Advance(45 * time.Minute)
	tbl.Set(2, Session{Step: AwaitingUID})
	clk.Advance(30 * time.Minute)

	require.Equal(t, 1, tbl.Sweep(clk.Now()))
	_, ok := tbl.Get(1)
	require.False(t, ok)
	_, ok = tbl.Get(2)
	require.True(t, ok)
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	tbl := NewTable(Options{})
	tbl.Set(1, Session{Step: AwaitingScreenshot})
	require.Equal(t, 0, tbl.Sweep(time.Now().Add(1000*time.Hour)))
	require.Equal(t, 1, tbl.Len())
}

func TestLockSerializesSameUser(t *testing.T) {
	tbl := NewTable(Options{})
	tbl.Set(1, Session{Step: AwaitingUID})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := tbl.Lock(1)
			defer unlock()
			s, _ := tbl.Get(1)
			s.UID += "x"
			tbl.Set(1, s)
		}()
	}
	wg.Wait()

	s, _ := tbl.Get(1)
	require.Len(t, s.UID, 50)

	tbl.locksMu.Lock()
	defer tbl.locksMu.Unlock()
	require.Empty(t, tbl.locks)
}

func TestLockDistinctUsersDoNotContend(t *testing.T) {
	tbl := NewTable(Options{})
	unlockA := tbl.Lock(1)
	done := make(chan struct{})
	go func() {
		unlock := tbl.Lock(2)
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock for user 2 blocked behind user 1")
	}
	unlockA()
	unlockA()
}
