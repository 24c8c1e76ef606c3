package orders

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T, userID int64) Order {
	t.Helper()
	id, err := NewID()
	require.NoError(t, err)
	return Order{
		ID:            id,
		UserID:        userID,
		UserName:      "Rafi Ahmed",
		ProductCode:   "FX1",
		ProductName:   "25 Diamond",
		ProductPrice:  decimal.RequireFromString("22.50"),
		UID:           "123456789",
		TransactionID: "TX-1",
		ScreenshotID:  "file-1",
		Timestamp:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:        StatusPending,
	}
}

func TestNewFileStoreCreatesEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "orders.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(data))

	list, err := s.List(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, list)
	require.NoError(t, s.Ping(context.Background()))
}

func TestNewFileStoreRejectsCorruptLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o600))
	_, err := NewFileStore(path)
	require.Error(t, err)
}

func TestFileStoreReadsLegacyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	legacy := `[{"orderId":"1717171717171","userId":42,"userName":"A","productCode":"FX1",
"productName":"25 Diamond","productPrice":22,"uid":"9","transactionId":"T",
"screenshotId":"F","timestamp":"2024-05-31T16:08:37.171Z","status":"Pending"}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	o, err := s.Get(context.Background(), "1717171717171")
	require.NoError(t, err)
	require.Equal(t, int64(42), o.UserID)
	require.True(t, o.ProductPrice.Equal(decimal.NewFromInt(22)))

	decided, err := s.Decide(context.Background(), o.ID, StatusApproved)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedAt)
}

func TestFileStoreWritesPriceAsNumber(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "orders.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	o := newOrder(t, 42)
	require.NoError(t, s.Create(ctx, o))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"productPrice": 22.5`)
	require.NotContains(t, string(data), `"productPrice": "`)

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, got.ProductPrice.Equal(o.ProductPrice))
	require.Equal(t, o.UserName, got.UserName)
}

func TestFileStoreCreateAndList(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)

	first, second := newOrder(t, 1), newOrder(t, 2)
	require.NoError(t, s.Create(ctx, first))
	require.NoError(t, s.Create(ctx, second))

	err = s.Create(ctx, first)
	require.ErrorIs(t, err, ErrDuplicateID)

	bad := newOrder(t, 3)
	bad.Status = StatusApproved
	require.Error(t, s.Create(ctx, bad))

	list, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)

	got, err := s.Get(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, "22.5", got.ProductPrice.String())
	require.True(t, got.Timestamp.Equal(second.Timestamp))

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreDecideOnce(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)
	o := newOrder(t, 1)
	require.NoError(t, s.Create(ctx, o))

	_, err = s.Decide(ctx, o.ID, StatusPending)
	require.Error(t, err)

	got, err := s.Decide(ctx, o.ID, StatusRejected)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, got.Status)

	got, err = s.Decide(ctx, o.ID, StatusApproved)
	require.ErrorIs(t, err, ErrAlreadyProcessed)
	require.Equal(t, StatusRejected, got.Status)

	_, err = s.Decide(ctx, "nope", StatusApproved)
	require.ErrorIs(t, err, ErrNotFound)

	pending, err := s.List(ctx, StatusPending)
	require.NoError(t, err)
	require.Empty(t, pending)
	rejected, err := s.List(ctx, StatusRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
}

func TestFileStoreConcurrentDecisions(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)

	const n = 20
	ids := make([]string, n)
	for i := range ids {
		o := newOrder(t, int64(i+1))
		ids[i] = o.ID
		require.NoError(t, s.Create(ctx, o))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		conflict int
	)
	for _, id := range ids {
		for _, to := range []Status{StatusApproved, StatusRejected} {
			wg.Add(1)
			go func(id string, to Status) {
				defer wg.Done()
				_, err := s.Decide(ctx, id, to)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, ErrAlreadyProcessed):
					conflict++
				default:
					panic(fmt.Sprintf("unexpected error: %v", err))
				}
			}(id, to)
		}
	}
	wg.Wait()

	require.Equal(t, n, wins)
	require.Equal(t, n, conflict)
	pending, err := s.List(ctx, StatusPending)
	require.NoError(t, err)
	require.Empty(t, pending)

	entries, err := os.ReadDir(filepath.Dir(s.path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" pending ")
	require.NoError(t, err)
	require.Equal(t, StatusPending, st)
	require.True(t, st.Valid())

	_, err = ParseStatus("shipped")
	require.Error(t, err)
	require.False(t, Status("shipped").Valid())
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id, err := NewID()
		require.NoError(t, err)
		require.LessOrEqual(t, len("approve|"+id), 63)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
