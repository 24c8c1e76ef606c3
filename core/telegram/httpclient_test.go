package telegram

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestRetryTransportRetriesTransientErrors(t *testing.T) {
	calls := 0
	rt := &retryTransport{
		maxRetries: 2,
		backoff:    time.Millisecond,
		base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			body, _ := io.ReadAll(r.Body)
			if string(body) != "payload" {
				t.Fatalf("body not replayed: %q", body)
			}
			if calls < 3 {
				return nil, timeoutErr{}
			}
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		}),
	}

	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("payload"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if resp.StatusCode != http.StatusOK || calls != 3 {
		t.Fatalf("status=%d calls=%d", resp.StatusCode, calls)
	}
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("certificate signed by unknown authority")
	rt := &retryTransport{
		maxRetries: 3,
		backoff:    time.Millisecond,
		base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, permanent
		}),
	}
	req, _ := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	if _, err := rt.RoundTrip(req); !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestBuildHTTPClientLeavesRoomForLongPoll(t *testing.T) {
	c := BuildHTTPClient(10 * time.Second)
	if c.Timeout <= 10*time.Second {
		t.Fatalf("client timeout %s must exceed poll timeout", c.Timeout)
	}
}
