package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{40, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"recoverable amqp error", &amqp091.Error{Code: 320, Recover: true}, true},
		{"access refused", &amqp091.Error{Code: amqp091.AccessRefused, Reason: "ACCESS_REFUSED"}, false},
		{"bad payload", errors.New("invalid character"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("invalid credentials")
	err := retry(context.Background(), 5, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected a single call returning the error, got %d calls (%v)", calls, err)
	}
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := retry(ctx, 5, func() error {
		calls++
		return errors.New("connection refused")
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("expected cancellation after first attempt, got %d calls (%v)", calls, err)
	}
}

func TestQueueArgs(t *testing.T) {
	args := queueArgs(queueMessageTTL)
	if err := args.Validate(); err != nil {
		t.Fatalf("queue arguments must be valid AMQP table: %v", err)
	}
	ttl, ok := args["x-message-ttl"].(int64)
	if !ok || ttl != 24*60*60*1000 {
		t.Fatalf("expected a one-day message TTL in milliseconds, got %v", args["x-message-ttl"])
	}
}

func TestDatasetLoadedMessageJSON(t *testing.T) {
	msg := &DatasetLoadedMessage{
		SessionID: "abc",
		Files:     []string{"2024.csv"},
		Rows:      10,
		Total:     "-1200",
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := DatasetLoadedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.SessionID != "abc" || got.Rows != 10 || got.Files[0] != "2024.csv" || !got.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("unexpected message: %+v", got)
	}
	if _, err := DatasetLoadedMessageFromJSON([]byte("{")); err == nil {
		t.Fatalf("expected error for malformed body")
	}
}
