package kafka

import (
	"errors"
	"testing"
	"time"
)

func TestMessageBuilder_SetsEventMetadata(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	msg := NewMessage().
		WithKey("res-1").
		WithValue(payload{Name: "test"}).
		WithEventType(EventReservationCreated).
		WithSource("reservations").
		Build()

	if msg.Key != "res-1" {
		t.Errorf("expected key res-1, got %s", msg.Key)
	}
	if msg.GetEventID() == "" {
		t.Error("expected a generated event id")
	}
	if msg.GetEventType() != EventReservationCreated {
		t.Errorf("expected event type %s, got %s", EventReservationCreated, msg.GetEventType())
	}
	if msg.Headers[HeaderSource] != "reservations" {
		t.Errorf("expected source header, got %q", msg.Headers[HeaderSource])
	}
	if _, err := time.Parse(time.RFC3339, msg.Headers[HeaderTimestamp]); err != nil {
		t.Errorf("expected RFC3339 timestamp header, got %q", msg.Headers[HeaderTimestamp])
	}

	var decoded payload
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.Name != "test" {
		t.Errorf("expected decoded payload, got %+v", decoded)
	}
}

func TestRetryCount(t *testing.T) {
	msg := NewMessage().WithKey("k").Build()

	if got := msg.GetRetryCount(); got != 0 {
		t.Errorf("expected retry count 0, got %d", got)
	}

	for i := 1; i <= 12; i++ {
		msg.IncrementRetryCount()
		if got := msg.GetRetryCount(); got != i {
			t.Errorf("after %d increments expected %d, got %d", i, i, got)
		}
	}
}

func TestRetryCount_GarbageHeader(t *testing.T) {
	msg := Message{Headers: map[string]string{HeaderRetryCount: "lots"}}
	if got := msg.GetRetryCount(); got != 0 {
		t.Errorf("expected 0 for unparseable header, got %d", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "invalid message", err: ErrInvalidMessage, want: false},
		{name: "producer closed", err: ErrProducerClosed, want: false},
		{name: "connection failed", err: ErrConnectionFailed, want: true},
		{name: "wrapped timeout", err: errors.New("dial tcp: i/o timeout"), want: true},
		{name: "broker down", err: errors.New("Leader Not Available"), want: true},
		{name: "unknown permanent", err: errors.New("schema mismatch"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetry_RespectsMaxRetries(t *testing.T) {
	err := ErrConnectionFailed
	if !ShouldRetry(err, 0, 3) {
		t.Error("expected retry below the limit")
	}
	if ShouldRetry(err, 3, 3) {
		t.Error("expected no retry at the limit")
	}
	if ShouldRetry(ErrInvalidMessage, 0, 3) {
		t.Error("expected no retry for a permanent error")
	}
}
