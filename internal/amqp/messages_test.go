package amqp

import (
	"testing"
	"time"
)

func TestMonthSyncMessageRoundTrip(t *testing.T) {
	msg := NewMonthSyncMessage(2025, 4)
	if msg.Year != 2025 || msg.Month != 4 {
		t.Fatalf("message = %+v", msg)
	}
	if time.Since(msg.Timestamp) > time.Minute {
		t.Fatalf("timestamp not recent: %v", msg.Timestamp)
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	decoded, err := MonthSyncMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if decoded.Year != msg.Year || decoded.Month != msg.Month {
		t.Fatalf("decoded = %+v, want year %d month %d", decoded, msg.Year, msg.Month)
	}
}

func TestMonthSyncMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := MonthSyncMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
