package amqp

import (
	"encoding/json"
	"time"
)

// MonthSyncMessage marks a calendar month whose report is stale. The
// worker rebuilds the report from the blob store, so the message carries
// only the period, not the data.
type MonthSyncMessage struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMonthSyncMessage(year, month int) *MonthSyncMessage {
	return &MonthSyncMessage{
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MonthSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthSyncMessageFromJSON creates a message from JSON bytes
func MonthSyncMessageFromJSON(data []byte) (*MonthSyncMessage, error) {
	var msg MonthSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
