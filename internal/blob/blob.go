// Package blob defines the local snapshot store: a small key-value port
// with three named slots, each holding a full serialized collection.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Slot names for the three persisted collections.
const (
	SlotTransactions = "transactions"
	SlotCategories   = "categories"
	SlotBudgets      = "budgets"
)

// SnapshotVersion is the current envelope schema version.
const SnapshotVersion = 1

var (
	ErrNoSnapshot             = errors.New("no snapshot")
	ErrUnknownSnapshotVersion = errors.New("unknown snapshot version")
)

// Store reads and writes whole-collection snapshots. Implementations must
// return ErrNoSnapshot from Get when the slot has never been written.
type Store interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Put(ctx context.Context, slot string, data []byte) error
}

// Envelope wraps a persisted collection with an explicit schema version so
// the stored shape is validated on load instead of trusted.
type Envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// EncodeSnapshot serializes a collection into a versioned envelope.
func EncodeSnapshot(collection any) ([]byte, error) {
	data, err := json.Marshal(collection)
	if err != nil {
		return nil, fmt.Errorf("marshal collection: %w", err)
	}
	out, err := json.Marshal(Envelope{Version: SnapshotVersion, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return out, nil
}

// DecodeSnapshot validates the envelope version and unmarshals the
// collection into dst. Newer (unknown) versions are rejected rather than
// guessed at; this is where migrations for older versions would hook in.
func DecodeSnapshot(data []byte, dst any) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrUnknownSnapshotVersion, env.Version)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("unmarshal collection: %w", err)
	}
	return nil
}
