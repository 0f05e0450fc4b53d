package blob

import (
	"context"
	"errors"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	type item struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	in := []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}

	data, err := EncodeSnapshot(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out []item
	if err := DecodeSnapshot(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != "1" || out[1].Name != "b" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestDecodeSnapshotUnknownVersion(t *testing.T) {
	var out []string
	err := DecodeSnapshot([]byte(`{"version":99,"data":[]}`), &out)
	if !errors.Is(err, ErrUnknownSnapshotVersion) {
		t.Fatalf("err = %v, want ErrUnknownSnapshotVersion", err)
	}
}

func TestDecodeSnapshotGarbage(t *testing.T) {
	var out []string
	if err := DecodeSnapshot([]byte("not json"), &out); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if _, err := store.Get(ctx, SlotTransactions); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Get on empty slot err = %v, want ErrNoSnapshot", err)
	}

	if err := store.Put(ctx, SlotTransactions, []byte("payload")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, SlotTransactions)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q, want payload", got)
	}

	// Other slots stay independent.
	if _, err := store.Get(ctx, SlotBudgets); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("unrelated slot err = %v, want ErrNoSnapshot", err)
	}
}

func TestMemoryStoreFailPuts(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	boom := errors.New("disk full")

	store.FailPuts(boom)
	if err := store.Put(ctx, SlotCategories, []byte("x")); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want injected failure", err)
	}

	store.FailPuts(nil)
	if err := store.Put(ctx, SlotCategories, []byte("x")); err != nil {
		t.Fatalf("put after reset: %v", err)
	}
}
