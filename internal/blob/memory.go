package blob

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and the memory backend mode.
type Memory struct {
	mu     sync.Mutex
	slots  map[string][]byte
	putErr error
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, ErrNoSnapshot
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Put(_ context.Context, slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.slots[slot] = stored
	return nil
}

// FailPuts makes every subsequent Put return err. Pass nil to restore
// normal behavior. Tests use this to exercise persistence failures.
func (m *Memory) FailPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}
