package lock

import (
	"context"
	"sync"
)

// Memory is an in-process keyed mutex table. Only valid when a single process
// serves all capacity writes.
type Memory struct {
	mu    sync.Mutex
	slots map[string]*memorySlot
}

type memorySlot struct {
	ch   chan struct{}
	refs int
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[string]*memorySlot)}
}

func (m *Memory) Acquire(ctx context.Context, key string) (Lease, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	m.mu.Lock()
	slot, ok := m.slots[key]
	if !ok {
		slot = &memorySlot{ch: make(chan struct{}, 1)}
		m.slots[key] = slot
	}
	slot.refs++
	m.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		return &memoryLease{owner: m, key: key, slot: slot}, nil
	case <-ctx.Done():
		m.unref(key, slot)
		return nil, ctx.Err()
	}
}

// Len reports how many keys currently have holders or waiters.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func (m *Memory) unref(key string, slot *memorySlot) {
	m.mu.Lock()
	slot.refs--
	if slot.refs == 0 {
		delete(m.slots, key)
	}
	m.mu.Unlock()
}

type memoryLease struct {
	owner *Memory
	key   string
	slot  *memorySlot
	once  sync.Once
}

func (l *memoryLease) Key() string { return l.key }

func (l *memoryLease) Release(_ context.Context) error {
	l.once.Do(func() {
		<-l.slot.ch
		l.owner.unref(l.key, l.slot)
	})
	return nil
}
