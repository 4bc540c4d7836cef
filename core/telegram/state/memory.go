package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state    State
	stateExp time.Time
	data     Data
	dataExp  time.Time
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[int64]*memoryEntry
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, which lets tests move time forward.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore constructs an in-memory Store whose entries expire after ttl (DefaultTTL when <= 0).
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[int64]*memoryEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// entry returns the live session for chatID, dropping expired parts; must hold m.mu.
func (m *MemoryStore) entry(chatID int64, create bool) *memoryEntry {
	now := m.now()
	e, ok := m.sessions[chatID]
	if ok {
		if e.state != StateIdle && !now.Before(e.stateExp) {
			e.state = StateIdle
		}
		if len(e.data) > 0 && !now.Before(e.dataExp) {
			e.data = nil
		}
		if e.state == StateIdle && len(e.data) == 0 && !create {
			delete(m.sessions, chatID)
			return nil
		}
	}
	if !ok {
		if !create {
			return nil
		}
		e = &memoryEntry{}
		m.sessions[chatID] = e
	}
	return e
}

// GetState returns the current FSM state of a chat, or StateIdle if none exists.
func (m *MemoryStore) GetState(_ context.Context, chatID int64) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.entry(chatID, false); e != nil {
		return e.state, nil
	}
	return StateIdle, nil
}

// SetState sets the FSM state for the given chat.
func (m *MemoryStore) SetState(_ context.Context, chatID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(chatID, true)
	e.state = st
	e.stateExp = m.now().Add(m.ttl)
	return nil
}

// GetData returns a copy of the chat's data bag.
func (m *MemoryStore) GetData(_ context.Context, chatID int64) (Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := Data{}
	if e := m.entry(chatID, false); e != nil {
		for k, v := range e.data {
			out[k] = v
		}
	}
	return out, nil
}

// UpdateData merges patch into the chat's data bag and refreshes its TTL.
func (m *MemoryStore) UpdateData(_ context.Context, chatID int64, patch Data) error {
	if len(patch) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(chatID, true)
	if e.data == nil {
		e.data = make(Data, len(patch))
	}
	for k, v := range patch {
		e.data[k] = v
	}
	e.dataExp = m.now().Add(m.ttl)
	return nil
}

// Clear removes the entire session for a chat.
func (m *MemoryStore) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
	return nil
}
