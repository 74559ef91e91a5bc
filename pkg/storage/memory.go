package storage

import (
	"context"
	"sync"
)

// Memory keeps values in process. Carts do not survive a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// MemoryFactory gives every session its own Memory provider.
type MemoryFactory struct {
	mu       sync.Mutex
	sessions map[string]*Memory
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{sessions: make(map[string]*Memory)}
}

func (f *MemoryFactory) Provider(sessionID string) Provider {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.sessions[sessionID]
	if !ok {
		p = NewMemory()
		f.sessions[sessionID] = p
	}
	return p
}

func (f *MemoryFactory) Ping(context.Context) error { return nil }

func (f *MemoryFactory) Close() error { return nil }
