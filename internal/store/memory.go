package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Store for tests and database-less local runs.
type Memory struct {
	mu    sync.Mutex
	nodes map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{nodes: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(_ context.Context, path string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.nodes[path]
	if !ok {
		return nil, ErrNotFound
	}
	return append(json.RawMessage(nil), value...), nil
}

func (m *Memory) Set(_ context.Context, path string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[path] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *Memory) Update(_ context.Context, path string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.nodes[path]
	if !ok {
		m.nodes[path] = append(json.RawMessage(nil), value...)
		return nil
	}

	var base, patch map[string]json.RawMessage
	if err := json.Unmarshal(existing, &base); err != nil {
		return err
	}
	if err := json.Unmarshal(value, &patch); err != nil {
		return err
	}
	for k, v := range patch {
		base[k] = v
	}
	merged, err := json.Marshal(base)
	if err != nil {
		return err
	}
	m.nodes[path] = merged
	return nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := range m.nodes {
		if underPrefix(p, path) {
			delete(m.nodes, p)
		}
	}
	return nil
}

func (m *Memory) Swap(_ context.Context, path string, expected, next json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.nodes[path]
	if expected == nil {
		if exists {
			return ErrConflict
		}
	} else {
		if !exists || !jsonEqual(current, expected) {
			return ErrConflict
		}
	}

	if next == nil {
		delete(m.nodes, path)
		return nil
	}
	m.nodes[path] = append(json.RawMessage(nil), next...)
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	nodes := make(map[string]json.RawMessage)
	for p, v := range m.nodes {
		if underPrefix(p, prefix) {
			nodes[p] = append(json.RawMessage(nil), v...)
		}
	}
	return nodes, nil
}

// jsonEqual compares two documents ignoring formatting, matching the
// Postgres implementation's jsonb equality closely enough for CAS.
func jsonEqual(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if err := json.Compact(&ca, a); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Compact(&cb, b); err != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
