package session

import (
	"context"
	"time"
)

// MemoryStore is the default Store: process-scoped, single-writer.
type MemoryStore struct {
	records map[string]FileRecord
	order   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]FileRecord)}
}

func (m *MemoryStore) Get(_ context.Context, filename string) (*FileRecord, error) {
	rec, ok := m.records[filename]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryStore) Put(_ context.Context, rec FileRecord) error {
	if _, ok := m.records[rec.Filename]; !ok {
		m.order = append(m.order, rec.Filename)
	}
	rec.Seq = indexOf(m.order, rec.Filename) + 1
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now().UTC()
	}
	m.records[rec.Filename] = rec
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]FileRecord, error) {
	out := make([]FileRecord, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.records[name])
	}
	return out, nil
}

func (m *MemoryStore) Reset(_ context.Context) error {
	m.records = make(map[string]FileRecord)
	m.order = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
