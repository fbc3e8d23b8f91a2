package state

import (
	"context"
	"sync"
)

// MemoryBackend keeps records in process memory. It backs tests and the
// "memory" storage driver.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: map[string]Record{}}
}

func (b *MemoryBackend) Get(_ context.Context, key string) (Record, bool, error) {
	b.mu.RLock()
	record, ok := b.records[key]
	b.mu.RUnlock()
	if !ok {
		return Record{}, false, nil
	}
	return cloneRecord(record), true, nil
}

func (b *MemoryBackend) Put(_ context.Context, key string, record Record) error {
	b.mu.Lock()
	b.records[key] = cloneRecord(record)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.records, key)
	b.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

func cloneRecord(record Record) Record {
	out := record
	if record.Payload != nil {
		out.Payload = append([]byte(nil), record.Payload...)
	}
	return out
}
