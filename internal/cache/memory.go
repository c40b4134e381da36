package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/models"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/storage"
)

// MemoryStore is an in-process TransactionStore used in tests and in
// store-less development mode. It mirrors the ClickHouse store's
// semantics: append-only, unique by signature, listed newest first.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]models.TransferEvent
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]models.TransferEvent)}
}

func (m *MemoryStore) FindBySignature(_ context.Context, signature string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.events[signature]
	return ok, nil
}

func (m *MemoryStore) Insert(_ context.Context, ev *models.TransferEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[ev.Signature]; ok {
		return fmt.Errorf("duplicate signature %s", ev.Signature)
	}
	m.events[ev.Signature] = *ev
	return nil
}

func (m *MemoryStore) List(_ context.Context, f storage.Filter) ([]models.TransferEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.TransferEvent, 0, len(m.events))
	for _, ev := range m.events {
		if !matches(ev, f) {
			continue
		}
		out = append(out, ev)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Signature < out[j].Signature
	})

	return out, nil
}

func matches(ev models.TransferEvent, f storage.Filter) bool {
	if f.TokenAccount != "" && ev.TokenAccount != f.TokenAccount {
		return false
	}
	if f.Type != "" && ev.Type != f.Type {
		return false
	}
	if f.Protocol != "" && ev.Protocol != f.Protocol {
		return false
	}
	if f.Signature != "" && ev.Signature != f.Signature {
		return false
	}
	if f.Start != nil && ev.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && ev.Timestamp.After(*f.End) {
		return false
	}
	return true
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
