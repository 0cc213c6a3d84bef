package content

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewInMemoryStore() Store {
	return &memoryStore{items: map[string]Item{}}
}

func (m *memoryStore) PutItem(_ context.Context, it Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it.CreatedAt == 0 {
		it.CreatedAt = time.Now().Unix()
	}
	m.items[it.ID] = it
	return nil
}

func (m *memoryStore) GetItem(_ context.Context, id string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (m *memoryStore) SetStatus(_ context.Context, id string, to Status) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	if !ValidTransition(it.Status, to) {
		return Item{}, errors.New("invalid status transition")
	}
	it.Status = to
	m.items[id] = it
	return it, nil
}

func (m *memoryStore) ListItems(_ context.Context, opts ListOpts) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Item
	for _, it := range m.items {
		if opts.Kind != "" && it.Kind != opts.Kind {
			continue
		}
		if opts.Status != "" && it.Status != opts.Status {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}
