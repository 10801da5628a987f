// README: In-memory index backend for tests and single-instance deployments.
package search

import (
	"context"
	"sort"
	"sync"

	"foodbridge/internal/types"
)

type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[types.ID]Entry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[types.ID]Entry)}
}

func (m *MemoryIndex) Sync(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

func (m *MemoryIndex) Remove(ctx context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *MemoryIndex) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	return suggestFrom(m.snapshot(), prefix, limit), nil
}

func (m *MemoryIndex) Search(ctx context.Context, c Criteria) ([]Entry, error) {
	return evaluate(m.snapshot(), c), nil
}

// snapshot returns entries in stable id order so evaluation ties are
// deterministic.
func (m *MemoryIndex) snapshot() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
