package registry

import (
	"hash/fnv"
	"sync"

	"tickerbot/internal/application/port"
	"tickerbot/internal/domain"
)

const shardCount = 32

type shard struct {
	mu    sync.RWMutex
	lists map[string][]domain.Symbol
}

// Memory is the in-process subscription registry. Subscribers hash onto
// fixed shards so unrelated users never contend on one lock. State lives
// only in memory and is gone on restart.
type Memory struct {
	shards [shardCount]*shard
}

func NewMemory() *Memory {
	m := &Memory{}
	for i := range m.shards {
		m.shards[i] = &shard{lists: make(map[string][]domain.Symbol)}
	}
	return m
}

func (m *Memory) shardFor(subscriber string) *shard {
	h := fnv.New32a()
	h.Write([]byte(subscriber))
	return m.shards[h.Sum32()%shardCount]
}

// Add appends the symbol to the subscriber's watchlist. Adding a symbol
// already present is a no-op success. The capacity check and the append are
// one critical section, so concurrent adds cannot overshoot the cap.
func (m *Memory) Add(subscriber string, symbol domain.Symbol) error {
	s := m.shardFor(subscriber)
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[subscriber]
	for _, have := range list {
		if have == symbol {
			return nil
		}
	}
	if len(list) >= port.MaxSymbols {
		return port.ErrCapacity
	}
	s.lists[subscriber] = append(list, symbol)
	return nil
}

// Remove deletes the symbol if present, preserving the order of the rest.
func (m *Memory) Remove(subscriber string, symbol domain.Symbol) bool {
	s := m.shardFor(subscriber)
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[subscriber]
	for i, have := range list {
		if have == symbol {
			s.lists[subscriber] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of the watchlist in insertion order.
func (m *Memory) List(subscriber string) []domain.Symbol {
	s := m.shardFor(subscriber)
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.lists[subscriber]
	out := make([]domain.Symbol, len(list))
	copy(out, list)
	return out
}

// Subscribers snapshots all known subscriber ids, shard by shard, so
// mutators are never blocked across the whole registry.
func (m *Memory) Subscribers() []string {
	var out []string
	for _, s := range m.shards {
		s.mu.RLock()
		for sub := range s.lists {
			out = append(out, sub)
		}
		s.mu.RUnlock()
	}
	return out
}
