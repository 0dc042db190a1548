package stats

import "sync"

// MemoryStore counts how often each fragrance id has been recommended. It is safe for concurrent use
// and never persists its state.
type MemoryStore struct {
	mu     sync.RWMutex
	counts map[int]int
}

// NewMemoryStore constructs an empty counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[int]int)}
}

// Register ensures every id is tracked, starting at zero. Existing counts are untouched.
func (s *MemoryStore) Register(ids ...int) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.counts[id]; !ok {
			s.counts[id] = 0
		}
	}
}

// Increment adds one to the counter for id and returns the new value.
func (s *MemoryStore) Increment(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[id]++
	return s.counts[id]
}

// Count returns the current counter for id.
func (s *MemoryStore) Count(id int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[id]
}

// Snapshot copies the counters together with their sum.
func (s *MemoryStore) Snapshot() (map[int]int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]int, len(s.counts))
	total := 0
	for id, count := range s.counts {
		out[id] = count
		total += count
	}
	return out, total
}

// Average returns the mean count over every tracked id, or zero when nothing is tracked.
func (s *MemoryStore) Average() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.counts) == 0 {
		return 0
	}
	total := 0
	for _, count := range s.counts {
		total += count
	}
	return float64(total) / float64(len(s.counts))
}

// Reset forgets every counter.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[int]int)
}
