package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryTerms struct {
	mu    sync.RWMutex
	freqs map[string]int64
}

// NewMemoryTerms constructs an in-memory TermStore for tests and
// single-process deployments without Postgres.
func NewMemoryTerms() TermStore {
	return &memoryTerms{freqs: make(map[string]int64)}
}

func (m *memoryTerms) IncrementFrequency(_ context.Context, term string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freqs[term]++
	return nil
}

func (m *memoryTerms) TopTerms(_ context.Context, limit int) ([]TermFreq, error) {
	if limit <= 0 {
		limit = 50000
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.sorted()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryTerms) PrefixSearch(_ context.Context, prefix string, limit int) ([]TermFreq, error) {
	if limit <= 0 {
		limit = 10
	}
	prefix = strings.ToLower(prefix)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TermFreq
	for _, tf := range m.sorted() {
		if strings.HasPrefix(strings.ToLower(tf.Term), prefix) {
			out = append(out, tf)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memoryTerms) sorted() []TermFreq {
	out := make([]TermFreq, 0, len(m.freqs))
	for term, freq := range m.freqs {
		out = append(out, TermFreq{Term: term, Frequency: freq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	return out
}
