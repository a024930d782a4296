package store

import (
	"context"
	"sync"
)

// memoryPostings is an in-memory PostingsStore for tests, following the
// same sync.RWMutex-guarded map pattern as memorySearch/memoryVector.
type memoryPostings struct {
	mu       sync.RWMutex
	byTerm   map[string]map[string]Posting // term -> docID -> posting
	docStats map[string]DocStats
	coll     CollectionStats
}

// NewMemoryPostings returns an in-memory PostingsStore.
func NewMemoryPostings() PostingsStore {
	return &memoryPostings{
		byTerm:   make(map[string]map[string]Posting),
		docStats: make(map[string]DocStats),
	}
}

func (m *memoryPostings) WritePostings(_ context.Context, docID string, postings []Posting, stats DocStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, hadPrev := m.docStats[docID]
	for term, docs := range m.byTerm {
		delete(docs, docID)
		if len(docs) == 0 {
			delete(m.byTerm, term)
		}
	}

	for _, post := range postings {
		docs, ok := m.byTerm[post.Term]
		if !ok {
			docs = make(map[string]Posting)
			m.byTerm[post.Term] = docs
		}
		cp := post
		cp.Positions = append([]int(nil), post.Positions...)
		docs[docID] = cp
	}

	m.docStats[docID] = stats

	delta := stats.TotalTerms
	if hadPrev {
		delta -= prev.TotalTerms
	} else {
		m.coll.DocCount++
	}
	m.coll.TotalLength += int64(delta)
	return nil
}

func (m *memoryPostings) PostingsForTerm(_ context.Context, term string) ([]Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, ok := m.byTerm[term]
	if !ok {
		return nil, nil
	}
	out := make([]Posting, 0, len(docs))
	for _, p := range docs {
		cp := p
		cp.Positions = append([]int(nil), p.Positions...)
		out = append(out, cp)
	}
	return out, nil
}

func (m *memoryPostings) DocStats(_ context.Context, docID string) (DocStats, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.docStats[docID]
	return st, ok, nil
}

func (m *memoryPostings) CollectionStats(_ context.Context) (CollectionStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coll, nil
}

func (m *memoryPostings) RemoveDocument(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.docStats[docID]
	if !ok {
		return nil
	}
	for term, docs := range m.byTerm {
		delete(docs, docID)
		if len(docs) == 0 {
			delete(m.byTerm, term)
		}
	}
	delete(m.docStats, docID)
	m.coll.DocCount--
	if m.coll.DocCount < 0 {
		m.coll.DocCount = 0
	}
	m.coll.TotalLength -= int64(prev.TotalTerms)
	if m.coll.TotalLength < 0 {
		m.coll.TotalLength = 0
	}
	return nil
}
