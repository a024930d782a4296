package autocomplete

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"hyperfind/internal/store"
)

// topTermsLimit bounds how many of the persisted top-frequency terms seed
// the in-memory trie on (re)build.
const topTermsLimit = 50000

// minQueryTermLength is the shortest term RecordQuery will persist.
const minQueryTermLength = 2

// Manager owns the process-wide autocomplete trie: a single instance lazily
// built from the persisted term store on first use, rebuilt whenever a
// write invalidates it. Manager is safe for concurrent use.
type Manager struct {
	Terms store.TermStore

	mu    sync.Mutex
	trie  *Trie
	dirty atomic.Bool
}

// NewManager constructs a Manager backed by terms. The trie starts dirty so
// the first SearchPrefix call triggers a build.
func NewManager(terms store.TermStore) *Manager {
	m := &Manager{Terms: terms}
	m.dirty.Store(true)
	return m
}

// SearchPrefix returns up to limit terms starting with prefix. It rebuilds
// the trie first if a prior write invalidated it. If the trie is empty
// after (re)building, or holds no term with that prefix, it falls back to a
// persistent prefix lookup for correctness.
func (m *Manager) SearchPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	trie, err := m.currentTrie(ctx)
	if err != nil {
		return nil, err
	}
	if trie.Size() > 0 {
		if hits := trie.SearchPrefix(prefix, limit); len(hits) > 0 {
			return hits, nil
		}
	}

	fallback, err := m.Terms.PrefixSearch(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(fallback))
	for i, tf := range fallback {
		out[i] = tf.Term
	}
	return out, nil
}

// currentTrie returns the live trie, rebuilding it from the persisted term
// store if a write has invalidated it since the last build.
func (m *Manager) currentTrie(ctx context.Context) (*Trie, error) {
	if !m.dirty.Load() {
		m.mu.Lock()
		t := m.trie
		m.mu.Unlock()
		if t != nil {
			return t, nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty.Load() && m.trie != nil {
		return m.trie, nil
	}

	top, err := m.Terms.TopTerms(ctx, topTermsLimit)
	if err != nil {
		return nil, err
	}
	t := NewTrie()
	for _, tf := range top {
		t.Insert(tf.Term, tf.Frequency)
	}
	m.trie = t
	m.dirty.Store(false)
	return t, nil
}

// RecordQuery lowercases and trims term; terms shorter than
// minQueryTermLength are dropped. It upserts into the term store,
// incrementing frequency by 1, and invalidates the trie so the next reader
// rebuilds.
func (m *Manager) RecordQuery(ctx context.Context, term string) error {
	term = strings.ToLower(strings.TrimSpace(term))
	if len(term) < minQueryTermLength {
		return nil
	}
	if err := m.Terms.IncrementFrequency(ctx, term); err != nil {
		return err
	}
	m.dirty.Store(true)
	return nil
}
