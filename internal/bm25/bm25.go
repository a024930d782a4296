// Package bm25 implements the Okapi BM25 scorer (C5): ranking documents for
// a set of stemmed query terms against internal/store's PostingsStore and
// CollectionStats, plus snippet and highlight extraction.
package bm25

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"hyperfind/internal/apperr"
	"hyperfind/internal/obs"
	"hyperfind/internal/store"
)

// Default Okapi BM25 tuning constants, overridable via config.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Scored is one document's BM25 result.
type Scored struct {
	DocID string
	Score float64
}

// Scorer ranks documents for a query's stemmed terms using BM25 over a
// PostingsStore's term postings and collection statistics.
type Scorer struct {
	Postings store.PostingsStore
	K1       float64
	B        float64
	// Metrics records query latency and result-set size. Nil disables
	// instrumentation.
	Metrics obs.Metrics
}

// NewScorer constructs a Scorer, defaulting K1/B to the canonical Okapi
// values when zero.
func NewScorer(postings store.PostingsStore, k1, b float64) *Scorer {
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b <= 0 {
		b = DefaultB
	}
	return &Scorer{Postings: postings, K1: k1, B: b}
}

// Score ranks every document carrying at least one of terms, descending by
// BM25 score. Terms whose IDF is <= 0 are dropped entirely (common terms
// contribute nothing, including to the denominator). Returns an empty slice
// if the collection is empty.
func (s *Scorer) Score(ctx context.Context, terms []string) (scored []Scored, err error) {
	start := time.Now()
	defer func() { s.observe(start, len(scored), err) }()

	coll, err := s.Postings.CollectionStats(ctx)
	if err != nil {
		return nil, apperr.New(apperr.PersistenceFailure, "bm25.Score", err)
	}
	if coll.DocCount == 0 {
		return nil, nil
	}
	avgdl := coll.AvgDocLength()
	if avgdl <= 0 {
		avgdl = 1
	}

	docLen := make(map[string]int)
	scores := make(map[string]float64)

	seenTerms := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if _, dup := seenTerms[t]; dup {
			continue
		}
		seenTerms[t] = struct{}{}

		postings, err := s.Postings.PostingsForTerm(ctx, t)
		if err != nil {
			return nil, apperr.New(apperr.PersistenceFailure, "bm25.Score", err)
		}
		if len(postings) == 0 {
			continue
		}

		df := float64(len(postings))
		idf := math.Log((float64(coll.DocCount)-df+0.5)/(df+0.5) + 1)
		if idf <= 0 {
			continue
		}

		for _, p := range postings {
			dl, ok := docLen[p.DocID]
			if !ok {
				stats, found, err := s.Postings.DocStats(ctx, p.DocID)
				if err != nil {
					return nil, apperr.New(apperr.PersistenceFailure, "bm25.Score", err)
				}
				if !found {
					continue
				}
				dl = stats.TotalTerms
				docLen[p.DocID] = dl
			}
			tf := float64(p.TF)
			norm := 1 - s.B + s.B*float64(dl)/avgdl
			scores[p.DocID] += idf * (tf * (s.K1 + 1)) / (tf + s.K1*norm)
		}
	}

	out := make([]Scored, 0, len(scores))
	for docID, score := range scores {
		out = append(out, Scored{DocID: docID, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocID < out[j].DocID
	})
	return out, nil
}

func (s *Scorer) observe(start time.Time, resultCount int, err error) {
	if s.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	labels := map[string]string{"outcome": outcome}
	s.Metrics.IncCounter("bm25_queries_total", labels)
	s.Metrics.ObserveHistogram("bm25_query_seconds", time.Since(start).Seconds(), labels)
	if err == nil {
		s.Metrics.ObserveHistogram("bm25_result_count", float64(resultCount), labels)
	}
}

// Paginate returns the [offset, offset+size) slice of scored, where
// offset = (page-1)*size, along with the total distinct-document count.
func Paginate(scored []Scored, page, size int) ([]Scored, int) {
	total := len(scored)
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	offset := (page - 1) * size
	if offset >= total {
		return nil, total
	}
	end := offset + size
	if end > total {
		end = total
	}
	return scored[offset:end], total
}

// Snippet finds the earliest byte offset where any lowercased term in terms
// appears in cleanContent, and returns a window of up to maxLen characters
// starting 50 characters before that offset, with "…" affixed on truncation.
// If no term occurs, the first maxLen characters are returned.
func Snippet(cleanContent string, terms []string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 250
	}
	lower := strings.ToLower(cleanContent)
	earliest := -1
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if idx := strings.Index(lower, t); idx != -1 && (earliest == -1 || idx < earliest) {
			earliest = idx
		}
	}
	if earliest == -1 {
		return truncate(cleanContent, 0, maxLen)
	}
	start := earliest - 50
	if start < 0 {
		start = 0
	}
	return truncate(cleanContent, start, maxLen)
}

func truncate(text string, start, maxLen int) string {
	if start >= len(text) {
		start = 0
	}
	end := start + maxLen
	if end > len(text) {
		end = len(text)
	}
	window := text[start:end]
	if start > 0 {
		window = "…" + window
	}
	if end < len(text) {
		window = window + "…"
	}
	return window
}

// Highlight wraps every case-insensitive occurrence of any rawToken in text
// with <mark>...</mark>, preserving the original casing of the match.
func Highlight(text string, rawTokens []string) string {
	if len(rawTokens) == 0 || text == "" {
		return text
	}
	lower := strings.ToLower(text)
	type span struct{ start, end int }
	var spans []span
	for _, tok := range rawTokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		start := 0
		for {
			idx := strings.Index(lower[start:], tok)
			if idx == -1 {
				break
			}
			abs := start + idx
			spans = append(spans, span{abs, abs + len(tok)})
			start = abs + len(tok)
		}
	}
	if len(spans) == 0 {
		return text
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	var b strings.Builder
	prev := 0
	for _, s := range merged {
		b.WriteString(text[prev:s.start])
		b.WriteString("<mark>")
		b.WriteString(text[s.start:s.end])
		b.WriteString("</mark>")
		prev = s.end
	}
	b.WriteString(text[prev:])
	return b.String()
}
