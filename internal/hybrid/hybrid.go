// Package hybrid implements the Reciprocal Rank Fusion ranker (C7): it
// fuses a BM25 ranking list with a semantic ranking list into a single
// ordered, paginated result set.
package hybrid

import (
	"context"
	"sort"

	"hyperfind/internal/bm25"
	"hyperfind/internal/semantic"
)

// DefaultRRFK is the default RRF denominator constant.
const DefaultRRFK = 60

// Result is one fused document, carrying both source ranks (0 = absent) for
// transparency.
type Result struct {
	DocID        string
	RRFScore     float64
	BM25Rank     int // 1-indexed; 0 if absent
	SemanticRank int // 1-indexed; 0 if absent
	Snippet      string
}

// BM25Ranker and SemanticRanker are the C5/C6 collaborators the ranker
// fuses over. Both return items already sorted best-first.
type BM25Ranker interface {
	Score(ctx context.Context, terms []string) ([]bm25.Scored, error)
}

type SemanticRanker interface {
	Search(ctx context.Context, query string, page, size int, filter map[string]string) ([]semantic.Result, int, error)
}

// Ranker fuses BM25 and semantic ranking lists with Reciprocal Rank Fusion.
type Ranker struct {
	BM25     BM25Ranker
	Semantic SemanticRanker
	K        int // RRF denominator constant; defaults to DefaultRRFK
}

// NewRanker constructs a Ranker.
func NewRanker(b BM25Ranker, s SemanticRanker, k int) *Ranker {
	if k <= 0 {
		k = DefaultRRFK
	}
	return &Ranker{BM25: b, Semantic: s, K: k}
}

// Rank fetches the top min(3*size, maxResults) from both BM25 (given
// stemmed terms) and semantic search (given the raw query) at page 1,
// builds 1-indexed rank maps, fuses by RRF, and paginates the fused list
// with the caller's (page, size). bm25Snippets supplies each BM25-ranked
// document's keyword-centered snippet (the caller computes these via
// bm25.Snippet against clean content, since the BM25 scorer itself only
// sees postings); semantic snippets come from the chunk text already
// attached to semantic.Result.
func (r *Ranker) Rank(ctx context.Context, terms []string, rawQuery string, page, size, maxResults int, filter map[string]string, bm25Snippets map[string]string) ([]Result, int, error) {
	if size <= 0 {
		size = 10
	}
	if page < 1 {
		page = 1
	}
	fetchSize := 3 * size
	if maxResults > 0 && fetchSize > maxResults {
		fetchSize = maxResults
	}

	bm25Scored, err := r.BM25.Score(ctx, terms)
	if err != nil {
		return nil, 0, err
	}
	if len(bm25Scored) > fetchSize {
		bm25Scored = bm25Scored[:fetchSize]
	}

	semResults, _, err := r.Semantic.Search(ctx, rawQuery, 1, fetchSize, filter)
	if err != nil {
		return nil, 0, err
	}

	bm25Rank := make(map[string]int, len(bm25Scored))
	for i, s := range bm25Scored {
		bm25Rank[s.DocID] = i + 1
	}
	semRank := make(map[string]int, len(semResults))
	semSnippet := make(map[string]string, len(semResults))
	for i, s := range semResults {
		semRank[s.DocID] = i + 1
		semSnippet[s.DocID] = s.Snippet
	}

	seen := make(map[string]struct{}, len(bm25Scored)+len(semResults))
	var docIDs []string
	for _, s := range bm25Scored {
		if _, ok := seen[s.DocID]; !ok {
			seen[s.DocID] = struct{}{}
			docIDs = append(docIDs, s.DocID)
		}
	}
	for _, s := range semResults {
		if _, ok := seen[s.DocID]; !ok {
			seen[s.DocID] = struct{}{}
			docIDs = append(docIDs, s.DocID)
		}
	}

	fused := make([]Result, 0, len(docIDs))
	for _, docID := range docIDs {
		br := bm25Rank[docID]
		sr := semRank[docID]
		var rrf float64
		if br > 0 {
			rrf += 1.0 / float64(r.K+br)
		}
		if sr > 0 {
			rrf += 1.0 / float64(r.K+sr)
		}

		snippet := bm25Snippets[docID]
		if snippet == "" {
			snippet = semSnippet[docID]
		}

		fused = append(fused, Result{
			DocID:        docID,
			RRFScore:     rrf,
			BM25Rank:     br,
			SemanticRank: sr,
			Snippet:      snippet,
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].RRFScore != fused[j].RRFScore {
			return fused[i].RRFScore > fused[j].RRFScore
		}
		return fused[i].DocID < fused[j].DocID
	})

	total := len(fused)
	offset := (page - 1) * size
	if offset >= total {
		return nil, total, nil
	}
	end := offset + size
	if end > total {
		end = total
	}
	return fused[offset:end], total, nil
}
