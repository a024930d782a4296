package rag

import (
	"context"
	"sort"

	"hyperfind/internal/bm25"
	"hyperfind/internal/queryproc"
	"hyperfind/internal/semantic"
)

const bm25ChunkTextLen = 1000

// BM25Scorer is the C5 collaborator the facade retrieves lexical candidates
// from.
type BM25Scorer interface {
	Score(ctx context.Context, terms []string) ([]bm25.Scored, error)
}

// SemanticSearcher is the C6 collaborator the facade retrieves semantic
// candidates from.
type SemanticSearcher interface {
	Search(ctx context.Context, query string, page, size int, filter map[string]string) ([]semantic.Result, int, error)
}

// Method selects which retrieval path Facade.RetrieveContext takes.
type Method string

const (
	MethodBM25     Method = "bm25"
	MethodSemantic Method = "semantic"
	MethodHybrid   Method = "hybrid"
)

// Facade assembles context records for a query for the RAG generator (C8).
type Facade struct {
	BM25     BM25Scorer
	Semantic SemanticSearcher
	Docs     DocumentLookup
}

// NewFacade constructs a Facade.
func NewFacade(b BM25Scorer, s SemanticSearcher, docs DocumentLookup) *Facade {
	return &Facade{BM25: b, Semantic: s, Docs: docs}
}

// RetrieveContext returns up to topK context records for query using method.
// For hybrid, semantic runs first (topK), then BM25 (topK); BM25 documents
// already present from the semantic pass are skipped. The merged union is
// sorted by relevanceScore descending and capped to topK.
func (f *Facade) RetrieveContext(ctx context.Context, query string, topK int, method Method) ([]ContextRecord, error) {
	if topK <= 0 {
		topK = 10
	}
	switch method {
	case MethodSemantic:
		return f.semanticRecords(ctx, query, topK, nil)
	case MethodBM25:
		return f.bm25Records(ctx, query, topK, nil)
	default:
		return f.hybridRecords(ctx, query, topK)
	}
}

func (f *Facade) hybridRecords(ctx context.Context, query string, topK int) ([]ContextRecord, error) {
	semRecords, err := f.semanticRecords(ctx, query, topK, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(semRecords))
	for _, r := range semRecords {
		seen[r.DocumentID] = struct{}{}
	}

	bmRecords, err := f.bm25Records(ctx, query, topK, seen)
	if err != nil {
		return nil, err
	}

	merged := append(semRecords, bmRecords...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].RelevanceScore > merged[j].RelevanceScore })
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

func (f *Facade) semanticRecords(ctx context.Context, query string, topK int, skip map[string]struct{}) ([]ContextRecord, error) {
	if f.Semantic == nil {
		return nil, nil
	}
	results, _, err := f.Semantic.Search(ctx, query, 1, topK, nil)
	if err != nil {
		return nil, err
	}

	out := make([]ContextRecord, 0, len(results))
	for _, r := range results {
		if _, skipped := skip[r.DocID]; skipped {
			continue
		}
		rec := ContextRecord{
			DocumentID:     r.DocID,
			ChunkText:      chunkTextOf(r),
			RelevanceScore: r.Score,
		}
		f.attachMeta(ctx, &rec)
		out = append(out, rec)
	}
	return out, nil
}

func chunkTextOf(r semantic.Result) string {
	if r.Text != "" {
		return r.Text
	}
	return r.Snippet
}

func (f *Facade) bm25Records(ctx context.Context, query string, topK int, skip map[string]struct{}) ([]ContextRecord, error) {
	if f.BM25 == nil {
		return nil, nil
	}
	p := queryproc.Process(query)
	scored, err := f.BM25.Score(ctx, p.Tokens)
	if err != nil {
		return nil, err
	}
	page, _ := bm25.Paginate(scored, 1, topK)

	out := make([]ContextRecord, 0, len(page))
	for _, s := range page {
		if _, skipped := skip[s.DocID]; skipped {
			continue
		}
		rec := ContextRecord{DocumentID: s.DocID, RelevanceScore: s.Score}
		f.attachMeta(ctx, &rec)
		rec.ChunkText = truncateRunes(rec.ChunkText, bm25ChunkTextLen)
		out = append(out, rec)
	}
	return out, nil
}

func (f *Facade) attachMeta(ctx context.Context, rec *ContextRecord) {
	if f.Docs == nil {
		return
	}
	meta, ok, err := f.Docs.GetDocument(ctx, rec.DocumentID)
	if err != nil || !ok {
		return
	}
	rec.Title = meta.Title
	rec.URL = meta.URL
	rec.Source = meta.Source
	if rec.ChunkText == "" {
		rec.ChunkText = meta.CleanText
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
