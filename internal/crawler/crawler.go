// Package crawler defines the producer abstraction every concrete source
// (Wikipedia, Reddit, Hacker News, Custom/BFS) implements: validate a raw
// config, then yield pages lazily so the orchestrator drains them at its own
// pace instead of buffering an entire crawl in memory.
package crawler

import (
	"context"
	"net/http"
	"time"
)

// Page is one crawled document, ready for HTML cleaning (C1) and indexing.
type Page struct {
	URL      string
	Title    string
	RawHTML  string
	Source   string
	Metadata map[string]string
}

// Seq is a lazy, pull-based sequence of pages. Next returns false once the
// sequence is exhausted or the context is cancelled; err reports why.
// Implementations fetch the next page on demand, inside Next, so callers
// control how much of the crawl is ever materialized.
type Seq interface {
	Next(ctx context.Context) (Page, bool, error)
}

// Crawler is the capability every concrete source implements.
type Crawler interface {
	// ValidateConfig normalizes raw into a config the crawler understands,
	// or returns an apperr.BadConfig error.
	ValidateConfig(raw map[string]any) (any, error)
	// Crawl returns a lazy sequence of pages for the given (already
	// validated) config.
	Crawl(ctx context.Context, config any) Seq
}

// defaultFetchTimeout bounds a single outbound HTTP fetch (spec: 20-30s).
const defaultFetchTimeout = 25 * time.Second

// defaultUserAgent is a bot User-Agent string with a contact URL. The
// concrete crawlers do not reference it: each ValidateConfig defaults to
// "hyperfind-crawler/1.0" when the config sets no userAgent.
const defaultUserAgent = "hyperfind-crawler/1.0 (+https://hyperfind.example/bot)"

// NewHTTPClient builds an http.Client with a bounded per-request timeout,
// shared by all four concrete crawlers.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &http.Client{Timeout: timeout}
}

// sliceSeq adapts a pre-materialized slice to Seq. The concrete crawlers use
// it only to return an empty sequence (bad config type, or an upstream
// listing that failed or came back empty); their real page streams are
// FuncSeqs.
type sliceSeq struct {
	pages []Page
	i     int
}

// NewSliceSeq wraps an already-fetched page slice as a Seq.
func NewSliceSeq(pages []Page) Seq { return &sliceSeq{pages: pages} }

func (s *sliceSeq) Next(ctx context.Context) (Page, bool, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, false, err
	}
	if s.i >= len(s.pages) {
		return Page{}, false, nil
	}
	p := s.pages[s.i]
	s.i++
	return p, true, nil
}

// FuncSeq adapts a generator function to Seq, for sources (all four concrete
// crawlers) that produce pages one fetch at a time and must not fetch ahead
// of the reader.
type FuncSeq struct {
	next func(ctx context.Context) (Page, bool, error)
}

// NewFuncSeq wraps next as a Seq.
func NewFuncSeq(next func(ctx context.Context) (Page, bool, error)) Seq {
	return &FuncSeq{next: next}
}

func (f *FuncSeq) Next(ctx context.Context) (Page, bool, error) { return f.next(ctx) }
