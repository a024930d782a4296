package crawl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/crawler"
	"hyperfind/internal/store"
)

type fakeCrawler struct {
	pages       []crawler.Page
	validateErr error
}

func (f *fakeCrawler) ValidateConfig(raw map[string]any) (any, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return raw, nil
}

func (f *fakeCrawler) Crawl(_ context.Context, _ any) crawler.Seq {
	return crawler.NewSliceSeq(f.pages)
}

func newTestOrchestrator() (*Orchestrator, store.CrawlJobStore, store.DocumentStore) {
	jobs := store.NewMemoryJobs()
	docs := store.NewMemoryDocuments()
	return NewOrchestrator(jobs, docs), jobs, docs
}

func TestRun_CompletesJobAndPersistsDocuments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	orch, jobs, docs := newTestOrchestrator()
	_, err := jobs.Create(ctx, store.CrawlJob{ID: "job1", Source: "wikipedia"})
	require.NoError(t, err)

	longText := "<html><body>" + repeatWord("word", 20) + "</body></html>"
	c := &fakeCrawler{pages: []crawler.Page{
		{URL: "https://a.example", Title: "A", RawHTML: longText, Source: "wikipedia"},
		{URL: "https://b.example", Title: "B", RawHTML: longText, Source: "wikipedia"},
	}}

	require.NoError(t, orch.Run(ctx, "job1", c, map[string]any{"query": "go"}))

	job, _, _ := jobs.Get(ctx, "job1")
	require.Equal(t, store.JobCompleted, job.Status)
	require.Equal(t, 2, job.DocumentsFound)
	require.Equal(t, 2, job.DocumentsIndexed)
	require.NotNil(t, job.CompletedAt)

	n, err := docs.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRun_SkipsDuplicateURLAndShortCleanText(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	orch, jobs, docs := newTestOrchestrator()
	_, err := jobs.Create(ctx, store.CrawlJob{ID: "job1", Source: "custom"})
	require.NoError(t, err)

	longText := "<html><body>" + repeatWord("word", 20) + "</body></html>"
	c := &fakeCrawler{pages: []crawler.Page{
		{URL: "https://a.example", RawHTML: longText, Source: "custom"},
		{URL: "https://a.example", RawHTML: longText, Source: "custom"}, // duplicate URL
		{URL: "https://c.example", RawHTML: "<html><body>hi</body></html>", Source: "custom"}, // too short
	}}

	require.NoError(t, orch.Run(ctx, "job1", c, map[string]any{}))

	job, _, _ := jobs.Get(ctx, "job1")
	require.Equal(t, store.JobCompleted, job.Status)
	require.Equal(t, 3, job.DocumentsFound)
	require.Equal(t, 1, job.DocumentsIndexed)

	n, err := docs.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRun_ConfigValidationFailureFailsJobWithoutStarting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	orch, jobs, _ := newTestOrchestrator()
	_, err := jobs.Create(ctx, store.CrawlJob{ID: "job1", Source: "wikipedia"})
	require.NoError(t, err)

	c := &fakeCrawler{validateErr: errors.New("missing query")}
	err = orch.Run(ctx, "job1", c, map[string]any{})
	require.Error(t, err)

	job, _, _ := jobs.Get(ctx, "job1")
	require.Equal(t, store.JobFailed, job.Status)
	require.Equal(t, "missing query", job.ErrorMessage)
}

type fakeDedupe struct {
	seen map[string]bool
}

func (f *fakeDedupe) Seen(_ context.Context, url string) (bool, error) {
	if f.seen[url] {
		return true, nil
	}
	f.seen[url] = true
	return false, nil
}

func TestRun_DedupeFastPathSkipsAlreadySeenURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	orch, jobs, docs := newTestOrchestrator()
	orch.Dedupe = &fakeDedupe{seen: map[string]bool{"https://a.example": true}}
	_, err := jobs.Create(ctx, store.CrawlJob{ID: "job1", Source: "wikipedia"})
	require.NoError(t, err)

	longText := "<html><body>" + repeatWord("word", 20) + "</body></html>"
	c := &fakeCrawler{pages: []crawler.Page{
		{URL: "https://a.example", RawHTML: longText, Source: "wikipedia"},
		{URL: "https://b.example", RawHTML: longText, Source: "wikipedia"},
	}}

	require.NoError(t, orch.Run(ctx, "job1", c, map[string]any{}))

	job, _, _ := jobs.Get(ctx, "job1")
	require.Equal(t, 2, job.DocumentsFound)
	require.Equal(t, 1, job.DocumentsIndexed)

	n, err := docs.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func repeatWord(word string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += word + " "
	}
	return out
}
