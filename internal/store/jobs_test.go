package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryJobs_LifecycleToCompletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	js := NewMemoryJobs()

	job, err := js.Create(ctx, CrawlJob{ID: "job1", Source: "wikipedia"})
	require.NoError(t, err)
	require.Equal(t, JobPending, job.Status)

	require.NoError(t, js.Start(ctx, "job1"))
	j, _, _ := js.Get(ctx, "job1")
	require.Equal(t, JobRunning, j.Status)
	require.NotNil(t, j.StartedAt)

	require.NoError(t, js.UpdateProgress(ctx, "job1", 10, 8))
	j, _, _ = js.Get(ctx, "job1")
	require.Equal(t, 10, j.DocumentsFound)
	require.Equal(t, 8, j.DocumentsIndexed)

	require.NoError(t, js.Complete(ctx, "job1"))
	j, _, _ = js.Get(ctx, "job1")
	require.Equal(t, JobCompleted, j.Status)
	require.NotNil(t, j.CompletedAt)
}

func TestMemoryJobs_FailPreservesCounters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	js := NewMemoryJobs()
	_, err := js.Create(ctx, CrawlJob{ID: "job1", Source: "custom"})
	require.NoError(t, err)
	require.NoError(t, js.Start(ctx, "job1"))
	require.NoError(t, js.UpdateProgress(ctx, "job1", 5, 3))

	require.NoError(t, js.Fail(ctx, "job1", "boom"))
	j, _, _ := js.Get(ctx, "job1")
	require.Equal(t, JobFailed, j.Status)
	require.Equal(t, "boom", j.ErrorMessage)
	require.Equal(t, 5, j.DocumentsFound)
	require.Equal(t, 3, j.DocumentsIndexed)
}

func TestMemoryJobs_CancelFromPendingOrRunning(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	js := NewMemoryJobs()
	_, err := js.Create(ctx, CrawlJob{ID: "job1", Source: "reddit"})
	require.NoError(t, err)

	require.NoError(t, js.Cancel(ctx, "job1"))
	j, _, _ := js.Get(ctx, "job1")
	require.Equal(t, JobCancelled, j.Status)

	_, err = js.Create(ctx, CrawlJob{ID: "job2", Source: "reddit"})
	require.NoError(t, err)
	require.NoError(t, js.Start(ctx, "job2"))
	require.NoError(t, js.Cancel(ctx, "job2"))
	j, _, _ = js.Get(ctx, "job2")
	require.Equal(t, JobCancelled, j.Status)
}

func TestMemoryJobs_CancelOnTerminalStateIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	js := NewMemoryJobs()
	_, err := js.Create(ctx, CrawlJob{ID: "job1", Source: "reddit"})
	require.NoError(t, err)
	require.NoError(t, js.Start(ctx, "job1"))
	require.NoError(t, js.Complete(ctx, "job1"))

	require.NoError(t, js.Cancel(ctx, "job1"))
	j, _, _ := js.Get(ctx, "job1")
	require.Equal(t, JobCompleted, j.Status)
}

func TestMemoryJobs_ListReturnsAllJobs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	js := NewMemoryJobs()
	_, _ = js.Create(ctx, CrawlJob{ID: "a", Source: "wikipedia"})
	_, _ = js.Create(ctx, CrawlJob{ID: "b", Source: "reddit"})

	all, err := js.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
