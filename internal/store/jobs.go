package store

import (
	"context"
	"sync"
	"time"

	"hyperfind/internal/apperr"
)

// JobStatus is a crawl job's position in its state machine:
// pending -> running -> (completed | failed | cancelled).
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// CrawlJob tracks one crawl's lifecycle and progress counters.
type CrawlJob struct {
	ID               string
	Source           string
	Config           map[string]any
	Status           JobStatus
	DocumentsFound   int
	DocumentsIndexed int
	ErrorMessage     string
	CreatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// CrawlJobStore persists crawl job state and progress.
type CrawlJobStore interface {
	Create(ctx context.Context, job CrawlJob) (CrawlJob, error)
	Get(ctx context.Context, id string) (CrawlJob, bool, error)
	List(ctx context.Context) ([]CrawlJob, error)
	// Start transitions pending -> running and stamps StartedAt.
	Start(ctx context.Context, id string) error
	// UpdateProgress persists the found/indexed counters, independent of
	// status, so a crash mid-crawl leaves the last checkpointed counts.
	UpdateProgress(ctx context.Context, id string, documentsFound, documentsIndexed int) error
	// Complete transitions running -> completed and stamps CompletedAt.
	Complete(ctx context.Context, id string) error
	// Fail transitions the job to failed from any state (the orchestrator
	// also fails a still-pending job whose config is invalid), preserving
	// counters, and records errMsg and CompletedAt.
	Fail(ctx context.Context, id string, errMsg string) error
	// Cancel requests cancellation: pending or running -> cancelled. It is
	// a state transition only; an in-flight fetch is allowed to finish.
	Cancel(ctx context.Context, id string) error
}

type memoryJobs struct {
	mu   sync.Mutex
	jobs map[string]CrawlJob
}

// NewMemoryJobs builds an in-memory CrawlJobStore.
func NewMemoryJobs() CrawlJobStore {
	return &memoryJobs{jobs: make(map[string]CrawlJob)}
}

func (m *memoryJobs) Create(_ context.Context, job CrawlJob) (CrawlJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.Status == "" {
		job.Status = JobPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *memoryJobs) Get(_ context.Context, id string) (CrawlJob, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	return j, ok, nil
}

func (m *memoryJobs) List(_ context.Context) ([]CrawlJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CrawlJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (m *memoryJobs) Start(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "jobs.Start", "job %q not found", id)
	}
	if j.Status != JobPending {
		return nil
	}
	now := time.Now()
	j.Status = JobRunning
	j.StartedAt = &now
	m.jobs[id] = j
	return nil
}

func (m *memoryJobs) UpdateProgress(_ context.Context, id string, found, indexed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "jobs.UpdateProgress", "job %q not found", id)
	}
	j.DocumentsFound = found
	j.DocumentsIndexed = indexed
	m.jobs[id] = j
	return nil
}

func (m *memoryJobs) Complete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "jobs.Complete", "job %q not found", id)
	}
	if j.Status != JobRunning {
		return nil
	}
	now := time.Now()
	j.Status = JobCompleted
	j.CompletedAt = &now
	m.jobs[id] = j
	return nil
}

func (m *memoryJobs) Fail(_ context.Context, id string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "jobs.Fail", "job %q not found", id)
	}
	now := time.Now()
	j.Status = JobFailed
	j.ErrorMessage = errMsg
	j.CompletedAt = &now
	m.jobs[id] = j
	return nil
}

func (m *memoryJobs) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "jobs.Cancel", "job %q not found", id)
	}
	if j.Status != JobPending && j.Status != JobRunning {
		return nil
	}
	j.Status = JobCancelled
	m.jobs[id] = j
	return nil
}
