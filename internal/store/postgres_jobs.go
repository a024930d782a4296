package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hyperfind/internal/apperr"
)

type pgJobs struct {
	pool *pgxpool.Pool
}

// NewPostgresJobs bootstraps the crawl_jobs table and returns a
// Postgres-backed CrawlJobStore.
func NewPostgresJobs(pool *pgxpool.Pool) CrawlJobStore {
	ctx := context.Background()
	_, _ = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS crawl_jobs (
  id TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  config JSONB NOT NULL DEFAULT '{}'::jsonb,
  status TEXT NOT NULL DEFAULT 'pending',
  documents_found INT NOT NULL DEFAULT 0,
  documents_indexed INT NOT NULL DEFAULT 0,
  error_message TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  started_at TIMESTAMPTZ,
  completed_at TIMESTAMPTZ
);
`)
	return &pgJobs{pool: pool}
}

func (p *pgJobs) Create(ctx context.Context, job CrawlJob) (CrawlJob, error) {
	if job.Status == "" {
		job.Status = JobPending
	}
	config, err := json.Marshal(job.Config)
	if err != nil {
		return CrawlJob{}, err
	}
	err = p.pool.QueryRow(ctx, `
INSERT INTO crawl_jobs (id, source, config, status)
VALUES ($1, $2, $3, $4)
RETURNING created_at`, job.ID, job.Source, config, job.Status).Scan(&job.CreatedAt)
	if err != nil {
		return CrawlJob{}, err
	}
	return job, nil
}

func (p *pgJobs) Get(ctx context.Context, id string) (CrawlJob, bool, error) {
	row := p.pool.QueryRow(ctx, `
SELECT id, source, config, status, documents_found, documents_indexed,
       error_message, created_at, started_at, completed_at
FROM crawl_jobs WHERE id = $1`, id)
	return scanJob(row)
}

func (p *pgJobs) List(ctx context.Context) ([]CrawlJob, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, source, config, status, documents_found, documents_indexed,
       error_message, created_at, started_at, completed_at
FROM crawl_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CrawlJob
	for rows.Next() {
		j, _, err := scanJobRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (p *pgJobs) Start(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `
UPDATE crawl_jobs SET status = $2, started_at = now()
WHERE id = $1 AND status = $3`, id, JobRunning, JobPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return p.requireExists(ctx, id, "jobs.Start")
	}
	return nil
}

func (p *pgJobs) UpdateProgress(ctx context.Context, id string, found, indexed int) error {
	tag, err := p.pool.Exec(ctx, `
UPDATE crawl_jobs SET documents_found = $2, documents_indexed = $3 WHERE id = $1`, id, found, indexed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.NotFound, "jobs.UpdateProgress", "job %q not found", id)
	}
	return nil
}

func (p *pgJobs) Complete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `
UPDATE crawl_jobs SET status = $2, completed_at = now()
WHERE id = $1 AND status = $3`, id, JobCompleted, JobRunning)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return p.requireExists(ctx, id, "jobs.Complete")
	}
	return nil
}

func (p *pgJobs) Fail(ctx context.Context, id string, errMsg string) error {
	tag, err := p.pool.Exec(ctx, `
UPDATE crawl_jobs SET status = $2, error_message = $3, completed_at = now()
WHERE id = $1`, id, JobFailed, errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.NotFound, "jobs.Fail", "job %q not found", id)
	}
	return nil
}

func (p *pgJobs) Cancel(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `
UPDATE crawl_jobs SET status = $2
WHERE id = $1 AND status IN ($3, $4)`, id, JobCancelled, JobPending, JobRunning)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return p.requireExists(ctx, id, "jobs.Cancel")
	}
	return nil
}

// requireExists distinguishes "no-op because status already final" from
// "job truly doesn't exist", so idempotent transitions don't surface a
// spurious NotFound.
func (p *pgJobs) requireExists(ctx context.Context, id, op string) error {
	_, ok, err := p.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Newf(apperr.NotFound, op, "job %q not found", id)
	}
	return nil
}

func scanJob(row rowScanner) (CrawlJob, bool, error) {
	return scanJobRows(row)
}

func scanJobRows(row rowScanner) (CrawlJob, bool, error) {
	var j CrawlJob
	var config []byte
	var status string
	err := row.Scan(&j.ID, &j.Source, &config, &status, &j.DocumentsFound, &j.DocumentsIndexed,
		&j.ErrorMessage, &j.CreatedAt, &j.StartedAt, &j.CompletedAt)
	if err == pgx.ErrNoRows {
		return CrawlJob{}, false, nil
	}
	if err != nil {
		return CrawlJob{}, false, err
	}
	j.Status = JobStatus(status)
	if len(config) > 0 {
		_ = json.Unmarshal(config, &j.Config)
	}
	return j, true, nil
}
