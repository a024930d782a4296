// Package crawl implements the crawl orchestrator (C12): it drives a
// crawler.Crawler's lazy page sequence to completion, deduplicating by URL,
// cleaning HTML through internal/textproc, and persisting Document rows and
// CrawlJob progress, grounded on the teacher's Kafka worker-pool
// consume-commit loop generalized from command dispatch to page drain.
package crawl

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hyperfind/internal/apperr"
	"hyperfind/internal/crawler"
	"hyperfind/internal/logging"
	"hyperfind/internal/store"
	"hyperfind/internal/textproc"
)

// minCleanTextLen is the clean-text length floor below which a page is
// skipped as noise (boilerplate, error pages, empty articles).
const minCleanTextLen = 50

// progressCheckpoint is how often (in pages found) job progress is
// persisted, so a crash mid-crawl loses at most this many pages of
// progress.
const progressCheckpoint = 10

// insertCommitBatch is how often (in documents inserted) the orchestrator
// checkpoints the documents-indexed counter alongside documents-found.
const insertCommitBatch = 10

// Orchestrator drives crawl jobs: pending -> running -> (completed | failed
// | cancelled).
type Orchestrator struct {
	Jobs      store.CrawlJobStore
	Documents store.DocumentStore
	// Dedupe is an optional fast-path URL check consulted before the
	// DocumentStore round trip, for deployments running multiple crawl
	// workers against a shared job. Nil disables the fast path; ingestPage
	// then relies solely on Documents.GetByURL.
	Dedupe URLDedupe
}

// NewOrchestrator builds an Orchestrator over the given job and document
// stores.
func NewOrchestrator(jobs store.CrawlJobStore, documents store.DocumentStore) *Orchestrator {
	return &Orchestrator{Jobs: jobs, Documents: documents}
}

// Run drives jobID's crawl: it transitions the job to running, drains c's
// page sequence under cfg, persists discovered documents, and transitions
// the job to completed or failed. Run never returns an error for a skipped
// page (duplicate URL, short clean text, a fetch the crawler absorbed). It
// returns an error when config validation fails, when the page sequence
// itself fails, or when a state transition or persistence call fails; in the
// first two cases the job is also marked failed with that error message.
func (o *Orchestrator) Run(ctx context.Context, jobID string, c crawler.Crawler, rawConfig map[string]any) error {
	validated, err := c.ValidateConfig(rawConfig)
	if err != nil {
		if failErr := o.Jobs.Fail(ctx, jobID, err.Error()); failErr != nil {
			logging.Log.WithError(failErr).WithField("job", jobID).Error("crawl: failed to record config validation failure")
		}
		return err
	}

	if err := o.Jobs.Start(ctx, jobID); err != nil {
		return apperr.New(apperr.PersistenceFailure, "crawl.Run", err)
	}

	found, indexed, runErr := o.drain(ctx, jobID, c, validated)

	if runErr != nil {
		if err := o.Jobs.Fail(ctx, jobID, runErr.Error()); err != nil {
			logging.Log.WithError(err).WithField("job", jobID).Error("crawl: failed to record job failure")
		}
		return runErr
	}

	if err := o.Jobs.UpdateProgress(ctx, jobID, found, indexed); err != nil {
		logging.Log.WithError(err).WithField("job", jobID).Error("crawl: final progress checkpoint failed")
	}
	if err := o.Jobs.Complete(ctx, jobID); err != nil {
		return apperr.New(apperr.PersistenceFailure, "crawl.Run", err)
	}
	return nil
}

// drain pulls every page from c.Crawl(ctx, cfg), applies the dedupe/clean/
// insert pipeline, and checkpoints progress. It returns the final
// (found, indexed) counters and the first terminal error encountered, if
// any; per-page and per-document errors are logged and skipped rather than
// aborting the whole job, except persistence failures, which abort.
func (o *Orchestrator) drain(ctx context.Context, jobID string, c crawler.Crawler, config any) (found, indexed int, err error) {
	seq := c.Crawl(ctx, config)

	for {
		page, ok, nextErr := seq.Next(ctx)
		if nextErr != nil {
			// Seq.Next already absorbs per-page fetch failures internally
			// (each crawler skips and moves on); an error reaching here is
			// sequence-level (context cancellation, upstream API outage)
			// and ends the drain.
			return found, indexed, nextErr
		}
		if !ok {
			break
		}

		found++
		if found%progressCheckpoint == 0 {
			if err := o.Jobs.UpdateProgress(ctx, jobID, found, indexed); err != nil {
				return found, indexed, apperr.New(apperr.PersistenceFailure, "crawl.drain", err)
			}
		}

		inserted, insertErr := o.ingestPage(ctx, page)
		if insertErr != nil {
			return found, indexed, apperr.New(apperr.PersistenceFailure, "crawl.drain", insertErr)
		}
		if inserted {
			indexed++
			if indexed%insertCommitBatch == 0 {
				if err := o.Jobs.UpdateProgress(ctx, jobID, found, indexed); err != nil {
					return found, indexed, apperr.New(apperr.PersistenceFailure, "crawl.drain", err)
				}
			}
		}
	}

	return found, indexed, nil
}

// ingestPage deduplicates page by URL, cleans its HTML, and inserts a
// Document. It reports (false, nil) for a deliberate skip (duplicate URL or
// clean text too short) and only returns a non-nil error for a genuine
// persistence failure.
func (o *Orchestrator) ingestPage(ctx context.Context, page crawler.Page) (bool, error) {
	if o.Dedupe != nil {
		seen, err := o.Dedupe.Seen(ctx, page.URL)
		if err != nil {
			logging.Log.WithError(err).WithField("url", page.URL).Warn("crawl: dedupe store unavailable, falling back to document lookup")
		} else if seen {
			return false, nil
		}
	}

	_, exists, err := o.Documents.GetByURL(ctx, page.URL)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	clean := textproc.HTMLToText(page.RawHTML)
	if len(clean) < minCleanTextLen {
		return false, nil
	}

	doc := store.Document{
		ID:        newDocumentID(page.URL),
		URL:       page.URL,
		Title:     page.Title,
		CleanText: clean,
		Source:    page.Source,
		Metadata:  page.Metadata,
		CreatedAt: time.Now(),
	}

	if err := o.Documents.Insert(ctx, doc); err != nil {
		if apperr.Is(err, apperr.Conflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// newDocumentID mints a fresh document identifier for a freshly crawled
// page; it is independent of the page's URL so re-crawls after a deletion
// never collide with a stale id.
func newDocumentID(_ string) string {
	return uuid.NewString()
}
