package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hyperfind/internal/apperr"
)

type pgDocuments struct {
	pool *pgxpool.Pool
}

// NewPostgresDocuments bootstraps the crawl_documents table (URL-unique,
// distinct from the generic FullTextSearch-backed "documents" table so
// crawl bookkeeping survives independent of which FTS backend is active)
// and returns a Postgres-backed DocumentStore.
func NewPostgresDocuments(pool *pgxpool.Pool) DocumentStore {
	ctx := context.Background()
	_, _ = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS crawl_documents (
  id TEXT PRIMARY KEY,
  url TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL DEFAULT '',
  clean_text TEXT NOT NULL,
  source TEXT NOT NULL,
  metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  indexed_at TIMESTAMPTZ
);
`)
	return &pgDocuments{pool: pool}
}

func (p *pgDocuments) Insert(ctx context.Context, doc Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
INSERT INTO crawl_documents (id, url, title, clean_text, source, metadata)
VALUES ($1, $2, $3, $4, $5, $6)
`, doc.ID, doc.URL, doc.Title, doc.CleanText, doc.Source, metadata)
	if isUniqueViolation(err) {
		return apperr.Newf(apperr.Conflict, "documents.Insert", "url %q already indexed", doc.URL)
	}
	return err
}

func (p *pgDocuments) GetByURL(ctx context.Context, url string) (Document, bool, error) {
	row := p.pool.QueryRow(ctx, `
SELECT id, url, title, clean_text, source, metadata, created_at, indexed_at
FROM crawl_documents WHERE url = $1`, url)
	return scanDocument(row)
}

func (p *pgDocuments) GetByID(ctx context.Context, id string) (Document, bool, error) {
	row := p.pool.QueryRow(ctx, `
SELECT id, url, title, clean_text, source, metadata, created_at, indexed_at
FROM crawl_documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (p *pgDocuments) MarkIndexed(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE crawl_documents SET indexed_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.NotFound, "documents.MarkIndexed", "document %q not found", id)
	}
	return nil
}

func (p *pgDocuments) ListAll(ctx context.Context) ([]Document, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, url, title, clean_text, source, metadata, created_at, indexed_at
FROM crawl_documents ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, _, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *pgDocuments) Count(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, `SELECT count(*) FROM crawl_documents`).Scan(&n)
	return n, err
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, bool, error) {
	return scanDocumentRows(row)
}

func scanDocumentRows(row rowScanner) (Document, bool, error) {
	var d Document
	var metadata []byte
	var indexedAt *time.Time
	err := row.Scan(&d.ID, &d.URL, &d.Title, &d.CleanText, &d.Source, &metadata, &d.CreatedAt, &indexedAt)
	if err == pgx.ErrNoRows {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, err
	}
	d.IndexedAt = indexedAt
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &d.Metadata)
	}
	return d, true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
