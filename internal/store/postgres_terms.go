package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type pgTerms struct {
	pool *pgxpool.Pool
}

// NewPostgresTerms constructs a Postgres-backed TermStore, bootstrapping the
// terms table and its trigram index best-effort.
func NewPostgresTerms(pool *pgxpool.Pool) TermStore {
	ctx := context.Background()
	_, _ = pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pg_trgm`)
	_, _ = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS terms (
  term TEXT PRIMARY KEY,
  frequency BIGINT NOT NULL DEFAULT 0
);
`)
	_, _ = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS terms_trgm_idx ON terms USING GIN (term gin_trgm_ops)`)
	return &pgTerms{pool: pool}
}

func (p *pgTerms) IncrementFrequency(ctx context.Context, term string) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO terms(term, frequency) VALUES ($1, 1)
ON CONFLICT (term) DO UPDATE SET frequency = terms.frequency + 1
`, term)
	return err
}

func (p *pgTerms) TopTerms(ctx context.Context, limit int) ([]TermFreq, error) {
	if limit <= 0 {
		limit = 50000
	}
	rows, err := p.pool.Query(ctx, `SELECT term, frequency FROM terms ORDER BY frequency DESC, term ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TermFreq
	for rows.Next() {
		var tf TermFreq
		if err := rows.Scan(&tf.Term, &tf.Frequency); err != nil {
			return nil, err
		}
		out = append(out, tf)
	}
	return out, rows.Err()
}

func (p *pgTerms) PrefixSearch(ctx context.Context, prefix string, limit int) ([]TermFreq, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.pool.Query(ctx, `
SELECT term, frequency FROM terms WHERE term ILIKE $1
ORDER BY frequency DESC, term ASC LIMIT $2
`, strings.ToLower(prefix)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TermFreq
	for rows.Next() {
		var tf TermFreq
		if err := rows.Scan(&tf.Term, &tf.Frequency); err != nil {
			return nil, err
		}
		out = append(out, tf)
	}
	return out, rows.Err()
}

func (p *pgTerms) Close() { p.pool.Close() }
