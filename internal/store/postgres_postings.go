package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgPostings struct {
	pool *pgxpool.Pool
}

// NewPostgresPostings bootstraps the postings/doc_stats/collection_stats
// tables and returns a Postgres-backed PostingsStore. Schema generalizes the
// JSONB position-list pattern taught by the inverted_index table: a
// (term, doc_id) primary key with term frequency and a JSON position array.
func NewPostgresPostings(pool *pgxpool.Pool) PostingsStore {
	ctx := context.Background()
	_, _ = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postings (
  term TEXT NOT NULL,
  doc_id TEXT NOT NULL,
  tf INT NOT NULL,
  positions JSONB NOT NULL DEFAULT '[]'::jsonb,
  PRIMARY KEY (term, doc_id)
);
`)
	_, _ = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS postings_term_idx ON postings (term)`)
	_, _ = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS doc_stats (
  doc_id TEXT PRIMARY KEY,
  total_terms INT NOT NULL,
  unique_terms INT NOT NULL
);
`)
	_, _ = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS collection_stats (
  id SMALLINT PRIMARY KEY DEFAULT 1,
  doc_count BIGINT NOT NULL DEFAULT 0,
  total_length BIGINT NOT NULL DEFAULT 0,
  CHECK (id = 1)
);
`)
	_, _ = pool.Exec(ctx, `INSERT INTO collection_stats (id, doc_count, total_length) VALUES (1, 0, 0) ON CONFLICT (id) DO NOTHING`)
	return &pgPostings{pool: pool}
}

// WritePostings replaces a document's postings transactionally: delete the
// old rows, insert the new ones, adjust doc_stats and the collection_stats
// singleton by the delta. Concurrent replacements on different documents
// interleave freely; each adds its delta to the collection_stats row with a
// single relative UPDATE statement, so every committed writer's delta is
// applied.
func (p *pgPostings) WritePostings(ctx context.Context, docID string, postings []Posting, stats DocStats) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var prevTotal int
	var hadPrev bool
	err = tx.QueryRow(ctx, `SELECT total_terms FROM doc_stats WHERE doc_id=$1`, docID).Scan(&prevTotal)
	if err == nil {
		hadPrev = true
	} else if err != pgx.ErrNoRows {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM postings WHERE doc_id=$1`, docID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, post := range postings {
		posJSON, merr := json.Marshal(post.Positions)
		if merr != nil {
			return merr
		}
		batch.Queue(`INSERT INTO postings(term, doc_id, tf, positions) VALUES($1,$2,$3,$4)
ON CONFLICT (term, doc_id) DO UPDATE SET tf=EXCLUDED.tf, positions=EXCLUDED.positions`,
			post.Term, docID, post.TF, posJSON)
	}
	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return err
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO doc_stats(doc_id, total_terms, unique_terms) VALUES($1,$2,$3)
ON CONFLICT (doc_id) DO UPDATE SET total_terms=EXCLUDED.total_terms, unique_terms=EXCLUDED.unique_terms
`, docID, stats.TotalTerms, stats.UniqueTerms); err != nil {
		return err
	}

	delta := stats.TotalTerms
	if hadPrev {
		delta -= prevTotal
	}
	docDelta := 1
	if hadPrev {
		docDelta = 0
	}
	if _, err := tx.Exec(ctx, `
UPDATE collection_stats SET doc_count = doc_count + $1, total_length = total_length + $2 WHERE id=1
`, docDelta, delta); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *pgPostings) PostingsForTerm(ctx context.Context, term string) ([]Posting, error) {
	rows, err := p.pool.Query(ctx, `SELECT term, doc_id, tf, positions FROM postings WHERE term=$1`, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Posting
	for rows.Next() {
		var post Posting
		var posJSON []byte
		if err := rows.Scan(&post.Term, &post.DocID, &post.TF, &posJSON); err != nil {
			return nil, err
		}
		if len(posJSON) > 0 {
			if err := json.Unmarshal(posJSON, &post.Positions); err != nil {
				return nil, err
			}
		}
		out = append(out, post)
	}
	return out, rows.Err()
}

func (p *pgPostings) DocStats(ctx context.Context, docID string) (DocStats, bool, error) {
	var st DocStats
	st.DocID = docID
	err := p.pool.QueryRow(ctx, `SELECT total_terms, unique_terms FROM doc_stats WHERE doc_id=$1`, docID).
		Scan(&st.TotalTerms, &st.UniqueTerms)
	if err == pgx.ErrNoRows {
		return DocStats{}, false, nil
	}
	if err != nil {
		return DocStats{}, false, err
	}
	return st, true, nil
}

func (p *pgPostings) CollectionStats(ctx context.Context) (CollectionStats, error) {
	var cs CollectionStats
	err := p.pool.QueryRow(ctx, `SELECT doc_count, total_length FROM collection_stats WHERE id=1`).
		Scan(&cs.DocCount, &cs.TotalLength)
	if err == pgx.ErrNoRows {
		return CollectionStats{}, nil
	}
	return cs, err
}

func (p *pgPostings) RemoveDocument(ctx context.Context, docID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var prevTotal int
	err = tx.QueryRow(ctx, `SELECT total_terms FROM doc_stats WHERE doc_id=$1`, docID).Scan(&prevTotal)
	if err == pgx.ErrNoRows {
		return tx.Commit(ctx)
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM postings WHERE doc_id=$1`, docID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM doc_stats WHERE doc_id=$1`, docID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
UPDATE collection_stats SET doc_count = GREATEST(doc_count - 1, 0), total_length = GREATEST(total_length - $1, 0) WHERE id=1
`, prevTotal); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *pgPostings) Close() { p.pool.Close() }
