package store

// This file documents the Postgres-backed schema used by the search and
// retrieval pipeline. It exists to keep bootstrap SQL centralized and easy to
// find. Production deployments should manage migrations with an external
// tool; our code performs best-effort CREATE IF NOT EXISTS for dev/test.

/*
Extensions
- vector: pgvector, backing the embeddings table and cosine/L2/IP search
- pg_trgm: optional FTS helper extension, enabled best-effort

Tables
- documents(id TEXT PRIMARY KEY, text TEXT NOT NULL, metadata JSONB,
  ts tsvector GENERATED ALWAYS AS (to_tsvector('simple', text)) STORED)
  GIN index on ts; backs FullTextSearch. Crawled documents live in the
  separate crawl_documents table (see postgres_documents.go).
- chunks(id TEXT PRIMARY KEY, doc_id TEXT, idx INT, text TEXT, metadata JSONB,
  lang regconfig) optional, used for chunk-level lexical search when present.
- embeddings(id TEXT PRIMARY KEY, vec vector(dim), metadata JSONB)
  backs VectorStore; an ivfflat index is left to operator tuning.
- postings(term TEXT, doc_id TEXT, tf INT, positions JSONB, PRIMARY KEY(term, doc_id))
  backs the term-level inverted index (see internal/index).
- doc_stats(doc_id TEXT PRIMARY KEY, total_terms INT, unique_terms INT)
  collection_stats(id SMALLINT PRIMARY KEY DEFAULT 1, doc_count BIGINT, total_length BIGINT)
  both support BM25's IDF and length-normalization terms.
- terms(term TEXT PRIMARY KEY, frequency BIGINT)
  GIN trigram index on term (pg_trgm) backs autocomplete's persistent
  prefix-search fallback and its top-frequency trie seed (see
  internal/autocomplete).
*/
