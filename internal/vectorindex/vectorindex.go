package vectorindex

import (
	"context"
	"fmt"
	"strconv"

	"hyperfind/internal/apperr"
	"hyperfind/internal/embedder"
	"hyperfind/internal/logging"
	"hyperfind/internal/store"
)

const metaDocID = "doc_id"

// Indexer drives chunking, embedding, and chunk-level vector storage for one
// document at a time. The embedding model is a process-wide singleton shared
// across callers; Indexer itself holds no mutable per-call state beyond its
// collaborators, so a single Indexer can be shared across goroutines.
type Indexer struct {
	Embedder     embedder.Embedder
	Vectors      store.VectorStore
	ChunkSize    int
	ChunkOverlap int
}

// NewIndexer constructs an Indexer.
func NewIndexer(emb embedder.Embedder, vectors store.VectorStore, chunkSize, chunkOverlap int) *Indexer {
	return &Indexer{Embedder: emb, Vectors: vectors, ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// ChunkID returns the deterministic vector-store key for a document's
// chunkIndex'th chunk.
func ChunkID(docID string, chunkIndex int) string {
	return docID + ":" + strconv.Itoa(chunkIndex)
}

// IndexDocument replaces all embeddings for docID atomically: it embeds
// every chunk of cleanText first, and only deletes the document's previous
// chunk set once embedding has succeeded for all of them, then inserts the
// new set. If embedding fails, the failure is logged and the document's
// existing vectors (if any) are left untouched, per the "index operation
// replaces atomically" contract — a partial failure must never leave a
// document with no vectors at all.
func (ix *Indexer) IndexDocument(ctx context.Context, docID, cleanText string, metadata map[string]string) error {
	chunks := ChunkText(cleanText, ix.ChunkSize, ix.ChunkOverlap)
	if len(chunks) == 0 {
		logging.Log.WithField("docId", docID).Warn("vectorindex: document empty, skipping")
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ix.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		logging.Log.WithError(err).WithField("docId", docID).Error("vectorindex: embedding failed, leaving prior vectors untouched")
		return nil
	}
	if len(vectors) != len(chunks) {
		return apperr.New(apperr.PersistenceFailure, "vectorindex.IndexDocument", fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	if err := ix.Vectors.DeleteByMetadata(ctx, map[string]string{metaDocID: docID}); err != nil {
		return apperr.New(apperr.PersistenceFailure, "vectorindex.IndexDocument", fmt.Errorf("delete prior chunks for %s: %w", docID, err))
	}

	for i, c := range chunks {
		md := make(map[string]string, len(metadata)+2)
		for k, v := range metadata {
			md[k] = v
		}
		md[metaDocID] = docID
		md["chunk_index"] = strconv.Itoa(c.Index)

		id := ChunkID(docID, c.Index)
		if err := ix.Vectors.Upsert(ctx, id, vectors[i], md); err != nil {
			return apperr.New(apperr.PersistenceFailure, "vectorindex.IndexDocument", fmt.Errorf("upsert chunk %s: %w", id, err))
		}
	}
	return nil
}

// RemoveDocument deletes every chunk vector belonging to docID.
func (ix *Indexer) RemoveDocument(ctx context.Context, docID string) error {
	if err := ix.Vectors.DeleteByMetadata(ctx, map[string]string{metaDocID: docID}); err != nil {
		return apperr.New(apperr.PersistenceFailure, "vectorindex.RemoveDocument", err)
	}
	return nil
}
