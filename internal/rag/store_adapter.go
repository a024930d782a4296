package rag

import (
	"context"

	"hyperfind/internal/store"
)

// storeDocumentLookup adapts store.DocumentStore to DocumentLookup.
type storeDocumentLookup struct {
	documents store.DocumentStore
}

// NewStoreDocumentLookup adapts a DocumentStore to DocumentLookup, so
// cmd/hyperfind can build a Facade directly over the crawl orchestrator's
// document store.
func NewStoreDocumentLookup(documents store.DocumentStore) DocumentLookup {
	return storeDocumentLookup{documents: documents}
}

func (l storeDocumentLookup) GetDocument(ctx context.Context, docID string) (DocumentMeta, bool, error) {
	doc, ok, err := l.documents.GetByID(ctx, docID)
	if err != nil || !ok {
		return DocumentMeta{}, ok, err
	}
	return DocumentMeta{Title: doc.Title, URL: doc.URL, Source: doc.Source, CleanText: doc.CleanText}, true, nil
}
