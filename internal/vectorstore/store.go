// Package vectorstore persists chunk text with embeddings and serves
// nearest-neighbor queries. Two backends exist: an embedded chromem-go
// database (default) and Postgres with pgvector.
package vectorstore

import (
	"context"
	"fmt"

	"pdf-rag/internal/config"
)

// Entry is one (id, text, vector) triple to persist.
type Entry struct {
	ID        string
	Text      string
	Embedding []float32
}

// Result is one retrieved chunk. Results come back ordered best-first;
// Similarity is backend-defined (higher is closer) and informational.
type Result struct {
	Text       string
	Similarity float32
}

// Store is the vector store contract.
//
// Replace discards every entry under the collection name and inserts the
// given entries; the delete always happens first and never interleaves
// with the insert. Query returns up to topK results ordered by
// similarity and returns an empty slice, not an error, when the
// collection is missing or empty. Exists reports whether the collection
// has ever been populated, so callers can distinguish "no document
// ingested yet" without inspecting error types.
type Store interface {
	Replace(ctx context.Context, collection string, entries []Entry) error
	Query(ctx context.Context, collection string, embedding []float32, topK int) ([]Result, error)
	Exists(ctx context.Context, collection string) (bool, error)
	Close() error
}

// New builds the configured store backend.
func New(ctx context.Context, cfg *config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "chromem":
		return NewChromem(cfg.Path, false)
	case "postgres":
		return NewPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
