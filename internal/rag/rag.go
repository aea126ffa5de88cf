// Package rag orchestrates the two workflows: ingesting a document into
// the vector store and answering a question against it.
package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/chunker"
	"pdf-rag/internal/extract"
	"pdf-rag/internal/vectorstore"
)

// ErrNotIngested means no document has ever been ingested, so there is
// nothing to query. The API layer maps it to a clear client message.
var ErrNotIngested = errors.New("no document has been ingested yet")

// Embedder is the slice of the embedding provider the workflows need.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Generator is the slice of the answer generator the query workflow needs.
type Generator interface {
	Answer(ctx context.Context, question string, chunks []string) (string, error)
}

// Options tune the workflows.
type Options struct {
	Collection string
	ChunkSize  int
	TopK       int
}

// Service wires the chunker, embedder, store and generator together.
type Service struct {
	embedder  Embedder
	store     vectorstore.Store
	generator Generator
	opts      Options
}

func NewService(embedder Embedder, store vectorstore.Store, generator Generator, opts Options) *Service {
	if opts.Collection == "" {
		opts.Collection = "pdf_chunks"
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunker.DefaultChunkSize
	}
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	return &Service{embedder: embedder, store: store, generator: generator, opts: opts}
}

// Ingest extracts the document's text, chunks it, embeds all chunks in
// one batched call and replaces the collection with the result. Every
// prior entry is gone once it returns. Returns the stored chunk count.
//
// A document with no extractable text fails with extract.ErrNoText; an
// empty collection is never stored.
func (s *Service) Ingest(ctx context.Context, path string) (int, error) {
	text, err := extract.Text(path)
	if err != nil {
		return 0, fmt.Errorf("failed to extract text: %w", err)
	}

	chunks := chunker.Split(text, s.opts.ChunkSize)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("failed to extract text: %w", extract.ErrNoText)
	}
	log.Info().Int("chunks", len(chunks)).Str("file", path).Msg("document chunked")

	embeddings, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	entries := make([]vectorstore.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = vectorstore.Entry{
			ID:        fmt.Sprintf("chunk_%d", i),
			Text:      c,
			Embedding: embeddings[i],
		}
	}
	if err := s.store.Replace(ctx, s.opts.Collection, entries); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	log.Info().Int("chunks", len(entries)).Str("collection", s.opts.Collection).Msg("collection replaced")
	return len(entries), nil
}

// Query embeds the question, retrieves the top-K closest chunks and asks
// the generator for an answer. topK <= 0 falls back to the configured
// default. Querying before any ingestion returns ErrNotIngested.
func (s *Service) Query(ctx context.Context, question string, topK int) (string, error) {
	if topK <= 0 {
		topK = s.opts.TopK
	}

	exists, err := s.store.Exists(ctx, s.opts.Collection)
	if err != nil {
		return "", fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return "", ErrNotIngested
	}

	queryEmbedding, err := s.embedder.EmbedOne(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := s.store.Query(ctx, s.opts.Collection, queryEmbedding, topK)
	if err != nil {
		return "", fmt.Errorf("failed to query collection: %w", err)
	}
	log.Debug().Int("retrieved", len(results)).Str("collection", s.opts.Collection).Msg("retrieval done")

	chunks := make([]string, len(results))
	for i, r := range results {
		chunks[i] = r.Text
	}

	answer, err := s.generator.Answer(ctx, question, chunks)
	if err != nil {
		return "", err
	}
	return answer, nil
}
