package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
)

const compress = false

// Chromem is a Store backed by the embedded chromem-go database.
type Chromem struct {
	db *chromem.DB

	mu    sync.Mutex // guards locks
	locks map[string]*sync.Mutex
}

// NewChromem opens (or creates) a chromem database. With inMemory set
// the store holds nothing on disk, which is what the tests use.
func NewChromem(dbPath string, inMemory bool) (*Chromem, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}
	return &Chromem{db: db, locks: make(map[string]*sync.Mutex)}, nil
}

// collectionLock serializes Replace calls per collection name so a
// query never observes a half-deleted, half-inserted collection.
func (s *Chromem) collectionLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *Chromem) Replace(ctx context.Context, collection string, entries []Entry) error {
	l := s.collectionLock(collection)
	l.Lock()
	defer l.Unlock()

	// Delete first, always. Leaving stale entries behind would mix old
	// and new chunk sets when the new document chunks differently.
	if err := s.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", collection, err)
	}

	c, err := s.db.GetOrCreateCollection(collection, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	if len(entries) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Embedding: e.Embedding,
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (s *Chromem) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]Result, error) {
	c := s.db.GetCollection(collection, nil)
	if c == nil {
		return nil, nil
	}

	n := topK
	if count := c.Count(); count < n {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := c.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{Text: r.Content, Similarity: r.Similarity}
	}
	return out, nil
}

func (s *Chromem) Exists(_ context.Context, collection string) (bool, error) {
	return s.db.GetCollection(collection, nil) != nil, nil
}

func (s *Chromem) Close() error { return nil }
