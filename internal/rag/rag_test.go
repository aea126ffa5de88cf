package rag

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdf-rag/internal/extract"
	"pdf-rag/internal/vectorstore"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		h := fnv.New32a()
		h.Write([]byte(t))
		seed := h.Sum32()
		v := make([]float32, 4)
		for j := range v {
			v[j] = float32((seed>>(j*8))&0xff)/255 + 0.01
		}
		out[i] = v
	}
	return out, nil
}

func (f fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

// fakeGenerator records the chunks it was handed and returns a canned
// answer, or the no-context answer when retrieval came back empty.
type fakeGenerator struct {
	answer string
	chunks []string
}

func (f *fakeGenerator) Answer(_ context.Context, _ string, chunks []string) (string, error) {
	f.chunks = chunks
	if len(chunks) == 0 {
		return "No relevant information found in document.", nil
	}
	return f.answer, nil
}

func writeDoc(t *testing.T, words int) string {
	t.Helper()
	parts := make([]string, words)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte(strings.Join(parts, " ")), 0o644); err != nil {
		t.Fatalf("failed to write test doc: %v", err)
	}
	return path
}

func newTestService(t *testing.T, gen Generator) (*Service, vectorstore.Store) {
	t.Helper()
	store, err := vectorstore.NewChromem("", true)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	svc := NewService(fakeEmbedder{}, store, gen, Options{
		Collection: "test_chunks",
		ChunkSize:  350,
		TopK:       3,
	})
	return svc, store
}

func TestIngest_SevenHundredWordsYieldsTwoChunks(t *testing.T) {
	svc, store := newTestService(t, &fakeGenerator{answer: "ok"})
	ctx := context.Background()

	count, err := svc.Ingest(ctx, writeDoc(t, 700))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("stored %d chunks, want 2", count)
	}

	// both chunks must be retrievable and exactly 350 words each
	q, _ := fakeEmbedder{}.EmbedOne(ctx, "anything")
	results, err := store.Query(ctx, "test_chunks", q, 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("collection holds %d chunks, want 2", len(results))
	}
	for _, r := range results {
		if n := len(strings.Fields(r.Text)); n != 350 {
			t.Errorf("stored chunk has %d words, want 350", n)
		}
	}
}

func TestIngest_EmptyDocumentFails(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{})
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("   \n  "), 0o644); err != nil {
		t.Fatalf("failed to write test doc: %v", err)
	}

	_, err := svc.Ingest(context.Background(), path)
	if !errors.Is(err, extract.ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}
}

func TestQuery_BeforeAnyIngestion(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{})
	_, err := svc.Query(context.Background(), "anything?", 0)
	if !errors.Is(err, ErrNotIngested) {
		t.Fatalf("err = %v, want ErrNotIngested", err)
	}
}

func TestQuery_PassesRetrievedChunksToGenerator(t *testing.T) {
	gen := &fakeGenerator{answer: "the answer"}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, writeDoc(t, 700)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	answer, err := svc.Query(ctx, "what is w0?", 2)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if answer != "the answer" {
		t.Errorf("answer = %q, want %q", answer, "the answer")
	}
	if len(gen.chunks) != 2 {
		t.Errorf("generator received %d chunks, want 2", len(gen.chunks))
	}
}

func TestIngest_ReplacesPreviousDocument(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	pathA := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(pathA, []byte("alpha content about one topic"), 0o644); err != nil {
		t.Fatal(err)
	}
	pathB := filepath.Join(t.TempDir(), "b.txt")
	if err := os.WriteFile(pathB, []byte("beta content about another topic"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Ingest(ctx, pathA); err != nil {
		t.Fatalf("ingest A failed: %v", err)
	}
	if _, err := svc.Ingest(ctx, pathB); err != nil {
		t.Fatalf("ingest B failed: %v", err)
	}

	if _, err := svc.Query(ctx, "which topic?", 10); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	for _, c := range gen.chunks {
		if strings.Contains(c, "alpha") {
			t.Errorf("retrieved stale chunk from replaced document: %q", c)
		}
	}
	if len(gen.chunks) != 1 {
		t.Errorf("generator received %d chunks, want 1", len(gen.chunks))
	}
}

func TestIngest_UnsupportedFileFails(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{})
	path := filepath.Join(t.TempDir(), "doc.csv")
	if err := os.WriteFile(path, []byte("a,b,c"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Ingest(context.Background(), path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
