package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fiscalchat/internal/documents"
	"fiscalchat/internal/vectorstore"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
}

func (s *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}

func newIndexedStore(t *testing.T, points []vectorstore.Point) *vectorstore.ChromemStore {
	t.Helper()
	store, err := vectorstore.NewChromemStore(filepath.Join(t.TempDir(), "index"), "fiscal_chunks")
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	if len(points) > 0 {
		if err := store.Upsert(context.Background(), points); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}
	return store
}

func TestSemanticRetriever_Name(t *testing.T) {
	r := NewSemanticRetriever(&stubEmbedder{}, newIndexedStore(t, nil), nil)
	if r.Name() != "semantic" {
		t.Errorf("Name() = %v, want semantic", r.Name())
	}
}

func TestSemanticRetriever_Retrieve(t *testing.T) {
	chunks := []documents.Chunk{
		{ID: "chunk-1", Index: 0, Text: "NÚMERO: 12345. VALOR NOTA FISCAL: 100.00."},
		{ID: "chunk-2", Index: 1, Text: "NÚMERO: 67890. VALOR NOTA FISCAL: 250.50."},
		{ID: "chunk-3", Index: 2, Text: "Manual de preenchimento da nota fiscal."},
	}
	store := newIndexedStore(t, []vectorstore.Point{
		{ID: "chunk-1", Vec: []float32{1, 0, 0}},
		{ID: "chunk-2", Vec: []float32{0, 1, 0}},
		{ID: "chunk-3", Vec: []float32{0.8, 0.6, 0}},
	})
	embedder := &stubEmbedder{vectors: [][]float32{{1, 0, 0}}}

	r := NewSemanticRetriever(embedder, store, chunks)
	results, err := r.Retrieve(context.Background(), "qual o valor da nota 12345?", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Retrieve() returned %d results, want 2", len(results))
	}

	if results[0].Chunk.ID != "chunk-1" {
		t.Errorf("top result = %v, want chunk-1", results[0].Chunk.ID)
	}
	if results[0].Chunk.Text != chunks[0].Text {
		t.Errorf("top result text = %q, want %q", results[0].Chunk.Text, chunks[0].Text)
	}
	if results[1].Chunk.ID != "chunk-3" {
		t.Errorf("second result = %v, want chunk-3", results[1].Chunk.ID)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not sorted by score: %v < %v", results[0].Score, results[1].Score)
	}
}

func TestSemanticRetriever_Retrieve_KLargerThanCorpus(t *testing.T) {
	chunks := []documents.Chunk{
		{ID: "chunk-1", Index: 0, Text: "NÚMERO: 12345."},
		{ID: "chunk-2", Index: 1, Text: "NÚMERO: 67890."},
	}
	store := newIndexedStore(t, []vectorstore.Point{
		{ID: "chunk-1", Vec: []float32{1, 0, 0}},
		{ID: "chunk-2", Vec: []float32{0, 1, 0}},
	})
	embedder := &stubEmbedder{vectors: [][]float32{{1, 0, 0}}}

	r := NewSemanticRetriever(embedder, store, chunks)
	results, err := r.Retrieve(context.Background(), "nota 12345", 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Retrieve() returned %d results, want 2", len(results))
	}
}

func TestSemanticRetriever_Retrieve_SkipsStalePoints(t *testing.T) {
	// The store knows one point more than the corpus; that point must be dropped
	chunks := []documents.Chunk{
		{ID: "chunk-1", Index: 0, Text: "NÚMERO: 12345."},
	}
	store := newIndexedStore(t, []vectorstore.Point{
		{ID: "chunk-1", Vec: []float32{1, 0, 0}},
		{ID: "chunk-gone", Vec: []float32{0.9, 0.1, 0}},
	})
	embedder := &stubEmbedder{vectors: [][]float32{{1, 0, 0}}}

	r := NewSemanticRetriever(embedder, store, chunks)
	results, err := r.Retrieve(context.Background(), "nota 12345", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Retrieve() returned %d results, want 1", len(results))
	}
	if results[0].Chunk.ID != "chunk-1" {
		t.Errorf("results[0].ID = %v, want chunk-1", results[0].Chunk.ID)
	}
}

func TestSemanticRetriever_Retrieve_EmbedderError(t *testing.T) {
	embedErr := errors.New("embedding server down")
	r := NewSemanticRetriever(&stubEmbedder{err: embedErr}, newIndexedStore(t, nil), nil)

	_, err := r.Retrieve(context.Background(), "qual o valor?", 5)
	if !errors.Is(err, embedErr) {
		t.Errorf("Retrieve() error = %v, want wrapped %v", err, embedErr)
	}
}

func TestSemanticRetriever_Retrieve_NoEmbeddingReturned(t *testing.T) {
	r := NewSemanticRetriever(&stubEmbedder{vectors: [][]float32{}}, newIndexedStore(t, nil), nil)

	_, err := r.Retrieve(context.Background(), "qual o valor?", 5)
	if err == nil {
		t.Error("Retrieve() with empty embedder response should return error")
	}
}

func TestSemanticRetriever_Retrieve_NonPositiveK(t *testing.T) {
	r := NewSemanticRetriever(&stubEmbedder{vectors: [][]float32{{1, 0, 0}}}, newIndexedStore(t, nil), nil)

	results, err := r.Retrieve(context.Background(), "qual o valor?", 0)
	if err != nil {
		t.Errorf("Retrieve() with k=0 error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Retrieve() with k=0 returned %d results, want 0", len(results))
	}
}
