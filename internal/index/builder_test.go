package index

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fiscalchat/internal/documents"
	"fiscalchat/internal/llm"
	"fiscalchat/internal/storage"
	"fiscalchat/internal/vectorstore"
)

const testModel = "all-MiniLM-L6-v2"

// newEmbedServer serves /v1/embeddings with 3-dimensional unit vectors.
// Texts mentioning invoice 12345 embed along the first axis, everything else
// along the second, so similarity ordering in tests is predictable.
func newEmbedServer(t *testing.T, embedCalls *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		embedCalls.Add(1)

		var req llm.EmbeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := llm.EmbeddingsResponse{Data: make([]llm.EmbeddingData, len(req.Input))}
		for i, text := range req.Input {
			vec := []float64{0, 1, 0}
			if strings.Contains(text, "12345") {
				vec = []float64{1, 0, 0}
			}
			resp.Data[i] = llm.EmbeddingData{Embedding: vec}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestRepos(t *testing.T) (*storage.DocumentRepo, *storage.ChunkRepo) {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}
	return storage.NewDocumentRepo(db), storage.NewChunkRepo(db)
}

func newTestBuilder(t *testing.T, baseURL string) (*Builder, *vectorstore.ChromemStore, string) {
	t.Helper()

	indexDir := filepath.Join(t.TempDir(), "index")
	store, err := vectorstore.NewChromemStore(filepath.Join(t.TempDir(), "chromem"), "fiscal_chunks")
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	docRepo, chunkRepo := newTestRepos(t)
	embedder := llm.NewEmbeddingsClient(baseURL, "", testModel, 3)

	return NewBuilder(embedder, store, docRepo, chunkRepo, indexDir, testModel, 3), store, indexDir
}

func builderChunks() []documents.Chunk {
	return []documents.Chunk{
		{
			ID: "chunk-1", Source: "notas.csv", Kind: documents.KindCSVRow, Ordinal: 1, Index: 0,
			Fields: map[string]string{"NÚMERO": "12345", "VALOR NOTA FISCAL": "100.00"},
			Text:   "NÚMERO: 12345. VALOR NOTA FISCAL: 100.00.",
		},
		{
			ID: "chunk-2", Source: "notas.csv", Kind: documents.KindCSVRow, Ordinal: 2, Index: 1,
			Fields: map[string]string{"NÚMERO": "67890", "VALOR NOTA FISCAL": "250.50"},
			Text:   "NÚMERO: 67890. VALOR NOTA FISCAL: 250.50.",
		},
		{
			ID: "chunk-3", Source: "manual.pdf", Kind: documents.KindPDFPage, Ordinal: 1, Index: 2,
			Text: "Manual de preenchimento da nota fiscal.",
		},
	}
}

func TestBuilder_Build(t *testing.T) {
	var embedCalls atomic.Int32
	server := newEmbedServer(t, &embedCalls)
	builder, store, indexDir := newTestBuilder(t, server.URL)
	ctx := context.Background()

	chunks := builderChunks()
	signature := Signature(chunks)

	manifest, err := builder.Build(ctx, chunks, signature)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if manifest.Signature != signature {
		t.Errorf("manifest.Signature = %v, want %v", manifest.Signature, signature)
	}
	if manifest.EmbeddingModel != testModel {
		t.Errorf("manifest.EmbeddingModel = %v, want %v", manifest.EmbeddingModel, testModel)
	}
	if manifest.VectorSize != 3 {
		t.Errorf("manifest.VectorSize = %v, want 3", manifest.VectorSize)
	}
	if manifest.ChunkCount != len(chunks) {
		t.Errorf("manifest.ChunkCount = %v, want %v", manifest.ChunkCount, len(chunks))
	}
	if manifest.BuiltAt.IsZero() {
		t.Error("manifest.BuiltAt should be set")
	}

	// The manifest on disk matches the returned one
	loaded, err := LoadManifest(indexDir)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if loaded.Signature != signature {
		t.Errorf("loaded manifest Signature = %v, want %v", loaded.Signature, signature)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != len(chunks) {
		t.Errorf("store Count() = %d, want %d", count, len(chunks))
	}

	// Vector for the 12345 chunk points along the first axis
	results, err := store.Search(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want 1", len(results))
	}
	if results[0].ID != "chunk-1" {
		t.Errorf("top result = %v, want chunk-1", results[0].ID)
	}
	if results[0].Meta["source"] != "notas.csv" {
		t.Errorf("Meta[source] = %v, want notas.csv", results[0].Meta["source"])
	}
	if results[0].Meta["kind"] != "csv_row" {
		t.Errorf("Meta[kind] = %v, want csv_row", results[0].Meta["kind"])
	}
	if results[0].Meta["ordinal"] != "1" {
		t.Errorf("Meta[ordinal] = %v, want 1", results[0].Meta["ordinal"])
	}
}

func TestBuilder_Build_BatchesLargeCorpus(t *testing.T) {
	var embedCalls atomic.Int32
	server := newEmbedServer(t, &embedCalls)
	builder, store, _ := newTestBuilder(t, server.URL)
	ctx := context.Background()

	// 20 chunks with a batch size of 16 means exactly two embedding requests
	chunks := make([]documents.Chunk, 20)
	for i := range chunks {
		chunks[i] = documents.Chunk{
			ID:      documents.ChunkID("big.csv", i+1, 0, "Valor da linha."),
			Source:  "big.csv",
			Kind:    documents.KindCSVRow,
			Ordinal: i + 1,
			Index:   i,
			Text:    "Valor da linha.",
		}
	}

	if _, err := builder.Build(ctx, chunks, Signature(chunks)); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := embedCalls.Load(); got != 2 {
		t.Errorf("embedding requests = %d, want 2", got)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 20 {
		t.Errorf("store Count() = %d, want 20", count)
	}
}

func TestBuilder_Build_EmbeddingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	builder, _, indexDir := newTestBuilder(t, server.URL)
	ctx := context.Background()

	// A manifest from an earlier build must not survive the failed one
	old := &Manifest{Signature: "old", EmbeddingModel: testModel, VectorSize: 3, ChunkCount: 3, BuiltAt: time.Now()}
	if err := SaveManifest(indexDir, old); err != nil {
		t.Fatalf("SaveManifest() error = %v", err)
	}

	_, err := builder.Build(ctx, builderChunks(), "sig")
	if err == nil {
		t.Fatal("Build() with failing embedding server should return error")
	}

	if _, err := LoadManifest(indexDir); !os.IsNotExist(err) {
		t.Errorf("LoadManifest() after failed build error = %v, want os.ErrNotExist", err)
	}
}

func TestBuilder_Build_EmptyCorpus(t *testing.T) {
	var embedCalls atomic.Int32
	server := newEmbedServer(t, &embedCalls)
	builder, store, indexDir := newTestBuilder(t, server.URL)
	ctx := context.Background()

	manifest, err := builder.Build(ctx, nil, Signature(nil))
	if err != nil {
		t.Fatalf("Build() with empty corpus error = %v", err)
	}

	if embedCalls.Load() != 0 {
		t.Errorf("embedding requests = %d, want 0", embedCalls.Load())
	}
	if manifest.ChunkCount != 0 {
		t.Errorf("manifest.ChunkCount = %d, want 0", manifest.ChunkCount)
	}
	if _, err := LoadManifest(indexDir); err != nil {
		t.Errorf("LoadManifest() error = %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("store Count() = %d, want 0", count)
	}
}

func TestBuilder_SaveCorpus(t *testing.T) {
	docRepo, chunkRepo := newTestRepos(t)
	builder := NewBuilder(nil, nil, docRepo, chunkRepo, t.TempDir(), testModel, 3)
	ctx := context.Background()

	result := &documents.LoadResult{
		Chunks: builderChunks(),
		Files: []documents.FileInfo{
			{Path: "notas.csv", Format: documents.FormatCSV, ChunkCount: 2, Hash: "h1"},
			{Path: "manual.pdf", Format: documents.FormatPDF, ChunkCount: 1, Hash: "h2"},
			{Path: "leiame.txt", Err: documents.ErrUnsupportedFormat},
		},
	}

	if err := builder.SaveCorpus(ctx, result); err != nil {
		t.Fatalf("SaveCorpus() error = %v", err)
	}

	docs, err := docRepo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	// Skipped files are not persisted
	if len(docs) != 2 {
		t.Fatalf("ListAll() returned %d documents, want 2", len(docs))
	}
	if docs[0].RelPath != "manual.pdf" || docs[0].Kind != "pdf" {
		t.Errorf("docs[0] = {%v %v}, want {manual.pdf pdf}", docs[0].RelPath, docs[0].Kind)
	}
	if docs[1].RelPath != "notas.csv" || docs[1].Kind != "csv" {
		t.Errorf("docs[1] = {%v %v}, want {notas.csv csv}", docs[1].RelPath, docs[1].Kind)
	}

	count, err := chunkRepo.CountAll(ctx)
	if err != nil {
		t.Fatalf("CountAll() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountAll() = %d, want 3", count)
	}

	// CSV chunks carry their fields as JSON, PDF chunks don't
	csvChunk, err := chunkRepo.GetByID(ctx, "chunk-1")
	if err != nil {
		t.Fatalf("GetByID(chunk-1) error = %v", err)
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(csvChunk.FieldsJSON), &fields); err != nil {
		t.Fatalf("FieldsJSON is not valid JSON: %v", err)
	}
	if fields["NÚMERO"] != "12345" {
		t.Errorf("fields[NÚMERO] = %v, want 12345", fields["NÚMERO"])
	}

	pdfChunk, err := chunkRepo.GetByID(ctx, "chunk-3")
	if err != nil {
		t.Fatalf("GetByID(chunk-3) error = %v", err)
	}
	if pdfChunk.FieldsJSON != "" {
		t.Errorf("pdf chunk FieldsJSON = %q, want empty", pdfChunk.FieldsJSON)
	}
	if pdfChunk.Kind != "pdf_page" {
		t.Errorf("pdf chunk Kind = %v, want pdf_page", pdfChunk.Kind)
	}
}

func TestBuilder_SaveCorpus_ReplacesPrevious(t *testing.T) {
	docRepo, chunkRepo := newTestRepos(t)
	builder := NewBuilder(nil, nil, docRepo, chunkRepo, t.TempDir(), testModel, 3)
	ctx := context.Background()

	first := &documents.LoadResult{
		Chunks: builderChunks(),
		Files: []documents.FileInfo{
			{Path: "notas.csv", Format: documents.FormatCSV, ChunkCount: 2, Hash: "h1"},
			{Path: "manual.pdf", Format: documents.FormatPDF, ChunkCount: 1, Hash: "h2"},
		},
	}
	if err := builder.SaveCorpus(ctx, first); err != nil {
		t.Fatalf("SaveCorpus() error = %v", err)
	}

	second := &documents.LoadResult{
		Chunks: builderChunks()[:1],
		Files: []documents.FileInfo{
			{Path: "notas.csv", Format: documents.FormatCSV, ChunkCount: 1, Hash: "h3"},
		},
	}
	if err := builder.SaveCorpus(ctx, second); err != nil {
		t.Fatalf("second SaveCorpus() error = %v", err)
	}

	docs, err := docRepo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("ListAll() returned %d documents, want 1", len(docs))
	}
	if docs[0].Hash != "h3" {
		t.Errorf("docs[0].Hash = %v, want h3", docs[0].Hash)
	}

	count, err := chunkRepo.CountAll(ctx)
	if err != nil {
		t.Fatalf("CountAll() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountAll() = %d, want 1", count)
	}
}
