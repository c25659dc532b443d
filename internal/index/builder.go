package index

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/documents"
	"fiscalchat/internal/storage"
	"fiscalchat/internal/vectorstore"
)

// embedBatchSize caps how many chunk texts go to the embedding server in one
// request. Local servers reject oversized batches long before memory becomes
// a concern.
const embedBatchSize = 16

// Embedder produces embedding vectors for texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Builder turns a loaded corpus into a searchable vector index and mirrors
// documents and chunks into SQLite.
type Builder struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	docRepo    storage.DocumentStore
	chunkRepo  storage.ChunkStore
	indexDir   string
	model      string
	vectorSize int
}

// NewBuilder creates a new index builder.
func NewBuilder(
	embedder Embedder,
	store vectorstore.VectorStore,
	docRepo storage.DocumentStore,
	chunkRepo storage.ChunkStore,
	indexDir, model string,
	vectorSize int,
) *Builder {
	return &Builder{
		embedder:   embedder,
		store:      store,
		docRepo:    docRepo,
		chunkRepo:  chunkRepo,
		indexDir:   indexDir,
		model:      model,
		vectorSize: vectorSize,
	}
}

// SaveCorpus replaces the database mirror of the corpus: one document row per
// loaded file, one chunk row per chunk. The mirror serves previews and status
// reports in both retrieval modes, so it is written even when no vectors are.
func (b *Builder) SaveCorpus(ctx context.Context, result *documents.LoadResult) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := b.docRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	docIDs := make(map[string]string)
	for _, file := range result.Loaded() {
		doc := &storage.DocumentRecord{
			RelPath:    file.Path,
			Kind:       string(file.Format),
			ChunkCount: file.ChunkCount,
			Hash:       file.Hash,
		}
		if err := b.docRepo.Upsert(ctx, doc); err != nil {
			return fmt.Errorf("failed to upsert document %s: %w", file.Path, err)
		}
		docIDs[file.Path] = doc.ID
	}

	records := make([]storage.ChunkRecord, 0, len(result.Chunks))
	for _, chunk := range result.Chunks {
		docID, ok := docIDs[chunk.Source]
		if !ok {
			continue
		}

		record := storage.ChunkRecord{
			ID:         chunk.ID,
			DocumentID: docID,
			Position:   chunk.Index,
			Kind:       string(chunk.Kind),
			Ordinal:    chunk.Ordinal,
			Part:       chunk.Part,
			Text:       chunk.Text,
		}
		if len(chunk.Fields) > 0 {
			fields, err := json.Marshal(chunk.Fields)
			if err != nil {
				return fmt.Errorf("failed to marshal fields of chunk %s: %w", chunk.ID, err)
			}
			record.FieldsJSON = string(fields)
		}
		records = append(records, record)
	}

	if err := b.chunkRepo.InsertBatch(ctx, records); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	logger.InfoContext(ctx, "corpus saved", "documents", len(docIDs), "chunks", len(records))
	return nil
}

// Build embeds every chunk and stores the vectors, then writes the manifest.
// The manifest goes last: if a build dies halfway, the next start sees no
// manifest and rebuilds instead of trusting a half-written index.
func (b *Builder) Build(ctx context.Context, chunks []documents.Chunk, signature string) (*Manifest, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	// A stale manifest must not survive a failed build
	if err := RemoveManifest(b.indexDir); err != nil {
		return nil, err
	}

	if err := b.store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset vector store: %w", err)
	}

	for offset := 0; offset < len(chunks); offset += embedBatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := offset + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[offset:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		embeddings, err := b.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", offset, end-1, err)
		}

		points := make([]vectorstore.Point, len(batch))
		for i, chunk := range batch {
			points[i] = vectorstore.Point{
				ID:  chunk.ID,
				Vec: embeddings[i],
				Meta: map[string]string{
					"source":  chunk.Source,
					"kind":    string(chunk.Kind),
					"ordinal": strconv.Itoa(chunk.Ordinal),
				},
			}
		}

		if err := b.store.Upsert(ctx, points); err != nil {
			return nil, fmt.Errorf("failed to store vectors: %w", err)
		}

		logger.DebugContext(ctx, "indexed batch", "from", offset, "to", end-1)
	}

	manifest := &Manifest{
		Signature:      signature,
		EmbeddingModel: b.model,
		VectorSize:     b.vectorSize,
		ChunkCount:     len(chunks),
		BuiltAt:        time.Now().UTC(),
	}
	if err := SaveManifest(b.indexDir, manifest); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "vector index built",
		"chunks", len(chunks),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return manifest, nil
}
