package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"fiscalchat/internal/contextutil"
)

// Loader reads every supported file under the data directory and produces
// the corpus chunk set. Per-file failures are absorbed: the file is reported
// in the result with its error and the load continues.
type Loader struct {
	scanner *Scanner
}

// NewLoader creates a loader over the given data directory.
func NewLoader(dataDir string, recursive bool) *Loader {
	return &Loader{scanner: NewScanner(dataDir, recursive)}
}

// Load scans the data directory and parses every supported file, in lexical
// path order, row/page order within each file. The returned chunk slice is
// deterministic for an unchanged directory. An error is returned only when
// the directory itself cannot be scanned.
func (l *Loader) Load(ctx context.Context) (*LoadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	scanned, err := l.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{}
	position := 0

	for _, file := range scanned {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if file.Format == FormatUnsupported {
			logger.DebugContext(ctx, "Skipping unsupported file", "path", file.RelPath)
			result.Files = append(result.Files, FileInfo{
				Path: file.RelPath,
				Err:  fmt.Errorf("%w: %s", ErrUnsupportedFormat, file.RelPath),
			})
			continue
		}

		data, err := os.ReadFile(file.AbsPath)
		if err != nil {
			logger.WarnContext(ctx, "Skipping unreadable file", "path", file.RelPath, "error", err)
			result.Files = append(result.Files, FileInfo{
				Path: file.RelPath,
				Err:  fmt.Errorf("%w: %s: %v", ErrUnreadableFile, file.RelPath, err),
			})
			continue
		}

		var chunks []Chunk
		switch file.Format {
		case FormatCSV:
			chunks, err = parseCSV(file.RelPath, data)
		case FormatPDF:
			chunks, err = parsePDF(file.RelPath, data)
		}
		if err != nil {
			logger.WarnContext(ctx, "Skipping unparseable file", "path", file.RelPath, "error", err)
			result.Files = append(result.Files, FileInfo{Path: file.RelPath, Err: err})
			continue
		}

		for i := range chunks {
			chunks[i].Index = position
			position++
		}
		result.Chunks = append(result.Chunks, chunks...)

		sum := sha256.Sum256(data)
		result.Files = append(result.Files, FileInfo{
			Path:       file.RelPath,
			Format:     file.Format,
			ChunkCount: len(chunks),
			Hash:       hex.EncodeToString(sum[:]),
		})
		logger.DebugContext(ctx, "Loaded file", "path", file.RelPath, "chunks", len(chunks))
	}

	logger.InfoContext(ctx, "Document load complete",
		"files", len(result.Loaded()),
		"skipped", len(result.Skipped()),
		"chunks", len(result.Chunks))

	return result, nil
}
