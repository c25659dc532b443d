package documents

import (
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"
)

// Format identifies a supported input file format.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatPDF         Format = "pdf"
	FormatUnsupported Format = "unsupported"
)

// Kind identifies what a chunk was produced from.
type Kind string

const (
	KindCSVRow  Kind = "csv_row"
	KindPDFPage Kind = "pdf_page"
)

// Chunk is one retrievable unit of text extracted from a source file.
// Chunks are immutable once produced by a load.
type Chunk struct {
	ID      string            // deterministic UUID derived from source, ordinal, part and text
	Source  string            // file path relative to the data directory, slash-separated
	Kind    Kind              // csv_row or pdf_page
	Ordinal int               // 1-based CSV data row or PDF page number
	Part    int               // 0-based split sequence when one page produces several chunks
	Fields  map[string]string // CSV column values keyed by header, nil for PDF chunks
	Text    string            // text sent to the embedder and into prompts
	Index   int               // position in load order across the whole corpus
}

// FileInfo reports the outcome of loading a single scanned file.
// Err is non-nil when the file was skipped (unsupported or unreadable).
type FileInfo struct {
	Path       string
	Format     Format
	ChunkCount int
	Hash       string // sha256 hex of the raw file bytes
	Err        error
}

// LoadResult is the outcome of one full load of the data directory.
type LoadResult struct {
	Chunks []Chunk
	Files  []FileInfo
}

// Loaded returns the files that produced chunks.
func (r *LoadResult) Loaded() []FileInfo {
	var out []FileInfo
	for _, f := range r.Files {
		if f.Err == nil {
			out = append(out, f)
		}
	}
	return out
}

// Skipped returns the files that were skipped with their reasons.
func (r *LoadResult) Skipped() []FileInfo {
	var out []FileInfo
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// ChunkID derives a stable UUID for a chunk. The same source, position and
// text always produce the same ID, so reloading an unchanged corpus yields an
// identical chunk set and the vector index can be reused as-is.
func ChunkID(source string, ordinal, part int, text string) string {
	sum := sha256.Sum256([]byte(text))
	name := fmt.Sprintf("%s#%d#%d#%x", source, ordinal, part, sum[:8])
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
