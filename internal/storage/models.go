package storage

import "time"

// DocumentRecord represents a source file (CSV or PDF) in the database.
type DocumentRecord struct {
	ID         string // UUID
	RelPath    string // Relative path from the data directory root
	Kind       string // "csv" or "pdf"
	ChunkCount int    // Number of chunks produced from this file
	Hash       string // SHA256 hex string of file content
	UpdatedAt  time.Time
}

// ChunkRecord represents one retrievable unit of a document: a CSV row or
// a piece of a PDF page. The ID doubles as the vector store point ID.
type ChunkRecord struct {
	ID         string // Deterministic UUID (same as vector store point ID)
	DocumentID string // UUID (foreign key to documents.id)
	Position   int    // Position across the whole corpus (starts at 0)
	Kind       string // "csv_row" or "pdf_page"
	Ordinal    int    // Row or page number within the document (starts at 1)
	Part       int    // Piece index when a long page is split (starts at 0)
	FieldsJSON string // JSON object of column name to value, empty for PDF chunks
	Text       string // Chunk text content
}

// TurnRecord represents one question/answer exchange in the chat history.
type TurnRecord struct {
	ID        string // UUID
	Seq       int    // Monotonic position in the conversation (starts at 1)
	Question  string
	Answer    string // Empty when the turn failed
	ErrorMsg  string // Non-empty when the turn failed
	Mode      string // Retrieval mode that answered the turn: "advanced" or "simple"
	CreatedAt time.Time
}
