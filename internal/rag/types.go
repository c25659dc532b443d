package rag

// AskRequest represents a question for the engine.
type AskRequest struct {
	// Question is the user's question, in natural language.
	Question string `json:"question"`
	// K optionally caps how many chunks feed the prompt. Zero selects the
	// default of 5; values above 20 are clamped.
	K int `json:"k,omitempty"`
}

// Reference points at a chunk that fed the answer.
type Reference struct {
	// ChunkID is the stable chunk identifier, usable with the document
	// preview endpoint.
	ChunkID string `json:"chunk_id"`
	// Source is the file path relative to the data directory.
	Source string `json:"source"`
	// Kind is the chunk kind, "csv_row" or "pdf_page".
	Kind string `json:"kind"`
	// Ordinal is the 1-based row or page number within the file.
	Ordinal int `json:"ordinal"`
	// Score is the retrieval score. Scores are comparable only within a
	// single answer.
	Score float32 `json:"score"`
}

// AskResponse represents the generated answer.
type AskResponse struct {
	// Answer is the model's reply.
	Answer string `json:"answer"`
	// Mode is the retrieval mode that served the question, "advanced" or
	// "simple".
	Mode string `json:"mode"`
	// References are the chunks behind the answer, in retrieval order.
	References []Reference `json:"references"`
}
