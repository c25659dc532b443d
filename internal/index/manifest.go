package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const manifestFile = "manifest.json"

// Manifest describes a built vector index. It is written only after every
// vector has been stored, so its presence means the build completed.
type Manifest struct {
	// Signature is the corpus signature the index was built from.
	Signature string `json:"signature"`
	// EmbeddingModel is the model name that produced the vectors.
	EmbeddingModel string `json:"embedding_model"`
	// VectorSize is the dimensionality of the stored vectors.
	VectorSize int `json:"vector_size"`
	// ChunkCount is the number of indexed chunks.
	ChunkCount int `json:"chunk_count"`
	// BuiltAt records when the build finished.
	BuiltAt time.Time `json:"built_at"`
}

func manifestPath(dir string) string {
	return filepath.Join(dir, manifestFile)
}

// SaveManifest writes the manifest into the index directory, creating the
// directory if needed.
func SaveManifest(dir string, m *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(manifestPath(dir), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads the manifest from the index directory. A missing file
// returns os.ErrNotExist (never built, or a build never finished); a file
// that cannot be parsed or fails basic validation wraps ErrIndexCorrupted.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(manifestPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading manifest: %v", ErrIndexCorrupted, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing manifest: %v", ErrIndexCorrupted, err)
	}

	if m.Signature == "" || m.EmbeddingModel == "" || m.VectorSize <= 0 || m.ChunkCount < 0 {
		return nil, fmt.Errorf("%w: manifest has invalid fields", ErrIndexCorrupted)
	}

	return &m, nil
}

// RemoveManifest deletes the manifest so a half-finished build is never
// mistaken for a complete one. Missing files are fine.
func RemoveManifest(dir string) error {
	err := os.Remove(manifestPath(dir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove manifest: %w", err)
	}
	return nil
}
