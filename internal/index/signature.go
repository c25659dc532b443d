package index

import (
	"crypto/sha256"
	"encoding/hex"

	"fiscalchat/internal/documents"
)

// Signature derives a stable fingerprint for a corpus from its chunk IDs in
// load order. Chunk IDs already encode source path, position and a text hash,
// so any change to the data directory changes the signature and an unchanged
// directory reproduces it exactly.
func Signature(chunks []documents.Chunk) string {
	h := sha256.New()
	for _, chunk := range chunks {
		h.Write([]byte(chunk.ID))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
