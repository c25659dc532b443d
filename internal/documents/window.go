package documents

import (
	"strings"
	"unicode/utf8"
)

// maxChunkRunes caps chunk size in runes, sized so a chunk stays well inside
// the context window of small embedding models.
const maxChunkRunes = 700

// splitText splits text into pieces of at most maxRunes runes, preferring to
// cut at paragraph boundaries, then line breaks, then sentence ends. Pieces
// are trimmed and empty pieces dropped. Size is measured in runes, not bytes,
// so accented Portuguese text is not over-split.
func splitText(text string, maxRunes int) []string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var pieces []string
	start := 0
	for start < len(runes) {
		end := start + maxRunes
		if end >= len(runes) {
			if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
				pieces = append(pieces, piece)
			}
			break
		}

		// Boundary offsets are byte positions inside this window only
		window := string(runes[start:end])
		cut := len(window)
		if i := strings.LastIndex(window, "\n\n"); i != -1 {
			cut = i + 2
		} else if i := strings.LastIndex(window, "\n"); i != -1 {
			cut = i + 1
		} else if i := strings.LastIndex(window, ". "); i != -1 {
			cut = i + 2
		}

		raw := window[:cut]
		if piece := strings.TrimSpace(raw); piece != "" {
			pieces = append(pieces, piece)
		}
		start += utf8.RuneCountInString(raw)
	}

	return pieces
}
