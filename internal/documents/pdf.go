package documents

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// parsePDF extracts plain text from each page of a PDF file and produces one
// chunk per page, splitting pages that exceed the window size. Pages without
// extractable text (scanned images) yield no chunks.
func parsePDF(source string, data []byte) (chunks []Chunk, err error) {
	// The pdf library panics on some malformed cross-reference tables;
	// treat that the same as a parse error.
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = fmt.Errorf("%w: %s: pdf parser panic: %v", ErrUnreadableFile, source, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableFile, source, err)
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// One bad page does not make the whole file unreadable
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		for part, piece := range splitText(text, maxChunkRunes) {
			chunks = append(chunks, Chunk{
				ID:      ChunkID(source, pageNum, part, piece),
				Source:  source,
				Kind:    KindPDFPage,
				Ordinal: pageNum,
				Part:    part,
				Text:    piece,
			})
		}
	}

	return chunks, nil
}
