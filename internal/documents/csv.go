package documents

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseCSV turns one CSV file into one chunk per data row. The first record
// is treated as the header; each chunk's text flattens the row as
// "HEADER: value. HEADER: value." in column order, and Fields keeps the raw
// header-to-value mapping for previews and metadata.
//
// No schema is assumed: invoice headers, invoice items and any other tabular
// layout all go through the same flattening.
func parseCSV(source string, data []byte) ([]Chunk, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	// Exported fiscal CSVs occasionally carry stray quotes inside fields
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		// Empty file: readable, zero chunks
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading header: %v", ErrUnreadableFile, source, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var chunks []Chunk
	ordinal := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: reading row %d: %v", ErrUnreadableFile, source, ordinal+1, err)
		}

		ordinal++
		fields := make(map[string]string, len(header))
		var parts []string
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if value == "" {
				continue
			}
			fields[name] = value
			parts = append(parts, name+": "+value)
		}
		if len(parts) == 0 {
			// Row with no values carries nothing retrievable
			continue
		}

		text := strings.Join(parts, ". ") + "."
		chunks = append(chunks, Chunk{
			ID:      ChunkID(source, ordinal, 0, text),
			Source:  source,
			Kind:    KindCSVRow,
			Ordinal: ordinal,
			Fields:  fields,
			Text:    text,
		})
	}

	return chunks, nil
}

// sniffDelimiter picks ';' or ',' by counting occurrences in the header
// line. Brazilian fiscal exports commonly use semicolons.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
