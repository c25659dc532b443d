package documents

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantChunks int
		wantErr    bool
		check      func(*testing.T, []Chunk)
	}{
		{
			name: "invoice header rows",
			data: "NÚMERO,DATA EMISSÃO,RAZÃO SOCIAL EMITENTE,VALOR NOTA FISCAL\n" +
				"12345,2024-01-05,ACME LTDA,100.00\n" +
				"67890,2024-01-08,BETA SA,250.50\n",
			wantChunks: 2,
			check: func(t *testing.T, chunks []Chunk) {
				first := chunks[0]
				if first.Ordinal != 1 {
					t.Errorf("Ordinal = %d, want 1", first.Ordinal)
				}
				if first.Kind != KindCSVRow {
					t.Errorf("Kind = %v, want %v", first.Kind, KindCSVRow)
				}
				want := "NÚMERO: 12345. DATA EMISSÃO: 2024-01-05. RAZÃO SOCIAL EMITENTE: ACME LTDA. VALOR NOTA FISCAL: 100.00."
				if first.Text != want {
					t.Errorf("Text = %q, want %q", first.Text, want)
				}
				if first.Fields["NÚMERO"] != "12345" {
					t.Errorf("Fields[NÚMERO] = %q, want 12345", first.Fields["NÚMERO"])
				}
				if chunks[1].Ordinal != 2 {
					t.Errorf("second Ordinal = %d, want 2", chunks[1].Ordinal)
				}
			},
		},
		{
			name:       "semicolon delimiter",
			data:       "NÚMERO;VALOR\n111;9,90\n",
			wantChunks: 1,
			check: func(t *testing.T, chunks []Chunk) {
				if chunks[0].Fields["VALOR"] != "9,90" {
					t.Errorf("Fields[VALOR] = %q, want 9,90", chunks[0].Fields["VALOR"])
				}
			},
		},
		{
			name:       "utf-8 BOM stripped",
			data:       "\xEF\xBB\xBFNÚMERO,VALOR\n111,9.90\n",
			wantChunks: 1,
			check: func(t *testing.T, chunks []Chunk) {
				if _, ok := chunks[0].Fields["NÚMERO"]; !ok {
					t.Errorf("BOM not stripped from first header: fields = %v", chunks[0].Fields)
				}
			},
		},
		{
			name:       "empty values omitted from text",
			data:       "A,B,C\n1,,3\n",
			wantChunks: 1,
			check: func(t *testing.T, chunks []Chunk) {
				if chunks[0].Text != "A: 1. C: 3." {
					t.Errorf("Text = %q, want %q", chunks[0].Text, "A: 1. C: 3.")
				}
				if _, ok := chunks[0].Fields["B"]; ok {
					t.Error("empty field B should not be present")
				}
			},
		},
		{
			name:       "short rows tolerated",
			data:       "A,B,C\n1,2\n",
			wantChunks: 1,
			check: func(t *testing.T, chunks []Chunk) {
				if chunks[0].Text != "A: 1. B: 2." {
					t.Errorf("Text = %q, want %q", chunks[0].Text, "A: 1. B: 2.")
				}
			},
		},
		{
			name:       "quoted field with delimiter",
			data:       "A,B\n\"x, y\",2\n",
			wantChunks: 1,
			check: func(t *testing.T, chunks []Chunk) {
				if chunks[0].Fields["A"] != "x, y" {
					t.Errorf("Fields[A] = %q, want %q", chunks[0].Fields["A"], "x, y")
				}
			},
		},
		{
			name:       "blank rows skipped",
			data:       "A,B\n1,2\n,\n3,4\n",
			wantChunks: 2,
			check: func(t *testing.T, chunks []Chunk) {
				// Ordinal counts data rows, including the blank one
				if chunks[1].Ordinal != 3 {
					t.Errorf("second chunk Ordinal = %d, want 3", chunks[1].Ordinal)
				}
			},
		},
		{
			name:       "empty file",
			data:       "",
			wantChunks: 0,
		},
		{
			name:       "header only",
			data:       "A,B\n",
			wantChunks: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := parseCSV("fixture.csv", []byte(tt.data))

			if tt.wantErr {
				if err == nil {
					t.Fatal("parseCSV() expected error, got nil")
				}
				if !errors.Is(err, ErrUnreadableFile) {
					t.Errorf("parseCSV() error = %v, want ErrUnreadableFile", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCSV() error = %v", err)
			}
			if len(chunks) != tt.wantChunks {
				t.Fatalf("parseCSV() returned %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			if tt.check != nil {
				tt.check(t, chunks)
			}
		})
	}
}

func TestParseCSV_DeterministicIDs(t *testing.T) {
	data := []byte("NÚMERO,VALOR\n12345,100.00\n67890,250.50\n")

	first, err := parseCSV("notas.csv", data)
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}
	second, err := parseCSV("notas.csv", data)
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d ID differs across parses: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}

	// A different source path must produce different IDs
	other, err := parseCSV("outras.csv", data)
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}
	if other[0].ID == first[0].ID {
		t.Error("chunks from different sources should not share IDs")
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "A,B,C\n1,2,3\n", ','},
		{"semicolon", "A;B;C\n1;2;3\n", ';'},
		{"semicolon wins on count", "A;B;C,D\n", ';'},
		{"defaults to comma", "ABC\n", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffDelimiter([]byte(tt.data)); got != tt.want {
				t.Errorf("sniffDelimiter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChunkID_Stable(t *testing.T) {
	a := ChunkID("notas.csv", 1, 0, "NÚMERO: 12345.")
	b := ChunkID("notas.csv", 1, 0, "NÚMERO: 12345.")
	if a != b {
		t.Errorf("ChunkID not stable: %s vs %s", a, b)
	}

	c := ChunkID("notas.csv", 1, 0, "NÚMERO: 99999.")
	if a == c {
		t.Error("ChunkID should change when text changes")
	}

	if !strings.Contains(a, "-") || len(a) != 36 {
		t.Errorf("ChunkID should be a UUID string, got %q", a)
	}
}
