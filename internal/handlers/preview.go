package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/documents"
	"fiscalchat/internal/storage"
)

// PreviewHandler serves indexed chunks as rendered HTML pages. Chat answers
// link their references here so users can inspect the source row or page.
type PreviewHandler struct {
	chunks    storage.ChunkStore
	documents storage.DocumentStore
	parser    goldmark.Markdown
	template  *template.Template
}

// previewPageData holds template data for rendered chunk pages.
type previewPageData struct {
	Title    string
	Source   string
	Location string
	Content  template.HTML
}

// NewPreviewHandler creates a new handler for serving chunk previews.
func NewPreviewHandler(chunks storage.ChunkStore, docs storage.DocumentStore) *PreviewHandler {
	tmpl := template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}} — {{.Location}}</title>
  <style>
    :root {
      color-scheme: dark;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
      background: #050b18;
      color: #e4ecff;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid rgba(148, 163, 184, 0.2);
      padding-bottom: 1.5rem;
    }
    h1 {
      margin-top: 0;
      color: #fff;
      font-size: 2rem;
    }
    article {
      background: rgba(12, 19, 35, 0.85);
      border: 1px solid rgba(99, 102, 241, 0.2);
      border-radius: 16px;
      padding: 2rem;
      box-shadow: 0 15px 35px rgba(2, 6, 23, 0.8);
    }
    article h2, article h3, article h4 {
      color: #c7d2fe;
      margin-top: 1.5rem;
    }
    article p {
      color: #cbd5f5;
    }
    table {
      border-collapse: collapse;
      width: 100%;
    }
    th, td {
      border: 1px solid rgba(99, 102, 241, 0.25);
      padding: 0.5rem 0.75rem;
      text-align: left;
    }
    th {
      color: #c7d2fe;
      background: rgba(99, 102, 241, 0.12);
    }
    td {
      color: #cbd5f5;
    }
    pre {
      background: #0f172a;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 10px;
      border: 1px solid rgba(99, 102, 241, 0.2);
    }
    code {
      font-family: 'SFMono-Regular', Consolas, 'Liberation Mono', Menlo, monospace;
      background: rgba(99, 102, 241, 0.18);
      padding: 2px 5px;
      border-radius: 6px;
      color: #cbd5ff;
    }
    pre code {
      background: transparent;
      padding: 0;
    }
    blockquote {
      border-left: 4px solid rgba(96, 165, 250, 0.6);
      padding-left: 1rem;
      margin-left: 0;
      color: #93c5fd;
      background: rgba(59, 130, 246, 0.08);
      border-radius: 6px;
    }
    a {
      color: #60a5fa;
      text-decoration: none;
    }
    a:hover {
      text-decoration: underline;
    }
    .meta {
      color: #94a3b8;
      font-size: 0.95rem;
      margin-top: 0.5rem;
    }
    @media (max-width: 640px) {
      body {
        padding: 1rem;
      }
      article {
        padding: 1.25rem;
      }
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">Documento: {{.Source}} &middot; {{.Location}}</p>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &PreviewHandler{
		chunks:    chunks,
		documents: docs,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.TaskList,
				extension.Strikethrough,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithUnsafe(),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders the requested chunk as HTML.
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	chunkID := strings.TrimSpace(chi.URLParam(r, "id"))
	if chunkID == "" {
		http.Error(w, "chunk id is required", http.StatusBadRequest)
		return
	}

	chunk, err := h.chunks.GetByID(ctx, chunkID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "chunk not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "failed to load chunk", "chunk_id", chunkID, "error", err)
		http.Error(w, "failed to load chunk", http.StatusInternalServerError)
		return
	}

	doc, err := h.documents.GetByID(ctx, chunk.DocumentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "failed to load document", "document_id", chunk.DocumentID, "error", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	markdown, err := chunkMarkdown(chunk)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build chunk markdown", "chunk_id", chunkID, "error", err)
		http.Error(w, "failed to render chunk", http.StatusInternalServerError)
		return
	}

	htmlContent, err := h.renderMarkdown([]byte(markdown))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "chunk_id", chunkID, "error", err)
		http.Error(w, "failed to render chunk", http.StatusInternalServerError)
		return
	}

	pageData := previewPageData{
		Title:    doc.RelPath,
		Source:   doc.RelPath,
		Location: chunkLocation(chunk),
		Content:  template.HTML(htmlContent),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute preview template", "chunk_id", chunkID, "error", err)
		http.Error(w, "failed to render chunk", http.StatusInternalServerError)
		return
	}
}

func (h *PreviewHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// chunkMarkdown builds the markdown body for a chunk. CSV rows become a
// field table; PDF pages keep their extracted text.
func chunkMarkdown(chunk *storage.ChunkRecord) (string, error) {
	if chunk.Kind != string(documents.KindCSVRow) || chunk.FieldsJSON == "" {
		return chunk.Text, nil
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(chunk.FieldsJSON), &fields); err != nil {
		return "", fmt.Errorf("decode fields: %w", err)
	}

	// Column order is not stored, so sort for a stable page
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("| Campo | Valor |\n| --- | --- |\n")
	for _, k := range keys {
		b.WriteString("| ")
		b.WriteString(escapeTableCell(k))
		b.WriteString(" | ")
		b.WriteString(escapeTableCell(fields[k]))
		b.WriteString(" |\n")
	}
	return b.String(), nil
}

// chunkLocation names the chunk's place inside its document in the UI
// language.
func chunkLocation(chunk *storage.ChunkRecord) string {
	var loc string
	switch chunk.Kind {
	case string(documents.KindCSVRow):
		loc = fmt.Sprintf("Linha %d", chunk.Ordinal)
	case string(documents.KindPDFPage):
		loc = fmt.Sprintf("Página %d", chunk.Ordinal)
	default:
		loc = fmt.Sprintf("Trecho %d", chunk.Ordinal)
	}
	if chunk.Part > 0 {
		loc = fmt.Sprintf("%s (parte %d)", loc, chunk.Part+1)
	}
	return loc
}

func escapeTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
