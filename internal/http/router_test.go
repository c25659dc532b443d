package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fiscalchat/internal/index"
	index_mocks "fiscalchat/internal/index/mocks"
	"fiscalchat/internal/llm"
	session_mocks "fiscalchat/internal/session/mocks"
	"fiscalchat/internal/storage"
	storage_mocks "fiscalchat/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

type testMocks struct {
	sessions *session_mocks.MockService
	manager  *index_mocks.MockCorpusManager
	chunks   *storage_mocks.MockChunkStore
	docs     *storage_mocks.MockDocumentStore
}

func newTestDeps(ctrl *gomock.Controller) (*Deps, testMocks) {
	m := testMocks{
		sessions: session_mocks.NewMockService(ctrl),
		manager:  index_mocks.NewMockCorpusManager(ctrl),
		chunks:   storage_mocks.NewMockChunkStore(ctrl),
		docs:     storage_mocks.NewMockDocumentStore(ctrl),
	}
	deps := &Deps{
		Sessions:     m.sessions,
		Manager:      m.manager,
		ChunkRepo:    m.chunks,
		DocumentRepo: m.docs,
		LLMClient:    llm.NewClient("http://localhost:9999", "gsk_test", "llama-3.1-8b-instant"),
		DefaultTopK:  5,
		IndexHTML:    "<html><body>Test</body></html>",
	}
	return deps, m
}

func TestNewRouter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, _ := newTestDeps(ctrl)
	router := NewRouter(deps)

	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, m := newTestDeps(ctrl)
	m.sessions.EXPECT().History(gomock.Any()).Return(nil, nil).AnyTimes()
	m.sessions.EXPECT().Reset(gomock.Any()).Return(nil).AnyTimes()
	m.manager.EXPECT().Stats(gomock.Any()).Return(index.Stats{Mode: "simple"}, nil).AnyTimes()
	m.chunks.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound).AnyTimes()

	router := NewRouter(deps)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "GET root serves HTML",
			method:     http.MethodGet,
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /api/chat exists",
			method:     http.MethodPost,
			path:       "/api/chat",
			wantStatus: http.StatusBadRequest, // Bad request due to empty body, but route exists
		},
		{
			name:       "GET /api/chat method not allowed",
			method:     http.MethodGet,
			path:       "/api/chat",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "GET /api/history exists",
			method:     http.MethodGet,
			path:       "/api/history",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /api/reset exists",
			method:     http.MethodPost,
			path:       "/api/reset",
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /api/status exists",
			method:     http.MethodGet,
			path:       "/api/status",
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /api/health exists",
			method:     http.MethodGet,
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /documents/{id} exists",
			method:     http.MethodGet,
			path:       "/documents/unknown-chunk",
			wantStatus: http.StatusNotFound, // Unknown chunk, but route exists
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_ReindexAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, m := newTestDeps(ctrl)

	rebuilt := make(chan struct{}, 1)
	m.manager.EXPECT().
		Rebuild(gomock.Any(), false).
		DoAndReturn(func(ctx context.Context, force bool) (index.Stats, error) {
			rebuilt <- struct{}{}
			return index.Stats{}, nil
		})

	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/reindex", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Router POST /api/reindex status = %v, want %v", w.Code, http.StatusAccepted)
	}

	select {
	case <-rebuilt:
	case <-time.After(2 * time.Second):
		t.Fatal("Rebuild() was not called")
	}
}

func TestRouter_RootServesHTML(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, _ := newTestDeps(ctrl)
	htmlContent := "<html><body>Test HTML</body></html>"
	deps.IndexHTML = htmlContent

	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Router GET / status = %v, want %v", w.Code, http.StatusOK)
	}

	if w.Body.String() != htmlContent {
		t.Errorf("Router GET / body = %v, want %v", w.Body.String(), htmlContent)
	}

	if w.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Errorf("Router GET / Content-Type = %v, want text/html; charset=utf-8", w.Header().Get("Content-Type"))
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, _ := newTestDeps(ctrl)
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// Check CORS headers are present
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
}
