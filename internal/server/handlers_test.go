package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/genai"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/qa"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(dir + "/records.db")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	records := []*models.Record{
		{URL: "https://example.com/shrine/", Title: "Shrine", Tag: "history", Body: "history of the shrine and its festivals"},
		{URL: "https://example.com/garden/", Title: "Garden", Tag: models.NoTag, Body: "garden with seasonal flowers"},
	}
	bodies := make([]string, 0, len(records))
	for _, rec := range records {
		if err := store.AppendRecord(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
		bodies = append(bodies, rec.Body)
	}

	embedder := embedding.NewMockEmbedder(8)
	vecStore, err := vector.Build(ctx, bodies, embedder)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	gen := &genai.MockGenerator{Reply: "An answer about the shrine."}
	synth := answer.NewSynthesizer(gen, "system", "Unable to generate an answer.", nil)
	engine := qa.NewEngine(store, embedder, vecStore, synth, nil)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Storage: config.StorageConfig{
			DatabasePath:    dir + "/records.db",
			VectorStorePath: dir + "/embeddings.bin",
		},
	}
	return NewServer(engine, store, cfg, zap.NewNop())
}

func TestHandleAsk(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{"query": "shrine festivals", "top_k": 1})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.handleAsk(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}

	var out models.AskResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Answer != "An answer about the shrine." {
		t.Errorf("answer: got %q", out.Answer)
	}
	if len(out.Sources) != 1 {
		t.Errorf("sources: got %d, want 1", len(out.Sources))
	}
}

func TestHandleAsk_EmptyQuery(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"query": ""})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleAsk(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleAsk_InvalidBody(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	srv.handleAsk(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleGetRecord(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/records/0", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}

	var rec models.Record
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.URL != "https://example.com/shrine/" {
		t.Errorf("url: got %q", rec.URL)
	}
}

func TestHandleGetRecord_NotFound(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/records/99", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}

	var out struct {
		Records         int64  `json:"records"`
		VectorStoreRows int    `json:"vector_store_rows"`
		DiskUsageBytes  *int64 `json:"disk_usage_bytes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Records != 2 {
		t.Errorf("records: got %d, want 2", out.Records)
	}
	if out.VectorStoreRows != 2 {
		t.Errorf("vector_store_rows: got %d, want 2", out.VectorStoreRows)
	}
	if out.DiskUsageBytes == nil || *out.DiskUsageBytes < 1 {
		t.Error("expected positive disk_usage_bytes")
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}
