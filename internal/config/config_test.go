package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9090
storage:
  database_path: ./records.db
  vector_store_path: ./embeddings.bin
provider:
  api_key: test-key
  dimensions: 8
corpus:
  sitemap_url: https://example.com/post-sitemap.xml
ask:
  top_k: 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("host default = %q", cfg.Server.Host)
	}
	if cfg.Provider.APIKey != "test-key" {
		t.Errorf("api key = %q", cfg.Provider.APIKey)
	}
	if cfg.Provider.Dimensions != 8 {
		t.Errorf("dimensions = %d", cfg.Provider.Dimensions)
	}
	if cfg.Provider.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("embedding model default = %q", cfg.Provider.EmbeddingModel)
	}
	if cfg.Ask.TopK != 5 {
		t.Errorf("top_k = %d", cfg.Ask.TopK)
	}
	if cfg.Ask.ExitWord != "exit" {
		t.Errorf("exit word default = %q", cfg.Ask.ExitWord)
	}
	// ./ paths expand relative to the config directory.
	if cfg.Storage.DatabasePath != filepath.Join(dir, "records.db") {
		t.Errorf("database path = %q", cfg.Storage.DatabasePath)
	}
	if cfg.Storage.VectorStorePath != filepath.Join(dir, "embeddings.bin") {
		t.Errorf("vector store path = %q", cfg.Storage.VectorStorePath)
	}
}

func TestLoad_EnvAPIKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: false\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.APIKey != "env-key" {
		t.Errorf("api key should come from env, got %q", cfg.Provider.APIKey)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Provider.Dimensions != 1536 {
		t.Errorf("dimensions default = %d", cfg.Provider.Dimensions)
	}
	if cfg.Provider.EmbedDelayMS != 500 {
		t.Errorf("embed delay default = %d", cfg.Provider.EmbedDelayMS)
	}
	if cfg.Corpus.MaxBodyChars != 2000 {
		t.Errorf("max body chars default = %d", cfg.Corpus.MaxBodyChars)
	}
	if cfg.Corpus.SummarizeThreshold != 200 {
		t.Errorf("summarize threshold default = %d", cfg.Corpus.SummarizeThreshold)
	}
	if cfg.Ask.FallbackAnswer != DefaultFallbackAnswer {
		t.Errorf("fallback answer default = %q", cfg.Ask.FallbackAnswer)
	}
}
