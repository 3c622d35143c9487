package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

func TestAskArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after question are moved first",
			args:     []string{"when is the festival", "-top-k", "5"},
			expected: []string{"-top-k", "5", "when is the festival"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-top-k", "5", "when is the festival"},
			expected: []string{"-top-k", "5", "when is the festival"},
		},
		{
			name:     "question only returns unchanged",
			args:     []string{"when is the festival"},
			expected: []string{"when is the festival"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"opening", "hours", "-output", "json"},
			expected: []string{"-output", "json", "opening", "hours"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := askArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("askArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuestion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"festival"}, "festival"},
		{"multiple words", []string{"autumn", "festival"}, "autumn festival"},
		{"single quoted phrase", []string{"autumn festival"}, "autumn festival"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuestion(tt.args)
			if got != tt.expected {
				t.Errorf("buildQuestion(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestAskConfigPathFromArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		defaultPath string
		want        string
	}{
		{"no config flag", []string{"-top-k", "5", "question"}, "/default.yaml", "/default.yaml"},
		{"-config present", []string{"-config", "/custom.yaml", "question"}, "/default.yaml", "/custom.yaml"},
		{"--config present", []string{"--config", "/other.yaml"}, "/default.yaml", "/other.yaml"},
		{"config at end", []string{"question", "-config", "/end.yaml"}, "/default.yaml", "/end.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := askConfigPathFromArgs(tt.args, tt.defaultPath)
			if got != tt.want {
				t.Errorf("askConfigPathFromArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAskTopKDefaultFromConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
ask:
  top_k: 7
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if got := askTopKDefaultFromConfig(configPath); got != 7 {
		t.Errorf("askTopKDefaultFromConfig() = %d, want 7", got)
	}
	// Missing file returns 3
	if got := askTopKDefaultFromConfig(filepath.Join(dir, "nonexistent.yaml")); got != 3 {
		t.Errorf("askTopKDefaultFromConfig(nonexistent) = %d, want 3", got)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

// Status must work without a running server: plain `kotae status` reads the
// configured files directly.
func TestStatusFromStorage(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "records.db")
	blobPath := filepath.Join(dir, "embeddings.bin")
	content := `
provider:
  dimensions: 16
storage:
  database_path: "` + dbPath + `"
  vector_store_path: "` + blobPath + `"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	err = store.AppendRecord(context.Background(), &models.Record{
		URL:   "https://example.com/shrine/",
		Title: "Shrine",
		Tag:   models.NoTag,
		Body:  "The shrine hosts autumn festivals.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(blobPath, make([]byte, 16*4), 0644); err != nil {
		t.Fatal(err)
	}

	status, err := statusFromStorage(configPath)
	if err != nil {
		t.Fatalf("statusFromStorage: %v", err)
	}
	if status.Records != 1 {
		t.Errorf("records = %d, want 1", status.Records)
	}
	if status.VectorStoreRows != 1 {
		t.Errorf("vector store rows = %d, want 1", status.VectorStoreRows)
	}
	if status.DiskUsageBytes == nil || *status.DiskUsageBytes < 16*4 {
		t.Errorf("disk usage = %v, want at least %d", status.DiskUsageBytes, 16*4)
	}
	if status.Config == nil || status.Config.DatabasePath != dbPath {
		t.Errorf("config section: %+v", status.Config)
	}
}

func TestInitializeComponents_requiresAPIKey(t *testing.T) {
	dir := t.TempDir()
	cfg, err := writeAndLoadConfig(t, dir, "")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Provider.APIKey = ""
	if _, err := initializeComponents(cfg, nil); err == nil {
		t.Error("expected error when provider api key is missing")
	}
}

func writeAndLoadConfig(t *testing.T, dir, extra string) (*config.Config, error) {
	t.Helper()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "` + filepath.Join(dir, "records.db") + `"
  vector_store_path: "` + filepath.Join(dir, "embeddings.bin") + `"
` + extra
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return nil, err
	}
	cfg, _, err := loadConfig(configPath)
	return cfg, err
}
