// Package config provides configuration loading and structs for Kotae.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Provider ProviderConfig `yaml:"provider"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Ask      AskConfig      `yaml:"ask"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the records database and the vector store blob.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	VectorStorePath string `yaml:"vector_store_path"`
}

// ProviderConfig holds remote embedding/generation provider settings.
// APIKey falls back to the OPENAI_API_KEY environment variable when unset.
type ProviderConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Dimensions     int     `yaml:"dimensions"`
	ChatModel      string  `yaml:"chat_model"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	// EmbedDelayMS is the minimum delay between embedding calls during a
	// build, to stay under provider rate limits. 0 disables the delay.
	EmbedDelayMS int `yaml:"embed_delay_ms"`
	CacheSize    int `yaml:"cache_size"`
}

// CorpusConfig holds corpus producer (scrape + summarize) settings.
type CorpusConfig struct {
	SitemapURL         string   `yaml:"sitemap_url"`
	UserAgent          string   `yaml:"user_agent"`
	MaxBodyChars       int      `yaml:"max_body_chars"`
	SummarizeThreshold int      `yaml:"summarize_threshold"`
	FetchDelayMS       int      `yaml:"fetch_delay_ms"`
	// StripPatterns are regular expressions removed from extracted titles and
	// bodies (site chrome such as navigation bars and footers).
	StripPatterns []string `yaml:"strip_patterns"`
}

// AskConfig holds question answering settings.
type AskConfig struct {
	TopK           int    `yaml:"top_k"`
	SystemPrompt   string `yaml:"system_prompt"`
	FallbackAnswer string `yaml:"fallback_answer"`
	ExitWord       string `yaml:"exit_word"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. The provider API key falls back to OPENAI_API_KEY when the file
// does not set one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorStorePath = expandPath(cfg.Storage.VectorStorePath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
