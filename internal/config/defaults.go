package config

// Default prompt texts. The system prompt constrains style and length the way
// the site's answers should read; override per deployment in config.
const (
	DefaultSystemPrompt = "You are a knowledgeable guide for the indexed site. " +
		"Answer using only the provided knowledge, name concrete pages where relevant, " +
		"and keep the answer under 300 characters."
	DefaultFallbackAnswer = "Unable to generate an answer."
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kotae/data/records.db"
	}
	if cfg.Storage.VectorStorePath == "" {
		cfg.Storage.VectorStorePath = "/usr/local/var/kotae/data/embeddings.bin"
	}
	if cfg.Provider.EmbeddingModel == "" {
		cfg.Provider.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.Provider.Dimensions == 0 {
		cfg.Provider.Dimensions = 1536
	}
	if cfg.Provider.ChatModel == "" {
		cfg.Provider.ChatModel = "gpt-4o-mini"
	}
	if cfg.Provider.Temperature == 0 {
		cfg.Provider.Temperature = 0.5
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = 60
	}
	if cfg.Provider.EmbedDelayMS == 0 {
		cfg.Provider.EmbedDelayMS = 500
	}
	if cfg.Provider.CacheSize == 0 {
		cfg.Provider.CacheSize = 1024
	}
	if cfg.Corpus.UserAgent == "" {
		cfg.Corpus.UserAgent = "kotae/1.0"
	}
	if cfg.Corpus.MaxBodyChars == 0 {
		cfg.Corpus.MaxBodyChars = 2000
	}
	if cfg.Corpus.SummarizeThreshold == 0 {
		cfg.Corpus.SummarizeThreshold = 200
	}
	if cfg.Corpus.FetchDelayMS == 0 {
		cfg.Corpus.FetchDelayMS = 1000
	}
	if cfg.Ask.TopK == 0 {
		cfg.Ask.TopK = 3
	}
	if cfg.Ask.SystemPrompt == "" {
		cfg.Ask.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Ask.FallbackAnswer == "" {
		cfg.Ask.FallbackAnswer = DefaultFallbackAnswer
	}
	if cfg.Ask.ExitWord == "" {
		cfg.Ask.ExitWord = "exit"
	}
}
