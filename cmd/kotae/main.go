// Package main is the Kotae CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/corpus"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/genai"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/session"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "kotae chat" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "chat":
		runChat()
	case "ask":
		runAsk()
	case "build":
		runBuild()
	case "server":
		runServer()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (page fetches, embedding calls, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := components.Controller.Run(ctx); err != nil {
		logger.Fatal("Session failed", zap.Error(err))
	}
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	force := fs.Bool("force", false, "discard existing records and vector store, rebuild from the sitemap")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if *force {
		// The store must go with the records or the next load rejects it.
		if err := components.Storage.DeleteAllRecords(ctx); err != nil {
			logger.Fatal("Failed to clear records", zap.Error(err))
		}
		if err := os.Remove(cfg.Storage.VectorStorePath); err != nil && !os.IsNotExist(err) {
			logger.Fatal("Failed to remove vector store", zap.Error(err))
		}
		logger.Info("existing corpus discarded")
	}

	engine, err := components.Controller.EnsureIndexed(ctx)
	if err != nil {
		logger.Fatal("Build failed", zap.Error(err))
	}

	count, err := components.Storage.CountRecords(ctx)
	if err != nil {
		logger.Fatal("Failed to count records", zap.Error(err))
	}
	fmt.Printf("Indexed %d record(s), %d embedding(s) of %d dimensions\n",
		count, engine.StoreRows(), engine.StoreDim())
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	engine, err := components.Controller.EnsureIndexed(context.Background())
	if err != nil {
		logger.Fatal("Failed to prepare index", zap.Error(err))
	}

	srv := server.NewServer(engine, components.Storage, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printAskUsage prints ask subcommand usage.
func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kotae ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "Question is all remaining arguments joined by spaces. Multi-word questions work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kotae ask when is the autumn festival
  kotae ask "when is the autumn festival"   # same as above
  kotae ask --top-k 5 opening hours
  kotae ask --output json access by train   # structured JSON for other apps
`)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askConfigPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func askConfigPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// askTopKDefaultFromConfig loads config at path and returns the default top-K.
// On load failure, returns 3.
func askTopKDefaultFromConfig(path string) int {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil || cfg.Ask.TopK <= 0 {
		return 3
	}
	return cfg.Ask.TopK
}

// askArgsReorder moves any flags (and their values) that appear after the question
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "kotae ask \"question\" -top-k 5"
// would otherwise leave -top-k unparsed.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])
	configPath := askConfigPathFromArgs(askArgs, defaultConfigPath)
	defaultTopK := askTopKDefaultFromConfig(configPath)

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = answer directly without a server)")
	topK := fs.Int("top-k", defaultTopK, "number of records to retrieve")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		printAskUsage(fs)
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	query := &models.AskQuery{Query: question, TopK: *topK}

	if *serverURL != "" {
		response, err := askViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAskResponse(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	engine, err := components.Controller.EnsureIndexed(context.Background())
	if err != nil {
		logger.Fatal("Failed to prepare index", zap.Error(err))
	}
	response, err := engine.Ask(context.Background(), query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAskResponse(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL string, query *models.AskQuery) (*models.AskResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	EmbeddingDimensions int    `json:"embedding_dimensions,omitempty"`
	DatabasePath        string `json:"database_path,omitempty"`
	VectorStorePath     string `json:"vector_store_path,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Records         int64                 `json:"records"`
	VectorStoreRows int                   `json:"vector_store_rows"`
	DiskUsageBytes  *int64                `json:"disk_usage_bytes,omitempty"`
	Config          *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "query a running server instead of reading storage directly")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		res, err := statusFromStorage(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("records:            %d   # count of indexed pages\n", status.Records)
		fmt.Printf("vector_store_rows:  %d   # count of stored embeddings\n", status.VectorStoreRows)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:   %d   # records database + vector store on disk\n", *status.DiskUsageBytes)
		}
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			if status.Config.EmbeddingDimensions > 0 {
				fmt.Printf("embedding_dims:     %d\n", status.Config.EmbeddingDimensions)
			}
			if status.Config.DatabasePath != "" {
				fmt.Printf("database_path:      %s\n", status.Config.DatabasePath)
			}
			if status.Config.VectorStorePath != "" {
				fmt.Printf("vector_store_path:  %s\n", status.Config.VectorStorePath)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// statusFromStorage reads the status directly from the configured files, so
// the command works without a running server.
func statusFromStorage(configPath string) (*statusResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	count, err := store.CountRecords(context.Background())
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	rows := 0
	if info, statErr := os.Stat(cfg.Storage.VectorStorePath); statErr == nil && cfg.Provider.Dimensions > 0 {
		rows = int(info.Size() / int64(cfg.Provider.Dimensions) / 4)
	}
	status := &statusResponse{
		Records:         count,
		VectorStoreRows: rows,
		Config: &statusConfigResponse{
			EmbeddingDimensions: cfg.Provider.Dimensions,
			DatabasePath:        cfg.Storage.DatabasePath,
			VectorStorePath:     cfg.Storage.VectorStorePath,
		},
	}
	diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.VectorStorePath)
	if err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage    storage.Storage
	Embedder   embedding.Embedder
	Generator  genai.Generator
	Controller *session.Controller
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if cfg.Provider.APIKey == "" {
		return nil, fmt.Errorf("provider api key required (set provider.api_key or OPENAI_API_KEY)")
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
	embedder := embedding.NewOpenAIEmbedder(cfg.Provider.APIKey, cfg.Provider.BaseURL,
		embedding.WithModel(cfg.Provider.EmbeddingModel),
		embedding.WithDimensions(cfg.Provider.Dimensions),
		embedding.WithTimeout(timeout),
		embedding.WithDelay(time.Duration(cfg.Provider.EmbedDelayMS)*time.Millisecond),
		embedding.WithCacheSize(cfg.Provider.CacheSize),
	)
	generator := genai.NewOpenAIGenerator(cfg.Provider.APIKey, cfg.Provider.BaseURL,
		genai.WithModel(cfg.Provider.ChatModel),
		genai.WithTemperature(cfg.Provider.Temperature),
		genai.WithTimeout(timeout),
	)

	client := &http.Client{Timeout: 30 * time.Second}
	producer, err := corpus.NewProducer(store, generator, client, &cfg.Corpus, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize corpus producer: %w", err)
	}

	synth := answer.NewSynthesizer(generator, cfg.Ask.SystemPrompt, cfg.Ask.FallbackAnswer, logger)
	controller := session.NewController(store, embedder, producer, synth, cfg, logger)

	return &Components{
		Storage:    store,
		Embedder:   embedder,
		Generator:  generator,
		Controller: controller,
	}, nil
}

func printUsage() {
	fmt.Println(`kotae - Question answering over a site's pages

Usage:
  kotae chat [flags]              Interactive question answering session
  kotae ask [flags] <question>    Answer a single question
  kotae build [flags]             Build the corpus and vector store
  kotae server [flags]            Start the HTTP server
  kotae status [flags]            Show corpus/storage status
  kotae version                   Show version
  kotae help                      Show this help

Chat/Server Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)
  --debug            Enable debug logging (page fetches, embedding calls, etc.)

Ask Flags:
  --config string    Config file path
  --server string    Server URL (empty = answer directly without a server)
  --top-k int        Number of records to retrieve (default from config, or 3)
  --output string    Output format: text or json (default: text)

Build Flags:
  --config string    Config file path
  --force            Discard existing records and vector store, rebuild from the sitemap

Status Flags:
  --config string    Config file path
  --server string    Server URL (empty = read storage directly)
  --output string    Output format: text or json (default: text)

Examples:
  kotae build
  kotae chat
  kotae ask when is the autumn festival
  kotae ask --top-k 5 --output json opening hours
  kotae server
  kotae status`)
}
