// Package session drives the interactive question-answering loop and the
// index lifecycle behind it.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/corpus"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/qa"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// Controller owns a question-answering session: it makes sure the corpus and
// vector store exist, then answers questions until the exit word.
type Controller struct {
	storage  storage.Storage
	embedder embedding.Embedder
	producer *corpus.Producer
	synth    *answer.Synthesizer
	cfg      *config.Config
	logger   *zap.Logger

	in  io.Reader
	out io.Writer

	engine *qa.Engine
}

// Option configures a Controller.
type Option func(*Controller)

// WithInput sets the reader questions are read from. Defaults to stdin.
func WithInput(r io.Reader) Option {
	return func(c *Controller) { c.in = r }
}

// WithOutput sets the writer answers are printed to. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Controller) { c.out = w }
}

// NewController creates a session controller.
func NewController(st storage.Storage, embedder embedding.Embedder, producer *corpus.Producer, synth *answer.Synthesizer, cfg *config.Config, logger *zap.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		storage:  st,
		embedder: embedder,
		producer: producer,
		synth:    synth,
		cfg:      cfg,
		logger:   logger,
		in:       os.Stdin,
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureIndexed brings the corpus and vector store into a queryable state and
// returns the engine over them. An empty records table triggers a corpus
// build; a missing store file triggers an embedding build and save; an
// existing store is loaded and validated against the records table. A corrupt
// store is fatal here, never silently rebuilt.
func (c *Controller) EnsureIndexed(ctx context.Context) (*qa.Engine, error) {
	if c.engine != nil {
		return c.engine, nil
	}

	count, err := c.storage.CountRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	if count == 0 {
		c.logger.Info("records table empty, producing corpus")
		if _, err := c.producer.Run(ctx); err != nil {
			return nil, fmt.Errorf("failed to produce corpus: %w", err)
		}
		if count, err = c.storage.CountRecords(ctx); err != nil {
			return nil, fmt.Errorf("failed to count records: %w", err)
		}
	}

	storePath := c.cfg.Storage.VectorStorePath
	var store *vector.Store
	if !vector.Exists(storePath) {
		c.logger.Info("vector store missing, embedding corpus",
			zap.Int64("records", count))
		records, err := c.storage.ListRecords(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}
		bodies := make([]string, len(records))
		for i, rec := range records {
			bodies[i] = rec.Body
		}
		store, err = vector.Build(ctx, bodies, c.embedder, vector.WithLogger(c.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to build vector store: %w", err)
		}
		if err := store.Save(storePath); err != nil {
			return nil, err
		}
	} else {
		store, err = vector.Load(storePath, int(count), c.embedder.Dimensions())
		if err != nil {
			return nil, err
		}
		c.logger.Info("vector store loaded",
			zap.String("path", storePath),
			zap.Int("rows", store.Rows()))
	}

	c.engine = qa.NewEngine(c.storage, c.embedder, store, c.synth, c.logger)
	return c.engine, nil
}

// Run answers questions read line by line until EOF or the exit word. Blank
// lines are skipped; a failed question is reported and the loop continues.
func (c *Controller) Run(ctx context.Context) error {
	engine, err := c.EnsureIndexed(ctx)
	if err != nil {
		return err
	}

	sessionID := uuid.New().String()
	c.logger.Info("session started", zap.String("session_id", sessionID))

	fmt.Fprintf(c.out, "Ask a question (%q to quit)\n", c.cfg.Ask.ExitWord)
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, c.cfg.Ask.ExitWord) {
			break
		}

		resp, err := engine.Ask(ctx, &models.AskQuery{Query: line, TopK: c.cfg.Ask.TopK})
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			c.logger.Warn("question failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
			continue
		}
		c.printResponse(resp)
	}

	c.logger.Info("session ended", zap.String("session_id", sessionID))
	return scanner.Err()
}

func (c *Controller) printResponse(resp *models.AskResponse) {
	fmt.Fprintf(c.out, "\n=== Answer ===\n%s\n\n=== Sources ===\n", resp.Answer)
	for _, url := range resp.SourceURLs() {
		fmt.Fprintf(c.out, "- %s\n", url)
	}
	fmt.Fprintln(c.out)
}
