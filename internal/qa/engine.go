// Package qa wires retrieval and answer synthesis into the ask operation.
package qa

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// Engine answers questions over the indexed corpus: embed the query, rank
// every stored row by cosine similarity, fetch the matching records, and
// synthesize an answer grounded in their bodies.
type Engine struct {
	storage  storage.Storage
	embedder embedding.Embedder
	store    *vector.Store
	synth    *answer.Synthesizer
	logger   *zap.Logger
}

// NewEngine creates a question-answering engine over a loaded vector store.
func NewEngine(st storage.Storage, embedder embedding.Embedder, store *vector.Store, synth *answer.Synthesizer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		storage:  st,
		embedder: embedder,
		store:    store,
		synth:    synth,
		logger:   logger,
	}
}

// Ask answers the query. An embedding provider failure does not abort the
// request: the query degrades to a zero vector, retrieval returns rows in
// store order with zero scores, and the response is marked Degraded.
func (e *Engine) Ask(ctx context.Context, query *models.AskQuery) (*models.AskResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	queryVec, err := e.embedder.Embed(ctx, query.Query)
	degraded := false
	if err != nil {
		e.logger.Warn("query embedding failed, degrading to zero vector",
			zap.String("query", query.Query),
			zap.Error(err))
		queryVec = embedding.ZeroVector(e.store.Dim())
		degraded = true
	}

	hits, err := e.store.Search(queryVec, query.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	records := make([]*models.Record, 0, len(hits))
	sources := make([]*models.Source, 0, len(hits))
	for _, hit := range hits {
		rec, err := e.storage.GetRecord(ctx, hit.Index)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch record %d: %w", hit.Index, err)
		}
		records = append(records, rec)
		sources = append(sources, &models.Source{
			URL:   rec.URL,
			Title: rec.Title,
			Score: hit.Score,
		})
	}

	answerText, _ := e.synth.Synthesize(ctx, query.Query, records)

	resp := &models.AskResponse{
		Answer:    answerText,
		Sources:   sources,
		Query:     query.Query,
		QueryTime: time.Since(start).Milliseconds(),
		Degraded:  degraded,
	}
	e.logger.Info("query answered",
		zap.String("query", query.Query),
		zap.Int("sources", len(sources)),
		zap.Bool("degraded", degraded),
		zap.Int64("query_time_ms", resp.QueryTime))
	return resp, nil
}

// StoreRows returns the number of indexed embeddings.
func (e *Engine) StoreRows() int { return e.store.Rows() }

// StoreDim returns the embedding dimension of the index.
func (e *Engine) StoreDim() int { return e.store.Dim() }
